// Package verify holds the cross-page consistency predicates.
//
// Every function is pure: it compares values already read from the UI and
// never touches a session. The Check variants turn a false predicate into a
// ConsistencyViolation naming the values that disagree.
package verify

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/storecheck/internal/failure"
)

// NamesMatch reports whether two name sequences hold the same multiset of
// names. Names are NFC-normalized and trimmed before comparison.
func NamesMatch(selected, displayed []string) bool {
	return slices.Equal(sortedNames(selected), sortedNames(displayed))
}

// PricesMatch reports whether two price sequences hold the same multiset.
func PricesMatch(selected, displayed []int) bool {
	return slices.Equal(sortedInts(selected), sortedInts(displayed))
}

// TotalMatches reports whether the line prices sum to total.
func TotalMatches(lines []int, total int) bool {
	return sum(lines) == total
}

// ConfirmationMatches reports whether the confirmation text carries an Id
// and the expected amount, card number and buyer name.
func ConfirmationMatches(text string, total int, card, name string) bool {
	return len(missingConfirmation(text, total, card, name)) == 0
}

// CheckNames is NamesMatch as an error.
func CheckNames(selected, displayed []string) error {
	if NamesMatch(selected, displayed) {
		return nil
	}
	return failure.Violation("names match",
		fmt.Sprintf("%q", sortedNames(selected)),
		fmt.Sprintf("%q", sortedNames(displayed)))
}

// CheckPrices is PricesMatch as an error.
func CheckPrices(selected, displayed []int) error {
	if PricesMatch(selected, displayed) {
		return nil
	}
	return failure.Violation("prices match",
		fmt.Sprint(sortedInts(selected)),
		fmt.Sprint(sortedInts(displayed)))
}

// CheckTotal is TotalMatches as an error.
func CheckTotal(lines []int, total int) error {
	if TotalMatches(lines, total) {
		return nil
	}
	return failure.Violation("total matches", strconv.Itoa(sum(lines)), strconv.Itoa(total))
}

// CheckConfirmation is ConfirmationMatches as an error listing every
// missing fragment.
func CheckConfirmation(text string, total int, card, name string) error {
	missing := missingConfirmation(text, total, card, name)
	if len(missing) == 0 {
		return nil
	}
	quoted := make([]string, len(missing))
	for i, m := range missing {
		quoted[i] = strconv.Quote(m)
	}
	return failure.Violation("confirmation matches",
		"confirmation containing "+strings.Join(quoted, ", "),
		strconv.Quote(text))
}

func missingConfirmation(text string, total int, card, name string) []string {
	text = norm.NFC.String(text)
	want := []string{
		"Id:",
		fmt.Sprintf("Amount: %d", total),
		"Card Number: " + norm.NFC.String(card),
		"Name: " + norm.NFC.String(name),
	}
	var missing []string
	for _, w := range want {
		if !strings.Contains(text, w) {
			missing = append(missing, w)
		}
	}
	return missing
}

func sortedNames(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = strings.TrimSpace(norm.NFC.String(n))
	}
	slices.Sort(out)
	return out
}

func sortedInts(v []int) []int {
	out := slices.Clone(v)
	slices.Sort(out)
	return out
}

func sum(v []int) int {
	total := 0
	for _, n := range v {
		total += n
	}
	return total
}
