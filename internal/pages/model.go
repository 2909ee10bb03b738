package pages

import (
	"fmt"
	"strconv"
	"strings"
)

// Product is a catalog entry as observed while adding it to the cart.
type Product struct {
	Name     string
	Price    int
	Position int
}

// CartLine is one row of the cart table.
type CartLine struct {
	Name  string
	Price int
}

// Buyer holds the order form values. No client-side validation is applied.
type Buyer struct {
	Name    string `yaml:"name" json:"name"`
	Country string `yaml:"country" json:"country"`
	City    string `yaml:"city" json:"city"`
	Card    string `yaml:"card" json:"card"`
	Month   string `yaml:"month" json:"month"`
	Year    string `yaml:"year" json:"year"`
}

// Order is the outcome of a completed purchase.
type Order struct {
	TotalDisplayed int
	ConfirmationID string
	BuyerName      string
	CardNumber     string
	Confirmation   string
}

// ParseMinorUnits keeps only the decimal digits of text, so "$360 *includes
// tax" reads as 360. Text without digits is an error.
func ParseMinorUnits(text string) (int, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, text)
	if digits == "" {
		return 0, fmt.Errorf("no digits in price text %q", text)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("price text %q: %w", text, err)
	}
	return n, nil
}

// OrderFromConfirmation reads the confirmation panel text into an Order.
// TotalDisplayed is the "Amount:" line, 0 when it is missing or has no digits.
func OrderFromConfirmation(text string) Order {
	total, err := ParseMinorUnits(confirmationField(text, "Amount"))
	if err != nil {
		total = 0
	}
	return Order{
		TotalDisplayed: total,
		ConfirmationID: confirmationField(text, "Id"),
		BuyerName:      confirmationField(text, "Name"),
		CardNumber:     confirmationField(text, "Card Number"),
		Confirmation:   text,
	}
}

// confirmationField extracts the value after "key:" on its own line.
func confirmationField(text, key string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, key+":"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
