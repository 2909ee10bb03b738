// Package layout loads the selector layout of the storefront UI.
//
// The layout is a CUE document unified with an embedded schema, so a typo in
// a strategy, a missing selector, or an unknown field is rejected with a
// source position before any browser is launched.
package layout

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/storecheck/internal/locator"
)

//go:embed schema.cue
var schemaSrc []byte

//go:embed demoblaze.cue
var defaultSrc []byte

// DefaultName is the file name reported in positions for the embedded layout.
const DefaultName = "demoblaze.cue"

// Layout is the complete selector contract.
type Layout struct {
	Version  int      `json:"version"`
	BaseURL  string   `json:"base_url"`
	Login    Login    `json:"login"`
	Catalog  Catalog  `json:"catalog"`
	Product  Product  `json:"product"`
	Cart     Cart     `json:"cart"`
	Checkout Checkout `json:"checkout"`
}

// Login holds the login modal and navbar banner locators.
type Login struct {
	Open     locator.Locator `json:"open"`
	Username locator.Locator `json:"username"`
	Password locator.Locator `json:"password"`
	Submit   locator.Locator `json:"submit"`
	Welcome  locator.Locator `json:"welcome"`
	Logout   locator.Locator `json:"logout"`
}

// Catalog holds the home page locators.
type Catalog struct {
	Products locator.Locator `json:"products"`
	Home     locator.Locator `json:"home"`
	Cart     locator.Locator `json:"cart"`
}

// Product holds the product detail locators.
type Product struct {
	Price locator.Locator `json:"price"`
	Add   locator.Locator `json:"add"`
	Cart  locator.Locator `json:"cart"`
}

// Cart holds the cart page locators. Row is evaluated relative to Rows.
type Cart struct {
	Names      locator.Locator `json:"names"`
	Prices     locator.Locator `json:"prices"`
	PlaceOrder locator.Locator `json:"place_order"`
	Total      locator.Locator `json:"total"`
	Delete     locator.Locator `json:"delete"`
	Rows       locator.Locator `json:"rows"`
	Row        locator.Locator `json:"row"`
}

// Checkout holds the order modal and confirmation locators.
type Checkout struct {
	Name     locator.Locator `json:"name"`
	Country  locator.Locator `json:"country"`
	City     locator.Locator `json:"city"`
	Card     locator.Locator `json:"card"`
	Month    locator.Locator `json:"month"`
	Year     locator.Locator `json:"year"`
	Purchase locator.Locator `json:"purchase"`
	Details  locator.Locator `json:"details"`
	Confirm  locator.Locator `json:"confirm"`
}

// Error is a layout compilation error with its CUE source position.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Default returns the embedded demoblaze layout.
func Default() (*Layout, error) {
	return Compile(defaultSrc, DefaultName)
}

// MustDefault is Default for tests and package initialization.
func MustDefault() *Layout {
	l, err := Default()
	if err != nil {
		panic(err)
	}
	return l
}

// LoadFile compiles the layout stored at path.
func LoadFile(path string) (*Layout, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}
	return Compile(src, path)
}

// Compile unifies src with the layout schema and decodes the concrete result.
// name is used as the file name in error positions.
func Compile(src []byte, name string) (*Layout, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v := ctx.CompileBytes(src, cue.Filename(name))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	v = schema.LookupPath(cue.ParsePath("#Layout")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var l Layout
	if err := v.Decode(&l); err != nil {
		return nil, formatCUEError(err)
	}

	for _, entry := range l.Entries() {
		if err := entry.Locator.Validate(); err != nil {
			return nil, &Error{Field: entry.Path, Message: err.Error(), Pos: v.Pos()}
		}
	}
	return &l, nil
}

// WithBaseURL returns a copy of l pointing at a different storefront.
func (l *Layout) WithBaseURL(url string) *Layout {
	c := *l
	c.BaseURL = url
	return &c
}

// Entry is one named locator, e.g. "cart.place_order".
type Entry struct {
	Path    string
	Locator locator.Locator
}

// Entries lists every locator in the layout, sorted by path.
func (l *Layout) Entries() []Entry {
	m := map[string]locator.Locator{
		"login.open":     l.Login.Open,
		"login.username": l.Login.Username,
		"login.password": l.Login.Password,
		"login.submit":   l.Login.Submit,
		"login.welcome":  l.Login.Welcome,
		"login.logout":   l.Login.Logout,

		"catalog.products": l.Catalog.Products,
		"catalog.home":     l.Catalog.Home,
		"catalog.cart":     l.Catalog.Cart,

		"product.price": l.Product.Price,
		"product.add":   l.Product.Add,
		"product.cart":  l.Product.Cart,

		"cart.names":       l.Cart.Names,
		"cart.prices":      l.Cart.Prices,
		"cart.place_order": l.Cart.PlaceOrder,
		"cart.total":       l.Cart.Total,
		"cart.delete":      l.Cart.Delete,
		"cart.rows":        l.Cart.Rows,
		"cart.row":         l.Cart.Row,

		"checkout.name":     l.Checkout.Name,
		"checkout.country":  l.Checkout.Country,
		"checkout.city":     l.Checkout.City,
		"checkout.card":     l.Checkout.Card,
		"checkout.month":    l.Checkout.Month,
		"checkout.year":     l.Checkout.Year,
		"checkout.purchase": l.Checkout.Purchase,
		"checkout.details":  l.Checkout.Details,
		"checkout.confirm":  l.Checkout.Confirm,
	}
	entries := make([]Entry, 0, len(m))
	for path, loc := range m {
		entries = append(entries, Entry{Path: path, Locator: loc})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

// formatCUEError keeps the first CUE error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	field := "cue"
	if path := first.Path(); len(path) > 0 {
		field = strings.Join(path, ".")
	}
	e := &Error{Field: field, Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
