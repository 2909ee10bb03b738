package scenario

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/storecheck/internal/pages"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/wait"
)

// DefaultBaseURL is the public demoblaze storefront.
const DefaultBaseURL = "https://www.demoblaze.com/index.html"

// Config holds the settings shared by every execution of a Runner.
type Config struct {
	// Timeout is the per-wait budget.
	Timeout time.Duration

	// Poll is the wait polling interval.
	Poll time.Duration

	// Browser is used when an entry point is called with an empty browser.
	Browser session.Kind

	// BaseURL overrides the layout's storefront URL when set.
	BaseURL string

	// EmptyCartWait bounds the wait that concludes a cart is empty. It is
	// capped by Timeout.
	EmptyCartWait time.Duration
}

// DefaultEmptyCartWait is the default EmptyCartWait.
const DefaultEmptyCartWait = 2 * time.Second

// DefaultConfig returns a 10s wait budget, 100ms polling, a 2s empty-cart
// wait and chrome.
func DefaultConfig() Config {
	return Config{
		Timeout:       wait.DefaultTimeout,
		Poll:          wait.DefaultInterval,
		Browser:       session.DefaultKind,
		EmptyCartWait: DefaultEmptyCartWait,
	}
}

// Params are the inputs of one scenario execution.
type Params struct {
	Username  string
	Password  string
	Positions []int
	Buyer     pages.Buyer
}

// DefaultParams returns the demoblaze test account and buyer.
func DefaultParams() Params {
	return Params{
		Username: "jakubszczypek",
		Password: "1234",
		Buyer: pages.Buyer{
			Name:    "Jakub",
			Country: "Poland",
			City:    "Cracow",
			Card:    "411111111111",
			Month:   "December",
			Year:    "2025",
		},
	}
}

// withDefaults fills empty fields of p from DefaultParams.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.Username == "" {
		p.Username = d.Username
	}
	if p.Password == "" {
		p.Password = d.Password
	}
	if p.Buyer == (pages.Buyer{}) {
		p.Buyer = d.Buyer
	}
	return p
}

// IDGenerator produces run IDs.
type IDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 run IDs.
type UUIDv7Generator struct{}

// Generate returns a new hyphenated UUIDv7.
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}
