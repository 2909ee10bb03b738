// Package demostore is an in-process simulation of the demoblaze storefront.
//
// It serves demoblaze-compatible markup so the default selector layout works
// unmodified, and it applies every action asynchronously after a configurable
// latency, which is the timing gap the wait engine has to bridge. Each
// acquired session is an independent store with its own cart and DOM.
package demostore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/session"
)

// Faults perturb the storefront so consistency checks can be exercised.
type Faults struct {
	// SkipAddAlert suppresses the "Product added." alert.
	SkipAddAlert bool

	// CartPriceSkew is added to every price shown in the cart table.
	CartPriceSkew int

	// AmountSkew is added to the amount on the purchase confirmation.
	AmountSkew int

	// StickyDelete makes delete re-render the cart without removing the row.
	StickyDelete bool
}

// Options configures every store a Provider creates.
type Options struct {
	// Latency delays the effect of navigation and clicks.
	Latency time.Duration

	// Accounts restricts login to these username/password pairs.
	// Nil accepts any credentials.
	Accounts map[string]string

	// Catalog replaces DefaultCatalog when non-empty.
	Catalog []Product

	Faults Faults

	// Now stamps purchase confirmations. Defaults to time.Now.
	Now func() time.Time
}

// Provider hands out isolated simulated stores. It implements session.Provider.
type Provider struct {
	opts Options

	mu     sync.Mutex
	seq    int
	stores []*Store
}

// NewProvider creates a Provider.
func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts}
}

// Acquire implements session.Provider.
func (p *Provider) Acquire(ctx context.Context, kind session.Kind) (session.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !supported(kind) {
		return nil, failure.Unsupported(string(kind))
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.seq++
	s := newStore(fmt.Sprintf("sim-%s-%d", kind, p.seq), kind, p.opts)
	p.stores = append(p.stores, s)
	return s, nil
}

// Release implements session.Provider. Releasing twice is an error.
func (p *Provider) Release(_ context.Context, s session.Session) error {
	st, ok := s.(*Store)
	if !ok {
		return fmt.Errorf("release: %T is not a demostore session", s)
	}
	if st.Released() {
		return fmt.Errorf("release %s: %w", st.ID(), session.ErrReleased)
	}
	st.release()
	return nil
}

// Stores lists every store acquired so far, in acquisition order.
func (p *Provider) Stores() []*Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*Store(nil), p.stores...)
}

// Live counts acquired stores that have not been released.
func (p *Provider) Live() int {
	n := 0
	for _, s := range p.Stores() {
		if !s.Released() {
			n++
		}
	}
	return n
}

func supported(kind session.Kind) bool {
	for _, k := range session.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}
