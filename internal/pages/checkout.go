package pages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/storecheck/internal/layout"
	"github.com/roach88/storecheck/internal/locator"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/wait"
)

// Checkout is the order modal and the purchase confirmation.
type Checkout struct {
	surface
	loc layout.Checkout
}

// NewCheckout binds the checkout surface to s.
func NewCheckout(s session.Session, l *layout.Layout, w *wait.Engine, logger *slog.Logger) *Checkout {
	return &Checkout{surface: newSurface(s, w, logger), loc: l.Checkout}
}

// FillDetails waits for each order field in turn and fills it.
func (p *Checkout) FillDetails(ctx context.Context, b Buyer) error {
	fields := []struct {
		loc   locator.Locator
		what  string
		value string
	}{
		{p.loc.Name, "Name field", b.Name},
		{p.loc.Country, "Country field", b.Country},
		{p.loc.City, "City field", b.City},
		{p.loc.Card, "Card field", b.Card},
		{p.loc.Month, "Month field", b.Month},
		{p.loc.Year, "Year field", b.Year},
	}
	for _, f := range fields {
		if err := p.fill(ctx, f.loc, f.what, f.value); err != nil {
			return err
		}
	}
	return nil
}

// SubmitPurchase clicks Purchase once it is clickable.
func (p *Checkout) SubmitPurchase(ctx context.Context) error {
	return p.click(ctx, p.loc.Purchase, "Purchase button")
}

// ReadConfirmation returns the confirmation panel text, one "Key: value"
// per line.
func (p *Checkout) ReadConfirmation(ctx context.Context) (string, error) {
	return p.read(ctx, p.loc.Details, "Purchase details")
}

// Confirm dismisses the confirmation panel.
func (p *Checkout) Confirm(ctx context.Context) error {
	if err := p.click(ctx, p.loc.Confirm, "OK button"); err != nil {
		return fmt.Errorf("confirm purchase: %w", err)
	}
	return nil
}
