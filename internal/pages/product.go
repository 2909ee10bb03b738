package pages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/layout"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/wait"
)

// ProductDetail is the single product page.
type ProductDetail struct {
	surface
	loc  layout.Product
	home layout.Catalog
}

// NewProductDetail binds the product surface to s.
func NewProductDetail(s session.Session, l *layout.Layout, w *wait.Engine, logger *slog.Logger) *ProductDetail {
	return &ProductDetail{surface: newSurface(s, w, logger), loc: l.Product, home: l.Catalog}
}

// ReadPrice reads the displayed price as an integer.
func (p *ProductDetail) ReadPrice(ctx context.Context) (int, error) {
	text, err := p.read(ctx, p.loc.Price, "Product price")
	if err != nil {
		return 0, err
	}
	return ParseMinorUnits(text)
}

// AddToCart clicks "Add to cart" and dismisses the confirmation alert. A
// missing alert is logged and tolerated; the cart check catches a lost add.
func (p *ProductDetail) AddToCart(ctx context.Context) error {
	if err := p.click(ctx, p.loc.Add, "Add to cart button"); err != nil {
		return err
	}

	_, err := wait.Await(ctx, p.waits, p.sess, wait.AlertPresent(), 0, "The alert was not found in "+humanize(p.waits.Timeout)+"!")
	switch {
	case failure.Is(err, failure.SynchronizationTimeout):
		p.logger.WarnContext(ctx, "add to cart alert not shown", "error", err)
		return nil
	case err != nil:
		return err
	}

	if _, err := p.sess.DismissAlertIfPresent(ctx); err != nil {
		return fmt.Errorf("dismiss add to cart alert: %w", err)
	}
	return nil
}

// ReturnToHome clicks the navbar home link.
func (p *ProductDetail) ReturnToHome(ctx context.Context) error {
	return p.click(ctx, p.home.Home, "Home link")
}

// GoToCart clicks the navbar cart link.
func (p *ProductDetail) GoToCart(ctx context.Context) error {
	return p.click(ctx, p.loc.Cart, "Cart link")
}
