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

// Catalog is the home page product grid.
type Catalog struct {
	surface
	loc layout.Catalog
}

// NewCatalog binds the catalog surface to s.
func NewCatalog(s session.Session, l *layout.Layout, w *wait.Engine, logger *slog.Logger) *Catalog {
	return &Catalog{surface: newSurface(s, w, logger), loc: l.Catalog}
}

// ListProductNames waits for the product links and reads their texts in
// display order. The returned slice is a snapshot; call again to refresh.
func (p *Catalog) ListProductNames(ctx context.Context) ([]string, error) {
	var names []string
	err := retryStale(func() error {
		refs, err := p.allVisible(ctx, p.loc.Products, p.listMissing())
		if err != nil {
			return err
		}
		names, err = texts(ctx, refs)
		return err
	})
	return names, err
}

// SelectByPosition opens the product at zero-based position i. The product
// collection is re-fetched first so no earlier handle is reused.
func (p *Catalog) SelectByPosition(ctx context.Context, i int) error {
	return retryStale(func() error {
		refs, err := p.allVisible(ctx, p.loc.Products, p.listMissing())
		if err != nil {
			return err
		}
		if i < 0 || i >= len(refs) {
			return failure.OutOfRange(i, len(refs))
		}

		ref, err := wait.Await(ctx, p.waits, p.sess, wait.RefClickable(refs[i]), 0, "Product is not visible in the list!")
		if err != nil {
			return err
		}
		p.logger.DebugContext(ctx, "selecting product", "position", i)
		if err := ref.Click(ctx); err != nil {
			return fmt.Errorf("click product %d: %w", i, err)
		}
		return nil
	})
}

func (p *Catalog) listMissing() string {
	return "The elements Product list were not found in " + humanize(p.waits.Timeout) + "!"
}

// GoToCart clicks the navbar cart link.
func (p *Catalog) GoToCart(ctx context.Context) error {
	return p.click(ctx, p.loc.Cart, "Cart link")
}

// GoHome clicks the navbar home link.
func (p *Catalog) GoHome(ctx context.Context) error {
	return p.click(ctx, p.loc.Home, "Home link")
}
