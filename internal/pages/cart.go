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

// Cart is the cart table and its order button.
type Cart struct {
	surface
	loc layout.Cart
}

// NewCart binds the cart surface to s.
func NewCart(s session.Session, l *layout.Layout, w *wait.Engine, logger *slog.Logger) *Cart {
	return &Cart{surface: newSurface(s, w, logger), loc: l.Cart}
}

// ListLines reads the cart rows as (name, price) pairs.
//
// With expectNonEmpty, a cart that never shows a row is EmptyCart. Without
// it, an absent table reads as zero lines.
func (p *Cart) ListLines(ctx context.Context, expectNonEmpty bool) ([]CartLine, error) {
	if !expectNonEmpty {
		return p.snapshot(ctx)
	}

	var out []CartLine
	err := retryStale(func() error {
		nameRefs, err := p.allVisible(ctx, p.loc.Names, "The elements Product names in the cart were not found in "+humanize(p.waits.Timeout)+"!")
		if failure.Is(err, failure.SynchronizationTimeout) {
			rows, countErr := p.rowCount(ctx)
			if countErr == nil && rows == 0 {
				return failure.Empty("the cart is empty")
			}
		}
		if err != nil {
			return err
		}
		priceRefs, err := p.allVisible(ctx, p.loc.Prices, "The elements Product prices in the cart were not found in "+humanize(p.waits.Timeout)+"!")
		if err != nil {
			return err
		}
		out, err = p.lines(ctx, nameRefs, priceRefs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Cart) snapshot(ctx context.Context) ([]CartLine, error) {
	nameRefs, err := p.sess.FindAll(ctx, p.loc.Names)
	if err != nil {
		return nil, fmt.Errorf("list cart names: %w", err)
	}
	priceRefs, err := p.sess.FindAll(ctx, p.loc.Prices)
	if err != nil {
		return nil, fmt.Errorf("list cart prices: %w", err)
	}
	return p.lines(ctx, nameRefs, priceRefs)
}

func (p *Cart) lines(ctx context.Context, nameRefs, priceRefs []session.ElementRef) ([]CartLine, error) {
	if len(nameRefs) != len(priceRefs) {
		return nil, failure.Violation("cart price cells", fmt.Sprintf("%d", len(nameRefs)), fmt.Sprintf("%d", len(priceRefs)))
	}
	names, err := texts(ctx, nameRefs)
	if err != nil {
		return nil, fmt.Errorf("read cart names: %w", err)
	}
	prices, err := texts(ctx, priceRefs)
	if err != nil {
		return nil, fmt.Errorf("read cart prices: %w", err)
	}

	out := make([]CartLine, len(names))
	for i := range names {
		price, err := ParseMinorUnits(prices[i])
		if err != nil {
			return nil, err
		}
		out[i] = CartLine{Name: names[i], Price: price}
	}
	return out, nil
}

// ReadDisplayedTotal reads the cart total.
func (p *Cart) ReadDisplayedTotal(ctx context.Context) (int, error) {
	text, err := p.read(ctx, p.loc.Total, "Total price")
	if err != nil {
		return 0, err
	}
	return ParseMinorUnits(text)
}

// PlaceOrder opens the order form.
func (p *Cart) PlaceOrder(ctx context.Context) error {
	return p.click(ctx, p.loc.PlaceOrder, "Place Order button")
}

// DeleteAllLines deletes rows one at a time until the table is empty.
//
// The delete controls are first awaited, since the rows render after the
// page opens; a cart that shows none within the budget and has no rows is
// already empty. Each iteration then re-resolves the controls, clicks the
// first and waits for that control to go stale before the next. The loop
// runs at most as many times as there were rows at the start; rows left
// after that are CartNotEmptied.
func (p *Cart) DeleteAllLines(ctx context.Context) error {
	initial, err := p.allVisible(ctx, p.loc.Delete, "The elements Delete buttons were not found in "+humanize(p.waits.Timeout)+"!")
	if failure.Is(err, failure.SynchronizationTimeout) {
		rows, countErr := p.rowCount(ctx)
		if countErr != nil {
			return countErr
		}
		if rows != 0 {
			return err
		}
		return nil
	}
	if err != nil {
		return err
	}

	for n := 0; n < len(initial); n++ {
		var ref session.ElementRef
		err := retryStale(func() error {
			controls, err := p.sess.FindAll(ctx, p.loc.Delete)
			if err != nil {
				return fmt.Errorf("list delete controls: %w", err)
			}
			if len(controls) == 0 {
				ref = nil
				return nil
			}
			ref, err = wait.Await(ctx, p.waits, p.sess, wait.RefClickable(controls[0]), 0, p.notFound("Delete button"))
			if err != nil {
				return err
			}
			if err := ref.Click(ctx); err != nil {
				return fmt.Errorf("click delete: %w", err)
			}
			return nil
		})
		if err != nil {
			return err
		}
		if ref == nil {
			break
		}
		if _, err := wait.Await(ctx, p.waits, p.sess, wait.ElementStale(ref), 0, "The Delete button did not disappear in "+humanize(p.waits.Timeout)+"!"); err != nil {
			return err
		}
		p.logger.DebugContext(ctx, "deleted cart line", "iteration", n+1, "of", len(initial))
	}

	remaining, err := p.rowCount(ctx)
	if err != nil {
		return err
	}
	if remaining != 0 {
		return failure.NotEmptied(remaining)
	}
	return nil
}

// rowCount counts the rows inside the row container. An absent container
// counts as zero rows.
func (p *Cart) rowCount(ctx context.Context) (int, error) {
	container, err := p.sess.FindOne(ctx, p.loc.Rows)
	if err != nil {
		if isMissing(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("find cart rows: %w", err)
	}
	rows, err := container.FindAll(ctx, p.loc.Row)
	if err != nil {
		return 0, fmt.Errorf("count cart rows: %w", err)
	}
	return len(rows), nil
}
