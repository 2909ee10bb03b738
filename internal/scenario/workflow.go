package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/layout"
	"github.com/roach88/storecheck/internal/pages"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/verify"
	"github.com/roach88/storecheck/internal/wait"
)

const tracerName = "github.com/roach88/storecheck/internal/scenario"

// Step statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Step is one entry of an execution trace.
type Step struct {
	Seq    int    `json:"seq"`
	Action string `json:"action"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// Workflow threads one session through the page surfaces for a single
// scenario execution. It is not safe for concurrent use; one execution owns
// exactly one Workflow.
type Workflow struct {
	sess   session.Session
	layout *layout.Layout
	waits  *wait.Engine
	logger *slog.Logger
	tracer trace.Tracer
	steps  []Step

	emptyWait time.Duration
}

// NewWorkflow creates a Workflow over s.
func NewWorkflow(s session.Session, l *layout.Layout, w *wait.Engine, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		sess:   s,
		layout: l,
		waits:  w,
		logger: logger,
		tracer: otel.Tracer(tracerName),

		emptyWait: DefaultEmptyCartWait,
	}
}

// SetEmptyCartWait bounds the wait ExpectEmptyCart spends before it
// concludes the cart is empty. Non-positive values are ignored.
func (w *Workflow) SetEmptyCartWait(d time.Duration) {
	if d > 0 {
		w.emptyWait = d
	}
}

// Steps returns a copy of the trace recorded so far.
func (w *Workflow) Steps() []Step {
	return append([]Step(nil), w.steps...)
}

// step runs fn as a traced action. fn returns a short detail for the trace.
func (w *Workflow) step(ctx context.Context, action string, fn func(ctx context.Context) (string, error)) error {
	ctx, span := w.tracer.Start(ctx, action, trace.WithAttributes(
		attribute.String("storecheck.session", w.sess.ID()),
	))
	defer span.End()

	detail, err := fn(ctx)
	s := Step{Seq: len(w.steps) + 1, Action: action, Status: StatusOK, Detail: detail}
	if err != nil {
		s.Status = StatusFailed
		s.Detail = err.Error()
		span.RecordError(err)
		span.SetStatus(codes.Error, string(failure.CodeOf(err)))
		w.logger.DebugContext(ctx, "step failed", "seq", s.Seq, "action", action, "error", err)
	} else {
		w.logger.DebugContext(ctx, "step", "seq", s.Seq, "action", action, "detail", detail)
	}
	w.steps = append(w.steps, s)
	return err
}

func (w *Workflow) login() *pages.Login {
	return pages.NewLogin(w.sess, w.layout, w.waits, w.logger)
}

func (w *Workflow) catalog() *pages.Catalog {
	return pages.NewCatalog(w.sess, w.layout, w.waits, w.logger)
}

func (w *Workflow) product() *pages.ProductDetail {
	return pages.NewProductDetail(w.sess, w.layout, w.waits, w.logger)
}

func (w *Workflow) cart() *pages.Cart {
	return pages.NewCart(w.sess, w.layout, w.waits, w.logger)
}

func (w *Workflow) checkout() *pages.Checkout {
	return pages.NewCheckout(w.sess, w.layout, w.waits, w.logger)
}

// Authenticate logs in and requires the banner to read "Welcome <user>".
func (w *Workflow) Authenticate(ctx context.Context, user, pass string) error {
	login := w.login()
	if err := w.step(ctx, "open_store", func(ctx context.Context) (string, error) {
		return "", login.Open(ctx)
	}); err != nil {
		return err
	}
	if err := w.step(ctx, "open_login_form", func(ctx context.Context) (string, error) {
		return "", login.OpenLoginForm(ctx)
	}); err != nil {
		return err
	}
	if err := w.step(ctx, "submit_credentials", func(ctx context.Context) (string, error) {
		return "user=" + user, login.Submit(ctx, user, pass)
	}); err != nil {
		return err
	}
	return w.step(ctx, "verify_welcome_banner", func(ctx context.Context) (string, error) {
		banner, err := login.ReadWelcomeBanner(ctx)
		if err != nil {
			return "", err
		}
		if want := "Welcome " + user; banner != want {
			return "", failure.Violation("welcome banner", fmt.Sprintf("%q", want), fmt.Sprintf("%q", banner))
		}
		return banner, nil
	})
}

// AddProductToCart adds the catalog product at position and returns to the
// home page.
func (w *Workflow) AddProductToCart(ctx context.Context, position int) (pages.Product, error) {
	p, product, err := w.addProduct(ctx, position)
	if err != nil {
		return pages.Product{}, err
	}
	if err := w.step(ctx, "return_home", func(ctx context.Context) (string, error) {
		return "", product.ReturnToHome(ctx)
	}); err != nil {
		return pages.Product{}, err
	}
	return p, nil
}

// AddProductAndOpenCart adds the catalog product at position and goes to
// the cart straight from the product page.
func (w *Workflow) AddProductAndOpenCart(ctx context.Context, position int) (pages.Product, error) {
	p, product, err := w.addProduct(ctx, position)
	if err != nil {
		return pages.Product{}, err
	}
	if err := w.step(ctx, "open_cart", func(ctx context.Context) (string, error) {
		return "", product.GoToCart(ctx)
	}); err != nil {
		return pages.Product{}, err
	}
	return p, nil
}

func (w *Workflow) addProduct(ctx context.Context, position int) (pages.Product, *pages.ProductDetail, error) {
	p := pages.Product{Position: position}

	catalog := w.catalog()
	if err := w.step(ctx, "select_product", func(ctx context.Context) (string, error) {
		names, err := catalog.ListProductNames(ctx)
		if err != nil {
			return "", err
		}
		if position < 0 || position >= len(names) {
			return "", failure.OutOfRange(position, len(names))
		}
		p.Name = names[position]
		return fmt.Sprintf("position=%d name=%s", position, p.Name), catalog.SelectByPosition(ctx, position)
	}); err != nil {
		return pages.Product{}, nil, err
	}

	product := w.product()
	if err := w.step(ctx, "read_price", func(ctx context.Context) (string, error) {
		price, err := product.ReadPrice(ctx)
		p.Price = price
		return fmt.Sprintf("price=%d", price), err
	}); err != nil {
		return pages.Product{}, nil, err
	}
	if err := w.step(ctx, "add_to_cart", func(ctx context.Context) (string, error) {
		return p.Name, product.AddToCart(ctx)
	}); err != nil {
		return pages.Product{}, nil, err
	}
	return p, product, nil
}

// AddProductsToCart adds each position in order.
func (w *Workflow) AddProductsToCart(ctx context.Context, positions []int) ([]pages.Product, error) {
	products := make([]pages.Product, 0, len(positions))
	for _, pos := range positions {
		p, err := w.AddProductToCart(ctx, pos)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

// VerifyCart opens the cart and checks its lines and total against the
// products added.
func (w *Workflow) VerifyCart(ctx context.Context, products []pages.Product) ([]pages.CartLine, int, error) {
	if err := w.step(ctx, "open_cart", func(ctx context.Context) (string, error) {
		return "", w.catalog().GoToCart(ctx)
	}); err != nil {
		return nil, 0, err
	}

	cart := w.cart()
	var lines []pages.CartLine
	if err := w.step(ctx, "list_cart_lines", func(ctx context.Context) (string, error) {
		var err error
		lines, err = cart.ListLines(ctx, true)
		return fmt.Sprintf("lines=%d", len(lines)), err
	}); err != nil {
		return nil, 0, err
	}

	wantNames := make([]string, len(products))
	wantPrices := make([]int, len(products))
	for i, p := range products {
		wantNames[i] = p.Name
		wantPrices[i] = p.Price
	}
	gotNames := make([]string, len(lines))
	gotPrices := make([]int, len(lines))
	for i, l := range lines {
		gotNames[i] = l.Name
		gotPrices[i] = l.Price
	}

	if err := w.step(ctx, "verify_cart_names", func(context.Context) (string, error) {
		return strings.Join(gotNames, ", "), verify.CheckNames(wantNames, gotNames)
	}); err != nil {
		return nil, 0, err
	}
	if err := w.step(ctx, "verify_cart_prices", func(context.Context) (string, error) {
		return fmt.Sprint(gotPrices), verify.CheckPrices(wantPrices, gotPrices)
	}); err != nil {
		return nil, 0, err
	}

	var total int
	if err := w.step(ctx, "verify_cart_total", func(ctx context.Context) (string, error) {
		var err error
		if total, err = cart.ReadDisplayedTotal(ctx); err != nil {
			return "", err
		}
		return fmt.Sprintf("total=%d", total), verify.CheckTotal(gotPrices, total)
	}); err != nil {
		return nil, 0, err
	}
	return lines, total, nil
}

// PurchaseFlow places the order from the cart page, checks the confirmation
// against expectedTotal and the buyer, and only then confirms it.
func (w *Workflow) PurchaseFlow(ctx context.Context, buyer pages.Buyer, expectedTotal int) (pages.Order, error) {
	if err := w.step(ctx, "place_order", func(ctx context.Context) (string, error) {
		return "", w.cart().PlaceOrder(ctx)
	}); err != nil {
		return pages.Order{}, err
	}

	checkout := w.checkout()
	if err := w.step(ctx, "fill_order_details", func(ctx context.Context) (string, error) {
		return "name=" + buyer.Name, checkout.FillDetails(ctx, buyer)
	}); err != nil {
		return pages.Order{}, err
	}
	if err := w.step(ctx, "submit_purchase", func(ctx context.Context) (string, error) {
		return "", checkout.SubmitPurchase(ctx)
	}); err != nil {
		return pages.Order{}, err
	}

	var order pages.Order
	if err := w.step(ctx, "verify_confirmation", func(ctx context.Context) (string, error) {
		text, err := checkout.ReadConfirmation(ctx)
		if err != nil {
			return "", err
		}
		order = pages.OrderFromConfirmation(text)
		return fmt.Sprintf("amount=%d", expectedTotal), verify.CheckConfirmation(text, expectedTotal, buyer.Card, buyer.Name)
	}); err != nil {
		return pages.Order{}, err
	}

	if err := w.step(ctx, "confirm_purchase", func(ctx context.Context) (string, error) {
		return "", checkout.Confirm(ctx)
	}); err != nil {
		return pages.Order{}, err
	}
	return order, nil
}

// ClearCart deletes every line on the cart page and requires the cart to
// read empty afterwards.
func (w *Workflow) ClearCart(ctx context.Context) error {
	cart := w.cart()
	if err := w.step(ctx, "delete_cart_lines", func(ctx context.Context) (string, error) {
		return "", cart.DeleteAllLines(ctx)
	}); err != nil {
		return err
	}
	return w.step(ctx, "verify_cart_empty", func(ctx context.Context) (string, error) {
		lines, err := w.cart().ListLines(ctx, false)
		if err != nil {
			return "", err
		}
		if len(lines) != 0 {
			return "", failure.NotEmptied(len(lines))
		}
		return "lines=0", nil
	})
}

// ExpectEmptyCart opens the cart and requires it to show no lines. An empty
// cart renders no signal of its own, so this waits out the empty-cart budget
// (at most the wait timeout) before concluding.
func (w *Workflow) ExpectEmptyCart(ctx context.Context) error {
	if err := w.step(ctx, "open_cart", func(ctx context.Context) (string, error) {
		return "", w.catalog().GoToCart(ctx)
	}); err != nil {
		return err
	}
	return w.step(ctx, "verify_cart_empty", func(ctx context.Context) (string, error) {
		quick := *w.waits
		quick.Timeout = min(quick.Timeout, w.emptyWait)
		lines, err := pages.NewCart(w.sess, w.layout, &quick, w.logger).ListLines(ctx, true)
		if failure.Is(err, failure.EmptyCart) {
			return "lines=0", nil
		}
		if err != nil {
			return "", err
		}
		names := make([]string, len(lines))
		for i, l := range lines {
			names[i] = l.Name
		}
		return "", failure.Violation("cart empty", "no lines", fmt.Sprintf("%q", names))
	})
}
