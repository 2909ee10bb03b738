package demostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/layout"
	"github.com/roach88/storecheck/internal/session"
)

var (
	lay = layout.MustDefault()
	bg  = context.Background()
)

func acquire(t *testing.T, opts Options) *Store {
	t.Helper()
	p := NewProvider(opts)
	s, err := p.Acquire(bg, session.Chrome)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Release(bg, s) })
	return s.(*Store)
}

func text(t *testing.T, ref session.ElementRef) string {
	t.Helper()
	v, err := ref.Text(bg)
	require.NoError(t, err)
	return v
}

func isVisible(t *testing.T, ref session.ElementRef) bool {
	t.Helper()
	v, err := ref.IsVisible(bg)
	require.NoError(t, err)
	return v
}

func TestCatalogRendersDefaultProducts(t *testing.T) {
	s := acquire(t, Options{})
	require.NoError(t, s.Navigate(bg, lay.BaseURL))

	refs, err := s.FindAll(bg, lay.Catalog.Products)
	require.NoError(t, err)
	require.Len(t, refs, len(DefaultCatalog))
	for i, ref := range refs {
		assert.Equal(t, DefaultCatalog[i].Name, text(t, ref))
		assert.True(t, isVisible(t, ref))
	}

	home, err := s.FindOne(bg, lay.Catalog.Home)
	require.NoError(t, err)
	assert.Equal(t, "Home (current)", text(t, home))
}

func TestLoginShowsWelcomeBanner(t *testing.T) {
	s := acquire(t, Options{})

	banner, err := s.FindOne(bg, lay.Login.Welcome)
	require.NoError(t, err)
	assert.False(t, isVisible(t, banner))

	user, err := s.FindOne(bg, lay.Login.Username)
	require.NoError(t, err)
	assert.False(t, isVisible(t, user), "login modal starts hidden")

	open, err := s.FindOne(bg, lay.Login.Open)
	require.NoError(t, err)
	require.NoError(t, open.Click(bg))

	stale, err := user.IsStale(bg)
	require.NoError(t, err)
	assert.True(t, stale)

	user, err = s.FindOne(bg, lay.Login.Username)
	require.NoError(t, err)
	assert.True(t, isVisible(t, user))
	require.NoError(t, user.Fill(bg, "jakubszczypek"))
	pass, err := s.FindOne(bg, lay.Login.Password)
	require.NoError(t, err)
	require.NoError(t, pass.Fill(bg, "1234"))

	submit, err := s.FindOne(bg, lay.Login.Submit)
	require.NoError(t, err)
	require.NoError(t, submit.Click(bg))

	banner, err = s.FindOne(bg, lay.Login.Welcome)
	require.NoError(t, err)
	assert.True(t, isVisible(t, banner))
	assert.Equal(t, "Welcome jakubszczypek", text(t, banner))
	assert.Equal(t, "jakubszczypek", s.User())
}

func TestLoginWithWrongPasswordRaisesAlert(t *testing.T) {
	s := acquire(t, Options{Accounts: map[string]string{"jakubszczypek": "1234"}})

	open, err := s.FindOne(bg, lay.Login.Open)
	require.NoError(t, err)
	require.NoError(t, open.Click(bg))
	user, err := s.FindOne(bg, lay.Login.Username)
	require.NoError(t, err)
	require.NoError(t, user.Fill(bg, "jakubszczypek"))
	submit, err := s.FindOne(bg, lay.Login.Submit)
	require.NoError(t, err)
	require.NoError(t, submit.Click(bg))

	present, err := s.AlertPresent(bg)
	require.NoError(t, err)
	assert.True(t, present)

	ok, err := s.DismissAlertIfPresent(bg)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []string{AlertWrongPassword}, s.Alerts())
	assert.Empty(t, s.User())
}

func TestAddToCartRaisesAlertAndBlocksClicks(t *testing.T) {
	s := acquire(t, Options{})
	require.NoError(t, s.Navigate(bg, "https://www.demoblaze.com/prod.html?idp_=1"))

	price, err := s.FindOne(bg, lay.Product.Price)
	require.NoError(t, err)
	assert.Equal(t, "$360 *includes tax", text(t, price))

	add, err := s.FindOne(bg, lay.Product.Add)
	require.NoError(t, err)
	require.NoError(t, add.Click(bg))

	present, err := s.AlertPresent(bg)
	require.NoError(t, err)
	require.True(t, present)
	assert.ErrorIs(t, add.Click(bg), session.ErrAlertOpen)
	assert.ErrorIs(t, s.Navigate(bg, lay.BaseURL), session.ErrAlertOpen)

	ok, err := s.DismissAlertIfPresent(bg)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.DismissAlertIfPresent(bg)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, []string{"Samsung galaxy s6"}, s.CartNames())
}

func TestSkipAddAlert(t *testing.T) {
	s := acquire(t, Options{Faults: Faults{SkipAddAlert: true}})
	require.NoError(t, s.Navigate(bg, "prod.html?idp_=3"))

	add, err := s.FindOne(bg, lay.Product.Add)
	require.NoError(t, err)
	require.NoError(t, add.Click(bg))

	present, err := s.AlertPresent(bg)
	require.NoError(t, err)
	assert.False(t, present)
	assert.Equal(t, []string{"Nexus 6"}, s.CartNames())
}

func addItems(t *testing.T, s *Store, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.Navigate(bg, "prod.html?idp_="+id))
		add, err := s.FindOne(bg, lay.Product.Add)
		require.NoError(t, err)
		require.NoError(t, add.Click(bg))
		_, err = s.DismissAlertIfPresent(bg)
		require.NoError(t, err)
	}
}

func texts(t *testing.T, refs []session.ElementRef) []string {
	t.Helper()
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = text(t, ref)
	}
	return out
}

func TestCartListsLinesAndTotal(t *testing.T) {
	s := acquire(t, Options{})
	addItems(t, s, "1", "2")
	require.NoError(t, s.Navigate(bg, "cart.html"))

	names, err := s.FindAll(bg, lay.Cart.Names)
	require.NoError(t, err)
	assert.Equal(t, []string{"Samsung galaxy s6", "Nokia lumia 1520"}, texts(t, names))

	prices, err := s.FindAll(bg, lay.Cart.Prices)
	require.NoError(t, err)
	assert.Equal(t, []string{"360", "820"}, texts(t, prices))

	total, err := s.FindOne(bg, lay.Cart.Total)
	require.NoError(t, err)
	assert.Equal(t, "1180", text(t, total))

	rows, err := s.FindOne(bg, lay.Cart.Rows)
	require.NoError(t, err)
	trs, err := rows.FindAll(bg, lay.Cart.Row)
	require.NoError(t, err)
	assert.Len(t, trs, 2)
}

func TestCartPriceSkew(t *testing.T) {
	s := acquire(t, Options{Faults: Faults{CartPriceSkew: 5}})
	addItems(t, s, "1")
	require.NoError(t, s.Navigate(bg, "cart.html"))

	prices, err := s.FindAll(bg, lay.Cart.Prices)
	require.NoError(t, err)
	assert.Equal(t, []string{"365"}, texts(t, prices))

	total, err := s.FindOne(bg, lay.Cart.Total)
	require.NoError(t, err)
	assert.Equal(t, "360", text(t, total))
}

func TestDeleteMakesControlStale(t *testing.T) {
	s := acquire(t, Options{})
	addItems(t, s, "1", "6")
	require.NoError(t, s.Navigate(bg, "cart.html"))

	deletes, err := s.FindAll(bg, lay.Cart.Delete)
	require.NoError(t, err)
	require.Len(t, deletes, 2)
	require.NoError(t, deletes[0].Click(bg))

	stale, err := deletes[0].IsStale(bg)
	require.NoError(t, err)
	assert.True(t, stale)
	assert.ErrorIs(t, deletes[1].Click(bg), session.ErrStaleElement)
	_, err = deletes[1].Text(bg)
	assert.ErrorIs(t, err, session.ErrStaleElement)

	assert.Equal(t, []string{"Sony xperia z5"}, s.CartNames())

	total, err := s.FindOne(bg, lay.Cart.Total)
	require.NoError(t, err)
	assert.Equal(t, "320", text(t, total))
}

func TestStickyDeleteKeepsRows(t *testing.T) {
	s := acquire(t, Options{Faults: Faults{StickyDelete: true}})
	addItems(t, s, "2")
	require.NoError(t, s.Navigate(bg, "cart.html"))

	del, err := s.FindOne(bg, lay.Cart.Delete)
	require.NoError(t, err)
	require.NoError(t, del.Click(bg))

	stale, err := del.IsStale(bg)
	require.NoError(t, err)
	assert.True(t, stale)
	assert.Equal(t, []string{"Nokia lumia 1520"}, s.CartNames())
}

func TestPurchaseConfirmation(t *testing.T) {
	s := acquire(t, Options{
		Faults: Faults{AmountSkew: 1},
		Now:    func() time.Time { return time.Date(2026, time.October, 14, 12, 0, 0, 0, time.UTC) },
	})
	addItems(t, s, "1")
	require.NoError(t, s.Navigate(bg, "cart.html"))

	place, err := s.FindOne(bg, lay.Cart.PlaceOrder)
	require.NoError(t, err)
	require.NoError(t, place.Click(bg))

	fields := map[string]string{"name": "Jakub", "country": "Poland", "city": "Cracow", "card": "411111111111", "month": "December", "year": "2025"}
	for _, loc := range []struct {
		key string
		ref func() (session.ElementRef, error)
	}{
		{"name", func() (session.ElementRef, error) { return s.FindOne(bg, lay.Checkout.Name) }},
		{"country", func() (session.ElementRef, error) { return s.FindOne(bg, lay.Checkout.Country) }},
		{"city", func() (session.ElementRef, error) { return s.FindOne(bg, lay.Checkout.City) }},
		{"card", func() (session.ElementRef, error) { return s.FindOne(bg, lay.Checkout.Card) }},
		{"month", func() (session.ElementRef, error) { return s.FindOne(bg, lay.Checkout.Month) }},
		{"year", func() (session.ElementRef, error) { return s.FindOne(bg, lay.Checkout.Year) }},
	} {
		ref, err := loc.ref()
		require.NoError(t, err, loc.key)
		assert.True(t, isVisible(t, ref), loc.key)
		require.NoError(t, ref.Fill(bg, fields[loc.key]))
	}

	purchase, err := s.FindOne(bg, lay.Checkout.Purchase)
	require.NoError(t, err)
	require.NoError(t, purchase.Click(bg))

	details, err := s.FindOne(bg, lay.Checkout.Details)
	require.NoError(t, err)
	assert.True(t, isVisible(t, details))
	assert.Equal(t, "Id: 7341025\nAmount: 361 USD\nCard Number: 411111111111\nName: Jakub\nDate: 14/10/2026", text(t, details))

	confirm, err := s.FindOne(bg, lay.Checkout.Confirm)
	require.NoError(t, err)
	require.NoError(t, confirm.Click(bg))

	assert.Empty(t, s.CartNames())
	_, err = s.FindOne(bg, lay.Checkout.Details)
	assert.ErrorIs(t, err, session.ErrNoSuchElement)
	products, err := s.FindAll(bg, lay.Catalog.Products)
	require.NoError(t, err)
	assert.Len(t, products, len(DefaultCatalog))
}

func TestPurchaseWithoutNameRaisesAlert(t *testing.T) {
	s := acquire(t, Options{})
	require.NoError(t, s.Navigate(bg, "cart.html"))
	place, err := s.FindOne(bg, lay.Cart.PlaceOrder)
	require.NoError(t, err)
	require.NoError(t, place.Click(bg))

	purchase, err := s.FindOne(bg, lay.Checkout.Purchase)
	require.NoError(t, err)
	require.NoError(t, purchase.Click(bg))

	_, err = s.DismissAlertIfPresent(bg)
	require.NoError(t, err)
	assert.Equal(t, []string{AlertFillOrder}, s.Alerts())
}

func TestLatencyDelaysContent(t *testing.T) {
	s := acquire(t, Options{Latency: 30 * time.Millisecond})
	require.NoError(t, s.Navigate(bg, lay.BaseURL))

	refs, err := s.FindAll(bg, lay.Catalog.Products)
	require.NoError(t, err)
	assert.Empty(t, refs)

	require.Eventually(t, func() bool {
		refs, err := s.FindAll(bg, lay.Catalog.Products)
		return err == nil && len(refs) == len(DefaultCatalog)
	}, time.Second, 5*time.Millisecond)
}

func TestUnknownLocatorMatchesNothing(t *testing.T) {
	s := acquire(t, Options{})
	_, err := s.FindOne(bg, lay.Cart.Total)
	assert.ErrorIs(t, err, session.ErrNoSuchElement)
}

func TestNavigateUnknownPage(t *testing.T) {
	s := acquire(t, Options{})
	assert.Error(t, s.Navigate(bg, "https://www.demoblaze.com/about.html"))
	assert.Error(t, s.Navigate(bg, "prod.html?idp_=x"))
}

func TestProviderIsolationAndRelease(t *testing.T) {
	p := NewProvider(Options{})
	a, err := p.Acquire(bg, session.Firefox)
	require.NoError(t, err)
	b, err := p.Acquire(bg, session.Edge)
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, p.Live())

	addItems(t, a.(*Store), "4")
	assert.Equal(t, []string{"Samsung galaxy s7"}, a.(*Store).CartNames())
	assert.Empty(t, b.(*Store).CartNames())

	require.NoError(t, p.Release(bg, a))
	assert.Equal(t, 1, p.Live())
	assert.ErrorIs(t, p.Release(bg, a), session.ErrReleased)

	_, err = a.FindAll(bg, lay.Catalog.Products)
	assert.ErrorIs(t, err, session.ErrReleased)
	assert.ErrorIs(t, a.Navigate(bg, lay.BaseURL), session.ErrReleased)

	require.NoError(t, p.Release(bg, b))
	assert.Equal(t, 0, p.Live())
	assert.Len(t, p.Stores(), 2)
}

func TestProviderRejectsUnknownKind(t *testing.T) {
	p := NewProvider(Options{})
	_, err := p.Acquire(bg, session.Kind("safari"))
	assert.True(t, failure.Is(err, failure.UnsupportedBrowserKind))
}
