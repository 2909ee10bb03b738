package demostore

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/roach88/storecheck/internal/locator"
	"github.com/roach88/storecheck/internal/session"
)

//go:embed store.html
var storeHTML string

var storeTemplate = template.Must(template.New("store").Parse(storeHTML))

// Alert texts raised by the storefront.
const (
	AlertProductAdded  = "Product added."
	AlertWrongPassword = "Wrong password."
	AlertNoUser        = "User does not exist."
	AlertFillOrder     = "Please fill out Name and Creditcard."
)

const (
	viewHome    = "home"
	viewProduct = "product"
	viewCart    = "cart"
)

type cartItem struct {
	id      string
	product Product
}

type confirmation struct {
	ID     int
	Amount int
	Card   string
	Name   string
	Date   string
}

// Store is one simulated browser tab on the storefront. It implements
// session.Session.
//
// Every state change re-renders and re-parses the whole document, so element
// handles resolved before the change report stale afterwards.
type Store struct {
	id   string
	kind session.Kind
	opts Options

	mu        sync.Mutex
	doc       *html.Node
	released  bool
	view      string
	productID int
	loaded    bool
	user      string
	loginOpen bool
	orderOpen bool
	confirmed *confirmation
	alert     *string
	cart      []cartItem
	form      map[string]string
	nextOrder int
	history   []string
}

func newStore(id string, kind session.Kind, opts Options) *Store {
	s := &Store{
		id:        id,
		kind:      kind,
		opts:      opts,
		view:      viewHome,
		form:      map[string]string{},
		nextOrder: 7341025,
	}
	s.render()
	return s
}

// ID implements session.Session.
func (s *Store) ID() string { return s.id }

// Kind reports the browser kind the store was acquired for.
func (s *Store) Kind() session.Kind { return s.kind }

// Navigate loads index.html, prod.html?idp_=N or cart.html. The page shell
// renders at once; its content arrives after the configured latency.
func (s *Store) Navigate(_ context.Context, rawURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return session.ErrReleased
	}
	if s.alert != nil {
		return session.ErrAlertOpen
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("navigate: %w", err)
	}
	switch path.Base(u.Path) {
	case "", ".", "/", "index.html":
		s.open(viewHome, 0)
	case "prod.html":
		id, err := strconv.Atoi(u.Query().Get("idp_"))
		if err != nil {
			return fmt.Errorf("navigate %s: bad product id", rawURL)
		}
		s.open(viewProduct, id)
	case "cart.html":
		s.open(viewCart, 0)
	default:
		return fmt.Errorf("navigate %s: page not found", rawURL)
	}
	return nil
}

// FindOne implements session.Session.
func (s *Store) FindOne(_ context.Context, loc locator.Locator) (session.ElementRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, session.ErrReleased
	}
	nodes, err := query(s.doc, loc)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%s: %w", loc, session.ErrNoSuchElement)
	}
	return &element{store: s, node: nodes[0], loc: loc}, nil
}

// FindAll implements session.Session.
func (s *Store) FindAll(_ context.Context, loc locator.Locator) ([]session.ElementRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return nil, session.ErrReleased
	}
	return s.wrap(s.doc, loc)
}

// AlertPresent implements session.Session.
func (s *Store) AlertPresent(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return false, session.ErrReleased
	}
	return s.alert != nil, nil
}

// DismissAlertIfPresent implements session.Session.
func (s *Store) DismissAlertIfPresent(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return false, session.ErrReleased
	}
	if s.alert == nil {
		return false, nil
	}
	s.history = append(s.history, *s.alert)
	s.alert = nil
	return true, nil
}

// CartNames lists the names of the items currently in the cart.
func (s *Store) CartNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, len(s.cart))
	for i, item := range s.cart {
		names[i] = item.product.Name
	}
	return names
}

// User reports the logged-in user, if any.
func (s *Store) User() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Alerts lists the alert texts dismissed so far, oldest first.
func (s *Store) Alerts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Released reports whether the provider has released the store.
func (s *Store) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.released
}

func (s *Store) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.released = true
}

func (s *Store) wrap(root *html.Node, loc locator.Locator) ([]session.ElementRef, error) {
	nodes, err := query(root, loc)
	if err != nil {
		return nil, err
	}
	refs := make([]session.ElementRef, len(nodes))
	for i, n := range nodes {
		refs[i] = &element{store: s, node: n, loc: loc}
	}
	return refs, nil
}

// later runs fn under the store lock once the configured latency elapses.
// The caller holds the lock.
func (s *Store) later(fn func()) {
	if s.opts.Latency <= 0 {
		fn()
		return
	}
	time.AfterFunc(s.opts.Latency, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.released {
			return
		}
		fn()
	})
}

func (s *Store) open(view string, productID int) {
	s.view = view
	s.productID = productID
	s.loaded = false
	s.loginOpen = false
	s.orderOpen = false
	s.render()
	s.later(func() {
		if s.view != view || s.productID != productID {
			return
		}
		s.loaded = true
		s.render()
	})
}

// click dispatches on the element's data-action. The caller holds the lock.
func (s *Store) click(n *html.Node) error {
	id, _ := strconv.Atoi(attr(n, "data-id"))
	switch attr(n, "data-action") {
	case "open-home":
		s.open(viewHome, 0)
	case "open-cart":
		s.open(viewCart, 0)
	case "open-product":
		s.open(viewProduct, id)
	case "open-login":
		s.later(func() {
			s.loginOpen = true
			s.render()
		})
	case "close-login":
		s.loginOpen = false
		s.render()
	case "login":
		user, pass := s.form["loginusername"], s.form["loginpassword"]
		s.later(func() { s.logIn(user, pass) })
	case "logout":
		s.later(func() {
			s.user = ""
			s.render()
		})
	case "add":
		p, ok := findProduct(s.catalog(), id)
		if !ok {
			return fmt.Errorf("add to cart: unknown product %d", id)
		}
		s.later(func() {
			s.cart = append(s.cart, cartItem{id: uuid.NewString(), product: p})
			if !s.opts.Faults.SkipAddAlert {
				msg := AlertProductAdded
				s.alert = &msg
			}
		})
	case "delete":
		itemID := attr(n, "data-id")
		s.later(func() {
			if !s.opts.Faults.StickyDelete {
				s.removeItem(itemID)
			}
			s.render()
		})
	case "open-order":
		s.later(func() {
			s.orderOpen = true
			s.render()
		})
	case "close-order":
		s.orderOpen = false
		s.render()
	case "purchase":
		if strings.TrimSpace(s.form["name"]) == "" || strings.TrimSpace(s.form["card"]) == "" {
			msg := AlertFillOrder
			s.alert = &msg
			return nil
		}
		c := &confirmation{
			ID:     s.nextOrder,
			Amount: s.total() + s.opts.Faults.AmountSkew,
			Card:   s.form["card"],
			Name:   s.form["name"],
			Date:   s.date(),
		}
		s.nextOrder++
		s.later(func() {
			s.confirmed = c
			s.render()
		})
	case "confirm":
		s.later(func() {
			s.confirmed = nil
			s.cart = nil
			for _, f := range []string{"name", "country", "city", "card", "month", "year"} {
				delete(s.form, f)
			}
			s.open(viewHome, 0)
		})
	}
	return nil
}

func (s *Store) logIn(user, pass string) {
	if s.opts.Accounts != nil {
		want, ok := s.opts.Accounts[user]
		if !ok {
			msg := AlertNoUser
			s.alert = &msg
			return
		}
		if want != pass {
			msg := AlertWrongPassword
			s.alert = &msg
			return
		}
	}
	s.user = user
	s.loginOpen = false
	s.render()
}

func (s *Store) removeItem(id string) {
	for i, item := range s.cart {
		if item.id == id {
			s.cart = append(s.cart[:i], s.cart[i+1:]...)
			return
		}
	}
}

func (s *Store) total() int {
	sum := 0
	for _, item := range s.cart {
		sum += item.product.Price
	}
	return sum
}

func (s *Store) catalog() []Product {
	if len(s.opts.Catalog) > 0 {
		return s.opts.Catalog
	}
	return DefaultCatalog
}

func (s *Store) date() string {
	now := time.Now()
	if s.opts.Now != nil {
		now = s.opts.Now()
	}
	return fmt.Sprintf("%d/%d/%d", now.Day(), int(now.Month()), now.Year())
}

type cartRow struct {
	ID    string
	Name  string
	Price int
}

type pageData struct {
	View         string
	Loaded       bool
	User         string
	LoginOpen    bool
	OrderOpen    bool
	Products     []Product
	Product      *Product
	Lines        []cartRow
	Total        int
	Confirmation *confirmation
	form         map[string]string
}

// Field returns the current value of a form input.
func (p pageData) Field(id string) string { return p.form[id] }

// render replaces the document. The caller holds the lock.
func (s *Store) render() {
	data := pageData{
		View:         s.view,
		Loaded:       s.loaded,
		User:         s.user,
		LoginOpen:    s.loginOpen,
		OrderOpen:    s.orderOpen,
		Products:     s.catalog(),
		Total:        s.total(),
		Confirmation: s.confirmed,
		form:         s.form,
	}
	if p, ok := findProduct(s.catalog(), s.productID); ok {
		data.Product = &p
	}
	for _, item := range s.cart {
		data.Lines = append(data.Lines, cartRow{
			ID:    item.id,
			Name:  item.product.Name,
			Price: item.product.Price + s.opts.Faults.CartPriceSkew,
		})
	}

	var buf bytes.Buffer
	if err := storeTemplate.Execute(&buf, data); err != nil {
		panic(fmt.Sprintf("demostore: render: %v", err))
	}
	doc, err := html.Parse(&buf)
	if err != nil {
		panic(fmt.Sprintf("demostore: parse: %v", err))
	}
	s.doc = doc
}
