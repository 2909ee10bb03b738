// Package pwdriver provides session.Provider backed by real browsers driven
// through Playwright.
//
// Chrome and Edge run on Chromium (Edge via the "msedge" channel), Firefox on
// Gecko. Every acquired session gets its own browser, context and page, so
// concurrent executions share no cookies or storage.
package pwdriver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/roach88/storecheck/internal/failure"
	"github.com/roach88/storecheck/internal/locator"
	"github.com/roach88/storecheck/internal/session"
)

// Options configures the browsers a Provider launches.
type Options struct {
	// Headless hides the browser window.
	Headless bool

	// Width and Height size the viewport. Zero means 1280x800.
	Width  int
	Height int

	// ActionTimeout bounds a single Playwright click or fill. Locating and
	// waiting belong to the wait engine; this only catches a wedged driver.
	ActionTimeout time.Duration

	// Install downloads the Playwright driver and browsers before the first
	// launch.
	Install bool

	Logger *slog.Logger
}

const (
	defaultWidth         = 1280
	defaultHeight        = 800
	defaultActionTimeout = 5 * time.Second
)

// Provider launches Playwright browsers on demand. The Playwright driver is
// started on the first Acquire and stopped by Close.
type Provider struct {
	opts Options

	startOnce sync.Once
	startErr  error
	pw        *playwright.Playwright
	seq       atomic.Int64
}

// NewProvider creates a Provider.
func NewProvider(opts Options) *Provider {
	if opts.Width <= 0 {
		opts.Width = defaultWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultHeight
	}
	if opts.ActionTimeout <= 0 {
		opts.ActionTimeout = defaultActionTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Provider{opts: opts}
}

// launchPlan maps a browser kind to a Playwright engine and release channel.
type launchPlan struct {
	engine  string
	channel string
}

func planFor(kind session.Kind) (launchPlan, error) {
	switch kind {
	case session.Chrome:
		return launchPlan{engine: "chromium"}, nil
	case session.Edge:
		return launchPlan{engine: "chromium", channel: "msedge"}, nil
	case session.Firefox:
		return launchPlan{engine: "firefox"}, nil
	}
	return launchPlan{}, failure.Unsupported(string(kind))
}

func (p *Provider) start() error {
	p.startOnce.Do(func() {
		if p.opts.Install {
			if err := playwright.Install(&playwright.RunOptions{
				Browsers: []string{"chromium", "firefox"},
			}); err != nil {
				p.startErr = fmt.Errorf("install playwright: %w", err)
				return
			}
		}
		pw, err := playwright.Run()
		if err != nil {
			p.startErr = fmt.Errorf("start playwright: %w", err)
			return
		}
		p.pw = pw
	})
	return p.startErr
}

// Acquire implements session.Provider.
func (p *Provider) Acquire(ctx context.Context, kind session.Kind) (session.Session, error) {
	plan, err := planFor(kind)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.start(); err != nil {
		return nil, err
	}

	bt := p.pw.Chromium
	if plan.engine == "firefox" {
		bt = p.pw.Firefox
	}
	launch := playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(p.opts.Headless)}
	if plan.channel != "" {
		launch.Channel = playwright.String(plan.channel)
	}
	browser, err := bt.Launch(launch)
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", kind, err)
	}

	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{Width: p.opts.Width, Height: p.opts.Height},
	})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("new %s context: %w", kind, err)
	}
	if err := bctx.ClearCookies(); err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("clear cookies: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("new %s page: %w", kind, err)
	}
	page.SetDefaultTimeout(float64(p.opts.ActionTimeout.Milliseconds()))

	s := &Session{
		id:      fmt.Sprintf("pw-%s-%d", kind, p.seq.Add(1)),
		kind:    kind,
		browser: browser,
		context: bctx,
		page:    page,
		timeout: float64(p.opts.ActionTimeout.Milliseconds()),
	}
	page.OnDialog(s.onDialog)
	p.opts.Logger.DebugContext(ctx, "browser session acquired", "session", s.id, "browser", string(kind))
	return s, nil
}

// Release implements session.Provider.
func (p *Provider) Release(ctx context.Context, s session.Session) error {
	ps, ok := s.(*Session)
	if !ok {
		return fmt.Errorf("release: %T is not a playwright session", s)
	}
	if err := ps.close(); err != nil {
		return err
	}
	p.opts.Logger.DebugContext(ctx, "browser session released", "session", ps.id)
	return nil
}

// Close stops the Playwright driver. Sessions must be released first.
func (p *Provider) Close() error {
	if p.pw == nil {
		return nil
	}
	return p.pw.Stop()
}

// Session is one Playwright page. It implements session.Session.
type Session struct {
	id      string
	kind    session.Kind
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	timeout float64

	mu       sync.Mutex
	dialog   playwright.Dialog
	released bool
}

// ID implements session.Session.
func (s *Session) ID() string { return s.id }

// Kind reports the browser kind.
func (s *Session) Kind() session.Kind { return s.kind }

func (s *Session) onDialog(d playwright.Dialog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dialog = d
}

func (s *Session) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return session.ErrReleased
	}
	return nil
}

// Navigate implements session.Session.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.check(ctx); err != nil {
		return err
	}
	if open, _ := s.AlertPresent(ctx); open {
		return session.ErrAlertOpen
	}
	if _, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	}); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// FindOne implements session.Session.
func (s *Session) FindOne(ctx context.Context, loc locator.Locator) (session.ElementRef, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	h, err := s.page.QuerySelector(loc.String())
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", loc, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%s: %w", loc, session.ErrNoSuchElement)
	}
	return &element{sess: s, handle: h}, nil
}

// FindAll implements session.Session.
func (s *Session) FindAll(ctx context.Context, loc locator.Locator) ([]session.ElementRef, error) {
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	hs, err := s.page.QuerySelectorAll(loc.String())
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}
	return s.wrap(hs), nil
}

func (s *Session) wrap(hs []playwright.ElementHandle) []session.ElementRef {
	refs := make([]session.ElementRef, len(hs))
	for i, h := range hs {
		refs[i] = &element{sess: s, handle: h}
	}
	return refs
}

// AlertPresent implements session.Session.
func (s *Session) AlertPresent(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.released {
		return false, session.ErrReleased
	}
	return s.dialog != nil, nil
}

// DismissAlertIfPresent implements session.Session.
func (s *Session) DismissAlertIfPresent(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	d := s.dialog
	s.dialog = nil
	released := s.released
	s.mu.Unlock()
	if released {
		return false, session.ErrReleased
	}
	if d == nil {
		return false, nil
	}
	if err := d.Accept(); err != nil {
		return false, fmt.Errorf("accept dialog: %w", err)
	}
	return true, nil
}

func (s *Session) close() error {
	s.mu.Lock()
	if s.released {
		s.mu.Unlock()
		return fmt.Errorf("release %s: %w", s.id, session.ErrReleased)
	}
	s.released = true
	s.mu.Unlock()

	return errors.Join(s.page.Close(), s.context.Close(), s.browser.Close())
}

type element struct {
	sess   *Session
	handle playwright.ElementHandle
}

func (e *element) stale() bool {
	v, err := e.handle.Evaluate("e => !e.isConnected")
	if err != nil {
		// A handle whose execution context was torn down by navigation can
		// no longer be evaluated.
		return true
	}
	gone, _ := v.(bool)
	return gone
}

func (e *element) live(ctx context.Context) error {
	if err := e.sess.check(ctx); err != nil {
		return err
	}
	if e.stale() {
		return session.ErrStaleElement
	}
	return nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := e.live(ctx); err != nil {
		return "", err
	}
	return e.handle.InnerText()
}

func (e *element) Click(ctx context.Context) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	if open, _ := e.sess.AlertPresent(ctx); open {
		return session.ErrAlertOpen
	}
	// Actionability is the wait engine's job; Force skips Playwright's own checks.
	return e.handle.Click(playwright.ElementHandleClickOptions{
		Force:   playwright.Bool(true),
		Timeout: playwright.Float(e.sess.timeout),
	})
}

func (e *element) Fill(ctx context.Context, value string) error {
	if err := e.live(ctx); err != nil {
		return err
	}
	return e.handle.Fill(value, playwright.ElementHandleFillOptions{
		Force:   playwright.Bool(true),
		Timeout: playwright.Float(e.sess.timeout),
	})
}

func (e *element) IsVisible(ctx context.Context) (bool, error) {
	if err := e.live(ctx); err != nil {
		return false, err
	}
	return e.handle.IsVisible()
}

func (e *element) IsEnabled(ctx context.Context) (bool, error) {
	if err := e.live(ctx); err != nil {
		return false, err
	}
	return e.handle.IsEnabled()
}

func (e *element) IsStale(ctx context.Context) (bool, error) {
	if err := e.sess.check(ctx); err != nil {
		return false, err
	}
	return e.stale(), nil
}

func (e *element) FindAll(ctx context.Context, loc locator.Locator) ([]session.ElementRef, error) {
	if err := e.live(ctx); err != nil {
		return nil, err
	}
	hs, err := e.handle.QuerySelectorAll(loc.String())
	if err != nil {
		return nil, fmt.Errorf("find all %s: %w", loc, err)
	}
	return e.sess.wrap(hs), nil
}
