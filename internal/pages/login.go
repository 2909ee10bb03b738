package pages

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/storecheck/internal/layout"
	"github.com/roach88/storecheck/internal/session"
	"github.com/roach88/storecheck/internal/wait"
)

// Login is the navbar login modal.
type Login struct {
	surface
	loc     layout.Login
	baseURL string
}

// NewLogin binds the login surface to s.
func NewLogin(s session.Session, l *layout.Layout, w *wait.Engine, logger *slog.Logger) *Login {
	return &Login{surface: newSurface(s, w, logger), loc: l.Login, baseURL: l.BaseURL}
}

// Open navigates to the storefront home page.
func (p *Login) Open(ctx context.Context) error {
	if err := p.sess.Navigate(ctx, p.baseURL); err != nil {
		return fmt.Errorf("open %s: %w", p.baseURL, err)
	}
	return nil
}

// OpenLoginForm clicks the navbar "Log in" link.
func (p *Login) OpenLoginForm(ctx context.Context) error {
	return p.click(ctx, p.loc.Open, "Log in link")
}

// Submit fills the credentials once the form is shown and submits it.
func (p *Login) Submit(ctx context.Context, user, pass string) error {
	if err := p.fill(ctx, p.loc.Username, "Username field", user); err != nil {
		return err
	}
	if err := p.fill(ctx, p.loc.Password, "Password field", pass); err != nil {
		return err
	}
	return p.click(ctx, p.loc.Submit, "Log in button")
}

// ReadWelcomeBanner returns the navbar greeting, e.g. "Welcome alice".
func (p *Login) ReadWelcomeBanner(ctx context.Context) (string, error) {
	return p.read(ctx, p.loc.Welcome, "Welcome text")
}

// Logout clicks the navbar "Log out" link.
func (p *Login) Logout(ctx context.Context) error {
	return p.click(ctx, p.loc.Logout, "Log out link")
}
