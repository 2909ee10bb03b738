package demostore

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/roach88/storecheck/internal/locator"
	"github.com/roach88/storecheck/internal/session"
)

// element is a handle to a node of one rendered document.
type element struct {
	store *Store
	node  *html.Node
	loc   locator.Locator
}

// live checks the handle against the current document. The caller holds the lock.
func (e *element) live() error {
	if e.store.released {
		return session.ErrReleased
	}
	if root(e.node) != e.store.doc {
		return fmt.Errorf("%s: %w", e.loc, session.ErrStaleElement)
	}
	return nil
}

func (e *element) Text(context.Context) (string, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if err := e.live(); err != nil {
		return "", err
	}
	return innerText(e.node), nil
}

func (e *element) Click(context.Context) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if err := e.live(); err != nil {
		return err
	}
	if e.store.alert != nil {
		return session.ErrAlertOpen
	}
	if !visible(e.node) {
		return fmt.Errorf("click %s: element is not visible", e.loc)
	}
	return e.store.click(e.node)
}

func (e *element) Fill(_ context.Context, value string) error {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if err := e.live(); err != nil {
		return err
	}
	if e.store.alert != nil {
		return session.ErrAlertOpen
	}
	if e.node.Data != "input" {
		return fmt.Errorf("fill %s: <%s> is not an input", e.loc, e.node.Data)
	}
	id := attr(e.node, "id")
	e.store.form[id] = value
	setAttr(e.node, "value", value)
	return nil
}

func (e *element) IsVisible(context.Context) (bool, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if err := e.live(); err != nil {
		return false, err
	}
	return visible(e.node), nil
}

func (e *element) IsEnabled(context.Context) (bool, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if err := e.live(); err != nil {
		return false, err
	}
	return !hasAttr(e.node, "disabled"), nil
}

func (e *element) IsStale(context.Context) (bool, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if e.store.released {
		return false, session.ErrReleased
	}
	return root(e.node) != e.store.doc, nil
}

func (e *element) FindAll(_ context.Context, loc locator.Locator) ([]session.ElementRef, error) {
	e.store.mu.Lock()
	defer e.store.mu.Unlock()
	if err := e.live(); err != nil {
		return nil, err
	}
	return e.store.wrap(e.node, loc)
}

// query evaluates loc below n in document order.
func query(n *html.Node, loc locator.Locator) ([]*html.Node, error) {
	switch loc.Strategy {
	case locator.CSSStrategy:
		return goquery.NewDocumentFromNode(n).Find(loc.Expression).Nodes, nil
	case locator.XPathStrategy:
		nodes, err := htmlquery.QueryAll(n, loc.Expression)
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", loc, err)
		}
		return nodes, nil
	case locator.IDStrategy:
		var out []*html.Node
		walk(n, func(c *html.Node) {
			if c != n && c.Type == html.ElementNode && attr(c, "id") == loc.Expression {
				out = append(out, c)
			}
		})
		return out, nil
	}
	return nil, fmt.Errorf("evaluate %s: %w", loc, loc.Validate())
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func root(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// visible reports whether n and all of its ancestors are displayed.
func visible(n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n.Type != html.ElementNode {
			continue
		}
		if hasAttr(n, "hidden") || (n.Data == "input" && attr(n, "type") == "hidden") {
			return false
		}
		style := strings.ReplaceAll(attr(n, "style"), " ", "")
		if strings.Contains(style, "display:none") {
			return false
		}
	}
	return true
}

// innerText approximates the rendered text: <br> breaks lines, runs of
// whitespace collapse, and blank lines are dropped.
func innerText(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) {
		switch {
		case c.Type == html.TextNode:
			b.WriteString(c.Data)
		case c.Type == html.ElementNode && c.Data == "br":
			b.WriteString("\n")
		}
	})

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
