package layout

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/locator"
)

func TestDefaultLayout(t *testing.T) {
	l, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 1, l.Version)
	assert.Equal(t, "https://www.demoblaze.com/index.html", l.BaseURL)

	assert.Equal(t, locator.XPath("//a[@id='login2']"), l.Login.Open)
	assert.Equal(t, locator.XPath("//a[@id='nameofuser']"), l.Login.Welcome)
	assert.Equal(t, locator.XPath("//a[@class='hrefch']"), l.Catalog.Products)
	assert.Equal(t, locator.CSS("#navbarExample > ul > li.nav-item.active > a"), l.Catalog.Home)
	assert.Equal(t, locator.XPath("//h3[@class='price-container']"), l.Product.Price)
	assert.Equal(t, locator.CSS("#tbodyid > tr > td:nth-child(2)"), l.Cart.Names)
	assert.Equal(t, locator.CSS("#totalp"), l.Cart.Total)
	assert.Equal(t, locator.ID("tbodyid"), l.Cart.Rows)
	assert.Equal(t, locator.XPath("./tr"), l.Cart.Row)
	assert.Equal(t, locator.XPath("//input[@id='card']"), l.Checkout.Card)
	assert.Equal(t, locator.CSS("p.lead.text-muted"), l.Checkout.Details)
	assert.Equal(t, locator.XPath("//button[@class='confirm btn btn-lg btn-primary']"), l.Checkout.Confirm)
}

func TestEntriesSortedAndComplete(t *testing.T) {
	l := MustDefault()
	entries := l.Entries()
	require.Len(t, entries, 28)

	for i := 1; i < len(entries); i++ {
		assert.Less(t, entries[i-1].Path, entries[i].Path)
	}
	for _, e := range entries {
		assert.NoError(t, e.Locator.Validate(), e.Path)
	}
}

func TestWithBaseURLCopies(t *testing.T) {
	l := MustDefault()
	c := l.WithBaseURL("http://localhost:8080/index.html")

	assert.Equal(t, "http://localhost:8080/index.html", c.BaseURL)
	assert.Equal(t, "https://www.demoblaze.com/index.html", l.BaseURL)
	assert.Equal(t, l.Cart, c.Cart)
}

func TestCompileRejectsUnknownStrategy(t *testing.T) {
	src := strings.Replace(string(defaultSrc),
		`open: {strategy: "xpath"`, `open: {strategy: "regex"`, 1)

	_, err := Compile([]byte(src), "bad.cue")
	require.Error(t, err)

	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.NotEmpty(t, lerr.Message)
}

func TestCompileRejectsEmptyExpression(t *testing.T) {
	src := strings.Replace(string(defaultSrc),
		`total: {strategy: "css", expression: "#totalp"}`,
		`total: {strategy: "css", expression: ""}`, 1)

	_, err := Compile([]byte(src), "empty.cue")
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
}

func TestCompileRejectsUnknownField(t *testing.T) {
	src := string(defaultSrc) + "\ncart: coupon: {strategy: \"id\", expression: \"coupon\"}\n"

	_, err := Compile([]byte(src), "extra.cue")
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
}

func TestCompileRejectsMissingPage(t *testing.T) {
	src := `
version:  1
base_url: "https://www.demoblaze.com/index.html"
`
	_, err := Compile([]byte(src), "partial.cue")
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
}

func TestCompileRejectsSyntaxError(t *testing.T) {
	_, err := Compile([]byte("version: {"), "broken.cue")
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	assert.True(t, lerr.Pos.IsValid())
	assert.Contains(t, err.Error(), "broken.cue")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "local.cue")
	src := strings.Replace(string(defaultSrc),
		`base_url: "https://www.demoblaze.com/index.html"`,
		`base_url: "http://127.0.0.1:9000/index.html"`, 1)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	l, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000/index.html", l.BaseURL)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read layout")
}

func TestErrorFormatting(t *testing.T) {
	e := &Error{Field: "cart.total", Message: "empty expression"}
	assert.Equal(t, "cart.total: empty expression", e.Error())
}
