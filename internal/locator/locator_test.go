package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	assert.Equal(t, Locator{Strategy: CSSStrategy, Expression: "#totalp"}, CSS("#totalp"))
	assert.Equal(t, Locator{Strategy: XPathStrategy, Expression: "//a"}, XPath("//a"))
	assert.Equal(t, Locator{Strategy: IDStrategy, Expression: "tbodyid"}, ID("tbodyid"))
}

func TestLocatorComparedByValue(t *testing.T) {
	a := XPath("//a[@id='cartur']")
	b := XPath("//a[@id='cartur']")
	assert.True(t, a == b)

	seen := map[Locator]bool{a: true}
	assert.True(t, seen[b])
	assert.False(t, seen[CSS("//a[@id='cartur']")])
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in   string
		want Strategy
	}{
		{"css", CSSStrategy},
		{"XPATH", XPathStrategy},
		{" Id ", IDStrategy},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseStrategy("link-text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown locator strategy")
}

func TestValidate(t *testing.T) {
	require.NoError(t, CSS("p.lead").Validate())
	assert.Error(t, CSS("  ").Validate())
	assert.Error(t, Locator{Strategy: "name", Expression: "q"}.Validate())
}

func TestString(t *testing.T) {
	assert.Equal(t, "css=#totalp", CSS("#totalp").String())
	assert.Equal(t, "xpath=//h3[@class='price-container']", XPath("//h3[@class='price-container']").String())
	assert.Equal(t, "id=tbodyid", ID("tbodyid").String())
}
