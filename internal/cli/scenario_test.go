package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/pages"
	"github.com/roach88/storecheck/internal/scenario"
)

func TestScenarioCommandLogin(t *testing.T) {
	out, _, err := execute(t, newTestOptions(), "scenario", "login")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ login on chrome (run run-0001,")
	assert.Contains(t, out, "  1. open_store [ok]\n")
	assert.Contains(t, out, "  4. verify_welcome_banner [ok] Welcome jakubszczypek\n")
}

func TestScenarioCommandWrongPassword(t *testing.T) {
	out, _, err := execute(t, newTestOptions(), "scenario", "login", "--password", "nope", "--browser", "firefox")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "SYNCHRONIZATION_TIMEOUT")

	assert.Contains(t, out, "✗ login on firefox")
	assert.Contains(t, out, "SYNCHRONIZATION_TIMEOUT: The element Welcome text was not found in 80ms!")
}

func TestScenarioCommandUnknownName(t *testing.T) {
	out, _, err := execute(t, newTestOptions(), "scenario", "refund")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E006]")
	assert.Contains(t, out, `unknown scenario "refund"`)
}

func TestScenarioCommandPositionsJSON(t *testing.T) {
	out, _, err := execute(t, newTestOptions(), "--format", "json",
		"scenario", "multi_purchase", "--positions", "0,1,5", "--browser", "edge")
	require.NoError(t, err)

	var resp struct {
		Status  string           `json:"status"`
		Data    scenario.Outcome `json:"data"`
		TraceID string           `json:"trace_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "run-0001", resp.TraceID)
	assert.True(t, resp.Data.Pass)
	assert.Equal(t, scenario.MultiPurchase, resp.Data.Scenario)
	assert.Equal(t, "edge", string(resp.Data.Browser))
	assert.NotEmpty(t, resp.Data.Steps)
}

func TestScenarioCommandUnsupportedBrowser(t *testing.T) {
	out, _, err := execute(t, newTestOptions(), "scenario", "login", "--browser", "safari")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "UNSUPPORTED_BROWSER_KIND")
}

func TestScenarioOptionsParams(t *testing.T) {
	opts := &ScenarioOptions{
		Username:  "ada",
		Positions: []int{2},
		Buyer:     pages.Buyer{Name: "Ada", City: "Turin"},
	}
	p := opts.params()
	d := scenario.DefaultParams()

	assert.Equal(t, "ada", p.Username)
	assert.Equal(t, d.Password, p.Password)
	assert.Equal(t, []int{2}, p.Positions)
	assert.Equal(t, "Ada", p.Buyer.Name)
	assert.Equal(t, "Turin", p.Buyer.City)
	assert.Equal(t, d.Buyer.Country, p.Buyer.Country)
	assert.Equal(t, d.Buyer.Card, p.Buyer.Card)
}
