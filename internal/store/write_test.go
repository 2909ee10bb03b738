package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storecheck/internal/scenario"
)

func TestWriteRun_StoresRunAndSteps(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRun(ctx, passingOutcome("run-0001")))

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM steps WHERE run_id = ?", "run-0001").Scan(&count))
	assert.Equal(t, 2, count)
}

func TestWriteRun_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	out := passingOutcome("run-0001")
	require.NoError(t, s.WriteRun(ctx, out))

	out.Pass = false
	out.Steps = append(out.Steps, scenario.Step{Seq: 3, Action: "extra", Status: scenario.StatusOK})
	require.NoError(t, s.WriteRun(ctx, out))

	r, err := s.ReadRun(ctx, "run-0001")
	require.NoError(t, err)
	assert.True(t, r.Pass, "second write must not overwrite")

	steps, err := s.ReadSteps(ctx, "run-0001")
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestWriteRun_RequiresID(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteRun(context.Background(), passingOutcome(""))
	assert.ErrorContains(t, err, "run id is required")
}

func TestWriteRun_RollsBackOnBadStep(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	out := passingOutcome("run-bad")
	out.Steps = append(out.Steps, scenario.Step{Seq: 3, Action: "x", Status: "weird"})
	require.Error(t, s.WriteRun(ctx, out))

	_, err := s.ReadRun(ctx, "run-bad")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestWriteRuns(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteRuns(ctx, []scenario.Outcome{passingOutcome("a"), failingOutcome("b")}))
	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
