package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally/v4"

	"taskAlloc/internal/opt"
)

func counterValue(t *testing.T, scope tally.TestScope, name, solver string) int64 {
	t.Helper()
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() == name && c.Tags()["solver"] == solver {
			return c.Value()
		}
	}
	return 0
}

func TestObserve(t *testing.T) {
	scope := tally.NewTestScope("test", nil)
	m := NewSolver(scope, "exact")

	m.Observe(opt.Result{
		Assignment:  []int{0, 1},
		Objective:   61.04,
		Valid:       true,
		Evaluations: 4,
		Duration:    time.Millisecond,
		Meta:        map[string]any{"deadline_exceeded": false},
	}, nil)
	m.Observe(opt.Result{
		Evaluations: 2,
		Meta:        map[string]any{"deadline_exceeded": true},
	}, nil)
	m.Observe(opt.Result{Assignment: []int{0, 0}, Objective: 1e5}, errors.New("boom"))

	assert.Equal(t, int64(3), counterValue(t, scope, "test.runs", "exact"))
	assert.Equal(t, int64(6), counterValue(t, scope, "test.evaluations", "exact"))
	assert.Equal(t, int64(1), counterValue(t, scope, "test.empty", "exact"))
	assert.Equal(t, int64(1), counterValue(t, scope, "test.infeasible", "exact"))
	assert.Equal(t, int64(1), counterValue(t, scope, "test.deadline_exceeded", "exact"))
	assert.Equal(t, int64(1), counterValue(t, scope, "test.errors", "exact"))

	var gauge float64
	for _, g := range scope.Snapshot().Gauges() {
		if g.Name() == "test.best_objective" {
			gauge = g.Value()
		}
	}
	assert.Equal(t, 1e5, gauge)

	timers := 0
	for _, tm := range scope.Snapshot().Timers() {
		if tm.Name() == "test.runtime" {
			timers = len(tm.Values())
		}
	}
	assert.Equal(t, 3, timers)
}

func TestInitScope(t *testing.T) {
	scope, closer := InitScope(DefaultConfig())
	assert.Equal(t, tally.NoopScope, scope)
	require.NoError(t, closer.Close())

	cfg := DefaultConfig()
	cfg.Enable = true
	scope, closer = InitScope(cfg)
	NewSolver(scope, "greedy").Runs.Inc(1)
	assert.NoError(t, closer.Close())
}
