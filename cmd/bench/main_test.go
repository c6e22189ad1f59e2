package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskAlloc/internal/bench"
	"taskAlloc/internal/cluster/clustertest"
	"taskAlloc/internal/config"
)

func TestAlgorithmsDefault(t *testing.T) {
	selected, err := algorithms(config.Default())
	require.NoError(t, err)
	require.Len(t, selected, 3)

	names := make([]string, 0, len(selected))
	for _, a := range selected {
		names = append(names, a.Name)
		op := a.Factory(1)
		require.NotNil(t, op, a.Name)

		res, err := op.Solve(context.Background(), clustertest.TwoByTwo())
		require.NoError(t, err, a.Name)
		assert.True(t, res.Found(), a.Name)
	}
	assert.Equal(t, []string{bench.ExactName, "greedy", bench.EMName}, names)
	assert.True(t, selected[0].Exhaustive)
	assert.True(t, selected[1].Deterministic)
	assert.False(t, selected[2].Deterministic)
}

func TestAlgorithmsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.EM.Population = 0
	_, err := algorithms(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "em")

	cfg = config.Default()
	cfg.Exact.Workers = -1
	_, err = algorithms(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exact")

	_, err = newEMFactory(cfg.EM)
	assert.NoError(t, err)
}

func TestAlgorithmsUnknownName(t *testing.T) {
	cfg := config.Default()
	cfg.Bench.Algorithms = []string{"greedy", "annealing"}
	_, err := algorithms(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "annealing")
}
