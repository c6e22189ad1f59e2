package greedy

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskAlloc/internal/cluster"
	"taskAlloc/internal/cluster/clustertest"
)

func TestWeight(t *testing.T) {
	task := cluster.Task{Demand: cluster.Resources{CPU: 0.5, Memory: 1, Network: 10}}
	assert.InDelta(t, 0.7, Weight(task), 1e-12)
}

func TestSolveTwoByTwo(t *testing.T) {
	res, err := New().Solve(context.Background(), clustertest.TwoByTwo())
	require.NoError(t, err)

	assert.True(t, res.Valid)
	assert.Equal(t, []int{0, 1}, res.Assignment)
	assert.InDelta(t, clustertest.TwoByTwoOptimum, res.Objective, 1e-9)
	assert.Equal(t, 0, res.Meta["forced"])
	assert.Equal(t, 1, res.Evaluations)
}

func TestSolveForcesUnplaceableTask(t *testing.T) {
	res, err := New().Solve(context.Background(), clustertest.Infeasible())
	require.NoError(t, err)

	// задача 0 тяжелее и идёт первой: не помещается никуда и ложится на первый наименее загруженный узел
	assert.Equal(t, []int{10, 20}, res.Assignment)
	assert.False(t, res.Valid)
	assert.Equal(t, 1, res.Meta["forced"])
	assert.Equal(t, "quadratic", res.Meta["penalty"])
	// 36 + 3 + 500·0.75 + (5000·1² + 2000)
	assert.InDelta(t, 7414.0, res.Objective, 1e-9)
}

func TestSolveCoversEveryTask(t *testing.T) {
	inst := cluster.RandomInstance(20, 5, rand.New(rand.NewSource(7)))
	res, err := New().Solve(context.Background(), inst)
	require.NoError(t, err)
	require.Len(t, res.Assignment, inst.NumTasks())

	for _, id := range res.Assignment {
		_, ok := inst.NodeIndex(id)
		assert.True(t, ok, "unknown node id %d", id)
	}

	placed := 0
	for _, u := range res.Nodes {
		placed += len(u.TaskIDs)
	}
	assert.Equal(t, inst.NumTasks(), placed)

	again, err := New().Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.Equal(t, res.Assignment, again.Assignment)
	assert.Equal(t, res.Objective, again.Objective)
}

func TestSolveValidWhenCapacityIsAmple(t *testing.T) {
	inst := cluster.RandomInstance(6, 3, rand.New(rand.NewSource(2)))
	for i := range inst.Nodes {
		inst.Nodes[i].Capacity = cluster.Resources{CPU: 10, Memory: 40, Network: 1000}
	}
	res, err := New().Solve(context.Background(), inst)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.Equal(t, 0, res.Meta["forced"])
}

func TestBestFitAndLeastLoaded(t *testing.T) {
	nodes := cluster.NewNodeStates([]cluster.Node{
		{ID: 0, Capacity: cluster.Resources{CPU: 1, Memory: 4, Network: 100}},
		{ID: 1, Capacity: cluster.Resources{CPU: 2, Memory: 4, Network: 100}},
	})
	task := cluster.Task{ID: 0, Demand: cluster.Resources{CPU: 0.5, Memory: 1, Network: 10}}

	// 0.5/1 против 0.5/2
	assert.Equal(t, 1, bestFit(nodes, task))
	assert.Equal(t, 0, leastLoaded(nodes), "при равной загрузке выбирается первый узел")

	nodes[0].Assign(task)
	assert.Equal(t, 1, leastLoaded(nodes))

	huge := cluster.Task{ID: 1, Demand: cluster.Resources{CPU: 5}}
	assert.Equal(t, -1, bestFit(nodes, huge))
}

func TestSolveRejectsInvalidInstance(t *testing.T) {
	_, err := New().Solve(context.Background(), &cluster.Instance{})
	assert.Error(t, err)
}
