// Package clustertest содержит небольшие экземпляры с известными ответами для тестов решателей.
package clustertest

import (
	"taskAlloc/internal/cluster"
)

// TwoByTwoOptimum — значение целевой функции оптимального назначения TwoByTwo.
const TwoByTwoOptimum = 61.04

// TwoByTwo — две задачи и два одинаковых узла ёмкостью (1, 4, 100).
// Оптимум [0 1] (и симметричный [1 0]) со значением 7.5 + 3.54 + 500·0.1.
func TwoByTwo() *cluster.Instance {
	return mustInstance(
		[]cluster.Task{
			{ID: 0, Demand: cluster.Resources{CPU: 0.5, Memory: 1, Network: 10}, ExecTime: 5},
			{ID: 1, Demand: cluster.Resources{CPU: 0.3, Memory: 1, Network: 10}, ExecTime: 3},
		},
		[]cluster.Node{
			{ID: 0, Capacity: cluster.Resources{CPU: 1, Memory: 4, Network: 100}},
			{ID: 1, Capacity: cluster.Resources{CPU: 1, Memory: 4, Network: 100}},
		},
	)
}

// Infeasible — задача не помещается ни на один узел.
func Infeasible() *cluster.Instance {
	return mustInstance(
		[]cluster.Task{
			{ID: 0, Demand: cluster.Resources{CPU: 2, Memory: 1, Network: 10}, ExecTime: 4},
			{ID: 1, Demand: cluster.Resources{CPU: 0.5, Memory: 1, Network: 10}, ExecTime: 2},
		},
		[]cluster.Node{
			{ID: 10, Capacity: cluster.Resources{CPU: 1, Memory: 4, Network: 100}},
			{ID: 20, Capacity: cluster.Resources{CPU: 1, Memory: 4, Network: 100}},
		},
	)
}

// CPUOverflow — две задачи, которые вместе превышают CPU единственного узла на 0.25.
func CPUOverflow() *cluster.Instance {
	return mustInstance(
		[]cluster.Task{
			{ID: 0, Demand: cluster.Resources{CPU: 0.75, Memory: 1, Network: 10}, ExecTime: 1},
			{ID: 1, Demand: cluster.Resources{CPU: 0.5, Memory: 1, Network: 10}, ExecTime: 1},
		},
		[]cluster.Node{
			{ID: 0, Capacity: cluster.Resources{CPU: 1, Memory: 4, Network: 100}},
		},
	)
}

func mustInstance(tasks []cluster.Task, nodes []cluster.Node) *cluster.Instance {
	inst, err := cluster.NewInstance(tasks, nodes)
	if err != nil {
		panic(err)
	}
	return inst
}
