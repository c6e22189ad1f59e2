package opt

import (
	"context"
	"time"

	"taskAlloc/internal/cluster"
)

type Optimizer interface {
	Solve(ctx context.Context, inst *cluster.Instance) (Result, error)
}

// Result — единая форма результата всех решателей.
type Result struct {
	// Assignment — ID узла для каждой задачи; nil, если полное назначение не найдено.
	Assignment  []int
	Objective   float64
	Valid       bool
	Evaluations int
	Iterations  int
	Duration    time.Duration

	// History — лучшее значение целевой функции после каждой итерации (только EM).
	History []float64
	// Nodes — утилизация узлов для найденного назначения.
	Nodes []cluster.NodeUsage

	Meta map[string]any
}

// Found сообщает, что решатель вернул полное назначение.
func (r Result) Found() bool {
	return r.Assignment != nil
}
