package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
)

// Instance — упорядоченный набор задач и шаблонов узлов.
// Порядок узлов задаёт единый полный порядок, используемый всеми решателями.
type Instance struct {
	Tasks []Task
	Nodes []Node

	indexOnce sync.Once
	index     map[int]int // node ID -> позиция в Nodes
}

func NewInstance(tasks []Task, nodes []Node) (*Instance, error) {
	inst := &Instance{Tasks: tasks, Nodes: nodes}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	inst.buildIndex()
	return inst, nil
}

// Validate только читает экземпляр и безопасен для конкурентного вызова.
func (inst *Instance) Validate() error {
	if inst == nil {
		return errors.New("instance is nil")
	}
	if len(inst.Tasks) == 0 {
		return errors.New("instance must have at least one task")
	}
	if len(inst.Nodes) == 0 {
		return errors.New("instance must have at least one node")
	}

	seenTasks := make(map[int]struct{}, len(inst.Tasks))
	for i, t := range inst.Tasks {
		if _, dup := seenTasks[t.ID]; dup {
			return fmt.Errorf("duplicate task id %d", t.ID)
		}
		seenTasks[t.ID] = struct{}{}
		if !nonNegative(t.Demand.CPU, t.Demand.Memory, t.Demand.Network) {
			return fmt.Errorf("tasks[%d] (id %d): demand must be finite and >= 0 (got %+v)", i, t.ID, t.Demand)
		}
		if !nonNegative(t.ExecTime) {
			return fmt.Errorf("tasks[%d] (id %d): execution time must be finite and >= 0 (got %f)", i, t.ID, t.ExecTime)
		}
	}

	seenNodes := make(map[int]struct{}, len(inst.Nodes))
	for i, n := range inst.Nodes {
		if _, dup := seenNodes[n.ID]; dup {
			return fmt.Errorf("duplicate node id %d", n.ID)
		}
		seenNodes[n.ID] = struct{}{}
		c := n.Capacity
		if !(c.CPU > 0 && c.Memory > 0 && c.Network > 0) || math.IsInf(c.Total(), 0) {
			return fmt.Errorf("nodes[%d] (id %d): capacity must be finite and > 0 (got %+v)", i, n.ID, c)
		}
	}
	return nil
}

// buildIndex строит индекс узлов один раз; для невалидного экземпляра индекс остаётся пустым.
func (inst *Instance) buildIndex() {
	inst.indexOnce.Do(func() {
		if inst.Validate() != nil {
			return
		}
		index := make(map[int]int, len(inst.Nodes))
		for i, n := range inst.Nodes {
			index[n.ID] = i
		}
		inst.index = index
	})
}

func (inst *Instance) NumTasks() int { return len(inst.Tasks) }
func (inst *Instance) NumNodes() int { return len(inst.Nodes) }

// Combinations — размер полного пространства поиска nodes^tasks
// (насыщается в +Inf при переполнении).
func (inst *Instance) Combinations() float64 {
	return math.Pow(float64(len(inst.Nodes)), float64(len(inst.Tasks)))
}

// NodeIndex возвращает позицию узла с данным ID.
func (inst *Instance) NodeIndex(id int) (int, bool) {
	inst.buildIndex()
	i, ok := inst.index[id]
	return i, ok
}

// RandomInstance генерирует экземпляр с диапазонами, близкими к исходным тестовым наборам.
func RandomInstance(tasks, nodes int, rng *rand.Rand) *Instance {
	if rng == nil {
		panic("генератор случайных чисел не инициализирован (nil)")
	}
	if tasks <= 0 || nodes <= 0 {
		panic("invalid instance size")
	}
	uniform := func(lo, hi float64) float64 {
		return round2(lo + rng.Float64()*(hi-lo))
	}

	ts := make([]Task, tasks)
	for i := range ts {
		ts[i] = Task{
			ID: i,
			Demand: Resources{
				CPU:     uniform(0.1, 1.0),
				Memory:  uniform(0.5, 4),
				Network: uniform(5, 50),
			},
			ExecTime: uniform(1, 10),
		}
	}
	ns := make([]Node, nodes)
	for i := range ns {
		ns[i] = Node{
			ID: i,
			Capacity: Resources{
				CPU:     float64(1 + rng.Intn(4)),
				Memory:  float64(4 * (1 + rng.Intn(4))),
				Network: float64(100 * (1 + rng.Intn(10))),
			},
		}
	}

	inst, err := NewInstance(ts, ns)
	if err != nil {
		panic(err)
	}
	return inst
}

func nonNegative(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return false
		}
	}
	return true
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
