package cluster

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

const (
	// ImbalanceWeight — вес стандартного отклонения загрузок в целевой функции.
	ImbalanceWeight = 500.0

	LinearPenaltyWeight = 100000.0

	QuadraticPenaltyWeight = 5000.0
	QuadraticPenaltyBase   = 2000.0
)

// PenaltyPolicy — способ штрафовать превышение ёмкости.
// Политики намеренно не унифицированы: каждая используется своим решателем.
type PenaltyPolicy int

const (
	// LinearPenalty: 100000 × сумма превышений по всем узлам и ресурсам.
	LinearPenalty PenaltyPolicy = iota
	// QuadraticPenalty: для каждого перегруженного узла 5000×Σover² + 2000.
	QuadraticPenalty
)

func (p PenaltyPolicy) String() string {
	switch p {
	case LinearPenalty:
		return "linear"
	case QuadraticPenalty:
		return "quadratic"
	default:
		return fmt.Sprintf("PenaltyPolicy(%d)", int(p))
	}
}

// Penalty вычисляет штраф; 0 для допустимого решения при любой политике.
func (p PenaltyPolicy) Penalty(nodes []*NodeState) float64 {
	penalty := 0.0
	for _, n := range nodes {
		if !n.Overloaded() {
			continue
		}
		over := n.Overflow()
		switch p {
		case QuadraticPenalty:
			penalty += QuadraticPenaltyWeight*(over.CPU*over.CPU+over.Memory*over.Memory+over.Network*over.Network) +
				QuadraticPenaltyBase
		default:
			penalty += LinearPenaltyWeight * over.Total()
		}
	}
	return penalty
}

// Evaluation — разложение целевой функции.
type Evaluation struct {
	Objective float64
	ExecTime  float64
	Imbalance float64 // стандартное отклонение загрузок (без веса)
	Penalty   float64
	Valid     bool
}

// Score оценивает готовые состояния узлов.
func Score(nodes []*NodeState, policy PenaltyPolicy) Evaluation {
	var ev Evaluation
	ev.Valid = true

	loads := make([]float64, len(nodes))
	for i, n := range nodes {
		if n.Overloaded() {
			ev.Valid = false
		}
		ev.ExecTime += n.ExecutionTime()
		loads[i] = n.LoadFactor()
	}
	if len(loads) > 1 {
		ev.Imbalance = stat.PopStdDev(loads, nil)
	}
	if !ev.Valid {
		ev.Penalty = policy.Penalty(nodes)
	}
	ev.Objective = ev.ExecTime + ImbalanceWeight*ev.Imbalance + ev.Penalty
	return ev
}

// Evaluator пересобирает состояния узлов по вектору позиций и оценивает их.
// Буферы переиспользуются, поэтому Evaluator не безопасен для конкурентного использования.
type Evaluator struct {
	inst   *Instance
	policy PenaltyPolicy
	nodes  []*NodeState
}

func NewEvaluator(inst *Instance, policy PenaltyPolicy) (*Evaluator, error) {
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{inst: inst, policy: policy, nodes: NewNodeStates(inst.Nodes)}, nil
}

func (e *Evaluator) Policy() PenaltyPolicy { return e.policy }

// Clone возвращает оценщик того же экземпляра со своими буферами, без повторной проверки.
// Каждая горутина должна работать со своей копией.
func (e *Evaluator) Clone() *Evaluator {
	return &Evaluator{inst: e.inst, policy: e.policy, nodes: NewNodeStates(e.inst.Nodes)}
}

func (e *Evaluator) Evaluate(pos []int) (Evaluation, error) {
	if e == nil || e.inst == nil {
		return Evaluation{}, fmt.Errorf("nil evaluator")
	}
	if err := ValidatePositions(pos, len(e.inst.Tasks), len(e.inst.Nodes)); err != nil {
		return Evaluation{}, err
	}
	Rebuild(e.nodes, e.inst.Tasks, pos)
	return Score(e.nodes, e.policy), nil
}

func (e *Evaluator) MustEvaluate(pos []int) Evaluation {
	ev, err := e.Evaluate(pos)
	if err != nil {
		panic(err)
	}
	return ev
}

// Rebuild сбрасывает узлы и заново раскладывает задачи по позициям без проверки ёмкости,
// чтобы недопустимые решения тоже получали оценку.
func Rebuild(nodes []*NodeState, tasks []Task, pos []int) {
	for _, n := range nodes {
		n.Reset()
	}
	for i, p := range pos {
		nodes[p].Assign(tasks[i])
	}
}
