package em

import (
	"math/rand"

	"taskAlloc/internal/cluster"
)

// particle — одно полное решение: собственная копия узлов, позиция и заряд.
type particle struct {
	// pos — индекс узла для каждой задачи
	pos []int
	// nodes — состояние узлов, согласованное с pos после evaluate
	nodes []*cluster.NodeState

	eval cluster.Evaluation
	// charge = 1/(1+objective): чем лучше решение, тем больше заряд
	charge float64
}

// newParticle раскладывает задачи случайно: на допустимый узел, если такой есть,
// иначе на любой (частица может быть недопустимой).
func newParticle(inst *cluster.Instance, rng *rand.Rand, scratch []int) *particle {
	p := &particle{
		pos:   make([]int, inst.NumTasks()),
		nodes: cluster.NewNodeStates(inst.Nodes),
	}

	for i, t := range inst.Tasks {
		fits := scratch[:0]
		for k, n := range p.nodes {
			if n.CanAccommodate(t) {
				fits = append(fits, k)
			}
		}
		if len(fits) > 0 {
			k := fits[rng.Intn(len(fits))]
			p.nodes[k].Assign(t)
			p.pos[i] = k
		} else {
			p.pos[i] = rng.Intn(inst.NumNodes())
		}
	}
	return p
}

// evaluate пересобирает узлы по позиции и пересчитывает оценку и заряд.
func (p *particle) evaluate(inst *cluster.Instance) cluster.Evaluation {
	cluster.Rebuild(p.nodes, inst.Tasks, p.pos)
	p.eval = cluster.Score(p.nodes, cluster.LinearPenalty)
	p.charge = 1.0 / (1.0 + p.eval.Objective)
	return p.eval
}

// restore откатывает частицу к ранее посчитанной оценке без повторного подсчёта.
func (p *particle) restore(inst *cluster.Instance, ev cluster.Evaluation, charge float64) {
	cluster.Rebuild(p.nodes, inst.Tasks, p.pos)
	p.eval = ev
	p.charge = charge
}

func (p *particle) clone() *particle {
	return &particle{
		pos:    append([]int(nil), p.pos...),
		nodes:  cluster.CloneNodeStates(p.nodes),
		eval:   p.eval,
		charge: p.charge,
	}
}

// coords записывает позицию как точку пространства индексов узлов.
func (p *particle) coords(dst []float64) {
	for d, k := range p.pos {
		dst[d] = float64(k)
	}
}

// bestRecord — единственная запись о глобально лучшей частице. Хранит глубокую копию,
// поэтому дальнейшие перемещения частиц её не затрагивают.
type bestRecord struct {
	p *particle
}

// newBestRecord выбирает лучшую допустимую частицу; если допустимых нет,
// лучшую по целевой функции, чтобы у поиска всегда был ориентир.
func newBestRecord(ps []*particle) *bestRecord {
	var best *particle
	for _, p := range ps {
		if p.eval.Valid && (best == nil || p.eval.Objective < best.eval.Objective) {
			best = p
		}
	}
	if best == nil {
		for _, p := range ps {
			if best == nil || p.eval.Objective < best.eval.Objective {
				best = p
			}
		}
	}
	return &bestRecord{p: best.clone()}
}

// offer заменяет запись, если кандидат допустим и строго лучше.
func (b *bestRecord) offer(p *particle) bool {
	if !p.eval.Valid || !(p.eval.Objective < b.p.eval.Objective) {
		return false
	}
	b.p = p.clone()
	return true
}

func (b *bestRecord) objective() float64 {
	return b.p.eval.Objective
}
