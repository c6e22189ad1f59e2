package greedy

import (
	"context"
	"sort"
	"time"

	log "github.com/sirupsen/logrus"

	"taskAlloc/internal/cluster"
	"taskAlloc/internal/opt"
)

// Solver — однопроходная жадная эвристика: самые тяжёлые задачи раскладываются первыми
// на узел с наименьшей будущей загрузкой узкого места.
// Детерминирован, контекст не прерывает работу.
type Solver struct{}

func New() *Solver {
	return &Solver{}
}

// Weight — «тяжесть» задачи для порядка размещения.
func Weight(t cluster.Task) float64 {
	return t.Demand.CPU + t.Demand.Memory/10 + t.Demand.Network/100
}

// Solve — реализация эвристики.
func (s *Solver) Solve(_ context.Context, inst *cluster.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}

	nodes := cluster.NewNodeStates(inst.Nodes)

	// Порядок задач по убыванию веса; стабильная сортировка сохраняет исходный порядок при равенстве
	order := make([]int, inst.NumTasks())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return Weight(inst.Tasks[order[a]]) > Weight(inst.Tasks[order[b]])
	})

	pos := make([]int, inst.NumTasks())
	forced := 0
	for _, idx := range order {
		t := inst.Tasks[idx]

		k := bestFit(nodes, t)
		if k < 0 {
			// Ни один узел не вмещает задачу: кладём на наименее загруженный, игнорируя ёмкость
			k = leastLoaded(nodes)
			forced++
		}
		nodes[k].Assign(t)
		pos[idx] = k
	}

	ev := cluster.Score(nodes, cluster.QuadraticPenalty)
	if forced > 0 {
		log.WithFields(log.Fields{
			"forced": forced,
			"valid":  ev.Valid,
		}).Debug("greedy: tasks placed without capacity")
	}

	return opt.Result{
		Assignment:  inst.NodeIDs(pos),
		Objective:   ev.Objective,
		Valid:       ev.Valid,
		Evaluations: 1,
		Iterations:  inst.NumTasks(),
		Duration:    time.Since(start),
		Nodes:       cluster.Usage(nodes),
		Meta: map[string]any{
			"forced":  forced,
			"penalty": cluster.QuadraticPenalty.String(),
		},
	}, nil
}

// bestFit возвращает узел с минимальной будущей загрузкой среди вмещающих задачу, либо -1.
func bestFit(nodes []*cluster.NodeState, t cluster.Task) int {
	best := -1
	bestLoad := 0.0
	for k, n := range nodes {
		if !n.CanAccommodate(t) {
			continue
		}
		load := n.ProjectedLoad(t)
		if best < 0 || load < bestLoad {
			best = k
			bestLoad = load
		}
	}
	return best
}

// leastLoaded возвращает первый узел с минимальным текущим коэффициентом загрузки.
func leastLoaded(nodes []*cluster.NodeState) int {
	best := 0
	bestLoad := nodes[0].LoadFactor()
	for k := 1; k < len(nodes); k++ {
		if lf := nodes[k].LoadFactor(); lf < bestLoad {
			best = k
			bestLoad = lf
		}
	}
	return best
}
