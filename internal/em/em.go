package em

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"taskAlloc/internal/cluster"
	"taskAlloc/internal/opt"
)

// Solver — электромагнитоподобный популяционный алгоритм.
// Работает фиксированное число итераций; контекст не прерывает работу.
type Solver struct {
	Cfg Config
	Rng *rand.Rand
}

// New возвращает новый EM-солвер с валидацией конфигурации, с использованием инициализированного генератора случайных чисел.
// Используется в фабриках.
func New(cfg Config, rng *rand.Rand) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}
	return &Solver{Cfg: cfg, Rng: rng}, nil
}

func (s *Solver) Solve(_ context.Context, inst *cluster.Instance) (opt.Result, error) {
	start := time.Now()

	// Валидация входных данных
	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}
	if s.Rng == nil {
		return opt.Result{}, fmt.Errorf("генератор случайных чисел не инициализирован (nil)")
	}

	n := inst.NumTasks()
	popSize := s.Cfg.Population
	iters := s.Cfg.iterations(n)
	eps := s.Cfg.Epsilon

	// Инициализация популяции
	scratch := make([]int, 0, inst.NumNodes())
	ps := make([]*particle, popSize)
	initialValid := 0
	for i := range ps {
		ps[i] = newParticle(inst, s.Rng, scratch)
		if ps[i].evaluate(inst).Valid {
			initialValid++
		}
	}
	evals := popSize

	best := newBestRecord(ps)

	// Позиции частиц как точки в n-мерном пространстве индексов узлов
	coords := make([][]float64, popSize)
	for i, p := range ps {
		coords[i] = make([]float64, n)
		p.coords(coords[i])
	}

	raw := make([]float64, popSize)     // текущие заряды
	charges := make([]float64, popSize) // нормированные заряды итерации
	force := make([]float64, n)
	diff := make([]float64, n)

	history := make([]float64, 0, iters)
	improvements := 0

	for iter := 0; iter < iters; iter++ {
		// Нормировка зарядов
		for i, p := range ps {
			raw[i] = p.charge
		}
		normalizeCharges(charges, raw)

		// Силы и перемещение; частицы двигаются по очереди,
		// поэтому следующая частица видит уже обновлённые позиции
		for i, p := range ps {
			computeForce(force, diff, coords, charges, raw, i, eps)
			moveParticle(p.pos, force, inst.NumNodes(), eps, s.Rng)
			p.coords(coords[i])

			p.evaluate(inst)
			raw[i] = p.charge
			evals++

			if best.offer(p) {
				improvements++
			}
		}

		// Локальный поиск вокруг глобально лучшего решения
		ls, improved := s.localSearch(inst, best)
		evals += ls
		improvements += improved

		history = append(history, best.objective())

		if s.Cfg.LogEvery > 0 && (iter+1)%s.Cfg.LogEvery == 0 {
			log.WithFields(log.Fields{
				"iteration": iter + 1,
				"total":     iters,
				"best":      best.objective(),
				"valid":     best.p.eval.Valid,
			}).Debug("em: progress")
		}
	}

	return opt.Result{
		Assignment:  inst.NodeIDs(best.p.pos),
		Objective:   best.p.eval.Objective,
		Valid:       best.p.eval.Valid,
		Evaluations: evals,
		Iterations:  iters,
		Duration:    time.Since(start),
		History:     history,
		Nodes:       cluster.Usage(best.p.nodes),
		Meta: map[string]any{
			"population":          popSize,
			"local_search_probes": s.Cfg.LocalSearchProbes,
			"initial_valid":       initialValid,
			"improvements":        improvements,
		},
	}, nil
}

// normalizeCharges приводит заряды к сумме 1; при нулевой сумме веса равны.
func normalizeCharges(dst, raw []float64) {
	copy(dst, raw)
	total := floats.Sum(dst)
	if total > 0 {
		floats.Scale(1/total, dst)
		return
	}
	for i := range dst {
		dst[i] = 1.0 / float64(len(dst))
	}
}

// computeForce считает результирующую силу на частицу i.
// Частица притягивается к частицам со строго большим зарядом и отталкивается от остальных;
// величина вклада q_i·q_j / (d² + eps).
func computeForce(force, diff []float64, coords [][]float64, charges, raw []float64, i int, eps float64) {
	for d := range force {
		force[d] = 0
	}
	for j := range coords {
		if j == i {
			continue
		}
		floats.SubTo(diff, coords[j], coords[i])
		dist2 := floats.Dot(diff, diff)
		magnitude := charges[i] * charges[j] / (dist2 + eps)

		if raw[j] > raw[i] {
			floats.AddScaled(force, magnitude, diff)
		} else {
			floats.AddScaled(force, -magnitude, diff)
		}
	}
}

// moveParticle переносит задачи на соседний узел по кругу с вероятностью,
// пропорциональной компоненте силы: вперёд при положительной силе, назад иначе.
// Возвращает число переназначенных задач.
func moveParticle(pos []int, force []float64, nodes int, eps float64, rng *rand.Rand) int {
	if nodes < 2 {
		return 0
	}
	maxAbs := floats.Norm(force, math.Inf(1))

	moved := 0
	for d, f := range force {
		p := math.Abs(f) / (maxAbs + eps)
		if rng.Float64() < p {
			pos[d] = step(pos[d], nodes, f > 0)
			moved++
		}
	}
	return moved
}

// step возвращает соседний узел в круговом порядке.
func step(cur, nodes int, forward bool) int {
	if forward {
		return (cur + 1) % nodes
	}
	return (cur - 1 + nodes) % nodes
}

// localSearch пробует переназначить случайную задачу копии лучшей частицы на другой узел.
// Изменение сохраняется, если решение допустимо и не хуже прежнего, иначе откатывается.
// Возвращает число оценок и число улучшений глобальной записи.
func (s *Solver) localSearch(inst *cluster.Instance, best *bestRecord) (int, int) {
	m := inst.NumNodes()
	if m < 2 || s.Cfg.LocalSearchProbes == 0 {
		return 0, 0
	}

	cand := best.p.clone()
	evals, improved := 0, 0

	for a := 0; a < s.Cfg.LocalSearchProbes; a++ {
		idx := s.Rng.Intn(len(cand.pos))
		cur := cand.pos[idx]

		next := s.Rng.Intn(m - 1)
		if next >= cur {
			next++
		}

		prevEval, prevCharge := cand.eval, cand.charge
		cand.pos[idx] = next
		ev := cand.evaluate(inst)
		evals++

		if ev.Valid && (!prevEval.Valid || ev.Objective <= prevEval.Objective) {
			if best.offer(cand) {
				improved++
			}
			continue
		}

		cand.pos[idx] = cur
		cand.restore(inst, prevEval, prevCharge)
	}
	return evals, improved
}
