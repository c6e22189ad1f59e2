package exact

import (
	"context"
	"math"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"taskAlloc/internal/cluster"
	"taskAlloc/internal/opt"
)

// Причина остановки поиска.
const (
	stopNone int32 = iota
	stopDeadline
	stopContext
)

// Solver — полный перебор назначений с возвратом.
// Сложность nodes^tasks: решать, стоит ли запускать его на большом экземпляре, должен вызывающий.
//
// При Prune = true и отсутствии хотя бы одного допустимого назначения
// все ветви могут быть отсечены, и результат окажется пустым; это часть контракта.
type Solver struct {
	Cfg Config
}

// New возвращает решатель с валидацией конфигурации.
func New(cfg Config) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Solver{Cfg: cfg}, nil
}

// Solve — поиск в глубину. По истечении TimeLimit возвращается лучшее
// полное назначение, найденное к этому моменту (возможно, никакого), без ошибки.
func (s *Solver) Solve(ctx context.Context, inst *cluster.Instance) (opt.Result, error) {
	start := time.Now()

	if err := inst.Validate(); err != nil {
		return opt.Result{}, err
	}
	if err := s.Cfg.Validate(); err != nil {
		return opt.Result{}, err
	}

	var deadline time.Time
	if s.Cfg.TimeLimit > 0 {
		deadline = start.Add(s.Cfg.TimeLimit)
	}

	eval, err := cluster.NewEvaluator(inst, cluster.LinearPenalty)
	if err != nil {
		return opt.Result{}, err
	}

	st := &runState{
		ctx:      ctx,
		inst:     inst,
		eval:     eval,
		deadline: deadline,
		best:     &record{},
	}

	st.run(s.Cfg.Prune, s.Cfg.Workers)

	fallback := false
	if st.best.pos == nil && s.Cfg.Prune && s.Cfg.FallbackUnpruned && st.stop.Load() == stopNone {
		log.WithFields(log.Fields{
			"tasks": inst.NumTasks(),
			"nodes": inst.NumNodes(),
		}).Debug("exact: pruned search found no complete assignment, retrying without pruning")
		fallback = true
		st.run(false, s.Cfg.Workers)
	}

	stop := st.stop.Load()
	if stop == stopDeadline {
		log.WithFields(log.Fields{
			"time_limit": s.Cfg.TimeLimit,
			"leaves":     st.leaves.Load(),
			"found":      st.best.pos != nil,
		}).Debug("exact: time limit reached")
	}

	res := st.best.result(inst)
	res.Evaluations = int(st.leaves.Load())
	res.Iterations = int(st.visited.Load())
	res.Duration = time.Since(start)
	res.Meta = map[string]any{
		"prune":             s.Cfg.Prune,
		"fallback":          fallback,
		"deadline_exceeded": stop == stopDeadline,
		"workers":           max(1, s.Cfg.Workers),
		"time_limit":        s.Cfg.TimeLimit.String(),
	}

	if stop == stopContext {
		res.Meta["stopped"] = "context"
		return res, ctx.Err()
	}
	return res, nil
}

// runState разделяется всеми ветвями одного вызова Solve.
type runState struct {
	ctx      context.Context
	inst     *cluster.Instance
	eval     *cluster.Evaluator // шаблон; ветви получают копии
	deadline time.Time

	best    *record
	leaves  atomic.Int64
	visited atomic.Int64
	stop    atomic.Int32
}

func (st *runState) run(prune bool, workers int) {
	if workers <= 1 || st.inst.NumNodes() == 1 {
		st.newBranch(prune).descend(0)
		return
	}

	// Ветви первой задачи раздаются горутинам; у каждой своя копия узлов.
	branches := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b := st.newBranch(prune)
			for k := range branches {
				b.reset()
				b.descendFrom(k)
			}
		}()
	}
	for k := 0; k < st.inst.NumNodes(); k++ {
		if st.stop.Load() != stopNone {
			break
		}
		branches <- k
	}
	close(branches)
	wg.Wait()
}

func (st *runState) newBranch(prune bool) *branch {
	return &branch{
		st:    st,
		tasks: st.inst.Tasks,
		nodes: cluster.NewNodeStates(st.inst.Nodes),
		pos:   make([]int, st.inst.NumTasks()),
		prune: prune,
		eval:  st.eval.Clone(),
	}
}

// expired проверяет контекст и дедлайн; вызывается в начале каждого рекурсивного шага.
func (st *runState) expired() bool {
	if st.stop.Load() != stopNone {
		return true
	}
	if st.ctx.Err() != nil {
		st.stop.CompareAndSwap(stopNone, stopContext)
		return true
	}
	if !st.deadline.IsZero() && time.Now().After(st.deadline) {
		st.stop.CompareAndSwap(stopNone, stopDeadline)
		return true
	}
	return false
}

// branch — состояние одной ветви поиска, изменяемое на месте.
type branch struct {
	st    *runState
	tasks []cluster.Task
	nodes []*cluster.NodeState
	pos   []int
	prune bool
	eval  *cluster.Evaluator
}

func (b *branch) reset() {
	for _, n := range b.nodes {
		n.Reset()
	}
}

// descendFrom фиксирует первую задачу на узле k и продолжает поиск.
func (b *branch) descendFrom(k int) bool {
	return b.try(0, k)
}

// descend выполняет один рекурсивный шаг; возвращает false, если поиск нужно прервать.
func (b *branch) descend(idx int) bool {
	if b.st.expired() {
		return false
	}
	b.st.visited.Inc()

	if idx == len(b.tasks) {
		b.leaf()
		return true
	}
	for k := range b.nodes {
		if !b.try(idx, k) {
			return false
		}
	}
	return true
}

// try временно назначает задачу idx на узел k, спускается глубже и откатывает изменение.
func (b *branch) try(idx, k int) bool {
	n := b.nodes[k]
	t := b.tasks[idx]
	saved := n.Used
	n.Assign(t)

	ok := true
	if !b.prune || !n.Overloaded() {
		b.pos[idx] = k
		ok = b.descend(idx + 1)
	}

	// откат: счётчики восстанавливаются точно, без накопления ошибки округления
	n.Used = saved
	n.Tasks = n.Tasks[:len(n.Tasks)-1]
	return ok
}

func (b *branch) leaf() {
	ev := b.eval.MustEvaluate(b.pos)
	b.st.leaves.Inc()
	b.st.best.offer(b.pos, ev)
}

// record — единственная запись о лучшем полном назначении.
type record struct {
	mu   sync.Mutex
	pos  []int
	eval cluster.Evaluation
}

// offer заменяет запись, если кандидат строго лучше. При равенстве выигрывает
// лексикографически меньший вектор, так что параллельный поиск совпадает с последовательным.
func (r *record) offer(pos []int, ev cluster.Evaluation) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pos != nil {
		if ev.Objective > r.eval.Objective {
			return false
		}
		if ev.Objective == r.eval.Objective && !lexLess(pos, r.pos) {
			return false
		}
	}
	r.pos = append(r.pos[:0], pos...)
	r.eval = ev
	return true
}

func (r *record) result(inst *cluster.Instance) opt.Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pos == nil {
		return opt.Result{Objective: math.Inf(1)}
	}
	nodes := cluster.NewNodeStates(inst.Nodes)
	cluster.Rebuild(nodes, inst.Tasks, r.pos)
	return opt.Result{
		Assignment: inst.NodeIDs(r.pos),
		Objective:  r.eval.Objective,
		Valid:      r.eval.Valid,
		Nodes:      cluster.Usage(nodes),
	}
}

func lexLess(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
