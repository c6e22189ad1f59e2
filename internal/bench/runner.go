package bench

import (
	"context"
	"fmt"
	"math"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"taskAlloc/internal/cluster"
	"taskAlloc/internal/metrics"
	"taskAlloc/internal/opt"
)

type Algorithm struct {
	Name    string
	Factory func(seed int64) opt.Optimizer

	// Deterministic решатели запускаются один раз независимо от Runs.
	Deterministic bool
	// Exhaustive решатели пропускаются на экземплярах больше MaxCombinations.
	Exhaustive bool
}

type Case struct {
	Name     string
	Category string
	Instance *cluster.Instance
}

type Record struct {
	Case     string `json:"test"`
	Category string `json:"category,omitempty"`
	Algo     string `json:"algo"`

	Tasks int `json:"tasks"`
	Nodes int `json:"nodes"`
	// Combinations насыщается в +Inf, которую не кодирует encoding/json;
	// в отчёт пишется только CombinationsLog10.
	Combinations      float64 `json:"-"`
	CombinationsLog10 float64 `json:"combinations_log10"`
	Runs              int     `json:"runs"`

	// Skipped: экземпляр слишком велик для полного перебора.
	Skipped bool `json:"skipped"`
	// Found считает запуски, вернувшие полное назначение.
	Found     int `json:"found"`
	ValidRuns int `json:"valid_runs"`

	ObjectiveBest float64 `json:"objective_best"`
	ObjectiveMean float64 `json:"objective_mean"`
	ObjectiveStd  float64 `json:"objective_std"`

	TimeBestMs float64 `json:"time_best_ms"`
	TimeMeanMs float64 `json:"time_mean_ms"`
	TimeStdMs  float64 `json:"time_std_ms"`

	// Лучший запуск
	BestValid      bool               `json:"valid"`
	BestAssignment []int              `json:"assignment,omitempty"`
	Utilization    *cluster.Resources `json:"utilization,omitempty"`
	History        []float64          `json:"history,omitempty"`

	// Заполняются Compare
	Reference  string   `json:"reference,omitempty"`
	GapPercent *float64 `json:"gap_percent,omitempty"`
	Speedup    *float64 `json:"speedup,omitempty"`
}

type Runner struct {
	Runs            int
	BaseSeed        int64
	PerRunTimeout   time.Duration // 0 = no timeout
	MaxCombinations float64       // 0 = без ограничения

	// Scope — корневой scope метрик; nil означает NoopScope.
	Scope tally.Scope
}

func (r Runner) RunCase(ctx context.Context, c Case, algo Algorithm) (Record, error) {
	inst := c.Instance
	rec := Record{
		Case:         c.Name,
		Category:     c.Category,
		Algo:         algo.Name,
		Tasks:        inst.NumTasks(),
		Nodes:        inst.NumNodes(),
		Combinations: inst.Combinations(),
	}
	rec.CombinationsLog10 = combinationsLog10(rec.Tasks, rec.Nodes)

	if algo.Exhaustive && r.MaxCombinations > 0 && rec.Combinations > r.MaxCombinations {
		log.WithFields(log.Fields{
			"case":               c.Name,
			"algo":               algo.Name,
			"combinations_log10": rec.CombinationsLog10,
		}).Info("пропуск: слишком много комбинаций")
		rec.Skipped = true
		return rec, nil
	}

	scope := r.Scope
	if scope == nil {
		scope = tally.NoopScope
	}
	m := metrics.NewSolver(scope, algo.Name)

	runs := r.Runs
	if algo.Deterministic || runs < 1 {
		runs = 1
	}
	rec.Runs = runs

	objectives := make([]float64, 0, runs)
	timesMs := make([]float64, 0, runs)
	var best opt.Result

	for i := 0; i < runs; i++ {
		runSeed := r.BaseSeed + int64(i)

		op := algo.Factory(runSeed)

		runCtx := ctx
		cancel := func() {}
		if r.PerRunTimeout > 0 {
			runCtx, cancel = context.WithTimeout(ctx, r.PerRunTimeout)
		}
		start := time.Now()
		res, err := op.Solve(runCtx, inst)
		dur := time.Since(start)
		cancel()

		m.Observe(res, err)

		if err != nil && runCtx.Err() != nil {
			return Record{}, fmt.Errorf("run %d: cancelled/timeout: %w", i, err)
		}
		if err != nil {
			return Record{}, fmt.Errorf("run %d: solve error: %w", i, err)
		}
		timesMs = append(timesMs, float64(dur.Microseconds())/1000.0)

		if !res.Found() {
			continue
		}
		if len(res.Assignment) != inst.NumTasks() {
			return Record{}, fmt.Errorf("run %d: invalid assignment length %d (want %d)", i, len(res.Assignment), inst.NumTasks())
		}

		rec.Found++
		if res.Valid {
			rec.ValidRuns++
		}
		objectives = append(objectives, res.Objective)
		if !best.Found() || res.Objective < best.Objective {
			best = res
		}
	}

	objStats := CalcFloatStats(objectives)
	tStats := CalcFloatStats(timesMs)

	rec.ObjectiveBest = objStats.Best
	rec.ObjectiveMean = objStats.Mean
	rec.ObjectiveStd = objStats.Std
	rec.TimeBestMs = tStats.Best
	rec.TimeMeanMs = tStats.Mean
	rec.TimeStdMs = tStats.Std

	if best.Found() {
		rec.BestValid = best.Valid
		rec.BestAssignment = best.Assignment
		rec.History = best.History
		if len(best.Nodes) > 0 {
			u := cluster.Utilization(best.Nodes)
			rec.Utilization = &u
		}
	}
	return rec, nil
}

// combinationsLog10 — log10(nodes^tasks), конечен при любых размерах.
func combinationsLog10(tasks, nodes int) float64 {
	return float64(tasks) * math.Log10(float64(nodes))
}

// Run прогоняет все алгоритмы на всех экземплярах.
func (r Runner) Run(ctx context.Context, cases []Case, algos []Algorithm) ([]Record, error) {
	var records []Record
	for _, c := range cases {
		for _, a := range algos {
			log.WithFields(log.Fields{
				"case":  c.Name,
				"algo":  a.Name,
				"tasks": c.Instance.NumTasks(),
				"nodes": c.Instance.NumNodes(),
				"runs":  r.Runs,
			}).Info("запуск алгоритма")

			rec, err := r.RunCase(ctx, c, a)
			if err != nil {
				return nil, fmt.Errorf("%s/%s: %w", c.Name, a.Name, err)
			}
			records = append(records, rec)
		}
	}
	return records, nil
}
