package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/alecthomas/kingpin.v2"

	"taskAlloc/internal/bench"
	"taskAlloc/internal/cluster"
	"taskAlloc/internal/config"
	"taskAlloc/internal/em"
	"taskAlloc/internal/exact"
	"taskAlloc/internal/greedy"
	"taskAlloc/internal/metrics"
	"taskAlloc/internal/opt"
	"taskAlloc/internal/testcase"
)

var (
	app = kingpin.New("taskalloc-bench", "Сравнение алгоритмов распределения задач по узлам")

	debug = app.Flag(
		"debug", "отладочный вывод (прогресс решателей, метрики)").
		Short('d').
		Default("false").
		Envar("ENABLE_DEBUG_LOGGING").
		Bool()

	jsonLog = app.Flag(
		"json-log", "писать лог в формате JSON").
		Default("false").
		Bool()

	runCmd = app.Command("run", "запустить эксперимент").Default()

	cfgFiles = runCmd.Flag(
		"config",
		"YAML-файлы конфигурации (можно указать несколько раз, они сливаются по порядку)").
		Short('c').
		ExistingFiles()

	dataDir = runCmd.Flag(
		"data", "каталог с подкаталогами easy/medium/hard (bench.data_dir override)").
		String()

	pairs = runCmd.Flag(
		"pairs", "случайные экземпляры: задачи x узлы, например 8x4 (bench.pairs override)").
		Strings()

	algos = runCmd.Flag(
		"algo", "алгоритм: exact, greedy, em (можно указать несколько раз)").
		Strings()

	runs = runCmd.Flag(
		"runs", "количество запусков стохастических алгоритмов (bench.runs override)").
		Int()

	seed = runCmd.Flag(
		"seed", "базовый сид для запусков алгоритмов (bench.seed override)").
		Int64()

	perRunTimeout = runCmd.Flag(
		"per-run-timeout", "таймаут одного запуска (bench.per_run_timeout override)").
		Duration()

	timeLimit = runCmd.Flag(
		"time-limit", "ограничение времени полного перебора (exact.time_limit override)").
		Duration()

	population = runCmd.Flag(
		"population", "размер популяции EM (em.population override)").
		Int()

	iterations = runCmd.Flag(
		"iterations", "количество итераций EM (em.iterations override)").
		Int()

	out = runCmd.Flag(
		"out", "путь к выходному CSV-файлу (bench.out override)").
		Short('o').
		String()

	jsonOut = runCmd.Flag(
		"json-out", "путь к выходному JSON-файлу (bench.json_out override)").
		String()

	genCmd = app.Command("gen", "сгенерировать тестовые экземпляры по категориям")

	genDir = genCmd.Flag(
		"dir", "каталог для записи").
		Default("data").
		String()

	genCount = genCmd.Flag(
		"count", "количество файлов в каждой категории").
		Default("3").
		Int()

	genSeed = genCmd.Flag(
		"seed", "сид генератора").
		Default("42").
		Int64()
)

// Размеры экземпляров по категориям: задачи x узлы.
var categorySizes = map[string][2]int{
	"easy":   {6, 3},
	"medium": {8, 4},
	"hard":   {20, 5},
}

func main() {
	app.HelpFlag.Short('h')
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	if *jsonLog {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level := log.InfoLevel
	if *debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	var err error
	switch cmd {
	case runCmd.FullCommand():
		err = runExperiment()
	case genCmd.FullCommand():
		err = generate()
	}
	if err != nil {
		log.WithError(err).Fatal("Ошибка")
	}
}

func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if len(*cfgFiles) > 0 {
		if err := config.Parse(&cfg, *cfgFiles...); err != nil {
			return cfg, err
		}
	}

	if *dataDir != "" {
		cfg.Bench.DataDir = *dataDir
	}
	if len(*pairs) > 0 {
		cfg.Bench.Pairs = *pairs
		cfg.Bench.DataDir = ""
	}
	if len(*algos) > 0 {
		cfg.Bench.Algorithms = *algos
	}
	if *runs != 0 {
		cfg.Bench.Runs = *runs
	}
	if *seed != 0 {
		cfg.Bench.Seed = *seed
	}
	if *perRunTimeout != 0 {
		cfg.Bench.PerRunTimeout = *perRunTimeout
	}
	if *timeLimit != 0 {
		cfg.Exact.TimeLimit = *timeLimit
	}
	if *population != 0 {
		cfg.EM.Population = *population
	}
	if *iterations != 0 {
		cfg.EM.Iterations = *iterations
	}
	if *out != "" {
		cfg.Bench.Out = *out
	}
	if *jsonOut != "" {
		cfg.Bench.JSONOut = *jsonOut
	}

	return cfg, cfg.Validate()
}

// Фабрики проверяют конфигурацию при создании, поэтому ошибка New внутри
// фабрики означает нарушение инварианта.

func newExactFactory(cfg exact.Config) (func(seed int64) opt.Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "exact")
	}
	return func(int64) opt.Optimizer {
		solver, err := exact.New(cfg)
		if err != nil {
			panic(err)
		}
		return solver
	}, nil
}

func newGreedyFactory() func(seed int64) opt.Optimizer {
	return func(int64) opt.Optimizer {
		return greedy.New()
	}
}

func newEMFactory(cfg em.Config) (func(seed int64) opt.Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "em")
	}
	return func(seed int64) opt.Optimizer {
		solver, err := em.New(cfg, rand.New(rand.NewSource(seed)))
		if err != nil {
			panic(err)
		}
		return solver
	}, nil
}

func algorithms(cfg config.Config) ([]bench.Algorithm, error) {
	exactFactory, err := newExactFactory(cfg.Exact)
	if err != nil {
		return nil, err
	}
	emFactory, err := newEMFactory(cfg.EM)
	if err != nil {
		return nil, err
	}

	available := map[string]bench.Algorithm{
		bench.ExactName: {
			Name:          bench.ExactName,
			Factory:       exactFactory,
			Deterministic: true,
			Exhaustive:    true,
		},
		"greedy": {
			Name:          "greedy",
			Factory:       newGreedyFactory(),
			Deterministic: true,
		},
		bench.EMName: {
			Name:    bench.EMName,
			Factory: emFactory,
		},
	}

	selected := make([]bench.Algorithm, 0, len(cfg.Bench.Algorithms))
	for _, name := range cfg.Bench.Algorithms {
		a, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("unknown algorithm %q", name)
		}
		selected = append(selected, a)
	}
	return selected, nil
}

func loadCases(cfg config.BenchConfig) ([]bench.Case, error) {
	if cfg.DataDir != "" {
		tcs, err := testcase.LoadDir(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		if len(tcs) == 0 {
			return nil, fmt.Errorf("в каталоге %s нет тестовых файлов", cfg.DataDir)
		}
		return bench.FromTestcases(tcs), nil
	}
	return bench.ParsePairs(cfg.Pairs, cfg.InstanceSeed)
}

func runExperiment() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	cases, err := loadCases(cfg.Bench)
	if err != nil {
		return err
	}

	scope, closer := metrics.InitScope(cfg.Metrics)
	defer closer.Close()

	runner := bench.Runner{
		Runs:            cfg.Bench.Runs,
		BaseSeed:        cfg.Bench.Seed,
		PerRunTimeout:   cfg.Bench.PerRunTimeout,
		MaxCombinations: cfg.Bench.MaxCombinations,
		Scope:           scope,
	}

	selected, err := algorithms(cfg)
	if err != nil {
		return err
	}

	startedAt := time.Now()
	records, err := runner.Run(context.Background(), cases, selected)
	if err != nil {
		return err
	}
	bench.Compare(records)

	for _, rec := range records {
		printRecord(rec)
	}

	if err := bench.WriteCSV(cfg.Bench.Out, records); err != nil {
		return err
	}
	fmt.Println("Saved:", cfg.Bench.Out)

	if cfg.Bench.JSONOut != "" {
		if err := bench.WriteJSON(cfg.Bench.JSONOut, bench.NewReport(startedAt, records)); err != nil {
			return err
		}
		fmt.Println("Saved:", cfg.Bench.JSONOut)
	}
	return nil
}

func printRecord(rec bench.Record) {
	fmt.Printf("%s/%s %s: %d задач, %d узлов\n", rec.Category, rec.Case, rec.Algo, rec.Tasks, rec.Nodes)
	switch {
	case rec.Skipped:
		fmt.Printf("  Пропущен: 10^%.1f комбинаций\n", rec.CombinationsLog10)
		return
	case rec.Found == 0:
		fmt.Println("  Решение не найдено")
		return
	}

	fmt.Printf("  Значение целевой функции: лучшее=%.2f среднее=%.2f стандартное отклонение=%.2f | Время: среднее=%.2fms среднее отклонение=%.2fms\n",
		rec.ObjectiveBest, rec.ObjectiveMean, rec.ObjectiveStd,
		rec.TimeMeanMs, rec.TimeStdMs,
	)
	fmt.Printf("  Допустимо: %t (%d/%d запусков)\n", rec.BestValid, rec.ValidRuns, rec.Runs)
	if rec.Utilization != nil {
		fmt.Printf("  Загрузка: CPU=%.1f%% память=%.1f%% сеть=%.1f%%\n",
			rec.Utilization.CPU*100, rec.Utilization.Memory*100, rec.Utilization.Network*100)
	}
	if rec.GapPercent != nil && rec.Reference != rec.Algo {
		fmt.Printf("  Отклонение от %s: %.2f%%", rec.Reference, *rec.GapPercent)
		if rec.Speedup != nil {
			fmt.Printf(", ускорение: %.2fx", *rec.Speedup)
		}
		fmt.Println()
	}
}

func generate() error {
	rng := rand.New(rand.NewSource(*genSeed))
	for _, category := range testcase.Categories {
		size := categorySizes[category]
		for i := 1; i <= *genCount; i++ {
			inst := cluster.RandomInstance(size[0], size[1], rng)
			path := filepath.Join(*genDir, category, fmt.Sprintf("test%d.json", i))
			if err := testcase.Save(path, inst); err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"path":  path,
				"tasks": size[0],
				"nodes": size[1],
			}).Info("экземпляр записан")
		}
	}
	return nil
}
