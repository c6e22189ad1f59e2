package config

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/validator.v2"
	"gopkg.in/yaml.v2"

	"taskAlloc/internal/em"
	"taskAlloc/internal/exact"
	"taskAlloc/internal/metrics"
)

// Config — полная конфигурация эксперимента.
type Config struct {
	Bench   BenchConfig    `yaml:"bench"`
	Exact   exact.Config   `yaml:"exact"`
	EM      em.Config      `yaml:"em"`
	Metrics metrics.Config `yaml:"metrics"`
}

// BenchConfig — политика запусков.
type BenchConfig struct {
	// Algorithms — какие решатели запускать: exact, greedy, em.
	Algorithms []string `yaml:"algorithms" validate:"nonzero"`

	// Runs — число запусков стохастических решателей (с разными сидами).
	Runs         int   `yaml:"runs" validate:"min=1"`
	Seed         int64 `yaml:"seed"`
	InstanceSeed int64 `yaml:"instance_seed"`

	// PerRunTimeout — таймаут одного запуска; 0 отключает таймаут.
	PerRunTimeout time.Duration `yaml:"per_run_timeout" validate:"min=0"`

	// MaxCombinations — точный решатель пропускается, если nodes^tasks больше.
	MaxCombinations float64 `yaml:"max_combinations" validate:"min=1"`

	// DataDir — каталог с подкаталогами easy/medium/hard; если пуст, используются Pairs.
	DataDir string `yaml:"data_dir"`
	// Pairs — случайные экземпляры вида "задачи x узлы".
	Pairs []string `yaml:"pairs"`

	Out     string `yaml:"out" validate:"nonzero"`
	JSONOut string `yaml:"json_out"`
}

// Default возвращает конфигурацию со значениями по умолчанию для всех решателей.
func Default() Config {
	return Config{
		Bench: BenchConfig{
			Algorithms:      []string{"exact", "greedy", "em"},
			Runs:            10,
			Seed:            1000,
			InstanceSeed:    777,
			MaxCombinations: 10_000_000,
			Pairs:           []string{"6x3", "8x4", "20x5"},
			Out:             "results/results.csv",
			JSONOut:         "results/results.json",
		},
		Exact:   exact.DefaultConfig(),
		EM:      em.DefaultConfig(),
		Metrics: metrics.DefaultConfig(),
	}
}

// ValidationError возвращается, если конфигурация не прошла проверку тегов.
type ValidationError struct {
	errorMap validator.ErrorMap
}

// ErrForField возвращает ошибку проверки для поля.
func (e ValidationError) ErrForField(name string) error {
	if err, ok := e.errorMap[name]; ok {
		return err
	}
	return nil
}

func (e ValidationError) Error() string {
	var w bytes.Buffer

	fields := make([]string, 0, len(e.errorMap))
	for f := range e.errorMap {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	fmt.Fprintln(&w, "validation failed")
	for _, f := range fields {
		fmt.Fprintf(&w, "   %s: %v\n", f, e.errorMap[f])
	}
	return w.String()
}

// Parse загружает файлы по порядку поверх значений cfg, сливая их, и проверяет результат.
func Parse(cfg *Config, configFiles ...string) error {
	if len(configFiles) == 0 {
		return errors.New("no files to load")
	}
	for _, fname := range configFiles {
		data, err := os.ReadFile(fname)
		if err != nil {
			return errors.Wrapf(err, "read config %s", fname)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return errors.Wrapf(err, "parse config %s", fname)
		}
	}
	return cfg.Validate()
}

// Validate проверяет теги validator и конфигурации решателей.
func (c *Config) Validate() error {
	if err := validator.Validate(c); err != nil {
		errMap, ok := err.(validator.ErrorMap)
		if !ok {
			return err
		}
		return ValidationError{errorMap: errMap}
	}

	var err error
	err = multierr.Append(err, errors.Wrap(c.Exact.Validate(), "exact"))
	err = multierr.Append(err, errors.Wrap(c.EM.Validate(), "em"))
	for _, a := range c.Bench.Algorithms {
		switch a {
		case "exact", "greedy", "em":
		default:
			err = multierr.Append(err, fmt.Errorf("unknown algorithm %q", a))
		}
	}
	return err
}
