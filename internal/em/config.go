package em

import (
	"fmt"

	"go.uber.org/multierr"
)

type Config struct {
	Iterations        int `yaml:"iterations"`
	IterationsPerTask int `yaml:"iterations_per_task"`

	Population int `yaml:"population"`

	// LocalSearchProbes — число пробных переназначений лучшей частицы за итерацию.
	LocalSearchProbes int `yaml:"local_search_probes"`

	// Epsilon защищает от деления на ноль в силе и вероятности перемещения.
	Epsilon float64 `yaml:"epsilon"`

	// LogEvery — период отладочного лога прогресса в итерациях (0 отключает).
	LogEvery int `yaml:"log_every"`
}

func DefaultConfig() Config {
	return Config{
		Iterations:        100,
		IterationsPerTask: 0,

		Population: 30,

		LocalSearchProbes: 20,
		Epsilon:           1e-10,

		LogEvery: 10,
	}
}

func (c Config) Validate() error {
	var err error
	if c.Iterations <= 0 && c.IterationsPerTask <= 0 {
		err = multierr.Append(err, fmt.Errorf(
			"должно быть задано Iterations > 0 или IterationsPerTask > 0",
		))
	}
	if c.Population <= 0 {
		err = multierr.Append(err, fmt.Errorf(
			"Population должно быть > 0 (получено %d)",
			c.Population,
		))
	}
	if c.LocalSearchProbes < 0 {
		err = multierr.Append(err, fmt.Errorf(
			"LocalSearchProbes должно быть >= 0 (получено %d)",
			c.LocalSearchProbes,
		))
	}
	if !(c.Epsilon > 0) {
		err = multierr.Append(err, fmt.Errorf(
			"Epsilon должно быть > 0 (получено %g)",
			c.Epsilon,
		))
	}
	if c.LogEvery < 0 {
		err = multierr.Append(err, fmt.Errorf(
			"LogEvery должно быть >= 0 (получено %d)",
			c.LogEvery,
		))
	}
	return err
}

// iterations возвращает фактическое число итераций для n задач.
func (c Config) iterations(n int) int {
	if c.Iterations > 0 {
		return c.Iterations
	}
	return c.IterationsPerTask * n
}
