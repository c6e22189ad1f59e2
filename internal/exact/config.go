package exact

import (
	"fmt"
	"time"

	"go.uber.org/multierr"
)

type Config struct {
	// TimeLimit — мягкий лимит времени; 0 отключает лимит.
	TimeLimit time.Duration `yaml:"time_limit"`

	// Prune отсекает поддеревья, в которых узел переполнен.
	Prune bool `yaml:"prune"`

	// FallbackUnpruned повторяет поиск без отсечения, если первый проход
	// не дошёл ни до одного полного назначения.
	FallbackUnpruned bool `yaml:"fallback_unpruned"`

	// Workers — число горутин для ветвей первой задачи (<=1: последовательно).
	Workers int `yaml:"workers"`
}

func DefaultConfig() Config {
	return Config{
		TimeLimit:        60 * time.Second,
		Prune:            true,
		FallbackUnpruned: false,
		Workers:          1,
	}
}

func (c Config) Validate() error {
	var err error
	if c.TimeLimit < 0 {
		err = multierr.Append(err, fmt.Errorf(
			"TimeLimit должно быть >= 0 (получено %v)",
			c.TimeLimit,
		))
	}
	if c.Workers < 0 {
		err = multierr.Append(err, fmt.Errorf(
			"Workers должно быть >= 0 (получено %d)",
			c.Workers,
		))
	}
	if c.FallbackUnpruned && !c.Prune {
		err = multierr.Append(err, fmt.Errorf(
			"FallbackUnpruned имеет смысл только при Prune = true",
		))
	}
	return err
}
