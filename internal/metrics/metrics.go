package metrics

import (
	"io"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally/v4"

	"taskAlloc/internal/opt"
)

// Config — настройки корневого scope.
type Config struct {
	// Enable включает вывод метрик в лог; иначе используется NoopScope.
	Enable        bool          `yaml:"enable"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Prefix        string        `yaml:"prefix"`
}

func DefaultConfig() Config {
	return Config{Enable: false, FlushInterval: time.Second, Prefix: "taskalloc"}
}

// InitScope создаёт корневой scope. Закрывать io.Closer нужно для финального сброса.
func InitScope(cfg Config) (tally.Scope, io.Closer) {
	if !cfg.Enable {
		return tally.NoopScope, io.NopCloser(nil)
	}
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = time.Second
	}
	return tally.NewRootScope(tally.ScopeOptions{
		Prefix:   cfg.Prefix,
		Reporter: logReporter{},
	}, interval)
}

// Solver — метрики одного решателя.
type Solver struct {
	Runs             tally.Counter
	Evaluations      tally.Counter
	Infeasible       tally.Counter
	Empty            tally.Counter
	DeadlineExceeded tally.Counter
	Errors           tally.Counter

	BestObjective tally.Gauge
	Runtime       tally.Timer
}

// NewSolver возвращает метрики под scope с тегом solver.
func NewSolver(scope tally.Scope, name string) *Solver {
	s := scope.Tagged(map[string]string{"solver": name})
	return &Solver{
		Runs:             s.Counter("runs"),
		Evaluations:      s.Counter("evaluations"),
		Infeasible:       s.Counter("infeasible"),
		Empty:            s.Counter("empty"),
		DeadlineExceeded: s.Counter("deadline_exceeded"),
		Errors:           s.Counter("errors"),
		BestObjective:    s.Gauge("best_objective"),
		Runtime:          s.Timer("runtime"),
	}
}

// Observe учитывает один запуск решателя.
func (m *Solver) Observe(res opt.Result, err error) {
	m.Runs.Inc(1)
	if err != nil {
		m.Errors.Inc(1)
	}
	m.Runtime.Record(res.Duration)
	m.Evaluations.Inc(int64(res.Evaluations))

	if !res.Found() {
		m.Empty.Inc(1)
	} else {
		m.BestObjective.Update(res.Objective)
		if !res.Valid {
			m.Infeasible.Inc(1)
		}
	}
	if exceeded, _ := res.Meta["deadline_exceeded"].(bool); exceeded {
		m.DeadlineExceeded.Inc(1)
	}
}

// logReporter пишет метрики в лог на уровне Debug.
type logReporter struct{}

func (logReporter) ReportCounter(name string, tags map[string]string, value int64) {
	log.WithFields(log.Fields{"metric": name, "tags": tags, "value": value}).Debug("counter")
}

func (logReporter) ReportGauge(name string, tags map[string]string, value float64) {
	log.WithFields(log.Fields{"metric": name, "tags": tags, "value": value}).Debug("gauge")
}

func (logReporter) ReportTimer(name string, tags map[string]string, interval time.Duration) {
	log.WithFields(log.Fields{"metric": name, "tags": tags, "value": interval}).Debug("timer")
}

func (logReporter) ReportHistogramValueSamples(
	name string,
	tags map[string]string,
	_ tally.Buckets,
	bucketLowerBound, bucketUpperBound float64,
	samples int64,
) {
	log.WithFields(log.Fields{
		"metric": name, "tags": tags,
		"lower": bucketLowerBound, "upper": bucketUpperBound, "samples": samples,
	}).Debug("histogram")
}

func (logReporter) ReportHistogramDurationSamples(
	name string,
	tags map[string]string,
	_ tally.Buckets,
	bucketLowerBound, bucketUpperBound time.Duration,
	samples int64,
) {
	log.WithFields(log.Fields{
		"metric": name, "tags": tags,
		"lower": bucketLowerBound, "upper": bucketUpperBound, "samples": samples,
	}).Debug("histogram")
}

func (logReporter) Capabilities() tally.Capabilities { return logReporter{} }
func (logReporter) Reporting() bool                 { return true }
func (logReporter) Tagging() bool                   { return true }
func (logReporter) Flush()                          {}
