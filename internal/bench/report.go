package bench

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Имена алгоритмов, которые могут служить эталоном при сравнении.
const (
	ExactName = "exact"
	EMName    = "em"
)

// Compare заполняет Reference, GapPercent и Speedup для каждого экземпляра.
// Эталоном служит точный решатель, если он не пропущен и нашёл допустимое решение,
// иначе EM. Сравниваются только записи с допустимым лучшим решением.
func Compare(records []Record) {
	var order []string
	byCase := make(map[string][]int)
	for i, r := range records {
		key := r.Category + "/" + r.Case
		if _, ok := byCase[key]; !ok {
			order = append(order, key)
		}
		byCase[key] = append(byCase[key], i)
	}

	for _, key := range order {
		idx := byCase[key]

		ref := findReference(records, idx, ExactName)
		if ref < 0 {
			ref = findReference(records, idx, EMName)
		}
		if ref < 0 {
			continue
		}
		refRec := records[ref]

		for _, i := range idx {
			r := &records[i]
			if !usable(*r) {
				continue
			}
			r.Reference = refRec.Algo

			gap := 0.0
			if refRec.ObjectiveBest != 0 {
				gap = (r.ObjectiveBest - refRec.ObjectiveBest) / refRec.ObjectiveBest * 100
			}
			r.GapPercent = &gap

			if r.TimeMeanMs > 0 {
				speedup := refRec.TimeMeanMs / r.TimeMeanMs
				r.Speedup = &speedup
			}
		}
	}
}

func findReference(records []Record, idx []int, algo string) int {
	for _, i := range idx {
		if records[i].Algo == algo && usable(records[i]) {
			return i
		}
	}
	return -1
}

func usable(r Record) bool {
	return !r.Skipped && r.Found > 0 && r.BestValid
}

func WriteCSV(path string, records []Record) error {
	if err := ensureDir(path); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	header := []string{
		"test", "category", "algo", "tasks", "nodes", "combinations_log10", "runs", "skipped",
		"found", "valid_runs", "valid",
		"time_best_ms", "time_mean_ms", "time_std_ms",
		"objective_best", "objective_mean", "objective_std",
		"reference", "gap_percent", "speedup",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Case,
			r.Category,
			r.Algo,
			itoa(r.Tasks),
			itoa(r.Nodes),
			ftoa(r.CombinationsLog10),
			itoa(r.Runs),
			btoa(r.Skipped),

			itoa(r.Found),
			itoa(r.ValidRuns),
			btoa(r.BestValid),

			ftoa(r.TimeBestMs),
			ftoa(r.TimeMeanMs),
			ftoa(r.TimeStdMs),

			ftoa(r.ObjectiveBest),
			ftoa(r.ObjectiveMean),
			ftoa(r.ObjectiveStd),

			r.Reference,
			optFtoa(r.GapPercent),
			optFtoa(r.Speedup),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// Report — содержимое JSON-отчёта одного прогона.
type Report struct {
	RunID     string    `json:"run_id"`
	StartedAt time.Time `json:"started_at"`
	Records   []Record  `json:"results"`
}

func NewReport(startedAt time.Time, records []Record) Report {
	return Report{
		RunID:     uuid.New().String(),
		StartedAt: startedAt,
		Records:   records,
	}
}

func WriteJSON(path string, report Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode report")
	}
	if err := ensureDir(path); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
