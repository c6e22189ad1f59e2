package bench

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskAlloc/internal/cluster"
	"taskAlloc/internal/cluster/clustertest"
	"taskAlloc/internal/opt"
	"taskAlloc/internal/testcase"
)

func TestCompareAgainstExact(t *testing.T) {
	records := []Record{
		{Case: "t1", Algo: ExactName, Found: 1, BestValid: true, ObjectiveBest: 100, TimeMeanMs: 50},
		{Case: "t1", Algo: "greedy", Found: 1, BestValid: true, ObjectiveBest: 110, TimeMeanMs: 1},
		{Case: "t1", Algo: EMName, Found: 3, BestValid: true, ObjectiveBest: 105, TimeMeanMs: 10},
		{Case: "t1", Algo: "broken", Found: 1, BestValid: false, ObjectiveBest: 1e5, TimeMeanMs: 1},
	}
	Compare(records)

	for _, r := range records[:3] {
		assert.Equal(t, ExactName, r.Reference, r.Algo)
	}
	require.NotNil(t, records[1].GapPercent)
	assert.InDelta(t, 10.0, *records[1].GapPercent, 1e-9)
	assert.InDelta(t, 50.0, *records[1].Speedup, 1e-9)
	assert.InDelta(t, 5.0, *records[2].GapPercent, 1e-9)
	assert.InDelta(t, 5.0, *records[2].Speedup, 1e-9)
	assert.InDelta(t, 0.0, *records[0].GapPercent, 1e-9)

	assert.Empty(t, records[3].Reference)
	assert.Nil(t, records[3].GapPercent)
}

func TestCompareFallsBackToEM(t *testing.T) {
	records := []Record{
		{Case: "big", Category: "hard", Algo: ExactName, Skipped: true},
		{Case: "big", Category: "hard", Algo: "greedy", Found: 1, BestValid: true, ObjectiveBest: 90, TimeMeanMs: 0},
		{Case: "big", Category: "hard", Algo: EMName, Found: 2, BestValid: true, ObjectiveBest: 60, TimeMeanMs: 20},

		// тот же файл в другой категории сравнивается отдельно
		{Case: "big", Category: "easy", Algo: ExactName, Found: 1, BestValid: false, ObjectiveBest: 5},
		{Case: "big", Category: "easy", Algo: "greedy", Found: 1, BestValid: true, ObjectiveBest: 7},
	}
	Compare(records)

	assert.Empty(t, records[0].Reference)
	assert.Equal(t, EMName, records[1].Reference)
	assert.InDelta(t, 50.0, *records[1].GapPercent, 1e-9)
	assert.Nil(t, records[1].Speedup)

	assert.Empty(t, records[3].Reference)
	assert.Empty(t, records[4].Reference, "нет ни точного, ни EM эталона")
}

func sampleRecords() []Record {
	gap := 1.5
	return []Record{
		{Case: "test1.json", Category: "easy", Algo: ExactName, Tasks: 6, Nodes: 3, Runs: 1, Found: 1, ValidRuns: 1, BestValid: true, ObjectiveBest: 61.04, Reference: ExactName},
		{Case: "test1.json", Category: "easy", Algo: EMName, Tasks: 6, Nodes: 3, Runs: 3, Found: 3, ValidRuns: 3, BestValid: true, ObjectiveBest: 62, GapPercent: &gap, Reference: ExactName},
		{Case: "test2.json", Category: "hard", Algo: ExactName, Tasks: 20, Nodes: 5, Skipped: true},
	}
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "results.csv")
	require.NoError(t, WriteCSV(path, sampleRecords()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)

	header := rows[0]
	col := func(name string) int {
		for i, h := range header {
			if h == name {
				return i
			}
		}
		t.Fatalf("column %s not found", name)
		return -1
	}
	assert.Equal(t, "em", rows[2][col("algo")])
	assert.Equal(t, "1.500000", rows[2][col("gap_percent")])
	assert.Equal(t, "", rows[1][col("gap_percent")])
	assert.Equal(t, "61.040000", rows[1][col("objective_best")])
	assert.Equal(t, "true", rows[3][col("skipped")])
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	report := NewReport(started, sampleRecords())
	require.NoError(t, WriteJSON(path, report))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	_, err = uuid.Parse(got.RunID)
	assert.NoError(t, err)
	assert.True(t, started.Equal(got.StartedAt))
	require.Len(t, got.Records, 3)
	assert.Equal(t, 1.5, *got.Records[1].GapPercent)
	assert.True(t, got.Records[2].Skipped)

	assert.NotEqual(t, report.RunID, NewReport(started, nil).RunID)
}

func TestWriteJSONHugeSearchSpace(t *testing.T) {
	c := Case{Name: "random_400x10", Category: "random", Instance: cluster.RandomInstance(400, 10, rand.New(rand.NewSource(1)))}
	algo := Algorithm{Name: ExactName, Factory: func(int64) opt.Optimizer { return nil }, Exhaustive: true}

	rec, err := Runner{Runs: 1, MaxCombinations: 1e7}.RunCase(context.Background(), c, algo)
	require.NoError(t, err)
	require.True(t, math.IsInf(rec.Combinations, 1))
	assert.InDelta(t, 400.0, rec.CombinationsLog10, 1e-9)

	path := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteJSON(path, NewReport(time.Now(), []Record{rec})))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Records, 1)
	assert.True(t, got.Records[0].Skipped)
	assert.InDelta(t, 400.0, got.Records[0].CombinationsLog10, 1e-9)

	csvPath := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, WriteCSV(csvPath, []Record{rec}))
}

func TestParsePairs(t *testing.T) {
	cases, err := ParsePairs([]string{"6x3", " 8x4 "}, 777)
	require.NoError(t, err)
	require.Len(t, cases, 2)
	assert.Equal(t, "random_6x3", cases[0].Name)
	assert.Equal(t, 8, cases[1].Instance.NumTasks())
	assert.Equal(t, 4, cases[1].Instance.NumNodes())

	again, err := ParsePairs([]string{"6x3"}, 777)
	require.NoError(t, err)
	assert.Equal(t, cases[0].Instance.Tasks, again[0].Instance.Tasks)

	for _, bad := range []string{"6", "ax3", "6xb", "0x3", "6x3x1"} {
		_, err := ParsePairs([]string{bad}, 1)
		assert.Error(t, err, bad)
	}
}

func TestFromTestcases(t *testing.T) {
	tcs := []testcase.Case{{Name: "test1.json", Category: "medium", Instance: clustertest.TwoByTwo()}}
	cases := FromTestcases(tcs)
	require.Len(t, cases, 1)
	assert.Equal(t, "medium", cases[0].Category)
	assert.Same(t, tcs[0].Instance, cases[0].Instance)
}
