package testcase

import (
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskAlloc/internal/cluster"
)

const sampleJSON = `{
	"tasks": [
		{"id": 0, "cpu_req": 0.5, "memory_req": 1, "network_req": 10, "execution_time": 5},
		{"id": 1, "cpu_req": 0.3, "memory_req": 1, "network_req": 10, "execution_time": 3}
	],
	"nodes": [
		{"id": 0, "cpu_capacity": 1, "memory_capacity": 4, "network_capacity": 100},
		{"id": 1, "cpu_capacity": 1, "memory_capacity": 4, "network_capacity": 100}
	]
}`

const sampleYAML = `
tasks:
  - {id: 3, cpu_req: 0.2, memory_req: 0.5, network_req: 5, execution_time: 1}
nodes:
  - {id: 9, cpu_capacity: 2, memory_capacity: 8, network_capacity: 200}
`

func writeFile(t *testing.T, path, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
}

func TestParseJSON(t *testing.T) {
	inst, err := ParseJSON([]byte(sampleJSON))
	require.NoError(t, err)
	require.Equal(t, 2, inst.NumTasks())
	require.Equal(t, 2, inst.NumNodes())

	assert.Equal(t, cluster.Task{
		ID:       0,
		Demand:   cluster.Resources{CPU: 0.5, Memory: 1, Network: 10},
		ExecTime: 5,
	}, inst.Tasks[0])
	assert.Equal(t, cluster.Resources{CPU: 1, Memory: 4, Network: 100}, inst.Nodes[1].Capacity)
}

func TestParseYAML(t *testing.T) {
	inst, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 3, inst.Tasks[0].ID)
	assert.Equal(t, 9, inst.Nodes[0].ID)
	assert.Equal(t, 200.0, inst.Nodes[0].Capacity.Network)
}

func TestParseRejectsInvalid(t *testing.T) {
	_, err := ParseJSON([]byte(`{"tasks": [], "nodes": []}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid test case")

	_, err = ParseJSON([]byte(`{"tasks": [`))
	assert.Error(t, err)

	_, err = Parse([]byte("tasks: [1, 2"))
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	inst := cluster.RandomInstance(5, 3, rand.New(rand.NewSource(1)))

	path := filepath.Join(dir, "nested", "test1.json")
	require.NoError(t, Save(path, inst))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, inst.Tasks, loaded.Tasks)
	assert.Equal(t, inst.Nodes, loaded.Nodes)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hard", "test1.yaml"), sampleYAML)
	writeFile(t, filepath.Join(dir, "easy", "test2.json"), sampleJSON)
	writeFile(t, filepath.Join(dir, "easy", "test10.json"), sampleJSON)
	writeFile(t, filepath.Join(dir, "easy", "notes.txt"), "ignored")
	writeFile(t, filepath.Join(dir, "easy", "other.json"), "ignored")

	cases, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, cases, 3)

	assert.Equal(t, "test10.json", cases[0].Name)
	assert.Equal(t, "easy", cases[0].Category)
	assert.Equal(t, "test2.json", cases[1].Name)
	assert.Equal(t, "hard", cases[2].Category)
	assert.Equal(t, filepath.Join(dir, "hard", "test1.yaml"), cases[2].Path)
	assert.Equal(t, 1, cases[2].Instance.NumTasks())
}

func TestLoadDirBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "medium", "test1.json"), `{"tasks": [}`)

	_, err := LoadDir(dir)
	assert.Error(t, err)

	cases, err := LoadDir(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, cases)
}
