// Package testcase читает и пишет файлы тестовых экземпляров.
//
// Формат совпадает с исходными наборами данных:
//
//	{"tasks": [{"id": 0, "cpu_req": 0.5, "memory_req": 1, "network_req": 10, "execution_time": 5}],
//	 "nodes": [{"id": 0, "cpu_capacity": 1, "memory_capacity": 4, "network_capacity": 100}]}
//
// Файлы .json читаются через encoding/json, остальные как YAML.
package testcase

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"taskAlloc/internal/cluster"
)

// Categories — подкаталоги с наборами по сложности, в порядке обхода.
var Categories = []string{"easy", "medium", "hard"}

type taskEntry struct {
	ID            int     `yaml:"id" json:"id"`
	CPUReq        float64 `yaml:"cpu_req" json:"cpu_req"`
	MemoryReq     float64 `yaml:"memory_req" json:"memory_req"`
	NetworkReq    float64 `yaml:"network_req" json:"network_req"`
	ExecutionTime float64 `yaml:"execution_time" json:"execution_time"`
}

type nodeEntry struct {
	ID              int     `yaml:"id" json:"id"`
	CPUCapacity     float64 `yaml:"cpu_capacity" json:"cpu_capacity"`
	MemoryCapacity  float64 `yaml:"memory_capacity" json:"memory_capacity"`
	NetworkCapacity float64 `yaml:"network_capacity" json:"network_capacity"`
}

type fileEntry struct {
	Tasks []taskEntry `yaml:"tasks" json:"tasks"`
	Nodes []nodeEntry `yaml:"nodes" json:"nodes"`
}

// Case — загруженный экземпляр с именем файла и категорией.
type Case struct {
	Name     string
	Category string
	Path     string
	Instance *cluster.Instance
}

// Parse разбирает содержимое файла (YAML или JSON без табуляций) и проверяет экземпляр.
func Parse(data []byte) (*cluster.Instance, error) {
	var f fileEntry
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode test case")
	}
	return f.instance()
}

// ParseJSON — строгий JSON; в отличие от YAML допускает табуляцию в отступах.
func ParseJSON(data []byte) (*cluster.Instance, error) {
	var f fileEntry
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode test case")
	}
	return f.instance()
}

func (f fileEntry) instance() (*cluster.Instance, error) {
	tasks := make([]cluster.Task, len(f.Tasks))
	for i, t := range f.Tasks {
		tasks[i] = cluster.Task{
			ID: t.ID,
			Demand: cluster.Resources{
				CPU:     t.CPUReq,
				Memory:  t.MemoryReq,
				Network: t.NetworkReq,
			},
			ExecTime: t.ExecutionTime,
		}
	}
	nodes := make([]cluster.Node, len(f.Nodes))
	for i, n := range f.Nodes {
		nodes[i] = cluster.Node{
			ID: n.ID,
			Capacity: cluster.Resources{
				CPU:     n.CPUCapacity,
				Memory:  n.MemoryCapacity,
				Network: n.NetworkCapacity,
			},
		}
	}

	inst, err := cluster.NewInstance(tasks, nodes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid test case")
	}
	return inst, nil
}

// Load читает один файл.
func Load(path string) (*cluster.Instance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	parse := Parse
	if filepath.Ext(path) == ".json" {
		parse = ParseJSON
	}
	inst, err := parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", path)
	}
	return inst, nil
}

// Save записывает экземпляр в JSON (с отступами, как в исходных наборах).
func Save(path string, inst *cluster.Instance) error {
	f := fileEntry{
		Tasks: make([]taskEntry, len(inst.Tasks)),
		Nodes: make([]nodeEntry, len(inst.Nodes)),
	}
	for i, t := range inst.Tasks {
		f.Tasks[i] = taskEntry{
			ID:            t.ID,
			CPUReq:        t.Demand.CPU,
			MemoryReq:     t.Demand.Memory,
			NetworkReq:    t.Demand.Network,
			ExecutionTime: t.ExecTime,
		}
	}
	for i, n := range inst.Nodes {
		f.Nodes[i] = nodeEntry{
			ID:              n.ID,
			CPUCapacity:     n.Capacity.CPU,
			MemoryCapacity:  n.Capacity.Memory,
			NetworkCapacity: n.Capacity.Network,
		}
	}

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode test case")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create directory for %s", path)
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}

// LoadDir обходит dir/<category>/test*.{json,yaml,yml} в порядке Categories и имён файлов.
// Отсутствующие категории пропускаются.
func LoadDir(dir string) ([]Case, error) {
	var cases []Case
	for _, category := range Categories {
		catDir := filepath.Join(dir, category)
		entries, err := os.ReadDir(catDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read %s", catDir)
		}

		var names []string
		for _, e := range entries {
			if e.IsDir() || !isTestFile(e.Name()) {
				continue
			}
			names = append(names, e.Name())
		}
		sort.Strings(names)

		for _, name := range names {
			path := filepath.Join(catDir, name)
			inst, err := Load(path)
			if err != nil {
				return nil, err
			}
			cases = append(cases, Case{
				Name:     name,
				Category: category,
				Path:     path,
				Instance: inst,
			})
		}
	}
	return cases, nil
}

func isTestFile(name string) bool {
	if !strings.HasPrefix(name, "test") {
		return false
	}
	switch filepath.Ext(name) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}
