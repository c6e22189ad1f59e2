package cluster

// NodeUsage — снимок состояния узла для отчётов об утилизации.
type NodeUsage struct {
	ID         int       `json:"id"`
	Capacity   Resources `json:"capacity"`
	Used       Resources `json:"used"`
	TaskIDs    []int     `json:"task_ids"`
	LoadFactor float64   `json:"load_factor"`
	ExecTime   float64   `json:"execution_time"`
}

func Usage(nodes []*NodeState) []NodeUsage {
	out := make([]NodeUsage, len(nodes))
	for i, n := range nodes {
		ids := make([]int, len(n.Tasks))
		for k, t := range n.Tasks {
			ids[k] = t.ID
		}
		out[i] = NodeUsage{
			ID:         n.ID,
			Capacity:   n.Capacity,
			Used:       n.Used,
			TaskIDs:    ids,
			LoadFactor: n.LoadFactor(),
			ExecTime:   n.ExecutionTime(),
		}
	}
	return out
}

// Utilization — суммарная доля использованных ресурсов по всем узлам.
func Utilization(usage []NodeUsage) Resources {
	var used, capacity Resources
	for _, u := range usage {
		used = used.Add(u.Used)
		capacity = capacity.Add(u.Capacity)
	}
	return Resources{
		CPU:     used.CPU / capacity.CPU,
		Memory:  used.Memory / capacity.Memory,
		Network: used.Network / capacity.Network,
	}
}
