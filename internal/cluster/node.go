package cluster

// CongestionWeight — коэффициент замедления при росте загрузки узла:
// время выполнения умножается на (1 + CongestionWeight·loadFactor²).
const CongestionWeight = 2.0

// Resources — вектор из трёх ресурсов: CPU (ядра), память (GB), сеть (Mbps).
type Resources struct {
	CPU     float64 `json:"cpu"`
	Memory  float64 `json:"memory"`
	Network float64 `json:"network"`
}

func (r Resources) Add(o Resources) Resources {
	return Resources{CPU: r.CPU + o.CPU, Memory: r.Memory + o.Memory, Network: r.Network + o.Network}
}

func (r Resources) Sub(o Resources) Resources {
	return Resources{CPU: r.CPU - o.CPU, Memory: r.Memory - o.Memory, Network: r.Network - o.Network}
}

// Covers сообщает, что r не меньше o по каждому измерению.
func (r Resources) Covers(o Resources) bool {
	return r.CPU >= o.CPU && r.Memory >= o.Memory && r.Network >= o.Network
}

// Ratio возвращает максимальное из отношений r/capacity (узкое место).
func (r Resources) Ratio(capacity Resources) float64 {
	return max(r.CPU/capacity.CPU, r.Memory/capacity.Memory, r.Network/capacity.Network)
}

func (r Resources) Total() float64 {
	return r.CPU + r.Memory + r.Network
}

// Task — неизменяемое описание задачи.
type Task struct {
	ID       int
	Demand   Resources
	ExecTime float64 // базовое время выполнения, сек
}

// Node — шаблон вычислительного узла с фиксированными ёмкостями.
type Node struct {
	ID       int
	Capacity Resources
}

// NodeState — рабочая копия узла внутри одного решателя или одной частицы.
// Шаблон Node при этом никогда не изменяется.
type NodeState struct {
	Node
	Used  Resources
	Tasks []Task
}

func NewNodeState(n Node) *NodeState {
	return &NodeState{Node: n}
}

// NewNodeStates создаёт свежие рабочие копии для всех шаблонов.
func NewNodeStates(nodes []Node) []*NodeState {
	out := make([]*NodeState, len(nodes))
	for i, n := range nodes {
		out[i] = NewNodeState(n)
	}
	return out
}

// CloneNodeStates выполняет глубокое копирование состояний.
func CloneNodeStates(states []*NodeState) []*NodeState {
	out := make([]*NodeState, len(states))
	for i, s := range states {
		out[i] = s.Clone()
	}
	return out
}

func (s *NodeState) Clone() *NodeState {
	c := &NodeState{Node: s.Node, Used: s.Used}
	if len(s.Tasks) > 0 {
		c.Tasks = append(make([]Task, 0, len(s.Tasks)), s.Tasks...)
	}
	return c
}

// Reset очищает счётчики и список задач, сохраняя выделенную память.
func (s *NodeState) Reset() {
	s.Used = Resources{}
	s.Tasks = s.Tasks[:0]
}

func (s *NodeState) Remaining() Resources {
	return s.Capacity.Sub(s.Used)
}

// CanAccommodate сообщает, хватает ли оставшихся ресурсов по всем трём измерениям.
func (s *NodeState) CanAccommodate(t Task) bool {
	return s.Remaining().Covers(t.Demand)
}

// Assign добавляет задачу без проверки ёмкости.
func (s *NodeState) Assign(t Task) {
	s.Used = s.Used.Add(t.Demand)
	s.Tasks = append(s.Tasks, t)
}

// TryAssign добавляет задачу, только если она помещается.
func (s *NodeState) TryAssign(t Task) bool {
	if !s.CanAccommodate(t) {
		return false
	}
	s.Assign(t)
	return true
}

// Remove снимает последнюю добавленную задачу с тем же ID.
func (s *NodeState) Remove(t Task) bool {
	for i := len(s.Tasks) - 1; i >= 0; i-- {
		if s.Tasks[i].ID != t.ID {
			continue
		}
		s.Used = s.Used.Sub(s.Tasks[i].Demand)
		s.Tasks = append(s.Tasks[:i], s.Tasks[i+1:]...)
		return true
	}
	return false
}

// LoadFactor возвращает максимальную из трёх загрузок; 0 для пустого узла.
func (s *NodeState) LoadFactor() float64 {
	if len(s.Tasks) == 0 {
		return 0
	}
	return s.Used.Ratio(s.Capacity)
}

// ProjectedLoad возвращает загрузку узкого места после гипотетического добавления задачи.
func (s *NodeState) ProjectedLoad(t Task) float64 {
	return s.Used.Add(t.Demand).Ratio(s.Capacity)
}

// ExecutionTime возвращает суммарное время задач узла с единым множителем замедления.
func (s *NodeState) ExecutionTime() float64 {
	if len(s.Tasks) == 0 {
		return 0
	}
	lf := s.LoadFactor()
	slowdown := 1.0 + CongestionWeight*lf*lf

	sum := 0.0
	for _, t := range s.Tasks {
		sum += t.ExecTime
	}
	return sum * slowdown
}

// Overflow возвращает превышение ёмкости по каждому измерению (неотрицательное).
func (s *NodeState) Overflow() Resources {
	return Resources{
		CPU:     max(0, s.Used.CPU-s.Capacity.CPU),
		Memory:  max(0, s.Used.Memory-s.Capacity.Memory),
		Network: max(0, s.Used.Network-s.Capacity.Network),
	}
}

// Overloaded сообщает, что хотя бы один счётчик превышает ёмкость.
func (s *NodeState) Overloaded() bool {
	return !s.Capacity.Covers(s.Used)
}
