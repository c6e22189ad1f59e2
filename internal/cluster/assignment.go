package cluster

import "fmt"

// ValidatePositions проверяет вектор позиций узлов (индексы в inst.Nodes), по одной на задачу.
func ValidatePositions(pos []int, tasks, nodes int) error {
	if len(pos) != tasks {
		return fmt.Errorf("assignment length must be %d (got %d)", tasks, len(pos))
	}
	for i, p := range pos {
		if p < 0 || p >= nodes {
			return fmt.Errorf("pos[%d]=%d out of range [0,%d)", i, p, nodes)
		}
	}
	return nil
}

// NodeIDs переводит позиции в идентификаторы узлов (внешняя форма назначения).
func (inst *Instance) NodeIDs(pos []int) []int {
	if pos == nil {
		return nil
	}
	ids := make([]int, len(pos))
	for i, p := range pos {
		ids[i] = inst.Nodes[p].ID
	}
	return ids
}

// Positions — обратное преобразование для назначения, заданного ID узлов.
func (inst *Instance) Positions(assignment []int) ([]int, error) {
	if len(assignment) != len(inst.Tasks) {
		return nil, fmt.Errorf("assignment length must be %d (got %d)", len(inst.Tasks), len(assignment))
	}
	pos := make([]int, len(assignment))
	for i, id := range assignment {
		p, ok := inst.NodeIndex(id)
		if !ok {
			return nil, fmt.Errorf("assignment[%d]: unknown node id %d", i, id)
		}
		pos[i] = p
	}
	return pos, nil
}
