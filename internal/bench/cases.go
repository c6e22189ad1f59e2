package bench

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"taskAlloc/internal/cluster"
	"taskAlloc/internal/testcase"
)

// ParsePairs строит случайные экземпляры по строкам вида "задачи x узлы".
// Сид каждого экземпляра зависит только от базового сида, позиции и размеров.
func ParsePairs(pairs []string, baseInstanceSeed int64) ([]Case, error) {
	cases := make([]Case, 0, len(pairs))

	for i, p := range pairs {
		tn := strings.Split(strings.TrimSpace(p), "x")
		if len(tn) != 2 {
			return nil, fmt.Errorf("пара %q невалидной схемы, пример: 8x4", p)
		}
		tasks, err := atoiStrict(tn[0])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества задач: %w", p, err)
		}
		nodes, err := atoiStrict(tn[1])
		if err != nil {
			return nil, fmt.Errorf("пара %q: ошибка парсинга количества узлов: %w", p, err)
		}
		if tasks <= 0 || nodes <= 0 {
			return nil, fmt.Errorf("пара %q: количество задач и узлов должно быть > 0", p)
		}

		seed := baseInstanceSeed + int64(i)*10_000 + int64(tasks)*100 + int64(nodes)
		inst := cluster.RandomInstance(tasks, nodes, rand.New(rand.NewSource(seed)))

		cases = append(cases, Case{
			Name:     fmt.Sprintf("random_%dx%d", tasks, nodes),
			Category: "random",
			Instance: inst,
		})
	}

	return cases, nil
}

// FromTestcases переводит загруженные файлы в экземпляры прогона.
func FromTestcases(tcs []testcase.Case) []Case {
	cases := make([]Case, len(tcs))
	for i, tc := range tcs {
		cases[i] = Case{Name: tc.Name, Category: tc.Category, Instance: tc.Instance}
	}
	return cases
}

func atoiStrict(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
