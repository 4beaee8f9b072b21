// Package rank selects the heaviest processes from a snapshot.
package rank

import (
	"sort"

	"github.com/Dicklesworthstone/sysreport/internal/model"
)

// DefaultTopN is how many processes each ranked table shows.
const DefaultTopN = 5

// TopByCPU returns up to n processes ordered by descending CPU. Equal values
// keep their enumeration order.
func TopByCPU(procs []model.Process, n int) []model.Process {
	return top(procs, n, func(a, b model.Process) bool { return a.CPU > b.CPU })
}

// TopByMemory returns up to n processes ordered by descending resident memory.
func TopByMemory(procs []model.Process, n int) []model.Process {
	return top(procs, n, func(a, b model.Process) bool { return a.RSSBytes > b.RSSBytes })
}

func top(procs []model.Process, n int, less func(a, b model.Process) bool) []model.Process {
	if n <= 0 || len(procs) == 0 {
		return nil
	}
	sorted := append([]model.Process(nil), procs...)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Percent returns part/total*100, or 0 when total is 0.
func Percent(part, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) * 100 / float64(total)
}
