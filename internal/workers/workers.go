// Package workers sizes worker pools from the CPUs actually available to
// the process. GOMAXPROCS respects container CPU limits (Go 1.19+), unlike
// runtime.NumCPU which reports the host machine.
package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the worker count for a task type. The multiplier adjusts
// for task characteristics (1.0 CPU-bound, 2.0 I/O-bound) and limit caps
// the result; use 0 for no cap. The SLIDEARCHIVE_WORKERS environment
// variable overrides the calculation.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("SLIDEARCHIVE_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}
	return workers
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU).
func ForCPU(limit int) int {
	return Count(1.0, limit)
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU).
func ForIO(limit int) int {
	return Count(2.0, limit)
}
