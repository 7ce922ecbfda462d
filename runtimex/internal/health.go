package internal

import (
	"context"
	"sort"
	"sync"
	"time"
)

// HealthChecker defines the interface for health checks.
// Implementations should perform quick checks and honor context deadlines.
type HealthChecker interface {
	// Name returns the name of the health check.
	Name() string
	// Check performs the health check and returns an error if unhealthy.
	Check(ctx context.Context) error
}

// CheckResult is the outcome of one checker.
type CheckResult struct {
	Name     string        `json:"name"`
	Healthy  bool          `json:"healthy"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

var (
	healthCheckers   []HealthChecker
	healthCheckersMu sync.RWMutex
)

// RegisterHealthChecker registers a global health checker.
func RegisterHealthChecker(checker HealthChecker) {
	healthCheckersMu.Lock()
	defer healthCheckersMu.Unlock()
	healthCheckers = append(healthCheckers, checker)
}

// CheckHealth runs all registered checkers concurrently.
// Results are sorted by name; healthy is false when any check failed.
func CheckHealth(ctx context.Context) (results []CheckResult, healthy bool) {
	healthCheckersMu.RLock()
	checkers := make([]HealthChecker, len(healthCheckers))
	copy(checkers, healthCheckers)
	healthCheckersMu.RUnlock()

	results = make([]CheckResult, len(checkers))
	var wg sync.WaitGroup
	for i, checker := range checkers {
		wg.Add(1)
		go func(i int, c HealthChecker) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			results[i] = CheckResult{Name: c.Name(), Healthy: err == nil, Duration: time.Since(start)}
			if err != nil {
				results[i].Error = err.Error()
			}
		}(i, checker)
	}
	wg.Wait()

	sort.Slice(results, func(a, b int) bool { return results[a].Name < results[b].Name })

	healthy = true
	for _, r := range results {
		if !r.Healthy {
			healthy = false
		}
	}
	return results, healthy
}

// ClearHealthCheckers clears all registered health checkers (intended for testing).
func ClearHealthCheckers() {
	healthCheckersMu.Lock()
	defer healthCheckersMu.Unlock()
	healthCheckers = nil
}
