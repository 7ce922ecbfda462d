// Package utils provides small helpers shared by the gateway and the guard.
//
// Overview:
//   - Responsibility: Backoff schedule arithmetic, context-aware sleeping, path matching
//   - Key Types: Backoff for exponential retry schedules
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Sleep returns the context error when interrupted
//   - Performance Notes: No allocations on the hot path
//
// Usage:
//
//	b := utils.DefaultBackoff()
//	delay := b.Delay(2) // 2s
//	if utils.ContainsAny(path, silentPaths) { ... }
package utils

import (
	"context"
	"math"
	"strings"
	"time"
)

// Backoff describes an exponential retry schedule.
type Backoff struct {
	MaxRetries int           // Retries after the initial attempt
	BaseDelay  time.Duration // Delay before the first retry
	Multiplier float64       // Growth factor between consecutive retries
}

// DefaultBackoff returns the schedule used for connection failures:
// three retries waiting 1s, 2s and 4s.
func DefaultBackoff() Backoff {
	return Backoff{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Multiplier: 2.0,
	}
}

// Delay returns the wait before the given retry (1-based):
// BaseDelay * Multiplier^(retry-1). Non-positive retries wait nothing.
func (b Backoff) Delay(retry int) time.Duration {
	if retry < 1 || b.BaseDelay <= 0 {
		return 0
	}
	mult := b.Multiplier
	if mult < 1 {
		mult = 1
	}
	return time.Duration(float64(b.BaseDelay) * math.Pow(mult, float64(retry-1)))
}

// Total returns the sum of all delays in the schedule.
func (b Backoff) Total() time.Duration {
	var total time.Duration
	for i := 1; i <= b.MaxRetries; i++ {
		total += b.Delay(i)
	}
	return total
}

// Sleep waits for d or until ctx is done, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ContainsAny reports whether s contains any of the substrings.
func ContainsAny(s string, substrs []string) bool {
	for _, sub := range substrs {
		if sub != "" && strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// HasAnyPrefix reports whether s starts with any of the prefixes.
func HasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// Unique removes duplicate strings from a slice, keeping first occurrences.
func Unique(slice []string) []string {
	keys := make(map[string]bool)
	var result []string

	for _, item := range slice {
		if !keys[item] {
			keys[item] = true
			result = append(result, item)
		}
	}

	return result
}
