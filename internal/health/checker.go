// Package health runs periodic checks over the daemon's dependencies and
// attempts recovery when one fails.
package health

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultInterval is the time between two check rounds.
const DefaultInterval = 60 * time.Second

// Check defines a single health check with optional recovery action.
type Check struct {
	Name      string
	CheckFn   func(ctx context.Context) error
	RecoverFn func(ctx context.Context) error
}

// Status represents the result of a health check.
type Status struct {
	Name      string    `json:"name"`
	Healthy   bool      `json:"healthy"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Checker runs periodic health checks with auto-recovery.
type Checker struct {
	mu       sync.RWMutex
	checks   []Check
	statuses []Status
	interval time.Duration
	logger   *zap.Logger
}

// NewChecker creates a checker over checks. A non-positive interval uses
// DefaultInterval.
func NewChecker(interval time.Duration, logger *zap.Logger, checks ...Check) *Checker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		interval: interval,
		checks:   checks,
		logger:   logger.Named("Health"),
	}
}

// Run starts the health check loop. Call in a goroutine.
func (c *Checker) Run(ctx context.Context) {
	c.RunOnce(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce runs every check once and records the results.
func (c *Checker) RunOnce(ctx context.Context) {
	statuses := make([]Status, len(c.checks))
	for i, check := range c.checks {
		s := Status{
			Name:      check.Name,
			CheckedAt: time.Now(),
		}
		if err := check.CheckFn(ctx); err != nil {
			s.Error = err.Error()
			c.logger.Warn("health check failed", zap.String("check", check.Name), zap.Error(err))
			if check.RecoverFn != nil {
				if rerr := check.RecoverFn(ctx); rerr != nil {
					c.logger.Warn("recovery failed", zap.String("check", check.Name), zap.Error(rerr))
				}
			}
		} else {
			s.Healthy = true
		}
		statuses[i] = s
	}

	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Statuses returns the latest health check results.
func (c *Checker) Statuses() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result := make([]Status, len(c.statuses))
	copy(result, c.statuses)
	return result
}

// IsHealthy returns true if all checks pass.
func (c *Checker) IsHealthy() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.statuses {
		if !s.Healthy {
			return false
		}
	}
	return true
}

// ─── Check Implementations ──────────────────────────────────────────────────

// DirCheck verifies that dir, when present, is a directory.
func DirCheck(name, dir string) Check {
	return Check{
		Name: name,
		CheckFn: func(ctx context.Context) error {
			info, err := os.Stat(dir)
			if err != nil {
				if os.IsNotExist(err) {
					return nil
				}
				return fmt.Errorf("check %s: %w", dir, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", dir)
			}
			return nil
		},
	}
}
