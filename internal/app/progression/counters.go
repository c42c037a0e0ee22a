// Package progression implements the Citadel progression engine.
// Counters feed achievements, achievements feed XP and cosmetic unlocks,
// and map exploration drives its own unlock chain. A single Engine owns all
// of it so every mutation is linearized.
package progression

import (
	"fmt"

	"github.com/citadel-app/citadel/internal/domain"
)

// CounterStore holds the raw cumulative event counters.
// It is not safe for concurrent use; the Engine serializes access.
type CounterStore struct {
	values domain.Counters
}

// NewCounterStore creates a store seeded with initial values.
// Unknown keys are dropped, missing keys start at 0, negatives clamp to 0.
func NewCounterStore(initial domain.Counters) *CounterStore {
	values := make(domain.Counters, len(domain.CounterKeys))
	for _, k := range domain.CounterKeys {
		v := initial[k]
		if v < 0 {
			v = 0
		}
		values[k] = v
	}
	return &CounterStore{values: values}
}

// Get returns the current value of a counter.
func (c *CounterStore) Get(key domain.CounterKey) (int, error) {
	if !key.IsKnown() {
		return 0, fmt.Errorf("%w: %q", domain.ErrUnknownCounter, key)
	}
	return c.values[key], nil
}

// Increment adds delta to a counter. Negative deltas are only allowed on
// decreasable counters, and no counter may drop below zero.
func (c *CounterStore) Increment(key domain.CounterKey, delta int) error {
	if !key.IsKnown() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCounter, key)
	}
	return c.Set(key, c.values[key]+delta)
}

// Set replaces a counter's value, enforcing the same rules as Increment.
func (c *CounterStore) Set(key domain.CounterKey, value int) error {
	if !key.IsKnown() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownCounter, key)
	}
	if value < 0 {
		return fmt.Errorf("%w: %s=%d", domain.ErrInvalidCounterValue, key, value)
	}
	if value < c.values[key] && !key.Decreasable() {
		return fmt.Errorf("%w: %s %d -> %d", domain.ErrCounterDecrease, key, c.values[key], value)
	}
	c.values[key] = value
	return nil
}

// Snapshot returns a copy of every counter.
func (c *CounterStore) Snapshot() domain.Counters {
	return c.values.Clone()
}
