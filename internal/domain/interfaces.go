package domain

import "context"

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// These interfaces define boundaries between layers.
// Infrastructure implements them; application layer depends on them.

// KVStore is the key-value persistence provider. Values are opaque strings
// (JSON in practice).
type KVStore interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a single value.
	Set(ctx context.Context, key, value string) error

	// SetMany stores all pairs atomically: either every pair is written or none.
	SetMany(ctx context.Context, pairs map[string]string) error

	// Remove deletes a key. Removing a missing key is not an error.
	Remove(ctx context.Context, key string) error
}

// DataProvider returns the show's reference data.
// Implementations degrade to cached or built-in data instead of failing.
type DataProvider interface {
	Characters(ctx context.Context) ([]Character, error)
	Episodes(ctx context.Context) ([]Episode, error)
	Locations(ctx context.Context) ([]Location, error)
}

// Notifier is the fire-and-forget user feedback sink.
// Nothing it does flows back into engine state.
type Notifier interface {
	Notify(ev Event)
}
