// Package metrics provides Prometheus metrics for Citadel.
// Counters and gauges for XP, levels, achievements, unlocks, map
// exploration, data-provider fallbacks and storage health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Level / XP ─────────────────────────────────────────────────────────────

// XPAwarded tracks XP granted by source.
var XPAwarded = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "xp_awarded_total",
	Help:      "Total XP awarded, by source.",
}, []string{"source"})

// Level tracks the current level.
var Level = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "citadel",
	Name:      "level",
	Help:      "Current user level.",
})

// LevelUps tracks level-up events (one per award that crossed at least one threshold).
var LevelUps = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "level_ups_total",
	Help:      "Total XP awards that resulted in a level-up.",
})

// ─── Achievements / rewards ─────────────────────────────────────────────────

// AchievementsUnlocked tracks completed achievements by id.
var AchievementsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "achievements_unlocked_total",
	Help:      "Total achievements completed, by id.",
}, []string{"id"})

// RewardsUnlocked tracks cosmetic unlocks by kind.
var RewardsUnlocked = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "rewards_unlocked_total",
	Help:      "Total badges and portal styles unlocked, by kind.",
}, []string{"kind"})

// ─── Map ────────────────────────────────────────────────────────────────────

// LocationsDiscovered tracks the size of the discovered-location set.
var LocationsDiscovered = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "citadel",
	Name:      "locations_discovered",
	Help:      "Number of discovered map locations.",
})

// RegionsUnlocked tracks region unlock events.
var RegionsUnlocked = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "regions_unlocked_total",
	Help:      "Total map regions unlocked.",
})

// CharacterDrops tracks characters found on the map.
var CharacterDrops = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "character_drops_total",
	Help:      "Total characters dropped while exploring the map.",
})

// ─── Provider / storage ─────────────────────────────────────────────────────

// ProviderFallbacks tracks reads served from a fallback source.
var ProviderFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "provider_fallbacks_total",
	Help:      "Show data served from cache or built-in defaults, by resource and source.",
}, []string{"resource", "source"})

// StorageErrors tracks failed key-value operations by op.
var StorageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "citadel",
	Name:      "storage_errors_total",
	Help:      "Failed persistence operations, by operation.",
}, []string{"op"})
