package progression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
)

// ═══════════════════════════════════════════════════════════════════════════
// Counter Store Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestCounterStore_DefaultsToZero(t *testing.T) {
	c := progression.NewCounterStore(nil)
	snap := c.Snapshot()
	require.Len(t, snap, len(domain.CounterKeys))
	for _, k := range domain.CounterKeys {
		assert.Zero(t, snap[k], "counter %s", k)
	}
}

func TestCounterStore_NormalizesSeed(t *testing.T) {
	c := progression.NewCounterStore(domain.Counters{
		domain.CounterPortalUses: 4,
		domain.CounterDaysActive: -3,
		"bogus":                  9,
	})
	snap := c.Snapshot()
	assert.Equal(t, 4, snap[domain.CounterPortalUses])
	assert.Equal(t, 0, snap[domain.CounterDaysActive])
	_, ok := snap["bogus"]
	assert.False(t, ok, "unknown keys are dropped")
}

func TestCounterStore_Increment(t *testing.T) {
	c := progression.NewCounterStore(nil)
	require.NoError(t, c.Increment(domain.CounterPortalUses, 1))
	require.NoError(t, c.Increment(domain.CounterPortalUses, 2))

	v, err := c.Get(domain.CounterPortalUses)
	require.NoError(t, err)
	assert.Equal(t, 3, v)
}

func TestCounterStore_UnknownKey(t *testing.T) {
	c := progression.NewCounterStore(nil)

	err := c.Increment("warpDrives", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownCounter)

	_, err = c.Get("warpDrives")
	assert.ErrorIs(t, err, domain.ErrUnknownCounter)

	err = c.Set("warpDrives", 1)
	assert.ErrorIs(t, err, domain.ErrUnknownCounter)
}

func TestCounterStore_MonotonicCounters(t *testing.T) {
	c := progression.NewCounterStore(domain.Counters{domain.CounterEpisodesWatched: 5})

	err := c.Increment(domain.CounterEpisodesWatched, -1)
	assert.ErrorIs(t, err, domain.ErrCounterDecrease)

	err = c.Set(domain.CounterEpisodesWatched, 2)
	assert.ErrorIs(t, err, domain.ErrCounterDecrease)

	v, _ := c.Get(domain.CounterEpisodesWatched)
	assert.Equal(t, 5, v, "failed writes must not change the value")
}

func TestCounterStore_FavoritesMayDecrease(t *testing.T) {
	c := progression.NewCounterStore(domain.Counters{domain.CounterFavorites: 3})
	require.NoError(t, c.Increment(domain.CounterFavorites, -1))
	v, _ := c.Get(domain.CounterFavorites)
	assert.Equal(t, 2, v)

	err := c.Set(domain.CounterFavorites, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidCounterValue)
}

func TestCounterStore_SnapshotIsCopy(t *testing.T) {
	c := progression.NewCounterStore(nil)
	snap := c.Snapshot()
	snap[domain.CounterPortalUses] = 99

	v, _ := c.Get(domain.CounterPortalUses)
	assert.Zero(t, v)
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Ledger Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestLedger_StartsAtLevelOne(t *testing.T) {
	l := progression.NewLedger(domain.DefaultLevelState())
	assert.Equal(t, domain.LevelState{Level: 1, XP: 0, NextLevelXP: 100}, l.State())
	assert.Equal(t, 100, l.XPToNextLevel())
}

func TestLedger_SuperAwardCascades(t *testing.T) {
	l := progression.NewLedger(domain.DefaultLevelState())

	change, err := l.AwardXP(500)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelChange{OldLevel: 1, NewLevel: 4, LeveledUp: true}, change)
	assert.Equal(t, domain.LevelState{Level: 4, XP: 500, NextLevelXP: 700}, l.State())
}

func TestLedger_SmallAwardNoLevelUp(t *testing.T) {
	l := progression.NewLedger(domain.DefaultLevelState())

	change, err := l.AwardXP(99)
	require.NoError(t, err)
	assert.False(t, change.LeveledUp)
	assert.Equal(t, 1, l.State().Level)

	change, err = l.AwardXP(1)
	require.NoError(t, err)
	assert.True(t, change.LeveledUp)
	assert.Equal(t, 2, change.NewLevel)
	assert.Equal(t, 250, l.State().NextLevelXP)
}

func TestLedger_ZeroAward(t *testing.T) {
	l := progression.NewLedger(domain.DefaultLevelState())
	change, err := l.AwardXP(0)
	require.NoError(t, err)
	assert.Equal(t, domain.LevelChange{OldLevel: 1, NewLevel: 1}, change)
}

func TestLedger_NegativeAwardRejected(t *testing.T) {
	l := progression.NewLedger(domain.DefaultLevelState())
	_, err := l.AwardXP(-10)
	assert.ErrorIs(t, err, domain.ErrInvalidAward)
	assert.Equal(t, domain.DefaultLevelState(), l.State())
}

func TestLedger_CapsAtMaxLevel(t *testing.T) {
	l := progression.NewLedger(domain.DefaultLevelState())

	_, err := l.AwardXP(10_000)
	require.NoError(t, err)
	s := l.State()
	assert.Equal(t, domain.MaxLevel, s.Level)
	assert.Equal(t, 10_000, s.XP, "xp keeps accumulating past the cap")
	assert.Equal(t, domain.LevelThresholds[domain.MaxLevel], s.NextLevelXP)
	assert.Zero(t, l.XPToNextLevel())

	change, err := l.AwardXP(500)
	require.NoError(t, err)
	assert.False(t, change.LeveledUp)
	assert.Equal(t, 10_500, l.State().XP)
}

func TestLedger_LevelMatchesCumulativeXP(t *testing.T) {
	awards := []int{5, 40, 55, 0, 150, 199, 1, 300, 250, 420, 600, 900, 3000}
	l := progression.NewLedger(domain.DefaultLevelState())
	total := 0
	for _, a := range awards {
		_, err := l.AwardXP(a)
		require.NoError(t, err)
		total += a

		s := l.State()
		assert.Equal(t, progression.LevelForXP(total), s.Level, "after %d xp", total)
		assert.Equal(t, domain.LevelThresholds[s.Level], s.NextLevelXP)
		if s.Level < domain.MaxLevel {
			assert.Less(t, s.XP, s.NextLevelXP)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	cases := map[int]int{0: 1, 99: 1, 100: 2, 249: 2, 250: 3, 500: 4, 700: 5, 2199: 8, 2200: 9, 99999: 9}
	for xp, want := range cases {
		assert.Equal(t, want, progression.LevelForXP(xp), "xp=%d", xp)
	}
}

func TestNormalizeLevel(t *testing.T) {
	tests := []struct {
		name string
		in   domain.LevelState
		want domain.LevelState
	}{
		{"zero value", domain.LevelState{}, domain.LevelState{Level: 1, XP: 0, NextLevelXP: 100}},
		{"negative xp", domain.LevelState{Level: 1, XP: -5}, domain.LevelState{Level: 1, XP: 0, NextLevelXP: 100}},
		{"pending level ups", domain.LevelState{Level: 1, XP: 300, NextLevelXP: 999}, domain.LevelState{Level: 3, XP: 300, NextLevelXP: 450}},
		{"never lowered", domain.LevelState{Level: 3, XP: 0, NextLevelXP: 1}, domain.LevelState{Level: 3, XP: 0, NextLevelXP: 450}},
		{"clamped", domain.LevelState{Level: 42, XP: 3000}, domain.LevelState{Level: domain.MaxLevel, XP: 3000, NextLevelXP: 2700}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progression.NormalizeLevel(tt.in))
		})
	}
}
