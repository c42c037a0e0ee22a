package domain

import (
	"testing"
)

// ─── Counter Tests ──────────────────────────────────────────────────────────

func TestCounterKeys_Unique(t *testing.T) {
	seen := make(map[CounterKey]bool)
	for _, k := range CounterKeys {
		if seen[k] {
			t.Errorf("duplicate CounterKey: %s", k)
		}
		seen[k] = true
		if !k.IsKnown() {
			t.Errorf("%s.IsKnown() = false", k)
		}
	}
	if len(seen) != 7 {
		t.Errorf("expected 7 counters, got %d", len(seen))
	}
	if CounterKey("legacyCounter").IsKnown() {
		t.Error("unknown key reported as known")
	}
}

func TestCounterKey_Decreasable(t *testing.T) {
	for _, k := range CounterKeys {
		want := k == CounterFavorites
		if got := k.Decreasable(); got != want {
			t.Errorf("%s.Decreasable() = %v, want %v", k, got, want)
		}
	}
}

func TestCounters_Clone(t *testing.T) {
	c := Counters{CounterPortalUses: 2}
	d := c.Clone()
	d[CounterPortalUses] = 5
	if c[CounterPortalUses] != 2 {
		t.Errorf("Clone shares storage: original = %d", c[CounterPortalUses])
	}
}

// ─── Level Tests ────────────────────────────────────────────────────────────

func TestLevelThresholds_Increasing(t *testing.T) {
	if LevelThresholds[0] != 0 {
		t.Errorf("thresholds[0] = %d, want 0", LevelThresholds[0])
	}
	for i := 1; i < len(LevelThresholds); i++ {
		if LevelThresholds[i] <= LevelThresholds[i-1] {
			t.Errorf("thresholds[%d] = %d not above %d", i, LevelThresholds[i], LevelThresholds[i-1])
		}
	}
	if MaxLevel != 9 {
		t.Errorf("MaxLevel = %d, want 9", MaxLevel)
	}
}

func TestDefaultLevelState(t *testing.T) {
	got := DefaultLevelState()
	want := LevelState{Level: 1, XP: 0, NextLevelXP: 100}
	if got != want {
		t.Errorf("DefaultLevelState() = %+v, want %+v", got, want)
	}
}

func TestLevelState_ProgressPct(t *testing.T) {
	tests := []struct {
		name  string
		state LevelState
		want  float64
	}{
		{"fresh", LevelState{Level: 1, XP: 0, NextLevelXP: 100}, 0},
		{"halfway level 1", LevelState{Level: 1, XP: 50, NextLevelXP: 100}, 50},
		{"level 4 start", LevelState{Level: 4, XP: 450, NextLevelXP: 700}, 0},
		{"level 4 midway", LevelState{Level: 4, XP: 575, NextLevelXP: 700}, 50},
		{"max level", LevelState{Level: MaxLevel, XP: 9000, NextLevelXP: 2700}, 100},
		{"xp below floor clamps", LevelState{Level: 3, XP: 10, NextLevelXP: 450}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.ProgressPct(); got != tt.want {
				t.Errorf("ProgressPct() = %v, want %v", got, tt.want)
			}
		})
	}
}

// ─── Reward Tests ───────────────────────────────────────────────────────────

func TestRewardRef_IsZero(t *testing.T) {
	if !(RewardRef{}).IsZero() {
		t.Error("zero RewardRef should be zero")
	}
	if (RewardRef{Kind: RewardBadge, ID: "master"}).IsZero() {
		t.Error("named RewardRef should not be zero")
	}
}
