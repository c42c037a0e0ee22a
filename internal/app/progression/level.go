package progression

import (
	"fmt"

	"github.com/citadel-app/citadel/internal/domain"
)

// Ledger converts awarded XP into a level using domain.LevelThresholds.
// It is not safe for concurrent use; the Engine serializes access.
type Ledger struct {
	state domain.LevelState
}

// NewLedger creates a ledger from a persisted record, repairing it so that
// NextLevelXP == thresholds[Level] and any pending level-ups are applied.
func NewLedger(s domain.LevelState) *Ledger {
	return &Ledger{state: NormalizeLevel(s)}
}

// NormalizeLevel clamps a level record into a consistent shape.
// Levels never go down: a stored level higher than its XP warrants is kept.
func NormalizeLevel(s domain.LevelState) domain.LevelState {
	if s.Level < 1 {
		s.Level = 1
	}
	if s.Level > domain.MaxLevel {
		s.Level = domain.MaxLevel
	}
	if s.XP < 0 {
		s.XP = 0
	}
	s.NextLevelXP = domain.LevelThresholds[s.Level]
	cascade(&s)
	return s
}

// cascade advances the level until XP no longer reaches the next threshold.
func cascade(s *domain.LevelState) {
	for s.XP >= s.NextLevelXP && s.Level < domain.MaxLevel {
		s.Level++
		s.NextLevelXP = domain.LevelThresholds[s.Level]
	}
}

// AwardXP adds XP and applies every level-up it crosses in one go.
// At MaxLevel XP keeps accumulating past NextLevelXP without further level-ups.
func (l *Ledger) AwardXP(amount int) (domain.LevelChange, error) {
	if amount < 0 {
		return domain.LevelChange{}, fmt.Errorf("%w: got %d", domain.ErrInvalidAward, amount)
	}

	old := l.state.Level
	l.state.XP += amount
	cascade(&l.state)

	return domain.LevelChange{
		OldLevel:  old,
		NewLevel:  l.state.Level,
		LeveledUp: l.state.Level > old,
	}, nil
}

// State returns the current level record.
func (l *Ledger) State() domain.LevelState {
	return l.state
}

// XPToNextLevel returns XP remaining until the next level (0 at max level).
func (l *Ledger) XPToNextLevel() int {
	if l.state.Level >= domain.MaxLevel {
		return 0
	}
	remaining := l.state.NextLevelXP - l.state.XP
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// LevelForXP returns the level a fresh ledger reaches after xp cumulative XP.
func LevelForXP(xp int) int {
	level := 1
	for level < domain.MaxLevel && xp >= domain.LevelThresholds[level] {
		level++
	}
	return level
}
