package progression

import (
	"fmt"

	"github.com/citadel-app/citadel/internal/domain"
)

// MasterBadgeID is unlocked by level alone, independent of achievements.
const MasterBadgeID = "master"

// MasterBadgeLevel is the level that unlocks MasterBadgeID.
const MasterBadgeLevel = 5

// DropThreshold maps a character-drop count to the portal style it unlocks.
type DropThreshold struct {
	Count   int
	StyleID string
}

// DropThresholds is evaluated in ascending order; each entry is independent.
var DropThresholds = []DropThreshold{
	{Count: 3, StyleID: "blue"},
	{Count: 7, StyleID: "red"},
	{Count: 12, StyleID: "purple"},
	{Count: 20, StyleID: "gold"},
}

// autoUnlocked entries start unlocked and are the default selections.
var (
	autoBadges       = map[string]bool{"rookie": true}
	autoPortalStyles = map[string]bool{"green": true}
)

// DefaultBadges returns the badge catalog in display order.
func DefaultBadges() []domain.Badge {
	return []domain.Badge{
		{ID: "rookie", Name: "Rookie", Icon: "🐣", Description: "Welcome to the multiverse", Unlocked: true},
		{ID: "collector", Name: "Collector", Icon: "⭐", Description: "Earned by the Collector achievement"},
		{ID: "explorer", Name: "Explorer", Icon: "🧭", Description: "Earned by the Explorer achievement"},
		{ID: "fanatic", Name: "Fanatic", Icon: "🔥", Description: "Earned by the Fanatic achievement"},
		{ID: "binger", Name: "Binger", Icon: "📺", Description: "Earned by the Series Binger achievement"},
		{ID: "quiz_whiz", Name: "Quiz Whiz", Icon: "🧠", Description: "Earned by the Quiz Master achievement"},
		{ID: "cartographer", Name: "Cartographer", Icon: "🗺️", Description: "Earned by the Location Explorer achievement"},
		{ID: MasterBadgeID, Name: "Master", Icon: "👑", Description: fmt.Sprintf("Reach level %d", MasterBadgeLevel)},
	}
}

// DefaultPortalStyles returns the portal style catalog in display order.
func DefaultPortalStyles() []domain.PortalStyle {
	return []domain.PortalStyle{
		{ID: "green", Name: "Green Portal", Color: "#39FF14", Unlocked: true},
		{ID: "blue", Name: "Blue Portal", Color: "#00BFFF"},
		{ID: "red", Name: "Red Portal", Color: "#FF3131"},
		{ID: "purple", Name: "Purple Portal", Color: "#9370DB"},
		{ID: "gold", Name: "Gold Portal", Color: "#FFD700"},
		{ID: "rainbow", Name: "Rainbow Portal", Color: "#FF69B4"},
	}
}

// ─── Triggers ───────────────────────────────────────────────────────────────

// TriggerKind selects one of the three unlock pathways.
type TriggerKind int

const (
	TriggerAchievement TriggerKind = iota
	TriggerDropCount
	TriggerLevel
)

// Trigger is the input to Resolver.Resolve.
type Trigger struct {
	Kind        TriggerKind
	Achievement domain.AchievementDef
	Count       int
	Level       int
}

// AchievementTrigger resolves the reward attached to a completed achievement.
func AchievementTrigger(def domain.AchievementDef) Trigger {
	return Trigger{Kind: TriggerAchievement, Achievement: def}
}

// DropCountTrigger resolves portal styles for a character-drop count.
func DropCountTrigger(count int) Trigger {
	return Trigger{Kind: TriggerDropCount, Count: count}
}

// LevelTrigger resolves level-gated rewards.
func LevelTrigger(level int) Trigger {
	return Trigger{Kind: TriggerLevel, Level: level}
}

// ─── Resolver ───────────────────────────────────────────────────────────────

// Resolver owns the badge and portal style catalogs and flips their
// unlocked flags. Flags only ever go from false to true.
type Resolver struct {
	badges []domain.Badge
	styles []domain.PortalStyle
}

// NewResolver builds a resolver from persisted catalogs, merged with the
// built-in ones: known ids keep their flag, unknown ids are dropped, new
// entries are added and auto-unlocked entries are forced on.
func NewResolver(badges []domain.Badge, styles []domain.PortalStyle) *Resolver {
	seenBadge := make(map[string]bool, len(badges))
	for _, b := range badges {
		if b.Unlocked {
			seenBadge[b.ID] = true
		}
	}
	seenStyle := make(map[string]bool, len(styles))
	for _, s := range styles {
		if s.Unlocked {
			seenStyle[s.ID] = true
		}
	}

	r := &Resolver{badges: DefaultBadges(), styles: DefaultPortalStyles()}
	for i := range r.badges {
		r.badges[i].Unlocked = r.badges[i].Unlocked || seenBadge[r.badges[i].ID] || autoBadges[r.badges[i].ID]
	}
	for i := range r.styles {
		r.styles[i].Unlocked = r.styles[i].Unlocked || seenStyle[r.styles[i].ID] || autoPortalStyles[r.styles[i].ID]
	}
	return r
}

// Resolve applies one trigger and returns the rewards it newly unlocked.
func (r *Resolver) Resolve(t Trigger) []domain.RewardRef {
	var out []domain.RewardRef
	switch t.Kind {
	case TriggerAchievement:
		if !t.Achievement.Reward.IsZero() && r.unlock(t.Achievement.Reward) {
			out = append(out, t.Achievement.Reward)
		}
	case TriggerDropCount:
		for _, th := range DropThresholds {
			if t.Count < th.Count {
				break
			}
			ref := domain.RewardRef{Kind: domain.RewardPortalStyle, ID: th.StyleID}
			if r.unlock(ref) {
				out = append(out, ref)
			}
		}
	case TriggerLevel:
		if t.Level >= MasterBadgeLevel {
			ref := domain.RewardRef{Kind: domain.RewardBadge, ID: MasterBadgeID}
			if r.unlock(ref) {
				out = append(out, ref)
			}
		}
	}
	return out
}

// unlock flips the flag for ref. Returns false when already unlocked or when
// no catalog entry matches (a static-catalog mistake, not a runtime error).
func (r *Resolver) unlock(ref domain.RewardRef) bool {
	switch ref.Kind {
	case domain.RewardBadge:
		for i := range r.badges {
			if r.badges[i].ID == ref.ID {
				if r.badges[i].Unlocked {
					return false
				}
				r.badges[i].Unlocked = true
				return true
			}
		}
	case domain.RewardPortalStyle:
		for i := range r.styles {
			if r.styles[i].ID == ref.ID {
				if r.styles[i].Unlocked {
					return false
				}
				r.styles[i].Unlocked = true
				return true
			}
		}
	}
	return false
}

// IsUnlocked reports whether ref is unlocked, or ErrUnknownReward.
func (r *Resolver) IsUnlocked(ref domain.RewardRef) (bool, error) {
	switch ref.Kind {
	case domain.RewardBadge:
		for _, b := range r.badges {
			if b.ID == ref.ID {
				return b.Unlocked, nil
			}
		}
	case domain.RewardPortalStyle:
		for _, s := range r.styles {
			if s.ID == ref.ID {
				return s.Unlocked, nil
			}
		}
	}
	return false, fmt.Errorf("%w: %s %q", domain.ErrUnknownReward, ref.Kind, ref.ID)
}

// Name returns the display name for ref, or its id if unknown.
func (r *Resolver) Name(ref domain.RewardRef) string {
	switch ref.Kind {
	case domain.RewardBadge:
		for _, b := range r.badges {
			if b.ID == ref.ID {
				return b.Name
			}
		}
	case domain.RewardPortalStyle:
		for _, s := range r.styles {
			if s.ID == ref.ID {
				return s.Name
			}
		}
	}
	return ref.ID
}

// DefaultBadge returns the first unlocked badge id.
func (r *Resolver) DefaultBadge() string {
	for _, b := range r.badges {
		if b.Unlocked {
			return b.ID
		}
	}
	return ""
}

// DefaultPortalStyle returns the first unlocked portal style id.
func (r *Resolver) DefaultPortalStyle() string {
	for _, s := range r.styles {
		if s.Unlocked {
			return s.ID
		}
	}
	return ""
}

// Badges returns a copy of the badge catalog.
func (r *Resolver) Badges() []domain.Badge {
	out := make([]domain.Badge, len(r.badges))
	copy(out, r.badges)
	return out
}

// PortalStyles returns a copy of the portal style catalog.
func (r *Resolver) PortalStyles() []domain.PortalStyle {
	out := make([]domain.PortalStyle, len(r.styles))
	copy(out, r.styles)
	return out
}
