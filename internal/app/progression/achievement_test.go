package progression_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
)

func ids(defs []domain.AchievementDef) []string {
	out := make([]string, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.ID)
	}
	return out
}

// ═══════════════════════════════════════════════════════════════════════════
// Achievement Evaluator Tests
// ═══════════════════════════════════════════════════════════════════════════

func TestAchievementCatalog(t *testing.T) {
	defs := progression.AllAchievements()
	require.Len(t, defs, 7)

	seen := map[string]bool{}
	for _, d := range defs {
		assert.False(t, seen[d.ID], "duplicate id %s", d.ID)
		seen[d.ID] = true
		assert.True(t, d.Counter.IsKnown(), "%s uses unknown counter %s", d.ID, d.Counter)
		assert.Positive(t, d.Requirement, d.ID)
		assert.Positive(t, d.XPReward, d.ID)
		assert.False(t, d.Reward.IsZero(), "%s has no reward", d.ID)
	}
	assert.Equal(t, []string{
		"portal_jumper", "collector", "explorer", "fanatic",
		"series_binger", "quiz_master", "location_explorer",
	}, ids(defs))
}

func TestCatalogRewardsResolve(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	for _, d := range progression.AllAchievements() {
		_, err := r.IsUnlocked(d.Reward)
		assert.NoError(t, err, "%s reward %v must exist in its catalog", d.ID, d.Reward)
	}
}

func TestEvaluate_SeriesBingerOnce(t *testing.T) {
	e := progression.NewEvaluator()
	counters := domain.Counters{domain.CounterEpisodesWatched: 10}

	first := e.Evaluate(counters, map[string]bool{})
	assert.Equal(t, []string{"series_binger"}, ids(first))

	second := e.Evaluate(counters, map[string]bool{"series_binger": true})
	assert.Empty(t, second)
}

func TestEvaluate_BelowRequirement(t *testing.T) {
	e := progression.NewEvaluator()
	got := e.Evaluate(domain.Counters{domain.CounterEpisodesWatched: 9}, nil)
	assert.Empty(t, got)
}

func TestEvaluate_CatalogOrder(t *testing.T) {
	e := progression.NewEvaluator()
	counters := domain.Counters{
		domain.CounterQuizzesCompleted: 5,
		domain.CounterFavorites:        6,
		domain.CounterPortalUses:       12,
	}
	got := e.Evaluate(counters, nil)
	assert.Equal(t, []string{"portal_jumper", "collector", "quiz_master"}, ids(got))
}

func TestEvaluator_Lookup(t *testing.T) {
	e := progression.NewEvaluator()
	def, ok := e.Lookup("fanatic")
	require.True(t, ok)
	assert.Equal(t, domain.CounterDaysActive, def.Counter)
	assert.Equal(t, 7, def.Requirement)

	_, ok = e.Lookup("nope")
	assert.False(t, ok)
	assert.Equal(t, 7, e.TotalCount())
}

// ═══════════════════════════════════════════════════════════════════════════
// Reward Resolver Tests
// ═══════════════════════════════════════════════════════════════════════════

func styleRef(id string) domain.RewardRef {
	return domain.RewardRef{Kind: domain.RewardPortalStyle, ID: id}
}

func badgeRef(id string) domain.RewardRef {
	return domain.RewardRef{Kind: domain.RewardBadge, ID: id}
}

func TestResolver_AutoUnlocked(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	assert.Equal(t, "rookie", r.DefaultBadge())
	assert.Equal(t, "green", r.DefaultPortalStyle())

	ok, err := r.IsUnlocked(badgeRef("master"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolver_DropThresholds(t *testing.T) {
	r := progression.NewResolver(nil, nil)

	assert.Empty(t, r.Resolve(progression.DropCountTrigger(2)))
	assert.Equal(t, []domain.RewardRef{styleRef("blue")}, r.Resolve(progression.DropCountTrigger(3)))
	for n := 4; n <= 6; n++ {
		assert.Empty(t, r.Resolve(progression.DropCountTrigger(n)), "count %d", n)
	}
	assert.Equal(t, []domain.RewardRef{styleRef("red")}, r.Resolve(progression.DropCountTrigger(7)))

	ok, _ := r.IsUnlocked(styleRef("blue"))
	assert.True(t, ok, "blue stays unlocked")
}

func TestResolver_DropThresholdsIndependent(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	got := r.Resolve(progression.DropCountTrigger(12))
	assert.Equal(t, []domain.RewardRef{styleRef("blue"), styleRef("red"), styleRef("purple")}, got)

	got = r.Resolve(progression.DropCountTrigger(25))
	assert.Equal(t, []domain.RewardRef{styleRef("gold")}, got)
}

func TestResolver_LevelPathway(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	assert.Empty(t, r.Resolve(progression.LevelTrigger(4)))
	assert.Equal(t, []domain.RewardRef{badgeRef("master")}, r.Resolve(progression.LevelTrigger(5)))
	assert.Empty(t, r.Resolve(progression.LevelTrigger(6)))
}

func TestResolver_AchievementPathway(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	e := progression.NewEvaluator()

	def, _ := e.Lookup("portal_jumper")
	assert.Equal(t, []domain.RewardRef{styleRef("rainbow")}, r.Resolve(progression.AchievementTrigger(def)))
	assert.Empty(t, r.Resolve(progression.AchievementTrigger(def)), "never re-unlocks")
}

func TestResolver_UnmatchedRewardIsNoop(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	before := r.Badges()

	def := domain.AchievementDef{ID: "typo", Reward: badgeRef("colector")}
	assert.Empty(t, r.Resolve(progression.AchievementTrigger(def)))
	assert.Empty(t, r.Resolve(progression.AchievementTrigger(domain.AchievementDef{ID: "none"})))
	assert.Equal(t, before, r.Badges())
}

func TestResolver_MergesPersistedCatalogs(t *testing.T) {
	r := progression.NewResolver(
		[]domain.Badge{
			{ID: "rookie", Unlocked: false},
			{ID: "collector", Unlocked: true},
			{ID: "ghost", Unlocked: true},
		},
		[]domain.PortalStyle{{ID: "gold", Unlocked: true}},
	)

	badges := r.Badges()
	require.Len(t, badges, len(progression.DefaultBadges()))
	for _, b := range badges {
		assert.NotEqual(t, "ghost", b.ID)
		switch b.ID {
		case "rookie", "collector":
			assert.True(t, b.Unlocked, b.ID)
		default:
			assert.False(t, b.Unlocked, b.ID)
		}
	}

	ok, _ := r.IsUnlocked(styleRef("gold"))
	assert.True(t, ok)
	ok, _ = r.IsUnlocked(styleRef("green"))
	assert.True(t, ok)
}

func TestResolver_UnknownReward(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	_, err := r.IsUnlocked(badgeRef("nope"))
	assert.ErrorIs(t, err, domain.ErrUnknownReward)
	assert.Equal(t, "nope", r.Name(badgeRef("nope")))
	assert.Equal(t, "Gold Portal", r.Name(styleRef("gold")))
}

func TestResolver_CatalogCopies(t *testing.T) {
	r := progression.NewResolver(nil, nil)
	styles := r.PortalStyles()
	styles[1].Unlocked = true

	ok, _ := r.IsUnlocked(styleRef(styles[1].ID))
	assert.False(t, ok)
}
