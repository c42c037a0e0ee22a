package progression

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/infra/metrics"
)

// SchemaVersion is the current persisted layout. Records without a
// schemaVersion key are version 0.
const SchemaVersion = 1

// Persisted keys. Each holds one JSON value.
const (
	KeyCounters            = "userAchievements"
	KeyLevel               = "userLevelData"
	KeyCompleted           = "completedAchievements"
	KeyBadges              = "userBadges"
	KeyPortalStyles        = "portalStyles"
	KeySelectedBadge       = "selectedBadge"
	KeySelectedPortalStyle = "selectedPortalStyle"
	KeyDiscoveredLocations = "discoveredLocations"
	KeyDrops               = "discoveredMapCharacters"
	KeyQuizStats           = "quizStats"
	KeyLastLoginDate       = "lastLoginDate"
	KeyFavorites           = "favorites"
	KeyWatchedEpisodes     = "watchedEpisodes"
	KeyVisitedSections     = "visitedSections"
	KeyUnlockedRegions     = "unlockedRegions"
	KeyCustomCharacters    = "customCharacters"
	KeyQuoteDate           = "quoteLastUpdated"
	KeyCurrentQuote        = "currentQuote"
	KeySchemaVersion       = "schemaVersion"
)

// AllKeys lists every persisted key in load order.
var AllKeys = []string{
	KeyCounters, KeyLevel, KeyCompleted, KeyBadges, KeyPortalStyles,
	KeySelectedBadge, KeySelectedPortalStyle, KeyDiscoveredLocations, KeyDrops,
	KeyQuizStats, KeyLastLoginDate, KeyFavorites, KeyWatchedEpisodes,
	KeyVisitedSections, KeyUnlockedRegions, KeyCustomCharacters, KeyQuoteDate,
	KeyCurrentQuote, KeySchemaVersion,
}

// dateLayout is the calendar-day format of lastLoginDate and quoteLastUpdated.
const dateLayout = "2006-01-02"

// legacyDateLayout is how older records wrote quoteLastUpdated.
const legacyDateLayout = "Mon Jan 02 2006"

// State is the typed form of the whole persisted progress record.
type State struct {
	Counters            domain.Counters               `json:"counters"`
	Level               domain.LevelState             `json:"level"`
	Completed           []string                      `json:"completedAchievements"`
	Badges              []domain.Badge                `json:"badges"`
	PortalStyles        []domain.PortalStyle          `json:"portalStyles"`
	SelectedBadge       string                        `json:"selectedBadge"`
	SelectedPortalStyle string                        `json:"selectedPortalStyle"`
	DiscoveredLocations []int                         `json:"discoveredLocations"`
	Drops               []domain.CharacterDrop        `json:"drops"`
	Quiz                domain.QuizStats              `json:"quizStats"`
	LastLoginDate       string                        `json:"lastLoginDate"`
	Favorites           []int                         `json:"favorites"`
	Watched             map[int]domain.WatchedEpisode `json:"watchedEpisodes"`
	VisitedSections     []string                      `json:"visitedSections"`
	UnlockedRegions     []int                         `json:"unlockedRegions"`
	CustomCharacters    []domain.CustomCharacter      `json:"customCharacters"`
	QuoteDate           string                        `json:"quoteLastUpdated"`
	Quote               domain.Quote                  `json:"currentQuote"`
	SchemaVersion       int                           `json:"schemaVersion"`
}

// DefaultState is the record of a brand-new user.
func DefaultState() State {
	return State{
		Counters:            NewCounterStore(nil).Snapshot(),
		Level:               domain.DefaultLevelState(),
		Completed:           []string{},
		Badges:              DefaultBadges(),
		PortalStyles:        DefaultPortalStyles(),
		DiscoveredLocations: []int{},
		Drops:               []domain.CharacterDrop{},
		Favorites:           []int{},
		Watched:             map[int]domain.WatchedEpisode{},
		VisitedSections:     []string{},
		UnlockedRegions:     []int{},
		CustomCharacters:    []domain.CustomCharacter{},
		SchemaVersion:       SchemaVersion,
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	out := s
	out.Counters = s.Counters.Clone()
	out.Completed = append([]string(nil), s.Completed...)
	out.Badges = append([]domain.Badge(nil), s.Badges...)
	out.PortalStyles = append([]domain.PortalStyle(nil), s.PortalStyles...)
	out.DiscoveredLocations = append([]int(nil), s.DiscoveredLocations...)
	out.Drops = append([]domain.CharacterDrop(nil), s.Drops...)
	out.Favorites = append([]int(nil), s.Favorites...)
	out.VisitedSections = append([]string(nil), s.VisitedSections...)
	out.UnlockedRegions = append([]int(nil), s.UnlockedRegions...)
	out.CustomCharacters = append([]domain.CustomCharacter(nil), s.CustomCharacters...)
	out.Watched = make(map[int]domain.WatchedEpisode, len(s.Watched))
	for k, v := range s.Watched {
		out.Watched[k] = v
	}
	return out
}

// ─── Encoding ───────────────────────────────────────────────────────────────

// value returns the field stored under key.
func (s *State) value(key string) (any, error) {
	switch key {
	case KeyCounters:
		return s.Counters, nil
	case KeyLevel:
		return s.Level, nil
	case KeyCompleted:
		return s.Completed, nil
	case KeyBadges:
		return s.Badges, nil
	case KeyPortalStyles:
		return s.PortalStyles, nil
	case KeySelectedBadge:
		return s.SelectedBadge, nil
	case KeySelectedPortalStyle:
		return s.SelectedPortalStyle, nil
	case KeyDiscoveredLocations:
		return s.DiscoveredLocations, nil
	case KeyDrops:
		return s.Drops, nil
	case KeyQuizStats:
		return s.Quiz, nil
	case KeyLastLoginDate:
		return s.LastLoginDate, nil
	case KeyFavorites:
		return s.Favorites, nil
	case KeyWatchedEpisodes:
		return s.Watched, nil
	case KeyVisitedSections:
		return s.VisitedSections, nil
	case KeyUnlockedRegions:
		return s.UnlockedRegions, nil
	case KeyCustomCharacters:
		return s.CustomCharacters, nil
	case KeyQuoteDate:
		return s.QuoteDate, nil
	case KeyCurrentQuote:
		return s.Quote, nil
	case KeySchemaVersion:
		return s.SchemaVersion, nil
	}
	return nil, fmt.Errorf("unknown state key %q", key)
}

// Encode serializes the given keys for one SetMany call.
func (s *State) Encode(keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		v, err := s.value(key)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		out[key] = string(raw)
	}
	return out, nil
}

// Decode parses one persisted value into s. Older layouts are accepted:
// favorites as full character objects (custom ones among them), drop ids as
// numbers and plain (unquoted) strings for the single-string keys.
func (s *State) Decode(key, raw string) error {
	data := []byte(raw)
	switch key {
	case KeyCounters:
		var c domain.Counters
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		s.Counters = c
	case KeyLevel:
		return json.Unmarshal(data, &s.Level)
	case KeyCompleted:
		return json.Unmarshal(data, &s.Completed)
	case KeyBadges:
		return json.Unmarshal(data, &s.Badges)
	case KeyPortalStyles:
		return json.Unmarshal(data, &s.PortalStyles)
	case KeySelectedBadge:
		s.SelectedBadge = decodeString(raw)
	case KeySelectedPortalStyle:
		s.SelectedPortalStyle = decodeString(raw)
	case KeyLastLoginDate:
		s.LastLoginDate = decodeString(raw)
	case KeyDiscoveredLocations:
		return json.Unmarshal(data, &s.DiscoveredLocations)
	case KeyDrops:
		drops, err := decodeDrops(data)
		if err != nil {
			return err
		}
		s.Drops = drops
	case KeyQuizStats:
		return json.Unmarshal(data, &s.Quiz)
	case KeyFavorites:
		favs, custom, err := decodeFavorites(data)
		if err != nil {
			return err
		}
		s.Favorites = favs
		s.CustomCharacters = append(s.CustomCharacters, custom...)
	case KeyCustomCharacters:
		var custom []domain.CustomCharacter
		if err := json.Unmarshal(data, &custom); err != nil {
			return err
		}
		s.CustomCharacters = append(s.CustomCharacters, custom...)
	case KeyQuoteDate:
		s.QuoteDate = decodeString(raw)
	case KeyCurrentQuote:
		return json.Unmarshal(data, &s.Quote)
	case KeyWatchedEpisodes:
		w := map[int]domain.WatchedEpisode{}
		if err := json.Unmarshal(data, &w); err != nil {
			return err
		}
		s.Watched = w
	case KeyVisitedSections:
		return json.Unmarshal(data, &s.VisitedSections)
	case KeyUnlockedRegions:
		return json.Unmarshal(data, &s.UnlockedRegions)
	case KeySchemaVersion:
		v, err := strconv.Atoi(decodeString(raw))
		if err != nil {
			return err
		}
		s.SchemaVersion = v
	default:
		return fmt.Errorf("unknown state key %q", key)
	}
	return nil
}

func decodeString(raw string) string {
	var s string
	if err := json.Unmarshal([]byte(raw), &s); err == nil {
		return s
	}
	return raw
}

// decodeFavorites accepts [1,2] or [{"id":1,...},{"id":2,...}]. Objects with
// type "custom" are user-created characters and are returned separately.
func decodeFavorites(data []byte) ([]int, []domain.CustomCharacter, error) {
	var ids []int
	if err := json.Unmarshal(data, &ids); err == nil {
		return ids, nil, nil
	}
	var objs []struct {
		ID     int             `json:"id"`
		Name   string          `json:"name"`
		Type   string          `json:"type"`
		Origin json.RawMessage `json:"origin"`
		Image  string          `json:"image"`
	}
	if err := json.Unmarshal(data, &objs); err != nil {
		return nil, nil, err
	}
	ids = make([]int, 0, len(objs))
	var custom []domain.CustomCharacter
	for _, o := range objs {
		if o.Type != "custom" {
			ids = append(ids, o.ID)
			continue
		}
		custom = append(custom, domain.CustomCharacter{
			ID:        o.ID,
			Name:      o.Name,
			Origin:    decodeOrigin(o.Origin),
			Image:     o.Image,
			CreatedAt: time.UnixMilli(int64(o.ID)).UTC(),
		})
	}
	return ids, custom, nil
}

// decodeOrigin accepts "Earth" or {"name":"Earth",...}.
func decodeOrigin(raw json.RawMessage) string {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}

// decodeDrops accepts string or numeric drop ids.
func decodeDrops(data []byte) ([]domain.CharacterDrop, error) {
	var raw []struct {
		ID          json.RawMessage `json:"id"`
		CharacterID int             `json:"characterId"`
		LocationID  int             `json:"locationId"`
		Discovered  bool            `json:"discovered"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	drops := make([]domain.CharacterDrop, 0, len(raw))
	for _, r := range raw {
		drops = append(drops, domain.CharacterDrop{
			ID:          decodeString(string(r.ID)),
			CharacterID: r.CharacterID,
			LocationID:  r.LocationID,
			Discovered:  r.Discovered,
		})
	}
	return drops, nil
}

// ─── Load / migrate ─────────────────────────────────────────────────────────

// LoadState reads every key from kv. Missing keys keep their defaults; a
// read or parse failure on one key is logged and that key falls back to its
// default. The returned bool reports whether the record predates
// SchemaVersion and should be rewritten in full.
func LoadState(ctx context.Context, kv domain.KVStore, logger *zap.Logger) (State, bool) {
	s := DefaultState()
	s.SchemaVersion = 0
	present := 0

	for _, key := range AllKeys {
		raw, ok, err := kv.Get(ctx, key)
		if err != nil {
			metrics.StorageErrors.WithLabelValues("load").Inc()
			logger.Warn("read progress key failed, using default", zap.String("key", key), zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		present++
		if err := s.Decode(key, raw); err != nil {
			logger.Warn("malformed progress key, using default", zap.String("key", key), zap.Error(err))
			restoreDefault(&s, key)
		}
	}

	if present == 0 {
		// Nothing stored yet: a fresh record, written on first mutation.
		s = DefaultState()
		return s, false
	}

	stale := s.SchemaVersion < SchemaVersion
	return Migrate(s), stale
}

func restoreDefault(s *State, key string) {
	def := DefaultState()
	v, _ := def.value(key)
	raw, _ := json.Marshal(v)
	_ = s.Decode(key, string(raw))
	if key == KeySchemaVersion {
		s.SchemaVersion = 0
	}
}

// Migrate brings any decoded record to the current invariants: counters
// normalized and reconciled with the sets they count, level repaired,
// catalogs merged with the built-in ones, selections pointing at unlocked
// entries. It is idempotent.
func Migrate(s State) State {
	s.CustomCharacters = uniqueCustom(s.CustomCharacters)
	customIDs := make(map[int]bool, len(s.CustomCharacters))
	for _, c := range s.CustomCharacters {
		customIDs[c.ID] = true
	}
	favorites := make([]int, 0, len(s.Favorites))
	for _, id := range uniqueInts(s.Favorites) {
		if !customIDs[id] {
			favorites = append(favorites, id)
		}
	}
	s.Favorites = favorites
	s.DiscoveredLocations = uniqueInts(s.DiscoveredLocations)
	s.UnlockedRegions = uniqueInts(s.UnlockedRegions)
	s.VisitedSections = uniqueStrings(s.VisitedSections)
	if s.Watched == nil {
		s.Watched = map[int]domain.WatchedEpisode{}
	}
	if s.Drops == nil {
		s.Drops = []domain.CharacterDrop{}
	}

	counters := NewCounterStore(s.Counters).Snapshot()
	counters[domain.CounterFavorites] = len(s.Favorites) + len(s.CustomCharacters)
	raiseTo(counters, domain.CounterEpisodesWatched, len(s.Watched))
	raiseTo(counters, domain.CounterLocationsDiscovered, len(s.DiscoveredLocations))
	raiseTo(counters, domain.CounterSectionsVisited, len(s.VisitedSections))
	raiseTo(counters, domain.CounterQuizzesCompleted, s.Quiz.QuizzesCompleted)
	s.Counters = counters

	s.Level = NormalizeLevel(s.Level)

	known := map[string]bool{}
	for _, def := range AllAchievements() {
		known[def.ID] = true
	}
	completed := make([]string, 0, len(s.Completed))
	for _, id := range uniqueStrings(s.Completed) {
		if known[id] {
			completed = append(completed, id)
		}
	}
	s.Completed = completed

	r := NewResolver(s.Badges, s.PortalStyles)
	s.Badges = r.Badges()
	s.PortalStyles = r.PortalStyles()
	if ok, err := r.IsUnlocked(domain.RewardRef{Kind: domain.RewardBadge, ID: s.SelectedBadge}); err != nil || !ok {
		s.SelectedBadge = ""
	}
	if ok, err := r.IsUnlocked(domain.RewardRef{Kind: domain.RewardPortalStyle, ID: s.SelectedPortalStyle}); err != nil || !ok {
		s.SelectedPortalStyle = ""
	}

	s.LastLoginDate = normalizeDay(s.LastLoginDate)
	s.QuoteDate = normalizeDay(s.QuoteDate)
	if s.QuoteDate == "" || s.Quote.Text == "" {
		s.QuoteDate = ""
		s.Quote = domain.Quote{}
	}

	s.SchemaVersion = SchemaVersion
	return s
}

// normalizeDay rewrites a legacy or RFC 3339 date to dateLayout. Unreadable
// dates become "".
func normalizeDay(day string) string {
	if day == "" {
		return ""
	}
	for _, layout := range []string{dateLayout, legacyDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, day); err == nil {
			return t.Format(dateLayout)
		}
	}
	return ""
}

func raiseTo(c domain.Counters, key domain.CounterKey, n int) {
	if c[key] < n {
		c[key] = n
	}
}

func uniqueInts(in []int) []int {
	seen := make(map[int]bool, len(in))
	out := make([]int, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// uniqueCustom drops custom characters without an id or name, and repeated ids.
func uniqueCustom(in []domain.CustomCharacter) []domain.CustomCharacter {
	seen := make(map[int]bool, len(in))
	out := make([]domain.CustomCharacter, 0, len(in))
	for _, c := range in {
		if c.ID <= 0 || c.Name == "" || seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v != "" && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

func intSet(ids []int) map[int]bool {
	set := make(map[int]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
