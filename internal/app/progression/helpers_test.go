package progression_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/infra/sqlite"
)

// scriptedRandom replays fixed values. Float64 defaults to 0.99 (no drop),
// Intn to 0, and Shuffle leaves the order unchanged.
type scriptedRandom struct {
	floats []float64
	ints   []int
}

func (r *scriptedRandom) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRandom) Intn(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRandom) Shuffle(int, func(i, j int)) {}

// fakeProvider serves fixed show data.
type fakeProvider struct {
	characters []domain.Character
	episodes   []domain.Episode
	locations  []domain.Location
	err        error
}

func (p *fakeProvider) Characters(context.Context) ([]domain.Character, error) {
	return p.characters, p.err
}

func (p *fakeProvider) Episodes(context.Context) ([]domain.Episode, error) {
	return p.episodes, p.err
}

func (p *fakeProvider) Locations(context.Context) ([]domain.Location, error) {
	return p.locations, p.err
}

func testCharacters(n int) []domain.Character {
	species := []string{"Human", "Alien", "Robot", "Cronenberg", "Humanoid"}
	origins := []string{"Earth (C-137)", "Gazorpazorp", "Bird World", "unknown", "Citadel of Ricks", ""}
	out := make([]domain.Character, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Character{
			ID:      i,
			Name:    fmt.Sprintf("Character %d", i),
			Status:  "Alive",
			Species: species[i%len(species)],
			Origin:  origins[i%len(origins)],
			Image:   fmt.Sprintf("https://example.test/%d.jpeg", i),
		})
	}
	return out
}

func testEpisodes(n int) []domain.Episode {
	out := make([]domain.Episode, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, domain.Episode{ID: i, Name: fmt.Sprintf("Episode %d", i), Season: 1, Episode: i})
	}
	return out
}

func testWorld() *fakeProvider {
	return &fakeProvider{
		characters: testCharacters(12),
		episodes:   testEpisodes(15),
		locations:  testLocations(),
	}
}

func testDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	require.NoError(t, err, "open test db")
	t.Cleanup(func() { db.Close() })
	return db
}

func newEngine(t *testing.T, kv domain.KVStore) (*progression.Engine, *scriptedRandom) {
	t.Helper()
	e := progression.New(kv, progression.DefaultConfig(), nil)
	require.NoError(t, e.Load(context.Background()))
	rng := &scriptedRandom{}
	e.SetRandom(rng)
	return e, rng
}

// recordingNotifier collects events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []domain.Event
}

func (n *recordingNotifier) Notify(ev domain.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) types() []domain.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]domain.EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

// brokenKV fails every operation.
type brokenKV struct{}

var errDiskFull = errors.New("disk full")

func (brokenKV) Get(context.Context, string) (string, bool, error) { return "", false, errDiskFull }
func (brokenKV) Set(context.Context, string, string) error { return errDiskFull }
func (brokenKV) SetMany(context.Context, map[string]string) error { return errDiskFull }
func (brokenKV) Remove(context.Context, string) error { return errDiskFull }
