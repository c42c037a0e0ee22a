// Package showapi fetches characters, episodes and locations from the public
// show API. Reads never fail hard: a network or parse failure falls back to
// the last good response cached in the key-value store, then to a built-in
// dataset.
package showapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/citadel-app/citadel/internal/domain"
	"github.com/citadel-app/citadel/internal/infra/metrics"
)

// DefaultBaseURL is the public show API.
const DefaultBaseURL = "https://sampleapis.assimilate.be/rickandmorty"

// CacheKeyPrefix prefixes the key-value entries holding the last good responses.
const CacheKeyPrefix = "cache:"

// Resources served by the API.
const (
	ResourceCharacters = "characters"
	ResourceEpisodes   = "episodes"
	ResourceLocations  = "locations"
)

// maxBody bounds a single API response.
const maxBody = 16 << 20

//go:embed fallback.yaml
var fallbackYAML []byte

// Dataset is a full copy of the show data.
type Dataset struct {
	Characters []domain.Character `yaml:"characters"`
	Episodes   []domain.Episode   `yaml:"episodes"`
	Locations  []domain.Location  `yaml:"locations"`
	Quotes     []domain.Quote     `yaml:"quotes"`
}

// Compile-time check that Client satisfies the data provider contract.
var _ domain.DataProvider = (*Client)(nil)

// Client is the show data provider.
type Client struct {
	baseURL string
	http    *http.Client
	cache   domain.KVStore
	logger  *zap.Logger

	fallbackOnce sync.Once
	fallback     *Dataset
	fallbackErr  error
}

// New creates a client. cache may be nil, which disables the cache tier.
func New(baseURL string, timeout time.Duration, cache domain.KVStore, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		cache:   cache,
		logger:  logger.Named("ShowAPI"),
	}
}

// Characters returns every character.
func (c *Client) Characters(ctx context.Context) ([]domain.Character, error) {
	return load(ctx, c, ResourceCharacters, decodeCharacters, func(d *Dataset) []domain.Character { return d.Characters })
}

// Episodes returns every episode.
func (c *Client) Episodes(ctx context.Context) ([]domain.Episode, error) {
	return load(ctx, c, ResourceEpisodes, decodeJSON[domain.Episode], func(d *Dataset) []domain.Episode { return d.Episodes })
}

// Locations returns every location.
func (c *Client) Locations(ctx context.Context) ([]domain.Location, error) {
	return load(ctx, c, ResourceLocations, decodeJSON[domain.Location], func(d *Dataset) []domain.Location { return d.Locations })
}

// load tries network, then cache, then the built-in dataset.
func load[T any](ctx context.Context, c *Client, resource string, decode func([]byte) ([]T, error), pick func(*Dataset) []T) ([]T, error) {
	raw, err := c.fetch(ctx, resource)
	if err == nil {
		var items []T
		if items, err = decode(raw); err == nil && len(items) > 0 {
			c.store(ctx, resource, raw)
			return items, nil
		}
		if err == nil {
			err = fmt.Errorf("empty %s list", resource)
		}
	}
	c.logger.Warn("show api unavailable, falling back", zap.String("resource", resource), zap.Error(err))

	if raw, ok := c.cached(ctx, resource); ok {
		if items, err := decode(raw); err == nil && len(items) > 0 {
			metrics.ProviderFallbacks.WithLabelValues(resource, "cache").Inc()
			return items, nil
		}
		c.logger.Warn("cached show data unreadable", zap.String("resource", resource))
	}

	ds, err := c.builtin()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrProviderUnavailable, resource, err)
	}
	metrics.ProviderFallbacks.WithLabelValues(resource, "builtin").Inc()
	return pick(ds), nil
}

func (c *Client) fetch(ctx context.Context, resource string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+resource, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: HTTP %d", resource, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", resource, err)
	}
	return body, nil
}

func (c *Client) store(ctx context.Context, resource string, raw []byte) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Set(ctx, CacheKeyPrefix+resource, string(raw)); err != nil {
		metrics.StorageErrors.WithLabelValues("cache").Inc()
		c.logger.Warn("cache show data failed", zap.String("resource", resource), zap.Error(err))
	}
}

func (c *Client) cached(ctx context.Context, resource string) ([]byte, bool) {
	if c.cache == nil {
		return nil, false
	}
	v, ok, err := c.cache.Get(ctx, CacheKeyPrefix+resource)
	if err != nil {
		metrics.StorageErrors.WithLabelValues("cache").Inc()
		c.logger.Warn("read cached show data failed", zap.String("resource", resource), zap.Error(err))
		return nil, false
	}
	return []byte(v), ok
}

func (c *Client) builtin() (*Dataset, error) {
	c.fallbackOnce.Do(func() {
		c.fallback, c.fallbackErr = Builtin()
	})
	return c.fallback, c.fallbackErr
}

// Builtin parses the embedded dataset.
func Builtin() (*Dataset, error) {
	var ds Dataset
	if err := yaml.Unmarshal(fallbackYAML, &ds); err != nil {
		return nil, fmt.Errorf("parse built-in dataset: %w", err)
	}
	return &ds, nil
}

// ─── Decoding ───────────────────────────────────────────────────────────────

func decodeJSON[T any](raw []byte) ([]T, error) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// wireCharacter accepts origin either as a plain string or as {"name": ...}.
type wireCharacter struct {
	ID      int             `json:"id"`
	Name    string          `json:"name"`
	Status  string          `json:"status"`
	Species string          `json:"species"`
	Type    string          `json:"type"`
	Gender  string          `json:"gender"`
	Origin  json.RawMessage `json:"origin"`
	Image   string          `json:"image"`
}

func decodeCharacters(raw []byte) ([]domain.Character, error) {
	var wire []wireCharacter
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, err
	}
	out := make([]domain.Character, 0, len(wire))
	for _, w := range wire {
		out = append(out, domain.Character{
			ID:      w.ID,
			Name:    w.Name,
			Status:  w.Status,
			Species: w.Species,
			Type:    w.Type,
			Gender:  w.Gender,
			Origin:  originName(w.Origin),
			Image:   w.Image,
		})
	}
	return out, nil
}

func originName(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Name
	}
	return ""
}
