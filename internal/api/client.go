package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/citadel-app/citadel/internal/app/progression"
	"github.com/citadel-app/citadel/internal/domain"
)

// Client calls a running Citadel daemon. Its event methods mirror the
// engine's, so commands can drive either one. Dated events use the daemon's
// clock; the now arguments are ignored.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the daemon at baseURL (http://host:port).
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// APIError is an error response from the daemon.
type APIError struct {
	Status  int
	Type    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("citadel daemon: %s (HTTP %d)", e.Message, e.Status)
}

// Progress returns the daemon's progress snapshot.
func (c *Client) Progress(ctx context.Context) (progression.Snapshot, error) {
	var snap progression.Snapshot
	err := c.do(ctx, http.MethodGet, "/api/progress", nil, &snap)
	return snap, err
}

// QuoteOfTheDay returns the daemon's quote of the day.
func (c *Client) QuoteOfTheDay(ctx context.Context, _ time.Time) (domain.Quote, error) {
	var q domain.Quote
	err := c.do(ctx, http.MethodGet, "/api/quote-of-the-day", nil, &q)
	return q, err
}

func (c *Client) RecordActivity(ctx context.Context, _ time.Time) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/activity", nil)
}

func (c *Client) UsePortal(ctx context.Context) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/portal", nil)
}

func (c *Client) VisitSection(ctx context.Context, section string) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/sections/"+section+"/visit", nil)
}

func (c *Client) AddFavorite(ctx context.Context, characterID int) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/favorites/"+strconv.Itoa(characterID), nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, characterID int) (progression.Outcome, error) {
	return c.event(ctx, http.MethodDelete, "/api/favorites/"+strconv.Itoa(characterID), nil)
}

func (c *Client) AddCustomCharacter(ctx context.Context, name, origin, image string, _ time.Time) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/custom-characters",
		customCharacterRequest{Name: name, Origin: origin, Image: image})
}

func (c *Client) WatchEpisode(ctx context.Context, episodeID, rating int, notes string, _ time.Time) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/episodes/"+strconv.Itoa(episodeID)+"/watch",
		watchRequest{Rating: rating, Notes: notes})
}

func (c *Client) DiscoverLocation(ctx context.Context, locationID int) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/locations/"+strconv.Itoa(locationID)+"/discover", nil)
}

func (c *Client) CompleteQuiz(ctx context.Context, correct, total int, _ time.Time) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/quiz/complete", quizResultRequest{Correct: correct, Total: total})
}

func (c *Client) AwardXP(ctx context.Context, amount int) (progression.Outcome, error) {
	return c.event(ctx, http.MethodPost, "/api/xp", xpRequest{Amount: amount})
}

func (c *Client) event(ctx context.Context, method, path string, body interface{}) (progression.Outcome, error) {
	var out progression.Outcome
	err := c.do(ctx, method, path, body, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call citadel daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var eb struct {
			Error struct {
				Message string `json:"message"`
				Type    string `json:"type"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if json.Unmarshal(raw, &eb) != nil || eb.Error.Message == "" {
			eb.Error.Message = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Type: eb.Error.Type, Message: eb.Error.Message}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
