package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Counter store errors
	ErrUnknownCounter      = errors.New("unknown counter")
	ErrCounterDecrease     = errors.New("counter is monotonic and cannot decrease")
	ErrInvalidCounterValue = errors.New("counter value must be non-negative")

	// Ledger errors
	ErrInvalidAward = errors.New("xp award must be non-negative")

	// Reward errors
	ErrUnknownReward = errors.New("unknown reward")
	ErrNotUnlocked   = errors.New("reward not unlocked")

	// Map errors
	ErrUnknownLocation = errors.New("unknown location")
	ErrRegionLocked    = errors.New("location is only reachable through locked regions")
	ErrWorldNotLoaded  = errors.New("map data not loaded")

	// Event input errors
	ErrUnknownSection    = errors.New("unknown app section")
	ErrUnknownCharacter  = errors.New("unknown character")
	ErrUnknownEpisode    = errors.New("unknown episode")
	ErrInvalidRating     = errors.New("rating must be between 0 and 5")
	ErrInvalidQuizResult = errors.New("quiz result out of range")
	ErrNotEnoughRoster   = errors.New("not enough characters to build a quiz")

	// Custom character and quote errors
	ErrInvalidCustomCharacter = errors.New("custom character needs a name, an origin and an image")
	ErrNoQuotes               = errors.New("no quotes available")

	// Provider errors
	ErrProviderUnavailable = errors.New("show data unavailable from every source")
)
