package showapi

import (
	"time"

	"github.com/citadel-app/citadel/internal/domain"
)

// DefaultCharacter is shown when no roster is available at all.
func DefaultCharacter() domain.Character {
	return domain.Character{
		ID:      1,
		Name:    "Rick Sanchez",
		Status:  "Alive",
		Species: "Human",
		Gender:  "Male",
		Origin:  "Earth (C-137)",
		Image:   "https://rickandmortyapi.com/api/character/avatar/1.jpeg",
	}
}

// CharacterOfTheDay picks one character per calendar day of day. The pick is
// stable for the whole day and rotates through the roster.
func CharacterOfTheDay(roster []domain.Character, day time.Time) domain.Character {
	if len(roster) == 0 {
		return DefaultCharacter()
	}
	y, m, d := day.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400
	return roster[int(days%int64(len(roster)))]
}

// DefaultQuote is used when the built-in quote list cannot be read.
func DefaultQuote() domain.Quote {
	return domain.Quote{Text: "Wubba Lubba Dub Dub!", Character: "Rick Sanchez"}
}

// Quotes returns the built-in quotes for the quote of the day.
func Quotes() []domain.Quote {
	ds, err := Builtin()
	if err != nil || len(ds.Quotes) == 0 {
		return []domain.Quote{DefaultQuote()}
	}
	return ds.Quotes
}
