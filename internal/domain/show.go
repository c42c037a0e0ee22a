package domain

import "time"

// Character is a show character as served by the data provider.
type Character struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	Status  string `json:"status" yaml:"status"`
	Species string `json:"species" yaml:"species"`
	Type    string `json:"type" yaml:"type"`
	Gender  string `json:"gender" yaml:"gender"`
	Origin  string `json:"origin" yaml:"origin"`
	Image   string `json:"image" yaml:"image"`
}

// Episode is a show episode.
type Episode struct {
	ID      int    `json:"id" yaml:"id"`
	Name    string `json:"name" yaml:"name"`
	AirDate string `json:"air_date" yaml:"air_date"`
	Season  int    `json:"season" yaml:"season"`
	Episode int    `json:"episode" yaml:"episode"`
}

// Location is a place in the show's multiverse.
type Location struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Type      string `json:"type" yaml:"type"`
	Dimension string `json:"dimension" yaml:"dimension"`
}

// CustomCharacter is a character the user created. It lives in the favorites
// list next to the roster characters and counts toward favoritesCount.
type CustomCharacter struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	Origin    string    `json:"origin"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// Character renders the custom character in roster form.
func (c CustomCharacter) Character() Character {
	return Character{
		ID:      c.ID,
		Name:    c.Name,
		Status:  "unknown",
		Species: "unknown",
		Type:    "custom",
		Gender:  "unknown",
		Origin:  c.Origin,
		Image:   c.Image,
	}
}

// Quote is a line from the show.
type Quote struct {
	Text      string `json:"text" yaml:"text"`
	Character string `json:"character" yaml:"character"`
}
