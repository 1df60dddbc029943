package domain

import (
	"time"
)

// Emojis is the set of glyphs a user can react with.
var Emojis = []string{"😊", "😎", "🤓", "🦁", "🐯", "🐶", "🐱", "🦊", "🦄", "🐸"}

// IsEmoji reports whether e belongs to Emojis.
func IsEmoji(e string) bool {
	for _, v := range Emojis {
		if v == e {
			return true
		}
	}

	return false
}

// Reaction is one emoji dropped on the canvas. X and Y are relative to the
// top-left corner of the surface, Timestamp is in milliseconds since epoch.
type Reaction struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Emoji     string  `json:"emoji"`
	UserName  string  `json:"userName"`
	Timestamp int64   `json:"timestamp"`
}

func NewReaction(x, y float64, emoji, userName string, now time.Time) Reaction {
	return Reaction{
		X:         x,
		Y:         y,
		Emoji:     emoji,
		UserName:  userName,
		Timestamp: now.UnixMilli(),
	}
}

// Validate checks the fields a peer must always fill in.
func (r Reaction) Validate() error {
	if r.Emoji == "" {
		return ErrMissingEmoji
	}
	if r.UserName == "" {
		return ErrMissingUserName
	}

	return nil
}

func (r Reaction) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}

// Surface is the clickable canvas area, in the units carried on the wire.
type Surface struct {
	Width  float64
	Height float64
}

func (s Surface) Contains(x, y float64) bool {
	return x >= 0 && y >= 0 && x < s.Width && y < s.Height
}
