package storage

import "time"

// Exchange is one question and the generation returned for it.
type Exchange struct {
	ID        string    // UUID
	Question  string
	MaxLength int
	Provider  string
	Response  string // JSON-encoded generation result, as sent to the client
	CreatedAt time.Time
}
