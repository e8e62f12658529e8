package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Exchange is one completed chat turn: what the user asked, the full prompt
// that was sent upstream, and the model's reply.
type Exchange struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"createdAt"`
	SessionID        string    `json:"sessionId"`
	UserMessage      string    `json:"userMessage"`
	Prompt           string    `json:"prompt"`
	Response         string    `json:"response"`
	PersonalDataUsed bool      `json:"personalDataUsed"`
}
