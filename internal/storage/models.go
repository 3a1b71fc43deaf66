package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Lead is a finalized record of collected contact information. It is created
// exactly once, when a conversation reaches its terminal step, and is
// immutable afterwards; fields the conversation never filled are empty.
type Lead struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Interest  string    `json:"interest"`
	CreatedAt time.Time `json:"created_at"`
}
