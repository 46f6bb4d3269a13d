package models

import "time"

// BlockedWord is a user-configured term that flags comments containing it
type BlockedWord struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	Word      string    `json:"word" db:"word"`
	IsActive  bool      `json:"isActive" db:"is_active"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
