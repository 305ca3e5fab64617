package model

import "time"

// Membership records that a user completed onboarding for an event.
// Its existence is the sole authorization gate for flag submission.
type Membership struct {
	EventID  int64     `json:"event_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}
