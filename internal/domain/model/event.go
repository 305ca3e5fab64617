package model

import "time"

const (
	StatusScheduled = "scheduled"
	StatusEnded     = "ended"
)

type Event struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	URL           string    `json:"url"`
	Format        string    `json:"format"`
	StartAt       time.Time `json:"start_at"`
	EndAt         time.Time `json:"end_at"`
	Status        string    `json:"status"`
	RoleID        *string   `json:"role_id,omitempty"`
	RoomChannelID *string   `json:"room_channel_id,omitempty"`
	LogChannelID  *string   `json:"log_channel_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RuntimeState is the read-time temporal phase of an event. It is derived,
// never stored: only "scheduled" and "ended" exist in the database, so a
// past end time with status still "scheduled" reads as Elapsed.
type RuntimeState string

const (
	StateNotStarted RuntimeState = "NotStarted"
	StateRunning    RuntimeState = "Running"
	StateElapsed    RuntimeState = "Elapsed"
	StateEnded      RuntimeState = "Ended"
)

// DeriveRuntimeState classifies an event at a point in time. A stored
// "ended" status is authoritative regardless of the clock.
func DeriveRuntimeState(e *Event, now time.Time) RuntimeState {
	if e.Status == StatusEnded {
		return StateEnded
	}
	if now.Before(e.StartAt) {
		return StateNotStarted
	}
	if now.After(e.EndAt) {
		return StateElapsed
	}
	return StateRunning
}
