package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveRuntimeState(t *testing.T) {
	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	tests := []struct {
		name   string
		status string
		now    time.Time
		want   RuntimeState
	}{
		{"before start", StatusScheduled, start.Add(-time.Minute), StateNotStarted},
		{"exactly at start", StatusScheduled, start, StateRunning},
		{"mid window", StatusScheduled, start.Add(12 * time.Hour), StateRunning},
		{"exactly at end", StatusScheduled, end, StateRunning},
		{"just past end, not closed", StatusScheduled, end.Add(time.Millisecond), StateElapsed},
		{"ended before window opens", StatusEnded, start.Add(-time.Hour), StateEnded},
		{"ended mid window", StatusEnded, start.Add(time.Hour), StateEnded},
		{"ended after window", StatusEnded, end.Add(time.Hour), StateEnded},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := &Event{Status: tt.status, StartAt: start, EndAt: end}
			assert.Equal(t, tt.want, DeriveRuntimeState(event, tt.now))
		})
	}
}
