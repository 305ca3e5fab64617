package model

import (
	"regexp"
	"strings"
	"time"
)

// Submission is an accepted, immutable flag-correctness claim. Flag values
// are unique per event across all users: first submitter wins.
type Submission struct {
	ID          string    `json:"id"`
	EventID     int64     `json:"event_id"`
	UserID      string    `json:"user_id"`
	Challenge   string    `json:"challenge"`
	Category    string    `json:"category"`
	FlagValue   string    `json:"flag_value"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// submissionPattern matches one ==token== group of the strict submission
// format: ==Challenge== ==Category== ==Flag==
var submissionPattern = regexp.MustCompile(`==([^=]+)==`)

// ParseSubmission extracts the three tokens of a raw flag submission.
// Tokens are trimmed of marker characters and surrounding whitespace only;
// flag values stay case-sensitive. ok is false unless exactly three groups
// are present.
func ParseSubmission(raw string) (challenge, category, flag string, ok bool) {
	parts := submissionPattern.FindAllString(raw, -1)
	if len(parts) != 3 {
		return "", "", "", false
	}
	clean := func(s string) string {
		return strings.TrimSpace(strings.ReplaceAll(s, "==", ""))
	}
	return clean(parts[0]), clean(parts[1]), clean(parts[2]), true
}
