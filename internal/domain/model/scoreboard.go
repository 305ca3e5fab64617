package model

type ScoreboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"user_id"`
	Score  int    `json:"score"`
}

// FinalReport is published when an event is ended. Participant and flag
// counts cover the whole event, independent of the ranked list's truncation.
type FinalReport struct {
	Entries          []ScoreboardEntry `json:"entries"`
	ParticipantCount int               `json:"participant_count"`
	FlagCount        int               `json:"flag_count"`
}

const (
	// LiveScoreboardLimit bounds the live leaderboard length.
	LiveScoreboardLimit = 15
	// FinalReportLimit bounds the ranked list in the closing report.
	FinalReportLimit = 10
)
