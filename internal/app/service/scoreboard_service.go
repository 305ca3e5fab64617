package service

import (
	"context"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"
	"ctfbot/internal/domain/repository"
)

type ScoreboardService struct {
	submissionRepo repository.SubmissionRepository
	membershipRepo repository.MembershipRepository
	eventRepo      repository.EventRepository
}

func NewScoreboardService(
	submissionRepo repository.SubmissionRepository,
	membershipRepo repository.MembershipRepository,
	eventRepo repository.EventRepository,
) *ScoreboardService {
	return &ScoreboardService{
		submissionRepo: submissionRepo,
		membershipRepo: membershipRepo,
		eventRepo:      eventRepo,
	}
}

// Live returns the current leaderboard of an event, capped at
// LiveScoreboardLimit. Count ties carry no secondary ordering here; only
// the final report breaks them by earliest solve.
func (s *ScoreboardService) Live(ctx context.Context, eventName string) (*model.Event, []model.ScoreboardEntry, error) {
	event, err := resolveEvent(ctx, s.eventRepo, eventName)
	if err != nil {
		return nil, nil, err
	}
	entries, err := s.submissionRepo.LiveScoreboard(ctx, event.ID, model.LiveScoreboardLimit)
	if err != nil {
		return nil, nil, common.Errorf("failed to compute scoreboard: %w", err)
	}
	return event, entries, nil
}

// FinalReport aggregates the closing stats for an event. The participant
// and flag counts are independent of the ranked list's truncation.
func (s *ScoreboardService) FinalReport(ctx context.Context, eventID int64) (*model.FinalReport, error) {
	entries, err := s.submissionRepo.FinalScoreboard(ctx, eventID, model.FinalReportLimit)
	if err != nil {
		return nil, common.Errorf("failed to compute final scoreboard: %w", err)
	}
	participants, err := s.membershipRepo.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, common.Errorf("failed to count participants: %w", err)
	}
	flags, err := s.submissionRepo.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, common.Errorf("failed to count submissions: %w", err)
	}
	return &model.FinalReport{
		Entries:          entries,
		ParticipantCount: participants,
		FlagCount:        flags,
	}, nil
}
