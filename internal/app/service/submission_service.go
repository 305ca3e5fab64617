package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"
	"ctfbot/internal/domain/repository"
	"ctfbot/internal/platform/config"
	"ctfbot/internal/platform/gateway"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo repository.SubmissionRepository
	membershipRepo repository.MembershipRepository
	eventRepo      repository.EventRepository
	chat           gateway.ChatGateway
	now            func() time.Time
}

func NewSubmissionService(
	submissionRepo repository.SubmissionRepository,
	membershipRepo repository.MembershipRepository,
	eventRepo repository.EventRepository,
	chat gateway.ChatGateway,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo: submissionRepo,
		membershipRepo: membershipRepo,
		eventRepo:      eventRepo,
		chat:           chat,
		now:            time.Now,
	}
}

// Submit validates and records a flag submission. Preconditions are checked
// in a fixed order and the first failure wins; the unique constraint on
// (event, flag) remains the last line of defense against a concurrent
// duplicate.
func (s *SubmissionService) Submit(ctx context.Context, userID, eventName, rawText string) (*model.Submission, error) {
	challenge, category, flagValue, ok := model.ParseSubmission(rawText)
	if !ok {
		return nil, common.ErrBadFormat
	}

	event, err := resolveEvent(ctx, s.eventRepo, eventName)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if event.Status == model.StatusEnded || now.After(event.EndAt) {
		return nil, common.Errorf("event %s: %w", event.Name, common.ErrEventClosed)
	}
	if now.Before(event.StartAt) {
		return nil, common.Errorf("event %s: %w", event.Name, common.ErrEventNotStarted)
	}

	joined, err := s.membershipRepo.Exists(ctx, event.ID, userID)
	if err != nil {
		return nil, common.Errorf("failed to check membership: %w", err)
	}
	if !joined {
		return nil, common.ErrNotJoined
	}

	exists, err := s.submissionRepo.FlagExists(ctx, event.ID, flagValue)
	if err != nil {
		return nil, common.Errorf("failed to check flag uniqueness: %w", err)
	}
	if exists {
		return nil, common.ErrDuplicateFlag
	}

	submission := &model.Submission{
		ID:          uuid.NewString(),
		EventID:     event.ID,
		UserID:      userID,
		Challenge:   challenge,
		Category:    category,
		FlagValue:   flagValue,
		SubmittedAt: now,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.notifyLogChannel(ctx, event, submission)

	log.Printf("Flag accepted for user %s on event %d (%s / %s)", userID, event.ID, challenge, category)
	return submission, nil
}

// notifyLogChannel posts the solve to the event's submission log.
// Best-effort: a failed notification never rolls back the submission.
func (s *SubmissionService) notifyLogChannel(ctx context.Context, event *model.Event, sub *model.Submission) {
	embed := &gateway.Embed{
		Title: "New Flag Submitted",
		Color: "green",
		Fields: []gateway.EmbedField{
			{Name: "Solver", Value: fmt.Sprintf("<@%s>", sub.UserID), Inline: true},
			{Name: "Challenge", Value: sub.Challenge, Inline: true},
			{Name: "Category", Value: sub.Category, Inline: true},
		},
	}
	channel := gateway.ChannelName(config.AppConfig.LogChannelPrefix, event.Name)
	if err := s.chat.SendChannelMessage(ctx, channel, "", embed); err != nil {
		log.Printf("WARN: failed to notify log channel for event %d: %v", event.ID, err)
	}
}

// AllFlags lists every submission of an active event, newest first.
func (s *SubmissionService) AllFlags(ctx context.Context, eventName string) (*model.Event, []model.Submission, error) {
	event, err := resolveEvent(ctx, s.eventRepo, eventName)
	if err != nil {
		return nil, nil, err
	}
	if event.Status == model.StatusEnded {
		return nil, nil, common.Errorf("event %s: %w", event.Name, common.ErrEventClosed)
	}

	submissions, err := s.submissionRepo.ListByEvent(ctx, event.ID)
	if err != nil {
		return nil, nil, common.Errorf("failed to list submissions: %w", err)
	}
	return event, submissions, nil
}
