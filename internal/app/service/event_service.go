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
)

// timeLayouts accepted for event schedules: RFC 3339 or a bare local form.
var timeLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02T15:04"}

type EventService struct {
	eventRepo   repository.EventRepository
	scoreboard  *ScoreboardService
	provisioner gateway.Provisioner
	chat        gateway.ChatGateway
	now         func() time.Time
}

func NewEventService(
	eventRepo repository.EventRepository,
	scoreboard *ScoreboardService,
	provisioner gateway.Provisioner,
	chat gateway.ChatGateway,
) *EventService {
	return &EventService{
		eventRepo:   eventRepo,
		scoreboard:  scoreboard,
		provisioner: provisioner,
		chat:        chat,
		now:         time.Now,
	}
}

// resolveEvent finds the event a command addresses. An empty name means the
// most recently created event, which keeps single-event servers working
// without ever naming it. Duplicate names resolve to the newest match.
func resolveEvent(ctx context.Context, repo repository.EventRepository, name string) (*model.Event, error) {
	if name == "" {
		return repo.FindLatest(ctx)
	}
	return repo.FindByName(ctx, name)
}

type CreateEventRequest struct {
	Name   string `json:"name"`
	Start  string `json:"start"`
	End    string `json:"end"`
	URL    string `json:"url"`
	Format string `json:"format"`
}

func (s *EventService) Create(ctx context.Context, req CreateEventRequest) (*model.Event, error) {
	if req.Name == "" {
		return nil, common.Errorf("event name is required: %w", common.ErrBadRequest)
	}

	start, err := parseEventTime(req.Start)
	if err != nil {
		return nil, common.Errorf("start %q: %w", req.Start, common.ErrInvalidTime)
	}
	end, err := parseEventTime(req.End)
	if err != nil {
		return nil, common.Errorf("end %q: %w", req.End, common.ErrInvalidTime)
	}
	if !end.After(start) {
		return nil, common.ErrInvalidRange
	}

	event := &model.Event{
		Name:    req.Name,
		URL:     req.URL,
		Format:  req.Format,
		StartAt: start,
		EndAt:   end,
		Status:  model.StatusScheduled,
	}
	if event.URL == "" {
		event.URL = "N/A"
	}
	if event.Format == "" {
		event.Format = "Jeopardy"
	}

	if err := s.eventRepo.Create(ctx, event); err != nil {
		return nil, common.Errorf("failed to create event: %w", err)
	}

	// Provision role/channels and announce. Both are best-effort: the
	// event exists either way and onboarding re-provisions on demand.
	s.ensureResources(ctx, event)
	s.announceCreated(ctx, event)

	log.Printf("Event %d (%s) created, %s to %s", event.ID, event.Name,
		event.StartAt.Format(time.RFC3339), event.EndAt.Format(time.RFC3339))
	return event, nil
}

func parseEventTime(value string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", value)
}

func (s *EventService) FindByName(ctx context.Context, name string) (*model.Event, error) {
	return resolveEvent(ctx, s.eventRepo, name)
}

// End idempotently closes an event and publishes the final report. Ending
// an already-ended event is a no-op, not an error.
func (s *EventService) End(ctx context.Context, name string) (*model.Event, *model.FinalReport, error) {
	event, err := resolveEvent(ctx, s.eventRepo, name)
	if err != nil {
		return nil, nil, err
	}

	if event.Status != model.StatusEnded {
		if err := s.eventRepo.MarkEnded(ctx, event.ID); err != nil {
			return nil, nil, common.Errorf("failed to end event %d: %w", event.ID, err)
		}
		event.Status = model.StatusEnded
	}

	report, err := s.scoreboard.FinalReport(ctx, event.ID)
	if err != nil {
		return nil, nil, common.Errorf("failed to build final report: %w", err)
	}

	log.Printf("Event %d (%s) ended: %d participants, %d flags",
		event.ID, event.Name, report.ParticipantCount, report.FlagCount)
	return event, report, nil
}

// Status reports the event together with its derived runtime state.
func (s *EventService) Status(ctx context.Context, name string) (*model.Event, model.RuntimeState, error) {
	event, err := resolveEvent(ctx, s.eventRepo, name)
	if err != nil {
		return nil, "", err
	}
	return event, model.DeriveRuntimeState(event, s.now()), nil
}

func (s *EventService) ensureResources(ctx context.Context, event *model.Event) {
	cfg := config.AppConfig
	refs, err := s.provisioner.EnsureEventResources(ctx, gateway.ProvisionRequest{
		RoleName:    cfg.PlayerRoleName,
		EventName:   event.Name,
		RoomChannel: gateway.ChannelName(cfg.RoomChannelPrefix, event.Name),
		LogChannel:  gateway.ChannelName(cfg.LogChannelPrefix, event.Name),
	})
	if err != nil {
		log.Printf("WARN: provisioning for event %d failed: %v", event.ID, err)
		return
	}
	if err := s.eventRepo.SaveResourceRefs(ctx, event.ID, refs.RoleID, refs.RoomChannelID, refs.LogChannelID); err != nil {
		log.Printf("WARN: persisting resource refs for event %d failed: %v", event.ID, err)
		return
	}
	event.RoleID = &refs.RoleID
	event.RoomChannelID = &refs.RoomChannelID
	event.LogChannelID = &refs.LogChannelID
}

func (s *EventService) announceCreated(ctx context.Context, event *model.Event) {
	embed := &gateway.Embed{
		Title: fmt.Sprintf("CTF Announcement - %s", event.Name),
		Color: "blue",
		Description: fmt.Sprintf(
			"Format: %s\nOfficial URL: %s\n\nSchedule:\nStart: %s\nEnd: %s",
			event.Format, event.URL,
			event.StartAt.Format(time.RFC1123), event.EndAt.Format(time.RFC1123),
		),
		Fields: []gateway.EmbedField{
			{Name: "Join Team", Value: event.URL},
			{Name: "How to join", Value: "Use /join_ctf to access bot channels."},
		},
	}
	if err := s.chat.SendChannelMessage(ctx, config.AppConfig.AnnouncementsChannel, "@everyone", embed); err != nil {
		log.Printf("WARN: failed to announce event %d: %v", event.ID, err)
	}
}

// PublishFinalReport posts the closing scoreboard to the announcements
// channel. Best-effort: the event is already ended either way.
func (s *EventService) PublishFinalReport(ctx context.Context, event *model.Event, report *model.FinalReport) {
	desc := "No solves recorded."
	if len(report.Entries) > 0 {
		desc = formatRankedList(report.Entries)
	}
	embed := &gateway.Embed{
		Title:       fmt.Sprintf("CTF ENDED: %s", event.Name),
		Color:       "gold",
		Description: desc,
		Fields: []gateway.EmbedField{
			{Name: "Stats", Value: fmt.Sprintf("Participants: %d\nTotal Flags: %d",
				report.ParticipantCount, report.FlagCount)},
		},
	}
	if err := s.chat.SendChannelMessage(ctx, config.AppConfig.AnnouncementsChannel, "", embed); err != nil {
		log.Printf("WARN: failed to publish final report for event %d: %v", event.ID, err)
	}
}

var medals = []string{"🥇", "🥈", "🥉"}

func formatRankedList(entries []model.ScoreboardEntry) string {
	desc := ""
	for i, e := range entries {
		prefix := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			prefix = medals[i]
		}
		desc += fmt.Sprintf("%s <@%s> — %d flags\n", prefix, e.UserID, e.Score)
	}
	return desc
}
