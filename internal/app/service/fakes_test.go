package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"
	"ctfbot/internal/platform/config"
	"ctfbot/internal/platform/gateway"
)

// In-memory fakes mirroring the store's constraints (membership primary
// key, per-event flag uniqueness). Individual methods can be overridden
// with the *Func fields to inject failures.

type FakeEventRepo struct {
	events []*model.Event
	nextID int64

	CreateFunc     func(ctx context.Context, event *model.Event) error
	FindByNameFunc func(ctx context.Context, name string) (*model.Event, error)
}

func NewFakeEventRepo() *FakeEventRepo {
	return &FakeEventRepo{}
}

func (f *FakeEventRepo) Create(ctx context.Context, event *model.Event) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, event)
	}
	f.nextID++
	event.ID = f.nextID
	event.CreatedAt = time.Now()
	stored := *event
	f.events = append(f.events, &stored)
	return nil
}

func (f *FakeEventRepo) FindByID(ctx context.Context, id int64) (*model.Event, error) {
	for _, e := range f.events {
		if e.ID == id {
			copied := *e
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *FakeEventRepo) FindByName(ctx context.Context, name string) (*model.Event, error) {
	if f.FindByNameFunc != nil {
		return f.FindByNameFunc(ctx, name)
	}
	for i := len(f.events) - 1; i >= 0; i-- {
		if strings.EqualFold(f.events[i].Name, name) {
			copied := *f.events[i]
			return &copied, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *FakeEventRepo) FindLatest(ctx context.Context) (*model.Event, error) {
	if len(f.events) == 0 {
		return nil, common.ErrNotFound
	}
	copied := *f.events[len(f.events)-1]
	return &copied, nil
}

func (f *FakeEventRepo) MarkEnded(ctx context.Context, id int64) error {
	for _, e := range f.events {
		if e.ID == id {
			e.Status = model.StatusEnded
			return nil
		}
	}
	return common.ErrNotFound
}

func (f *FakeEventRepo) SaveResourceRefs(ctx context.Context, id int64, roleID, roomChannelID, logChannelID string) error {
	for _, e := range f.events {
		if e.ID == id {
			e.RoleID = &roleID
			e.RoomChannelID = &roomChannelID
			e.LogChannelID = &logChannelID
			return nil
		}
	}
	return common.ErrNotFound
}

type FakeMembershipRepo struct {
	rows map[string]*model.Membership

	CreateFunc func(ctx context.Context, m *model.Membership) error
	ExistsFunc func(ctx context.Context, eventID int64, userID string) (bool, error)
}

func NewFakeMembershipRepo() *FakeMembershipRepo {
	return &FakeMembershipRepo{rows: map[string]*model.Membership{}}
}

func membershipKey(eventID int64, userID string) string {
	return fmt.Sprintf("%d|%s", eventID, userID)
}

func (f *FakeMembershipRepo) Create(ctx context.Context, m *model.Membership) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, m)
	}
	key := membershipKey(m.EventID, m.UserID)
	if _, dup := f.rows[key]; dup {
		return common.ErrAlreadyJoined
	}
	f.rows[key] = m
	return nil
}

func (f *FakeMembershipRepo) Exists(ctx context.Context, eventID int64, userID string) (bool, error) {
	if f.ExistsFunc != nil {
		return f.ExistsFunc(ctx, eventID, userID)
	}
	_, ok := f.rows[membershipKey(eventID, userID)]
	return ok, nil
}

func (f *FakeMembershipRepo) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	count := 0
	for _, m := range f.rows {
		if m.EventID == eventID {
			count++
		}
	}
	return count, nil
}

type FakeSubmissionRepo struct {
	rows []*model.Submission

	CreateFunc func(ctx context.Context, s *model.Submission) error
}

func NewFakeSubmissionRepo() *FakeSubmissionRepo {
	return &FakeSubmissionRepo{}
}

func (f *FakeSubmissionRepo) Create(ctx context.Context, s *model.Submission) error {
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, s)
	}
	for _, row := range f.rows {
		if row.EventID == s.EventID && row.FlagValue == s.FlagValue {
			return common.ErrDuplicateFlag
		}
	}
	f.rows = append(f.rows, s)
	return nil
}

func (f *FakeSubmissionRepo) FlagExists(ctx context.Context, eventID int64, flagValue string) (bool, error) {
	for _, row := range f.rows {
		if row.EventID == eventID && row.FlagValue == flagValue {
			return true, nil
		}
	}
	return false, nil
}

func (f *FakeSubmissionRepo) ListByEvent(ctx context.Context, eventID int64) ([]model.Submission, error) {
	var out []model.Submission
	for _, row := range f.rows {
		if row.EventID == eventID {
			out = append(out, *row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (f *FakeSubmissionRepo) CountByEvent(ctx context.Context, eventID int64) (int, error) {
	count := 0
	for _, row := range f.rows {
		if row.EventID == eventID {
			count++
		}
	}
	return count, nil
}

type userAggregate struct {
	userID     string
	score      int
	firstSolve time.Time
}

func (f *FakeSubmissionRepo) aggregate(eventID int64) []userAggregate {
	byUser := map[string]*userAggregate{}
	var order []string
	for _, row := range f.rows {
		if row.EventID != eventID {
			continue
		}
		agg, ok := byUser[row.UserID]
		if !ok {
			agg = &userAggregate{userID: row.UserID, firstSolve: row.SubmittedAt}
			byUser[row.UserID] = agg
			order = append(order, row.UserID)
		}
		agg.score++
		if row.SubmittedAt.Before(agg.firstSolve) {
			agg.firstSolve = row.SubmittedAt
		}
	}
	out := make([]userAggregate, 0, len(order))
	for _, u := range order {
		out = append(out, *byUser[u])
	}
	return out
}

func toEntries(aggs []userAggregate, limit int) []model.ScoreboardEntry {
	if len(aggs) > limit {
		aggs = aggs[:limit]
	}
	entries := make([]model.ScoreboardEntry, 0, len(aggs))
	for i, a := range aggs {
		entries = append(entries, model.ScoreboardEntry{Rank: i + 1, UserID: a.userID, Score: a.score})
	}
	return entries
}

func (f *FakeSubmissionRepo) LiveScoreboard(ctx context.Context, eventID int64, limit int) ([]model.ScoreboardEntry, error) {
	aggs := f.aggregate(eventID)
	sort.SliceStable(aggs, func(i, j int) bool { return aggs[i].score > aggs[j].score })
	return toEntries(aggs, limit), nil
}

func (f *FakeSubmissionRepo) FinalScoreboard(ctx context.Context, eventID int64, limit int) ([]model.ScoreboardEntry, error) {
	aggs := f.aggregate(eventID)
	sort.SliceStable(aggs, func(i, j int) bool {
		if aggs[i].score != aggs[j].score {
			return aggs[i].score > aggs[j].score
		}
		return aggs[i].firstSolve.Before(aggs[j].firstSolve)
	})
	return toEntries(aggs, limit), nil
}

type FakeCodeRepo struct {
	rows map[string]*model.PendingCode

	PutFunc func(ctx context.Context, code *model.PendingCode, ttl time.Duration) error
	GetFunc func(ctx context.Context, userID string) (*model.PendingCode, error)
}

func NewFakeCodeRepo() *FakeCodeRepo {
	return &FakeCodeRepo{rows: map[string]*model.PendingCode{}}
}

func (f *FakeCodeRepo) Put(ctx context.Context, code *model.PendingCode, ttl time.Duration) error {
	if f.PutFunc != nil {
		return f.PutFunc(ctx, code, ttl)
	}
	f.rows[code.UserID] = code
	return nil
}

func (f *FakeCodeRepo) Get(ctx context.Context, userID string) (*model.PendingCode, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, userID)
	}
	code, ok := f.rows[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return code, nil
}

func (f *FakeCodeRepo) Delete(ctx context.Context, userID string) error {
	delete(f.rows, userID)
	return nil
}

type FakeProvisioner struct {
	Err   error
	Refs  gateway.ResourceRefs
	Calls int
}

func (f *FakeProvisioner) EnsureEventResources(ctx context.Context, req gateway.ProvisionRequest) (*gateway.ResourceRefs, error) {
	f.Calls++
	if f.Err != nil {
		return nil, f.Err
	}
	refs := f.Refs
	return &refs, nil
}

type sentMessage struct {
	Channel string
	Content string
	Embed   *gateway.Embed
}

type FakeChatGateway struct {
	Err  error
	Sent []sentMessage
}

func (f *FakeChatGateway) SendChannelMessage(ctx context.Context, channel, content string, embed *gateway.Embed) error {
	if f.Err != nil {
		return f.Err
	}
	f.Sent = append(f.Sent, sentMessage{Channel: channel, Content: content, Embed: embed})
	return nil
}

func setupTestConfig(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		AdminUserID:          "admin-1",
		PlayerRoleName:       "CTF_PLAYER",
		AnnouncementsChannel: "ctf-announcements",
		RoomChannelPrefix:    "ctf-room",
		LogChannelPrefix:     "ctf-flags",
		VerificationCodeTTL:  5 * time.Minute,
	}
}
