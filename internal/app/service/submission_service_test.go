package service

import (
	"context"
	"testing"
	"time"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type submissionFixture struct {
	svc         *SubmissionService
	events      *FakeEventRepo
	memberships *FakeMembershipRepo
	submissions *FakeSubmissionRepo
	chat        *FakeChatGateway
}

func newSubmissionFixture(t *testing.T) *submissionFixture {
	t.Helper()
	setupTestConfig(t)
	f := &submissionFixture{
		events:      NewFakeEventRepo(),
		memberships: NewFakeMembershipRepo(),
		submissions: NewFakeSubmissionRepo(),
		chat:        &FakeChatGateway{},
	}
	f.svc = NewSubmissionService(f.submissions, f.memberships, f.events, f.chat)
	return f
}

var (
	submissionStart = time.Date(2026, 2, 9, 10, 0, 0, 0, time.UTC)
	submissionEnd   = time.Date(2026, 2, 10, 10, 0, 0, 0, time.UTC)
)

func (f *submissionFixture) seedRunningEvent(t *testing.T, name string) *model.Event {
	t.Helper()
	event := &model.Event{Name: name, StartAt: submissionStart, EndAt: submissionEnd, Status: model.StatusScheduled}
	require.NoError(t, f.events.Create(context.Background(), event))
	f.svc.now = func() time.Time { return submissionStart.Add(time.Hour) }
	return event
}

func (f *submissionFixture) join(t *testing.T, eventID int64, userID string) {
	t.Helper()
	require.NoError(t, f.memberships.Create(context.Background(), &model.Membership{EventID: eventID, UserID: userID}))
}

const rawSubmission = "==Baby RE== ==Reverse== ==CTF{abc}=="

func TestSubmit(t *testing.T) {
	ctx := context.Background()

	t.Run("format error beats every precondition", func(t *testing.T) {
		f := newSubmissionFixture(t)
		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", "just words")
		assert.ErrorIs(t, err, common.ErrBadFormat)
	})

	t.Run("event not found", func(t *testing.T) {
		f := newSubmissionFixture(t)
		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("closed by stored status", func(t *testing.T) {
		f := newSubmissionFixture(t)
		event := f.seedRunningEvent(t, "Pwn2026")
		require.NoError(t, f.events.MarkEnded(ctx, event.ID))
		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		assert.ErrorIs(t, err, common.ErrEventClosed)
	})

	t.Run("closed by elapsed end time", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.seedRunningEvent(t, "Pwn2026")
		f.svc.now = func() time.Time { return submissionEnd.Add(time.Second) }
		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		assert.ErrorIs(t, err, common.ErrEventClosed)
	})

	t.Run("not started", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.seedRunningEvent(t, "Pwn2026")
		f.svc.now = func() time.Time { return submissionStart.Add(-time.Second) }
		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		assert.ErrorIs(t, err, common.ErrEventNotStarted)
	})

	t.Run("membership required", func(t *testing.T) {
		f := newSubmissionFixture(t)
		f.seedRunningEvent(t, "Pwn2026")
		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		assert.ErrorIs(t, err, common.ErrNotJoined)
	})

	t.Run("accepted submission is stamped and logged", func(t *testing.T) {
		f := newSubmissionFixture(t)
		event := f.seedRunningEvent(t, "Pwn2026")
		f.join(t, event.ID, "u1")
		now := submissionStart.Add(2 * time.Hour)
		f.svc.now = func() time.Time { return now }

		sub, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		require.NoError(t, err)
		assert.Equal(t, "Baby RE", sub.Challenge)
		assert.Equal(t, "Reverse", sub.Category)
		assert.Equal(t, "CTF{abc}", sub.FlagValue)
		assert.Equal(t, now, sub.SubmittedAt)
		assert.NotEmpty(t, sub.ID)

		require.Len(t, f.chat.Sent, 1)
		assert.Equal(t, "ctf-flags-pwn2026", f.chat.Sent[0].Channel)
	})

	t.Run("duplicate flag rejected across users", func(t *testing.T) {
		f := newSubmissionFixture(t)
		event := f.seedRunningEvent(t, "Pwn2026")
		f.join(t, event.ID, "u1")
		f.join(t, event.ID, "u2")

		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		require.NoError(t, err)

		_, err = f.svc.Submit(ctx, "u2", "Pwn2026", rawSubmission)
		assert.ErrorIs(t, err, common.ErrDuplicateFlag)

		// Different case is a different flag value.
		_, err = f.svc.Submit(ctx, "u2", "Pwn2026", "==Baby RE== ==Reverse== ==ctf{abc}==")
		assert.NoError(t, err)
	})

	t.Run("same flag accepted in a different event", func(t *testing.T) {
		f := newSubmissionFixture(t)
		first := f.seedRunningEvent(t, "Pwn2026")
		second := f.seedRunningEvent(t, "Other CTF")
		f.join(t, first.ID, "u1")
		f.join(t, second.ID, "u1")

		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		require.NoError(t, err)
		_, err = f.svc.Submit(ctx, "u1", "Other CTF", rawSubmission)
		assert.NoError(t, err)
	})

	t.Run("failed notification does not roll back", func(t *testing.T) {
		f := newSubmissionFixture(t)
		event := f.seedRunningEvent(t, "Pwn2026")
		f.join(t, event.ID, "u1")
		f.chat.Err = assert.AnError

		_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
		require.NoError(t, err)

		exists, err := f.submissions.FlagExists(ctx, event.ID, "CTF{abc}")
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestAllFlags(t *testing.T) {
	ctx := context.Background()

	f := newSubmissionFixture(t)
	event := f.seedRunningEvent(t, "Pwn2026")
	f.join(t, event.ID, "u1")

	_, err := f.svc.Submit(ctx, "u1", "Pwn2026", rawSubmission)
	require.NoError(t, err)

	got, submissions, err := f.svc.AllFlags(ctx, "Pwn2026")
	require.NoError(t, err)
	assert.Equal(t, event.ID, got.ID)
	require.Len(t, submissions, 1)
	assert.Equal(t, "CTF{abc}", submissions[0].FlagValue)

	require.NoError(t, f.events.MarkEnded(ctx, event.ID))
	_, _, err = f.svc.AllFlags(ctx, "Pwn2026")
	assert.ErrorIs(t, err, common.ErrEventClosed)
}
