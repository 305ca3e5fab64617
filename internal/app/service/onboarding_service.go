package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"ctfbot/internal/common"
	"ctfbot/internal/domain/model"
	"ctfbot/internal/domain/repository"
	"ctfbot/internal/platform/config"
	"ctfbot/internal/platform/gateway"

	"golang.org/x/crypto/bcrypt"
)

// OnboardingService runs the two-step join handshake: request a one-time
// code, then verify it to create a membership.
type OnboardingService struct {
	eventRepo      repository.EventRepository
	membershipRepo repository.MembershipRepository
	codeRepo       repository.CodeRepository
	provisioner    gateway.Provisioner
	now            func() time.Time
}

func NewOnboardingService(
	eventRepo repository.EventRepository,
	membershipRepo repository.MembershipRepository,
	codeRepo repository.CodeRepository,
	provisioner gateway.Provisioner,
) *OnboardingService {
	return &OnboardingService{
		eventRepo:      eventRepo,
		membershipRepo: membershipRepo,
		codeRepo:       codeRepo,
		provisioner:    provisioner,
		now:            time.Now,
	}
}

// JoinChallenge carries the plaintext code back to the caller for the
// ephemeral reply. Only the bcrypt hash is stored.
type JoinChallenge struct {
	Event     *model.Event
	Code      string
	ExpiresAt time.Time
}

func (s *OnboardingService) RequestJoin(ctx context.Context, userID, eventName string) (*JoinChallenge, error) {
	event, err := resolveEvent(ctx, s.eventRepo, eventName)
	if err != nil {
		return nil, err
	}
	if event.Status == model.StatusEnded {
		return nil, common.Errorf("event %s: %w", event.Name, common.ErrEventClosed)
	}

	joined, err := s.membershipRepo.Exists(ctx, event.ID, userID)
	if err != nil {
		return nil, common.Errorf("failed to check membership: %w", err)
	}
	if joined {
		return nil, common.ErrAlreadyJoined
	}

	plaintext, err := model.GenerateVerificationCode()
	if err != nil {
		return nil, common.Errorf("failed to generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.Errorf("failed to hash code: %w", err)
	}

	ttl := config.AppConfig.VerificationCodeTTL
	now := s.now()
	code := &model.PendingCode{
		UserID:    userID,
		EventID:   event.ID,
		CodeHash:  string(hash),
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	// Put replaces any earlier unconsumed code: one live code per user.
	if err := s.codeRepo.Put(ctx, code, ttl); err != nil {
		return nil, common.Errorf("failed to store verification code: %w", err)
	}

	log.Printf("Issued verification code to user %s for event %d", userID, event.ID)
	return &JoinChallenge{Event: event, Code: plaintext, ExpiresAt: code.ExpiresAt}, nil
}

type VerifyResult struct {
	Event *model.Event
	// ProvisioningErr is set when the join committed but role/channel
	// provisioning failed afterwards. Partial success, not an error.
	ProvisioningErr error
}

func (s *OnboardingService) Verify(ctx context.Context, userID, submittedCode string) (*VerifyResult, error) {
	pending, err := s.codeRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNoPendingCode
		}
		return nil, common.Errorf("failed to load pending code: %w", err)
	}

	now := s.now()
	if pending.IsExpired(now) {
		// Opportunistic cleanup; the key's TTL would reap it anyway.
		if err := s.codeRepo.Delete(ctx, userID); err != nil {
			log.Printf("WARN: failed to delete expired code for user %s: %v", userID, err)
		}
		return nil, common.ErrCodeExpired
	}

	if bcrypt.CompareHashAndPassword([]byte(pending.CodeHash), []byte(strings.TrimSpace(submittedCode))) != nil {
		return nil, common.ErrCodeMismatch
	}

	joined, err := s.membershipRepo.Exists(ctx, pending.EventID, userID)
	if err != nil {
		return nil, common.Errorf("failed to check membership: %w", err)
	}
	if joined {
		return nil, common.ErrAlreadyJoined
	}

	// The membership primary key backstops a racing second verify.
	membership := &model.Membership{EventID: pending.EventID, UserID: userID, JoinedAt: now}
	if err := s.membershipRepo.Create(ctx, membership); err != nil {
		return nil, err
	}
	if err := s.codeRepo.Delete(ctx, userID); err != nil {
		log.Printf("WARN: failed to delete consumed code for user %s: %v", userID, err)
	}

	event, err := s.eventRepo.FindByID(ctx, pending.EventID)
	if err != nil {
		return nil, common.Errorf("joined event %d but failed to load it: %w", pending.EventID, err)
	}

	log.Printf("User %s joined event %d (%s)", userID, event.ID, event.Name)
	return &VerifyResult{Event: event, ProvisioningErr: s.provision(ctx, event)}, nil
}

// provision ensures the event's role and channels exist and records their
// ids. Failure is reported to the caller but never rolls back the join.
func (s *OnboardingService) provision(ctx context.Context, event *model.Event) error {
	cfg := config.AppConfig
	req := gateway.ProvisionRequest{
		RoleName:    cfg.PlayerRoleName,
		EventName:   event.Name,
		RoomChannel: gateway.ChannelName(cfg.RoomChannelPrefix, event.Name),
		LogChannel:  gateway.ChannelName(cfg.LogChannelPrefix, event.Name),
	}
	if event.RoleID != nil && event.RoomChannelID != nil && event.LogChannelID != nil {
		req.Existing = &gateway.ResourceRefs{
			RoleID:        *event.RoleID,
			RoomChannelID: *event.RoomChannelID,
			LogChannelID:  *event.LogChannelID,
		}
	}

	refs, err := s.provisioner.EnsureEventResources(ctx, req)
	if err != nil {
		log.Printf("WARN: provisioning after join failed for event %d: %v", event.ID, err)
		return common.Errorf("%w: %v", common.ErrProvisioning, err)
	}
	if err := s.eventRepo.SaveResourceRefs(ctx, event.ID, refs.RoleID, refs.RoomChannelID, refs.LogChannelID); err != nil {
		log.Printf("WARN: persisting resource refs for event %d failed: %v", event.ID, err)
		return common.Errorf("%w: %v", common.ErrProvisioning, err)
	}
	return nil
}
