package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"monohelper/internal/core"
)

// FamilyCodeTTL is how long a generated linking code stays valid.
const FamilyCodeTTL = 600 * time.Second

var (
	ErrCodeExpired   = errors.New("family code expired")
	ErrSelfInvite    = errors.New("cannot invite yourself")
	ErrInviteDecided = errors.New("invite already decided")
	ErrNotInviter    = errors.New("only the inviter can decide")
)

// FamilyLinkStore is the storage surface for family linking.
type FamilyLinkStore interface {
	GetUser(ctx context.Context, tgID int64) (core.User, error)
	LinkFamily(ctx context.Context, a, b int64) error
	CreateFamilyCode(ctx context.Context, code string, tgID, expiresAt int64) error
	GetFamilyCode(ctx context.Context, code string) (int64, int64, error)
	DeleteFamilyCode(ctx context.Context, code string) error
	CreateFamilyInvite(ctx context.Context, invite core.FamilyInvite) error
	GetFamilyInvite(ctx context.Context, id string) (core.FamilyInvite, error)
	UpdateFamilyInviteStatus(ctx context.Context, id, status string) error
}

// FamilyService runs the code/invite handshake that links two users.
type FamilyService struct {
	store FamilyLinkStore
	now   func() time.Time
}

func NewFamilyService(store FamilyLinkStore) *FamilyService {
	return &FamilyService{store: store, now: time.Now}
}

// GenerateCode creates a fresh linking code for a user, valid for
// FamilyCodeTTL. The previous code, if any, stops working.
func (s *FamilyService) GenerateCode(ctx context.Context, tgID int64) (string, time.Duration, error) {
	if _, err := s.store.GetUser(ctx, tgID); err != nil {
		return "", 0, fmt.Errorf("code owner: %w", err)
	}

	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", 0, fmt.Errorf("generate family code: %w", err)
	}
	code := strings.ToUpper(hex.EncodeToString(buf))

	expiresAt := s.now().Add(FamilyCodeTTL).Unix()
	if err := s.store.CreateFamilyCode(ctx, code, tgID, expiresAt); err != nil {
		return "", 0, err
	}
	return code, FamilyCodeTTL, nil
}

// Propose creates a pending invite from the code owner towards the user who
// presented the code. The code is consumed.
func (s *FamilyService) Propose(ctx context.Context, memberTgID int64, code string) (core.FamilyInvite, error) {
	ownerTgID, expiresAt, err := s.store.GetFamilyCode(ctx, code)
	if err != nil {
		return core.FamilyInvite{}, fmt.Errorf("family code: %w", err)
	}
	if s.now().Unix() > expiresAt {
		_ = s.store.DeleteFamilyCode(ctx, code)
		return core.FamilyInvite{}, ErrCodeExpired
	}
	if ownerTgID == memberTgID {
		return core.FamilyInvite{}, ErrSelfInvite
	}
	if _, err := s.store.GetUser(ctx, memberTgID); err != nil {
		return core.FamilyInvite{}, fmt.Errorf("invited user: %w", err)
	}

	invite := core.FamilyInvite{
		ID:          uuid.NewString(),
		InviterTgID: ownerTgID,
		MemberTgID:  memberTgID,
		Status:      core.InviteStatusPending,
	}
	if err := s.store.CreateFamilyInvite(ctx, invite); err != nil {
		return core.FamilyInvite{}, err
	}
	if err := s.store.DeleteFamilyCode(ctx, code); err != nil {
		return core.FamilyInvite{}, err
	}
	return invite, nil
}

// Decide accepts or declines a pending invite. Only the inviter may decide,
// since the invite was raised by the member presenting the inviter's code.
func (s *FamilyService) Decide(ctx context.Context, inviteID string, actorTgID int64, accept bool) (core.FamilyInvite, error) {
	invite, err := s.store.GetFamilyInvite(ctx, inviteID)
	if err != nil {
		return core.FamilyInvite{}, fmt.Errorf("family invite: %w", err)
	}
	if invite.Status != core.InviteStatusPending {
		return core.FamilyInvite{}, ErrInviteDecided
	}
	if invite.InviterTgID != actorTgID {
		return core.FamilyInvite{}, ErrNotInviter
	}

	status := core.InviteStatusDeclined
	if accept {
		status = core.InviteStatusAccepted
	}
	if err := s.store.UpdateFamilyInviteStatus(ctx, inviteID, status); err != nil {
		return core.FamilyInvite{}, err
	}
	invite.Status = status

	if accept {
		if err := s.store.LinkFamily(ctx, invite.InviterTgID, invite.MemberTgID); err != nil {
			return core.FamilyInvite{}, err
		}
	}
	return invite, nil
}
