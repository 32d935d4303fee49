package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"monohelper/internal/core"
)

type fakeFamilyLinkStore struct {
	users   map[int64]core.User
	links   map[int64][]int64
	codes   map[string][2]int64
	invites map[string]core.FamilyInvite
}

func newFakeFamilyLinkStore(users ...int64) *fakeFamilyLinkStore {
	s := &fakeFamilyLinkStore{
		users:   map[int64]core.User{},
		links:   map[int64][]int64{},
		codes:   map[string][2]int64{},
		invites: map[string]core.FamilyInvite{},
	}
	for _, id := range users {
		s.users[id] = core.User{TgID: id, Name: "u", Active: true}
	}
	return s
}

func (s *fakeFamilyLinkStore) GetUser(ctx context.Context, tgID int64) (core.User, error) {
	u, ok := s.users[tgID]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

func (s *fakeFamilyLinkStore) LinkFamily(ctx context.Context, a, b int64) error {
	s.links[a] = append(s.links[a], b)
	s.links[b] = append(s.links[b], a)
	return nil
}

func (s *fakeFamilyLinkStore) CreateFamilyCode(ctx context.Context, code string, tgID, expiresAt int64) error {
	s.codes[code] = [2]int64{tgID, expiresAt}
	return nil
}

func (s *fakeFamilyLinkStore) GetFamilyCode(ctx context.Context, code string) (int64, int64, error) {
	c, ok := s.codes[code]
	if !ok {
		return 0, 0, core.ErrNotFound
	}
	return c[0], c[1], nil
}

func (s *fakeFamilyLinkStore) DeleteFamilyCode(ctx context.Context, code string) error {
	delete(s.codes, code)
	return nil
}

func (s *fakeFamilyLinkStore) CreateFamilyInvite(ctx context.Context, invite core.FamilyInvite) error {
	s.invites[invite.ID] = invite
	return nil
}

func (s *fakeFamilyLinkStore) GetFamilyInvite(ctx context.Context, id string) (core.FamilyInvite, error) {
	inv, ok := s.invites[id]
	if !ok {
		return core.FamilyInvite{}, core.ErrNotFound
	}
	return inv, nil
}

func (s *fakeFamilyLinkStore) UpdateFamilyInviteStatus(ctx context.Context, id, status string) error {
	inv, ok := s.invites[id]
	if !ok {
		return core.ErrNotFound
	}
	inv.Status = status
	s.invites[id] = inv
	return nil
}

func TestFamilyService_Handshake(t *testing.T) {
	store := newFakeFamilyLinkStore(1, 2)
	svc := NewFamilyService(store)

	code, ttl, err := svc.GenerateCode(context.Background(), 1)
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}
	if len(code) != 8 {
		t.Errorf("GenerateCode() code = %q, want 8 hex chars", code)
	}
	if ttl != FamilyCodeTTL {
		t.Errorf("GenerateCode() ttl = %v, want %v", ttl, FamilyCodeTTL)
	}

	invite, err := svc.Propose(context.Background(), 2, code)
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}
	if invite.InviterTgID != 1 || invite.MemberTgID != 2 || invite.Status != core.InviteStatusPending {
		t.Errorf("Propose() invite = %+v", invite)
	}
	if _, ok := store.codes[code]; ok {
		t.Error("Propose() left the code behind, want consumed")
	}

	decided, err := svc.Decide(context.Background(), invite.ID, 1, true)
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if decided.Status != core.InviteStatusAccepted {
		t.Errorf("Decide() status = %s, want accepted", decided.Status)
	}
	if len(store.links[1]) != 1 || store.links[1][0] != 2 {
		t.Errorf("links after accept = %v, want 1<->2", store.links)
	}

	if _, err := svc.Decide(context.Background(), invite.ID, 1, true); !errors.Is(err, ErrInviteDecided) {
		t.Errorf("Decide() on decided invite error = %v, want ErrInviteDecided", err)
	}
}

func TestFamilyService_ProposeErrors(t *testing.T) {
	store := newFakeFamilyLinkStore(1, 2)
	svc := NewFamilyService(store)

	code, _, err := svc.GenerateCode(context.Background(), 1)
	if err != nil {
		t.Fatalf("GenerateCode() error = %v", err)
	}

	if _, err := svc.Propose(context.Background(), 1, code); !errors.Is(err, ErrSelfInvite) {
		t.Errorf("Propose() self error = %v, want ErrSelfInvite", err)
	}

	if _, err := svc.Propose(context.Background(), 2, "NOPE1234"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Propose() bad code error = %v, want ErrNotFound", err)
	}

	svc.now = func() time.Time { return time.Now().Add(FamilyCodeTTL + time.Minute) }
	if _, err := svc.Propose(context.Background(), 2, code); !errors.Is(err, ErrCodeExpired) {
		t.Errorf("Propose() expired code error = %v, want ErrCodeExpired", err)
	}
	if _, ok := store.codes[code]; ok {
		t.Error("expired code not removed")
	}
}

func TestFamilyService_DecideOnlyInviter(t *testing.T) {
	store := newFakeFamilyLinkStore(1, 2)
	svc := NewFamilyService(store)

	code, _, _ := svc.GenerateCode(context.Background(), 1)
	invite, err := svc.Propose(context.Background(), 2, code)
	if err != nil {
		t.Fatalf("Propose() error = %v", err)
	}

	if _, err := svc.Decide(context.Background(), invite.ID, 2, true); !errors.Is(err, ErrNotInviter) {
		t.Errorf("Decide() by member error = %v, want ErrNotInviter", err)
	}

	decided, err := svc.Decide(context.Background(), invite.ID, 1, false)
	if err != nil {
		t.Fatalf("Decide() decline error = %v", err)
	}
	if decided.Status != core.InviteStatusDeclined {
		t.Errorf("Decide() status = %s, want declined", decided.Status)
	}
	if len(store.links) != 0 {
		t.Errorf("links after decline = %v, want none", store.links)
	}
}
