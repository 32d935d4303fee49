package services

import (
	"context"
	"fmt"
	"sort"

	"monohelper/internal/core"
)

// FamilyStore is the storage surface the access service needs.
type FamilyStore interface {
	FamilyMembers(ctx context.Context, tgID int64) ([]int64, error)
}

// AccessService decides which users' bank data a requester may see.
// Family links are expanded one hop only.
type AccessService struct {
	store FamilyStore
}

func NewAccessService(store FamilyStore) *AccessService {
	return &AccessService{store: store}
}

// AccessibleTgIDs resolves the effective owner filter for a listing request.
// A nil result means no filtering (admin without an explicit users filter).
//
// Admins asking for specific users get exactly those, family-expanded on
// request. Everyone else is confined to themselves plus direct family; an
// explicit users filter is intersected with that set.
func (s *AccessService) AccessibleTgIDs(ctx context.Context, requester core.User, requested []int64, withFamily bool) ([]int64, error) {
	if requester.Admin {
		if len(requested) == 0 {
			return nil, nil
		}
		if withFamily {
			return s.ExpandWithFamily(ctx, requested)
		}
		return dedupe(requested), nil
	}

	accessible, err := s.selfWithFamily(ctx, requester.TgID)
	if err != nil {
		return nil, err
	}
	if len(requested) == 0 {
		return accessible, nil
	}

	wanted := requested
	if withFamily {
		wanted, err = s.ExpandWithFamily(ctx, requested)
		if err != nil {
			return nil, err
		}
	}

	allowed := make(map[int64]struct{}, len(accessible))
	for _, id := range accessible {
		allowed[id] = struct{}{}
	}
	result := make([]int64, 0, len(wanted))
	for _, id := range wanted {
		if _, ok := allowed[id]; ok {
			result = append(result, id)
		}
	}
	return result, nil
}

// ExpandWithFamily returns the union of the given tg_ids and their direct
// family members, sorted and without duplicates.
func (s *AccessService) ExpandWithFamily(ctx context.Context, tgIDs []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(tgIDs))
	for _, id := range tgIDs {
		seen[id] = struct{}{}
		members, err := s.store.FamilyMembers(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("expand family of %d: %w", id, err)
		}
		for _, m := range members {
			seen[m] = struct{}{}
		}
	}
	return sortedKeys(seen), nil
}

// CanAccess reports whether the requester may read data owned by ownerTgID.
func (s *AccessService) CanAccess(ctx context.Context, requester core.User, ownerTgID int64) (bool, error) {
	if requester.Admin {
		return true, nil
	}
	accessible, err := s.selfWithFamily(ctx, requester.TgID)
	if err != nil {
		return false, err
	}
	for _, id := range accessible {
		if id == ownerTgID {
			return true, nil
		}
	}
	return false, nil
}

func (s *AccessService) selfWithFamily(ctx context.Context, tgID int64) ([]int64, error) {
	members, err := s.store.FamilyMembers(ctx, tgID)
	if err != nil {
		return nil, fmt.Errorf("family of %d: %w", tgID, err)
	}
	seen := map[int64]struct{}{tgID: {}}
	for _, m := range members {
		seen[m] = struct{}{}
	}
	return sortedKeys(seen), nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		seen[id] = struct{}{}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[int64]struct{}) []int64 {
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
