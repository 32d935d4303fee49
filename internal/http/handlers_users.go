package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"monohelper/internal/core"
	"monohelper/internal/services"
)

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TgID  int64  `json:"tg_id"`
		Name  string `json:"name"`
		Admin bool   `json:"is_admin"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user := core.User{TgID: req.TgID, Name: strings.TrimSpace(req.Name), Active: true}
	if err := user.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Only an admin may create another admin. Plain registration is open.
	if req.Admin {
		requester, err := s.requester(r)
		if err != nil || !requester.Admin {
			respondError(w, http.StatusForbidden, "access denied")
			return
		}
		user.Admin = true
	}

	if _, err := s.repo.GetUser(r.Context(), user.TgID); err == nil {
		respondError(w, http.StatusConflict, "user already exists")
		return
	} else if !errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.repo.CreateUser(r.Context(), user); err != nil {
		slog.ErrorContext(r.Context(), "Create user failed", "error", err, "tg_id", user.TgID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, toUserResponse(user))
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	tgID, err := strconv.ParseInt(r.PathValue("tg_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tg_id")
		return
	}
	if !s.requireOwnerAccess(w, r, requester, tgID) {
		return
	}

	user, err := s.repo.GetUser(r.Context(), tgID)
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

func (s *Server) handleFamilyCode(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	tgID, err := strconv.ParseInt(r.PathValue("tg_id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tg_id")
		return
	}
	if tgID != requester.TgID && !requester.Admin {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	code, ttl, err := s.family.GenerateCode(r.Context(), tgID)
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		slog.ErrorContext(r.Context(), "Generate family code failed", "error", err, "tg_id", tgID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"code":       code,
		"expires_in": int(ttl.Seconds()),
	})
}

func (s *Server) handleFamilyProposal(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.Code) == "" {
		respondError(w, http.StatusBadRequest, "code is required")
		return
	}

	invite, err := s.family.Propose(r.Context(), requester.TgID, strings.TrimSpace(req.Code))
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "code not found")
		return
	case errors.Is(err, services.ErrCodeExpired):
		respondError(w, http.StatusGone, "code expired")
		return
	case errors.Is(err, services.ErrSelfInvite):
		respondError(w, http.StatusBadRequest, "cannot use your own code")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Family proposal failed", "error", err, "tg_id", requester.TgID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"invite_id":     invite.ID,
		"inviter_tg_id": invite.InviterTgID,
		"member_tg_id":  invite.MemberTgID,
		"status":        invite.Status,
	})
}

func (s *Server) handleFamilyDecision(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	var req struct {
		InviteID string `json:"invite_id"`
		Decision string `json:"decision"`
	}
	if err := decodeJSON(r, &req); err != nil || req.InviteID == "" {
		respondError(w, http.StatusBadRequest, "invite_id is required")
		return
	}

	var accept bool
	switch req.Decision {
	case "accept":
		accept = true
	case "decline":
	default:
		respondError(w, http.StatusBadRequest, "decision must be 'accept' or 'decline'")
		return
	}

	invite, err := s.family.Decide(r.Context(), req.InviteID, requester.TgID, accept)
	switch {
	case errors.Is(err, core.ErrNotFound):
		respondError(w, http.StatusNotFound, "invite not found")
		return
	case errors.Is(err, services.ErrInviteDecided):
		respondError(w, http.StatusConflict, "invite already decided")
		return
	case errors.Is(err, services.ErrNotInviter):
		respondError(w, http.StatusForbidden, "access denied")
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "Family decision failed", "error", err, "invite_id", req.InviteID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"invite_id": invite.ID,
		"status":    invite.Status,
	})
}
