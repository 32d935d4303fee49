package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"monohelper/internal/core"
)

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustRequester(w, r)
	if !ok {
		return
	}
	if !user.Admin {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	accounts, err := s.repo.ListAccounts(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List accounts failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// Tokens never leave the server.
	type accountView struct {
		TgID   int64 `json:"tg_id"`
		Active bool  `json:"is_active"`
	}
	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountView{TgID: a.TgID, Active: a.Active})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	var req struct {
		TgID  int64  `json:"tg_id"`
		Token string `json:"token"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TgID == 0 {
		req.TgID = requester.TgID
	}
	if req.TgID != requester.TgID && !requester.Admin {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	account := core.Account{TgID: req.TgID, Token: strings.TrimSpace(req.Token), Active: true}
	if err := account.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := s.repo.GetUser(r.Context(), account.TgID); errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if _, err := s.repo.GetAccount(r.Context(), account.TgID); err == nil {
		respondError(w, http.StatusConflict, "account already exists")
		return
	} else if !errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if _, err := s.repo.GetAccountByToken(r.Context(), account.Token); err == nil {
		respondError(w, http.StatusConflict, "token already linked")
		return
	} else if !errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// The token has to answer client-info before we keep it.
	if _, err := s.bank.GetClientInfo(r.Context(), account.Token); err != nil {
		slog.WarnContext(r.Context(), "Monobank token validation failed", "error", err, "tg_id", account.TgID)
		respondError(w, http.StatusBadRequest, "invalid monobank token")
		return
	}

	if err := s.repo.CreateAccount(r.Context(), account); err != nil {
		slog.ErrorContext(r.Context(), "Create account failed", "error", err, "tg_id", account.TgID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if err := s.ingest.SyncAccount(r.Context(), account, true); err != nil {
		slog.ErrorContext(r.Context(), "Initial account sync failed", "error", err, "tg_id", account.TgID)
	}
	if s.webhookURL != "" {
		if err := s.bank.SetWebhook(r.Context(), account.Token, s.webhookURL); err != nil {
			slog.ErrorContext(r.Context(), "Webhook registration failed", "error", err, "tg_id", account.TgID)
		}
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"tg_id":     account.TgID,
		"is_active": account.Active,
	})
}

func schedulerTaskName(tgID int64) string {
	return fmt.Sprintf("Daily mono transactions report for TG %d", tgID)
}

func (s *Server) handleSchedulerCreate(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	var req struct {
		TgID int64 `json:"tg_id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.TgID == 0 {
		respondError(w, http.StatusBadRequest, "tg_id is required")
		return
	}
	if req.TgID != requester.TgID && !requester.Admin {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}
	if _, err := s.repo.GetUser(r.Context(), req.TgID); errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "user not found")
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	created, err := s.repo.UpsertReportSubscription(r.Context(), req.TgID, true)
	if err != nil {
		slog.ErrorContext(r.Context(), "Register report subscription failed", "error", err, "tg_id", req.TgID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respondJSON(w, status, map[string]any{
		"message":  "registered",
		"task":     schedulerTaskName(req.TgID),
		"schedule": "daily at 21:00",
		"tg_id":    fmt.Sprintf("%d", req.TgID),
	})
}

func (s *Server) handleSchedulerDelete(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	var req struct {
		TgID   int64 `json:"tg_id"`
		Delete bool  `json:"delete"`
	}
	if err := decodeJSON(r, &req); err != nil || req.TgID == 0 {
		respondError(w, http.StatusBadRequest, "tg_id is required")
		return
	}
	if req.TgID != requester.TgID && !requester.Admin {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	if _, err := s.repo.GetReportSubscription(r.Context(), req.TgID); errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "task not found")
		return
	} else if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	message := "disabled"
	if req.Delete {
		message = "deleted"
		if err := s.repo.DeleteReportSubscription(r.Context(), req.TgID); err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	} else {
		if _, err := s.repo.UpsertReportSubscription(r.Context(), req.TgID, false); err != nil {
			respondError(w, http.StatusInternalServerError, "internal error")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message": message,
		"task":    schedulerTaskName(req.TgID),
	})
}
