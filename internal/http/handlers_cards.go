package http

import (
	"errors"
	"log/slog"
	"net/http"

	"monohelper/internal/core"
)

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	requested, err := parseTgIDList(r.URL.Query().Get("users"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid 'users' parameter")
		return
	}
	withFamily, _ := parseBoolParam(r.URL.Query().Get("with_family"))

	owners, err := s.access.AccessibleTgIDs(r.Context(), requester, requested, withFamily)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	cards, err := s.repo.ListCards(r.Context(), owners)
	if err != nil {
		slog.ErrorContext(r.Context(), "List cards failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]cardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, toCardResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetCard(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}

	card, err := s.repo.GetCard(r.Context(), r.PathValue("id"))
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "card not found")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !s.requireOwnerAccess(w, r, requester, card.AccountTgID) {
		return
	}
	respondJSON(w, http.StatusOK, toCardResponse(card))
}
