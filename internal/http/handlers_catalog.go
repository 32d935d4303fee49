package http

import (
	"log/slog"
	"net/http"
	"strings"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.mustRequester(w, r); !ok {
		return
	}

	categories, err := s.repo.ListCategories(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "List categories failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]categoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, toCategoryResponse(c))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.mustRequester(w, r)
	if !ok {
		return
	}
	if !user.Admin {
		respondError(w, http.StatusForbidden, "access denied")
		return
	}

	var req struct {
		Name   string `json:"name"`
		Symbol string `json:"symbol"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	category, err := s.repo.CreateCustomCategory(r.Context(), req.Name, req.Symbol)
	if err != nil {
		slog.ErrorContext(r.Context(), "Create custom category failed", "error", err, "name", req.Name)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, toCategoryResponse(category))
}
