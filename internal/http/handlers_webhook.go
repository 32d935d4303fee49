package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"monohelper/internal/core"
	"monohelper/internal/monobank"
)

// handleWebhookProbe answers the bank's liveness GET with a bare 200.
func (s *Server) handleWebhookProbe(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// handleWebhook ingests a statement item pushed by the bank. The ?token=
// query parameter set during webhook registration ties the push to an
// account; it must own the statement's source.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, http.StatusForbidden, "token query param is not specified")
		return
	}

	// The bank may add fields at any time, so unknown fields are tolerated
	// here unlike in our own API bodies.
	var event monobank.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil ||
		event.Data.Account == "" || event.Data.StatementItem.ID == "" {
		respondError(w, http.StatusUnprocessableEntity, "Wrong request structure")
		return
	}

	account, err := s.repo.GetAccountByToken(r.Context(), token)
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusForbidden, "invalid token or account missmatch")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	ownerTgID, kind, err := s.repo.SourceOwner(r.Context(), event.Data.Account)
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Some data not found: account "+event.Data.Account)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if ownerTgID != account.TgID {
		respondError(w, http.StatusForbidden, "invalid token or account missmatch")
		return
	}

	created, err := s.ingest.IngestStatement(r.Context(), kind, event.Data.Account, event.Data.StatementItem)
	if err != nil {
		slog.ErrorContext(r.Context(), "Webhook ingestion failed",
			"error", err,
			"source_id", event.Data.Account,
			"transaction_id", event.Data.StatementItem.ID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if kind == core.SourceJar {
		s.invalidateJarCaches(event.Data.Account)
	}

	if created {
		respondJSON(w, http.StatusCreated, map[string]string{"message": "created"})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "already stored"})
}
