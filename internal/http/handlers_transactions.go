package http

import (
	"log/slog"
	"net/http"
	"time"

	"monohelper/internal/core"
	"monohelper/internal/storage"
)

func (s *Server) transactionFilter(w http.ResponseWriter, r *http.Request, kind core.SourceKind, sourceParam string) (storage.TransactionFilter, bool) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return storage.TransactionFilter{}, false
	}

	requested, err := parseTgIDList(r.URL.Query().Get("users"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid 'users' parameter")
		return storage.TransactionFilter{}, false
	}
	withFamily, _ := parseBoolParam(r.URL.Query().Get("with_family"))

	owners, err := s.access.AccessibleTgIDs(r.Context(), requester, requested, withFamily)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return storage.TransactionFilter{}, false
	}

	f := storage.TransactionFilter{
		SourceKind: kind,
		SourceIDs:  parseStringList(r.URL.Query().Get(sourceParam)),
		OwnerTgIDs: owners,
	}

	// A malformed time_from is ignored rather than rejected.
	if raw := r.URL.Query().Get("time_from"); raw != "" {
		if t, err := time.Parse("2006-01-02", raw); err == nil {
			f.TimeFrom = t.UTC().Unix()
		}
	}

	return f, true
}

func (s *Server) handleListCardTransactions(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.transactionFilter(w, r, core.SourceCard, "cards")
	if !ok {
		return
	}

	txs, err := s.repo.ListTransactions(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List card transactions failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleListJarTransactions(w http.ResponseWriter, r *http.Request) {
	filter, ok := s.transactionFilter(w, r, core.SourceJar, "jars")
	if !ok {
		return
	}

	txs, err := s.repo.ListTransactions(r.Context(), filter)
	if err != nil {
		slog.ErrorContext(r.Context(), "List jar transactions failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	fields := parseStringList(r.URL.Query().Get("fields"))
	if len(fields) > 0 {
		out := make([]map[string]any, 0, len(txs))
		for _, t := range txs {
			out = append(out, shrinkTransaction(toTransactionResponse(t), fields))
		}
		respondJSON(w, http.StatusOK, out)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionResponse(t))
	}
	respondJSON(w, http.StatusOK, out)
}
