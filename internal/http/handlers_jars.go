package http

import (
	"errors"
	"log/slog"
	"net/http"

	"monohelper/internal/core"
)

func (s *Server) handleListJars(w http.ResponseWriter, r *http.Request) {
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

	var budgetOnly *bool
	if v, ok := parseBoolParam(r.URL.Query().Get("is_budget")); ok {
		budgetOnly = &v
	}

	owners, err := s.access.AccessibleTgIDs(r.Context(), requester, requested, withFamily)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	jars, err := s.repo.ListJars(r.Context(), owners, budgetOnly)
	if err != nil {
		slog.ErrorContext(r.Context(), "List jars failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]jarResponse, 0, len(jars))
	for _, j := range jars {
		out = append(out, toJarResponse(j))
	}
	respondJSON(w, http.StatusOK, out)
}

// jarForRequest loads the jar and enforces ownership. A nil jar means the
// response has already been written.
func (s *Server) jarForRequest(w http.ResponseWriter, r *http.Request, requester core.User) *core.Jar {
	jar, err := s.repo.GetJar(r.Context(), r.PathValue("id"))
	if errors.Is(err, core.ErrNotFound) {
		respondError(w, http.StatusNotFound, "jar not found")
		return nil
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return nil
	}
	if !s.requireOwnerAccess(w, r, requester, jar.AccountTgID) {
		return nil
	}
	return &jar
}

func (s *Server) handleGetJar(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}
	jar := s.jarForRequest(w, r, requester)
	if jar == nil {
		return
	}
	respondJSON(w, http.StatusOK, toJarResponse(*jar))
}

func (s *Server) handleSetBudgetStatus(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}
	jar := s.jarForRequest(w, r, requester)
	if jar == nil {
		return
	}

	var req struct {
		IsBudget *bool `json:"is_budget"`
	}
	if err := decodeJSON(r, &req); err != nil || req.IsBudget == nil {
		respondError(w, http.StatusBadRequest, "is_budget is required")
		return
	}

	if err := s.repo.SetJarBudget(r.Context(), jar.ID, *req.IsBudget); err != nil {
		slog.ErrorContext(r.Context(), "Set jar budget failed", "error", err, "jar_id", jar.ID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jar.Budget = *req.IsBudget
	respondJSON(w, http.StatusOK, toJarResponse(*jar))
}

func (s *Server) handleSetInvested(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}
	jar := s.jarForRequest(w, r, requester)
	if jar == nil {
		return
	}

	var req struct {
		Invested *int64 `json:"invested"`
	}
	if err := decodeJSON(r, &req); err != nil || req.Invested == nil {
		respondError(w, http.StatusBadRequest, "invested is required")
		return
	}
	if *req.Invested < 0 {
		respondError(w, http.StatusBadRequest, core.ErrInvalidInvested.Error())
		return
	}

	if err := s.repo.SetJarInvested(r.Context(), jar.ID, *req.Invested); err != nil {
		slog.ErrorContext(r.Context(), "Set jar invested failed", "error", err, "jar_id", jar.ID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jar.Invested = *req.Invested
	respondJSON(w, http.StatusOK, toJarResponse(*jar))
}

func (s *Server) handleAvailableMonths(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}
	jar := s.jarForRequest(w, r, requester)
	if jar == nil {
		return
	}

	cacheKey := jar.ID + ":months"
	if months, found := s.monthsCache.Get(cacheKey); found {
		respondJSON(w, http.StatusOK, months)
		return
	}

	times, err := s.repo.JarTransactionTimes(r.Context(), jar.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "Jar months lookup failed", "error", err, "jar_id", jar.ID)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	months := make([]string, 0)
	for _, m := range core.AvailableMonths(times) {
		months = append(months, core.FormatMonth(m))
	}
	s.monthsCache.Set(cacheKey, months)
	respondJSON(w, http.StatusOK, months)
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	requester, ok := s.mustRequester(w, r)
	if !ok {
		return
	}
	jar := s.jarForRequest(w, r, requester)
	if jar == nil {
		return
	}

	raw := r.URL.Query().Get("month")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "query param 'month' is required (e.g. 2025-07-01)")
		return
	}
	month, err := core.ParseMonth(raw)
	if errors.Is(err, core.ErrNotFirstOfMonth) {
		respondError(w, http.StatusBadRequest, "month must be the first day of month: YYYY-MM-01")
		return
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid 'month' format, expected YYYY-MM-01")
		return
	}

	cacheKey := jar.ID + ":summary:" + core.FormatMonth(month)
	if summary, found := s.summaryCache.Get(cacheKey); found {
		respondJSON(w, http.StatusOK, toMonthSummaryResponse(summary))
		return
	}

	from, to := core.MonthBounds(month)
	txs, err := s.repo.JarTransactionsInWindow(r.Context(), jar.ID, from, to)
	if err != nil {
		slog.ErrorContext(r.Context(), "Jar month summary failed", "error", err, "jar_id", jar.ID, "month", raw)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	summary := core.SummarizeMonth(txs, month)
	s.summaryCache.Set(cacheKey, summary)
	respondJSON(w, http.StatusOK, toMonthSummaryResponse(summary))
}
