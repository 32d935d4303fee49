package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"monohelper/internal/core"
	"monohelper/internal/storage"
)

func seedJar(t *testing.T, repo *storage.Repository, jarID string, tgID int64) {
	t.Helper()
	err := repo.UpsertJar(context.Background(), core.Jar{
		ID:           jarID,
		AccountTgID:  tgID,
		Title:        "Відпустка",
		CurrencyCode: 980,
		Balance:      50000,
		Active:       true,
	})
	if err != nil {
		t.Fatalf("seed jar %s: %v", jarID, err)
	}
}

func seedJarTx(t *testing.T, repo *storage.Repository, jarID, txID string, when time.Time, amount, balance int64) {
	t.Helper()
	_, err := repo.InsertTransaction(context.Background(), core.Transaction{
		ID:           txID,
		SourceID:     jarID,
		SourceKind:   core.SourceJar,
		Time:         when.Unix(),
		Amount:       amount,
		Balance:      balance,
		CurrencyCode: 980,
	})
	if err != nil {
		t.Fatalf("seed jar tx %s: %v", txID, err)
	}
}

func TestListJars_OwnerScoping(t *testing.T) {
	srv, repo := newTestServer(t)
	seedUser(t, repo, 1, "a")
	seedUser(t, repo, 2, "b")
	seedAccount(t, repo, 1, "tok1")
	seedAccount(t, repo, 2, "tok2")
	seedJar(t, repo, "jar-a", 1)
	seedJar(t, repo, "jar-b", 2)

	rec := doRequest(t, srv, http.MethodGet, "/monobank/monojars", nil, asUser("1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("list jars = %d", rec.Code)
	}
	jars := decodeBody[[]jarResponse](t, rec)
	if len(jars) != 1 || jars[0].ID != "jar-a" {
		t.Errorf("jars of user 1 = %v, want only jar-a", jars)
	}

	rec = doRequest(t, srv, http.MethodGet, "/monobank/monojars", nil, asAdmin())
	if jars := decodeBody[[]jarResponse](t, rec); len(jars) != 2 {
		t.Errorf("admin jars = %v, want both", jars)
	}

	rec = doRequest(t, srv, http.MethodGet, "/monobank/monojars/jar-b", nil, asUser("1"))
	if rec.Code != http.StatusForbidden {
		t.Errorf("stranger jar get = %d, want 403", rec.Code)
	}
}

func TestListJars_BudgetFilter(t *testing.T) {
	srv, repo := newTestServer(t)
	seedUser(t, repo, 1, "a")
	seedAccount(t, repo, 1, "tok1")
	seedJar(t, repo, "jar-x", 1)
	seedJar(t, repo, "jar-y", 1)
	if err := repo.SetJarBudget(context.Background(), "jar-y", true); err != nil {
		t.Fatalf("SetJarBudget() error = %v", err)
	}

	rec := doRequest(t, srv, http.MethodGet, "/monobank/monojars?is_budget=true", nil, asUser("1"))
	jars := decodeBody[[]jarResponse](t, rec)
	if len(jars) != 1 || jars[0].ID != "jar-y" || !jars[0].IsBudget {
		t.Errorf("budget jars = %v, want only jar-y", jars)
	}
}

func TestSetBudgetStatusAndInvested(t *testing.T) {
	srv, repo := newTestServer(t)
	seedUser(t, repo, 1, "a")
	seedAccount(t, repo, 1, "tok1")
	seedJar(t, repo, "jar-x", 1)

	rec := doRequest(t, srv, http.MethodPatch, "/monobank/monojars/jar-x/set_budget_status",
		map[string]any{"is_budget": true}, asUser("1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("set_budget_status = %d, body %s", rec.Code, rec.Body.String())
	}
	if jar := decodeBody[jarResponse](t, rec); !jar.IsBudget {
		t.Errorf("jar after set_budget_status = %+v", jar)
	}

	rec = doRequest(t, srv, http.MethodPatch, "/monobank/monojars/jar-x/set_invested",
		map[string]any{"invested": 12345}, asUser("1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("set_invested = %d", rec.Code)
	}
	if jar := decodeBody[jarResponse](t, rec); jar.Invested != 12345 {
		t.Errorf("invested = %d, want 12345", jar.Invested)
	}

	rec = doRequest(t, srv, http.MethodPatch, "/monobank/monojars/jar-x/set_invested",
		map[string]any{"invested": -5}, asUser("1"))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative invested = %d, want 400", rec.Code)
	}

	rec = doRequest(t, srv, http.MethodPatch, "/monobank/monojars/missing/set_budget_status",
		map[string]any{"is_budget": true}, asUser("1"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing jar = %d, want 404", rec.Code)
	}
}

func TestAvailableMonths(t *testing.T) {
	srv, repo := newTestServer(t)
	seedUser(t, repo, 1, "a")
	seedAccount(t, repo, 1, "tok1")
	seedJar(t, repo, "jar-x", 1)
	seedJarTx(t, repo, "jar-x", "t1", time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC), 10000, 10000)
	seedJarTx(t, repo, "jar-x", "t2", time.Date(2025, 7, 2, 10, 0, 0, 0, time.UTC), -2000, 8000)
	seedJarTx(t, repo, "jar-x", "t3", time.Date(2025, 7, 20, 10, 0, 0, 0, time.UTC), -1000, 7000)

	rec := doRequest(t, srv, http.MethodGet, "/monobank/monojars/jar-x/available-months", nil, asUser("1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("available-months = %d", rec.Code)
	}
	months := decodeBody[[]string](t, rec)
	want := []string{"2025-05-01", "2025-07-01"}
	if len(months) != len(want) || months[0] != want[0] || months[1] != want[1] {
		t.Errorf("available months = %v, want %v", months, want)
	}
}

func TestMonthSummary(t *testing.T) {
	srv, repo := newTestServer(t)
	seedUser(t, repo, 1, "a")
	seedAccount(t, repo, 1, "tok1")
	seedJar(t, repo, "jar-x", 1)
	seedJarTx(t, repo, "jar-x", "t1", time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), 50000, 60000)
	seedJarTx(t, repo, "jar-x", "t2", time.Date(2025, 7, 10, 9, 0, 0, 0, time.UTC), -15000, 45000)
	seedJarTx(t, repo, "jar-x", "t3", time.Date(2025, 7, 25, 9, 0, 0, 0, time.UTC), -5000, 40000)

	rec := doRequest(t, srv, http.MethodGet, "/monobank/monojars/jar-x/month-summary?month=2025-07-01", nil, asUser("1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("month-summary = %d, body %s", rec.Code, rec.Body.String())
	}
	summary := decodeBody[monthSummaryResponse](t, rec)
	want := monthSummaryResponse{StartBalance: 60000, Budget: 50000, EndBalance: 40000, Spent: -30000}
	if summary != want {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}

	// empty month yields the zero summary
	rec = doRequest(t, srv, http.MethodGet, "/monobank/monojars/jar-x/month-summary?month=2024-01-01", nil, asUser("1"))
	if summary := decodeBody[monthSummaryResponse](t, rec); summary != (monthSummaryResponse{}) {
		t.Errorf("empty month summary = %+v, want zeros", summary)
	}
}

func TestMonthSummary_ParamValidation(t *testing.T) {
	srv, repo := newTestServer(t)
	seedUser(t, repo, 1, "a")
	seedAccount(t, repo, 1, "tok1")
	seedJar(t, repo, "jar-x", 1)

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{"missing", "", "query param 'month' is required (e.g. 2025-07-01)"},
		{"mid-month", "?month=2025-07-15", "month must be the first day of month: YYYY-MM-01"},
		{"malformed", "?month=July-2025", "invalid 'month' format, expected YYYY-MM-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, srv, http.MethodGet, "/monobank/monojars/jar-x/month-summary"+tt.query, nil, asUser("1"))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			body := decodeBody[map[string]string](t, rec)
			if body["error"] != tt.want {
				t.Errorf("error = %q, want %q", body["error"], tt.want)
			}
		})
	}
}

func TestJarTransactions_FieldsParam(t *testing.T) {
	srv, repo := newTestServer(t)
	seedUser(t, repo, 1, "a")
	seedAccount(t, repo, 1, "tok1")
	seedJar(t, repo, "jar-x", 1)
	seedJarTx(t, repo, "jar-x", "t1", time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC), 1000, 1000)

	rec := doRequest(t, srv, http.MethodGet,
		"/monobank/monojartransactions?jars=jar-x&fields=id,amount", nil, asUser("1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("jar transactions = %d", rec.Code)
	}
	items := decodeBody[[]map[string]any](t, rec)
	if len(items) != 1 {
		t.Fatalf("items = %v, want one", items)
	}
	if len(items[0]) != 2 || items[0]["id"] != "t1" {
		t.Errorf("shrunk item = %v, want only id and amount", items[0])
	}
}
