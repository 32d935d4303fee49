package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"monohelper/internal/cache"
	"monohelper/internal/core"
	"monohelper/internal/middleware/ratelimit"
	"monohelper/internal/middleware/trace"
	"monohelper/internal/services"
	"monohelper/internal/storage"
)

// Server is the REST surface over storage and the domain services.
type Server struct {
	http.Server
	repo   *storage.Repository
	access *services.AccessService
	ingest *services.IngestService
	family *services.FamilyService
	bank   services.BankAPI

	adminToken string
	webhookURL string

	rateLimiter *ratelimit.Limiter

	// Jar aggregation answers are cached per jar, keyed "<jar_id>:months"
	// and "<jar_id>:summary:<month>". Webhook ingests invalidate by prefix.
	monthsCache  *cache.LRUCache[[]string]
	summaryCache *cache.LRUCache[core.MonthSummary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

// Deps bundles what the server needs to run.
type Deps struct {
	Repo       *storage.Repository
	Access     *services.AccessService
	Ingest     *services.IngestService
	Family     *services.FamilyService
	Bank       services.BankAPI
	AdminToken string
	WebhookURL string
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		repo:         deps.Repo,
		access:       deps.Access,
		ingest:       deps.Ingest,
		family:       deps.Family,
		bank:         deps.Bank,
		adminToken:   deps.AdminToken,
		webhookURL:   deps.WebhookURL,
		rateLimiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		monthsCache:  cache.NewLRUCache[[]string](200, 5*time.Minute),
		summaryCache: cache.NewLRUCache[core.MonthSummary](500, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.monthsCache)
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /monobank/categories", s.handleListCategories)
	mux.HandleFunc("POST /monobank/categories", s.handleCreateCategory)

	mux.HandleFunc("GET /monobank/monoaccounts", s.handleListAccounts)
	mux.HandleFunc("POST /monobank/monoaccounts", s.handleCreateAccount)

	mux.HandleFunc("GET /monobank/monocards", s.handleListCards)
	mux.HandleFunc("GET /monobank/monocards/{id}", s.handleGetCard)

	mux.HandleFunc("GET /monobank/monojars", s.handleListJars)
	mux.HandleFunc("GET /monobank/monojars/{id}", s.handleGetJar)
	mux.HandleFunc("PATCH /monobank/monojars/{id}/set_budget_status", s.handleSetBudgetStatus)
	mux.HandleFunc("PATCH /monobank/monojars/{id}/set_invested", s.handleSetInvested)
	mux.HandleFunc("GET /monobank/monojars/{id}/available-months", s.handleAvailableMonths)
	mux.HandleFunc("GET /monobank/monojars/{id}/month-summary", s.handleMonthSummary)

	mux.HandleFunc("GET /monobank/monotransactions", s.handleListCardTransactions)
	mux.HandleFunc("GET /monobank/monojartransactions", s.handleListJarTransactions)

	mux.HandleFunc("GET /monobank/webhook", s.handleWebhookProbe)
	mux.HandleFunc("POST /monobank/webhook", s.handleWebhook)

	mux.HandleFunc("POST /monobank/daily-report-scheduler", s.handleSchedulerCreate)
	mux.HandleFunc("DELETE /monobank/daily-report-scheduler", s.handleSchedulerDelete)

	mux.HandleFunc("POST /account/users", s.handleCreateUser)
	mux.HandleFunc("GET /account/users/{tg_id}", s.handleGetUser)
	mux.HandleFunc("POST /account/users/{tg_id}/family_code", s.handleFamilyCode)
	mux.HandleFunc("POST /account/users/family_invite/proposal", s.handleFamilyProposal)
	mux.HandleFunc("POST /account/users/family_invite/decision", s.handleFamilyDecision)

	traced := trace.NewMiddleware(extractClientIP)
	s.Server = http.Server{
		Addr:         addr,
		Handler:      traced.Middleware(s.withSecurityHeaders(mux)),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// withSecurityHeaders sets response headers and rate-limits mutating requests.
func (s *Server) withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPatch, http.MethodDelete:
			if !s.rateLimiter.Allow(extractClientIP(r)) {
				w.Header().Set("Retry-After", "60")
				respondError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// extractClientIP considers proxy headers before the raw remote address.
func extractClientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// Shutdown stops the HTTP server and the background cache and limiter
// goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) invalidateJarCaches(jarID string) {
	s.monthsCache.DeletePrefix(jarID + ":")
	s.summaryCache.DeletePrefix(jarID + ":")
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "storage unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
