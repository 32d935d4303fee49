package worker

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"monohelper/internal/core"
	"monohelper/internal/services"
)

// AccountLister yields the accounts the poller refreshes.
type AccountLister interface {
	ListActiveAccounts(ctx context.Context) ([]core.Account, error)
}

// Poller periodically refreshes every active account from the bank. Each
// cycle pulls client-info plus the last 30 days of statements, so data lost
// to missed webhooks is recovered on the next cycle.
type Poller struct {
	accounts    AccountLister
	ingest      *services.IngestService
	interval    time.Duration
	concurrency int
}

func NewPoller(accounts AccountLister, ingest *services.IngestService, interval time.Duration, concurrency int) *Poller {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Poller{
		accounts:    accounts,
		ingest:      ingest,
		interval:    interval,
		concurrency: concurrency,
	}
}

// Run polls immediately and then on every interval tick until ctx is done.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.pollOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Poller stopping", "reason", ctx.Err())
			return ctx.Err()
		case <-ticker.C:
			p.pollOnce(ctx)
		}
	}
}

// pollOnce refreshes all active accounts with bounded concurrency. One
// account failing does not stop the others; Monobank's 403 rate limit is the
// common failure and just means this cycle skips the account.
func (p *Poller) pollOnce(ctx context.Context) {
	accounts, err := p.accounts.ListActiveAccounts(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Listing accounts for poll failed", "error", err)
		return
	}
	if len(accounts) == 0 {
		return
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)

	for _, account := range accounts {
		g.Go(func() error {
			if err := p.ingest.SyncAccount(gctx, account, true); err != nil {
				slog.ErrorContext(gctx, "Account poll failed",
					"account_tg_id", account.TgID,
					"error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.InfoContext(ctx, "Poll cycle finished",
		"accounts", len(accounts),
		"duration_ms", time.Since(start).Milliseconds())
}
