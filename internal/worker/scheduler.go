package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"monohelper/internal/amqp"
	"monohelper/internal/services"
)

// Scheduler runs the cron-driven jobs: the daily report for every enabled
// subscriber and a daily webhook re-registration, since Monobank silently
// drops webhooks that misbehave.
type Scheduler struct {
	reports    *services.ReportService
	ingest     *services.IngestService
	notifier   services.Notifier
	webhookURL string

	cron *cron.Cron
}

func NewScheduler(reports *services.ReportService, ingest *services.IngestService, notifier services.Notifier, webhookURL string) *Scheduler {
	return &Scheduler{
		reports:    reports,
		ingest:     ingest,
		notifier:   notifier,
		webhookURL: webhookURL,
		cron:       cron.New(),
	}
}

// Start registers the jobs and starts the cron loop. reportSpec is a cron
// expression, e.g. "0 21 * * *" for 21:00 daily.
func (s *Scheduler) Start(ctx context.Context, reportSpec string) error {
	if _, err := s.cron.AddFunc(reportSpec, func() { s.runDailyReports(ctx) }); err != nil {
		return err
	}
	if s.webhookURL != "" {
		if _, err := s.cron.AddFunc("30 3 * * *", func() { s.reRegisterWebhooks(ctx) }); err != nil {
			return err
		}
	}

	s.cron.Start()
	slog.InfoContext(ctx, "Scheduler started", "report_spec", reportSpec)
	return nil
}

// Stop halts the cron loop and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReports(ctx context.Context) {
	subscribers, err := s.reports.Subscribers(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Listing report subscribers failed", "error", err)
		return
	}

	day := time.Now().UTC()
	sent := 0
	for _, tgID := range subscribers {
		report, err := s.reports.DailyReport(ctx, tgID, day)
		if err != nil {
			slog.ErrorContext(ctx, "Daily report composition failed",
				"tg_id", tgID,
				"error", err)
			continue
		}
		if report == "" {
			continue
		}
		if err := s.notifier.Notify(ctx, tgID, amqp.KindReport, report); err != nil {
			slog.ErrorContext(ctx, "Daily report publish failed",
				"tg_id", tgID,
				"error", err)
			continue
		}
		sent++
	}

	slog.InfoContext(ctx, "Daily reports dispatched",
		"subscribers", len(subscribers),
		"sent", sent)
}

func (s *Scheduler) reRegisterWebhooks(ctx context.Context) {
	if err := s.ingest.RegisterWebhooks(ctx, s.webhookURL); err != nil {
		slog.ErrorContext(ctx, "Webhook re-registration failed", "error", err)
	}
}
