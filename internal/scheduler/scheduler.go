package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"MatchingPool/internal/ledger"
	"MatchingPool/internal/notifier"
	"MatchingPool/internal/pool"
	"MatchingPool/internal/settlement"
)

// Scheduler manages the operational cron tasks: draining unsettled
// transfer intents into the settlement gateway and posting the daily
// pool report.
type Scheduler struct {
	Cron       *cron.Cron
	Pool       *pool.Pool
	Ledger     ledger.Ledger
	Settlement *settlement.Client // nil when no gateway is configured
	Notifier   *notifier.WebhookNotifier
	BatchSize  int
	Ctx        context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, p *pool.Pool, l ledger.Ledger, sc *settlement.Client, wn *notifier.WebhookNotifier, batchSize int) *Scheduler {
	return &Scheduler{
		Cron:       cron.New(cron.WithSeconds()),
		Pool:       p,
		Ledger:     l,
		Settlement: sc,
		Notifier:   wn,
		BatchSize:  batchSize,
		Ctx:        ctx,
	}
}

// RegisterAll registers the settlement and report tasks.
func (s *Scheduler) RegisterAll(settleCron, reportCron string) error {
	if _, err := s.Cron.AddFunc(settleCron, s.settleTask); err != nil {
		return fmt.Errorf("register settle task: %w", err)
	}
	if _, err := s.Cron.AddFunc(reportCron, s.reportTask); err != nil {
		return fmt.Errorf("register report task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunSettleNow executes the settlement flush immediately (manual trigger).
func (s *Scheduler) RunSettleNow() {
	s.settleTask()
}

func (s *Scheduler) settleTask() {
	if s.Settlement == nil {
		return
	}

	recs, err := s.Ledger.UnsettledIntents(s.BatchSize)
	if err != nil {
		log.Printf("[ERROR] load unsettled intents: %v", err)
		return
	}
	if len(recs) == 0 {
		return
	}

	accepted, err := s.Settlement.Submit(recs)
	if err != nil {
		log.Printf("[ERROR] submit intents to settlement gateway: %v", err)
		return
	}
	if err := s.Ledger.MarkSettled(accepted); err != nil {
		log.Printf("[ERROR] mark intents settled: %v", err)
		return
	}
	log.Printf("[INFO] settled %d/%d transfer intents", len(accepted), len(recs))
}

func (s *Scheduler) reportTask() {
	log.Println("[INFO] running daily report")
	state := s.Pool.Snapshot()
	s.trySend(notifier.FormatDailySummary(&state))
}

func (s *Scheduler) trySend(text string) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
