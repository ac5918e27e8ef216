package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/locallens/internal/domain"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

const refreshTimeout = 5 * time.Minute

// Refresher recomputes the all-stores triage.
type Refresher interface {
	Refresh(ctx context.Context) (*domain.TriageReport, error)
}

// Scheduler runs forecast refreshes on a standard 5-field cron expression,
// e.g. "0 6 * * *" for every morning at 6.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	schedule  string
}

// New parses schedule. An empty schedule disables refreshes and returns nil.
func New(schedule string, refresher Refresher) (*Scheduler, error) {
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		return nil, nil
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	s := &Scheduler{
		cron:      cron.New(cron.WithParser(parser)),
		refresher: refresher,
		schedule:  schedule,
	}
	if _, err := s.cron.AddFunc(schedule, s.runOnce); err != nil {
		return nil, fmt.Errorf("register refresh job: %w", err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	log.Info().Str("schedule", s.schedule).Msg("scheduler: forecast refresh enabled")
}

// Stop waits for a running refresh to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		log.Warn().Msg("scheduler: stopped before refresh finished")
	}
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	started := time.Now()
	report, err := s.refresher.Refresh(ctx)
	if err != nil {
		log.Error().Err(err).Msg("scheduler: forecast refresh failed")
		return
	}
	log.Info().
		Str("run_id", report.RunID).
		Int("restock", len(report.Restock)).
		Dur("took", time.Since(started)).
		Msg("scheduler: forecast refresh complete")
}
