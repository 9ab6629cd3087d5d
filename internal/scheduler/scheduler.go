// Package scheduler runs the periodic news refresh and the one-time
// full site crawl.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is a refresh task. Errors are logged, not fatal.
type Job func(ctx context.Context) error

// Config controls when jobs fire.
type Config struct {
	// NewsHour is the local hour of the daily news refresh.
	NewsHour int
	// FullCrawlAt, when non-zero, schedules a single full site crawl.
	FullCrawlAt time.Time
}

// Scheduler drives the refresh jobs in the university's timezone.
type Scheduler struct {
	cron *cron.Cron
	loc  *time.Location
	cfg  Config

	newsJob      Job
	fullCrawlJob Job

	mu      sync.Mutex
	running bool
	timer   *time.Timer
	cancel  context.CancelFunc
}

// New creates a scheduler. Either job may be nil to disable it.
func New(cfg Config, newsJob, fullCrawlJob Job) *Scheduler {
	loc, err := time.LoadLocation("Asia/Karachi")
	if err != nil {
		loc = time.FixedZone("PKT", 5*60*60)
	}
	return &Scheduler{
		cron:         cron.New(cron.WithLocation(loc)),
		loc:          loc,
		cfg:          cfg,
		newsJob:      newsJob,
		fullCrawlJob: fullCrawlJob,
	}
}

// Start registers and launches the jobs.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	if s.newsJob != nil {
		spec := fmt.Sprintf("0 %d * * *", s.cfg.NewsHour)
		if _, err := s.cron.AddFunc(spec, func() {
			s.runJob(ctx, "news refresh", s.newsJob)
		}); err != nil {
			cancel()
			return fmt.Errorf("schedule news refresh: %w", err)
		}
		slog.Info("scheduled daily news refresh", "hour", s.cfg.NewsHour, "tz", s.loc.String())
	}

	if s.fullCrawlJob != nil && !s.cfg.FullCrawlAt.IsZero() {
		delay := time.Until(s.cfg.FullCrawlAt.In(s.loc))
		if delay > 0 {
			s.timer = time.AfterFunc(delay, func() {
				s.runJob(ctx, "full site crawl", s.fullCrawlJob)
			})
			slog.Info("scheduled one-time full crawl", "at", s.cfg.FullCrawlAt.In(s.loc))
		} else {
			slog.Info("full crawl time already passed, skipping", "at", s.cfg.FullCrawlAt.In(s.loc))
		}
	}

	s.cron.Start()
	s.running = true
	return nil
}

func (s *Scheduler) runJob(ctx context.Context, name string, job Job) {
	slog.Info("scheduled job starting", "job", name)
	start := time.Now()
	if err := job(ctx); err != nil {
		slog.Error("scheduled job failed", "job", name, "error", err)
		return
	}
	slog.Info("scheduled job finished", "job", name, "took", time.Since(start))
}

// Stop halts the cron loop and any pending one-time crawl, waiting
// for a running job to return.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.cancel()
	<-s.cron.Stop().Done()
	s.running = false
}

// Running reports whether the scheduler has been started.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}
