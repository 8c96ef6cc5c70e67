package scheduler

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"joreca_dedup/config"
	"joreca_dedup/services"
)

// Triggerable allows workers to be kicked outside their regular schedule.
type Triggerable interface {
	Trigger()
}

// Scheduler re-runs the detection pipeline on a cron expression or a fixed
// interval, and kicks the export worker after each successful run.
type Scheduler struct {
	cfg    *config.Config
	dedup  *services.DedupService
	cron   *cron.Cron
	ticker *time.Ticker
	stopCh chan struct{}

	exportWorker Triggerable
}

func New(cfg *config.Config, dedup *services.DedupService) *Scheduler {
	return &Scheduler{
		cfg:    cfg,
		dedup:  dedup,
		cron:   cron.New(),
		stopCh: make(chan struct{}),
	}
}

// SetExportWorker registers the export worker for post-run triggering.
func (s *Scheduler) SetExportWorker(w Triggerable) {
	s.exportWorker = w
}

func (s *Scheduler) Start(ctx context.Context) error {
	if s.cfg.Scheduler.Cron != "" {
		log.Printf("Starting scheduler with cron: %s", s.cfg.Scheduler.Cron)
		_, err := s.cron.AddFunc(s.cfg.Scheduler.Cron, func() {
			s.runOnce(ctx)
		})
		if err != nil {
			return fmt.Errorf("invalid cron expression: %w", err)
		}
		s.cron.Start()
	} else if s.cfg.Scheduler.Interval > 0 {
		log.Printf("Starting scheduler with interval: %s", s.cfg.Scheduler.Interval)
		s.ticker = time.NewTicker(s.cfg.Scheduler.Interval)
		go func() {
			for {
				select {
				case <-s.ticker.C:
					s.runOnce(ctx)
				case <-s.stopCh:
					return
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		log.Println("No schedule configured, daemon will only run on demand")
	}

	return nil
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
	if s.ticker != nil {
		s.ticker.Stop()
	}
	close(s.stopCh)
}

// TriggerNow runs one detection batch immediately.
func (s *Scheduler) TriggerNow(ctx context.Context) error {
	_, _, err := s.dedup.RunOnce(ctx)
	return err
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, _, err := s.dedup.RunOnce(ctx); err != nil {
		log.Printf("Scheduled run error: %v", err)
		return
	}
	if s.exportWorker != nil {
		s.exportWorker.Trigger()
	}
}
