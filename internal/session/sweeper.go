package session

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Sweeper runs Manager.Sweep on a fixed interval in the background. It is
// explicitly start/stop-able and tied to process lifetime, not fire-and-forget.
type Sweeper struct {
	cron    *cron.Cron
	manager *Manager
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewSweeper(manager *Manager) *Sweeper {
	ctx, cancel := context.WithCancel(context.Background())
	return &Sweeper{
		cron:    cron.New(cron.WithLocation(time.UTC)),
		manager: manager,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start schedules the sweep at the given interval. A failing sweep is logged
// and retried on the next tick; it never terminates the loop.
func (s *Sweeper) Start(interval time.Duration) error {
	spec := fmt.Sprintf("@every %s", interval)
	_, err := s.cron.AddFunc(spec, func() {
		if s.ctx.Err() != nil {
			return
		}
		defer func() {
			if r := recover(); r != nil {
				log.Printf("session sweep failed: %v", r)
			}
		}()
		s.manager.Sweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	s.cron.Start()
	log.Printf("session sweeper started (interval %s)", interval)
	return nil
}

// Stop halts the schedule and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}
	if s.cancel != nil {
		s.cancel()
	}
	log.Printf("session sweeper stopped")
}
