package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/minbarhq/minbar-api/editor"
	"github.com/minbarhq/minbar-api/outline"
)

// sessionTTL is how long an editing or outline session may sit untouched
// before the reaper discards it.
const sessionTTL = 2 * time.Hour

// SessionReaper evicts sessions idle past the TTL and reports how many
// were dropped.
type SessionReaper interface {
	EvictIdle(ttl time.Duration) int
}

// Scheduler handles periodic background jobs: reaping editing, outline and
// live sessions that were abandoned without being closed.
type Scheduler struct {
	cron     *cron.Cron
	Editors  *editor.Manager
	Outlines *outline.Manager
	Live     SessionReaper
}

// NewScheduler creates a new scheduler instance
func NewScheduler(editors *editor.Manager, outlines *outline.Manager, live SessionReaper) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		Editors:  editors,
		Outlines: outlines,
		Live:     live,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc("@every 15m", s.reapIdleSessions)
	if err != nil {
		zap.S().Errorw("failed to register session reaper job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("session reaper scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("session reaper scheduler stopped")
}

// reapIdleSessions drops editing and outline sessions idle past the TTL.
// Unsaved editor changes in a reaped session are lost, same as closing the
// tab without saving.
func (s *Scheduler) reapIdleSessions() {
	editors := s.Editors.EvictIdle(sessionTTL)
	outlines := s.Outlines.EvictIdle(sessionTTL)
	live := 0
	if s.Live != nil {
		live = s.Live.EvictIdle(sessionTTL)
	}
	if editors > 0 || outlines > 0 || live > 0 {
		zap.S().Infow("reaped idle sessions",
			"editorSessions", editors,
			"outlineSessions", outlines,
			"liveSessions", live,
		)
	}
}
