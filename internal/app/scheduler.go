package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"reviews_widget/internal/domain"
)

const DefaultSchedule = "0 0 * * *" // daily at midnight

type backgroundRefresher interface {
	Refresh(ctx context.Context, trigger Trigger) (domain.CacheState, error)
}

// Scheduler owns the background triggers: one refresh at Start and then one
// per cron tick until Stop. Failures are logged and never stop the schedule.
type Scheduler struct {
	refresher backgroundRefresher
	cron      *cron.Cron
	entry     cron.EntryID
	log       zerolog.Logger

	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

func NewScheduler(r backgroundRefresher, spec string, loc *time.Location, logger zerolog.Logger) (*Scheduler, error) {
	if spec == "" {
		spec = DefaultSchedule
	}
	if loc == nil {
		loc = time.Local
	}
	l := logger.With().Str("component", "Scheduler").Logger()
	cl := cronLogger{l: l}
	s := &Scheduler{
		refresher: r,
		log:       l,
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
	}
	id, err := s.cron.AddFunc(spec, func() { s.refresh(TriggerSchedule) })
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	s.entry = id
	return s, nil
}

// Start kicks off the startup refresh in the background and starts the
// schedule. It returns immediately; the service serves with an empty cache
// until the first refresh lands.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.refresh(TriggerStartup)
	}()
	s.cron.Start()
	s.log.Info().Time("next_run", s.NextRun()).Msg("refresh schedule started")
}

// Stop halts the schedule and waits for running refreshes, or for ctx.
func (s *Scheduler) Stop(ctx context.Context) error {
	cronCtx := s.cron.Stop()
	done := make(chan struct{})
	go func() {
		<-cronCtx.Done()
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		s.log.Info().Msg("refresh schedule stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// NextRun is zero until Start.
func (s *Scheduler) NextRun() time.Time { return s.cron.Entry(s.entry).Next }

func (s *Scheduler) refresh(trigger Trigger) {
	if _, err := s.refresher.Refresh(context.Background(), trigger); err != nil {
		// already logged with detail by the refresher
		s.log.Warn().Err(err).Str("trigger", string(trigger)).Msg("background refresh failed")
	}
}

// cronLogger routes cron's logs into zerolog.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}
