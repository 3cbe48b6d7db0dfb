// Package scheduler runs a periodic rescan of watched world roots — new
// region files appear on disk as players explore — and evicts stale cache
// rows for files that disappeared.
package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/go-mc-tools/chunkanalyzer/pkg/logger"
)

// RescanFunc performs one rescan pass (re-list region files under every
// watched root, refresh cache rows, evict stale ones) and reports any
// per-unit failures it collected.
type RescanFunc func(ctx context.Context) []error

type Scheduler struct {
	cron    *cron.Cron
	log     *logger.Logger
	rescan  RescanFunc
	entryID cron.EntryID

	mu      sync.Mutex
	running bool
}

// New builds a scheduler that invokes rescan on the given cron spec (e.g.
// "@every 5m", or a standard 5-field expression) once started.
func New(spec string, rescan RescanFunc, log *logger.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(spec); err != nil {
		return nil, fmt.Errorf("scheduler: invalid cron spec %q: %w", spec, err)
	}

	s := &Scheduler{
		cron:   cron.New(cron.WithParser(parser)),
		log:    log,
		rescan: rescan,
	}
	id, err := s.cron.AddFunc(spec, s.runOnce)
	if err != nil {
		return nil, fmt.Errorf("scheduler: schedule rescan: %w", err)
	}
	s.entryID = id
	return s, nil
}

func (s *Scheduler) runOnce() {
	failures := s.rescan(context.Background())
	for _, f := range failures {
		s.log.Warn("rescan: %v", f)
	}
	s.log.Info("rescan complete (%d issue(s))", len(failures))
}

// Start begins the cron loop. It is safe to call once; a second call
// returns an error rather than double-starting the underlying cron.Cron.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("scheduler: already running")
	}
	s.running = true
	s.cron.Start()
	s.log.Info("rescan scheduler started")
	return nil
}

// Stop waits for any in-flight rescan to finish before returning.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.log.Info("rescan scheduler stopped")
}
