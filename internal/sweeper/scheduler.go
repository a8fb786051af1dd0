package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultInterval is the polling interval used when none is configured.
const DefaultInterval = 60 * time.Second

// Ticker runs one sweep.
type Ticker interface {
	Tick(ctx context.Context, now time.Time) (Result, error)
}

// Scheduler drives a Ticker on a fixed interval. At most one tick runs at a
// time; a tick that would overlap a running one is skipped.
type Scheduler struct {
	sweeper    Ticker
	interval   time.Duration
	now        func() time.Time
	running    atomic.Bool
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	startOnce  sync.Once
	stopOnce   sync.Once
	logger     *slog.Logger
	errHandler func(err error)
}

// NewScheduler creates a Scheduler. A non-positive interval selects DefaultInterval.
func NewScheduler(sweeper Ticker, interval time.Duration, logger *slog.Logger) *Scheduler {
	if sweeper == nil {
		panic("sweeper cannot be nil")
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "sweep_scheduler"))

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sweeper:    sweeper,
		interval:   interval,
		now:        time.Now,
		ctx:        ctx,
		cancelFunc: cancel,
		logger:     logger,
		errHandler: func(err error) {
			logger.Error("sweep aborted", slog.String("error", err.Error()))
		},
	}
}

// SetErrorHandler replaces the handler called when a scheduled tick returns an error.
func (s *Scheduler) SetErrorHandler(handler func(err error)) {
	s.errHandler = handler
}

// Start runs one tick immediately and then one per interval until Stop.
// Calling Start more than once has no effect.
func (s *Scheduler) Start() {
	s.startOnce.Do(func() {
		s.logger.Info("starting deadline sweeper", slog.Duration("interval", s.interval))
		s.wg.Add(1)
		go s.loop()
	})
}

// Stop cancels the loop and waits for an in-flight tick to return.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cancelFunc()
		s.wg.Wait()
		s.logger.Info("deadline sweeper stopped")
	})
}

// RunOnce runs a tick now unless one is already in progress. ran is false
// when the tick was skipped.
func (s *Scheduler) RunOnce(ctx context.Context) (res Result, ran bool, err error) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Debug("sweep already in progress, skipping")
		return Result{}, false, nil
	}
	defer s.running.Store(false)

	res, err = s.sweeper.Tick(ctx, s.now().UTC())
	return res, true, err
}

func (s *Scheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runScheduled()
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.runScheduled()
		}
	}
}

func (s *Scheduler) runScheduled() {
	_, _, err := s.RunOnce(s.ctx)
	if err != nil && s.ctx.Err() == nil {
		s.errHandler(err)
	}
}
