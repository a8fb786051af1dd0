package sweeper

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
	"github.com/phrazzld/taskboard-api/internal/tagging"
)

// TaskStore is the subset of store.TaskStore the sweeper needs.
type TaskStore interface {
	FindActiveWithDeadlineBefore(ctx context.Context, now time.Time) ([]*domain.Task, error)
	FindActiveWithDeadlineInWindow(ctx context.Context, start, end time.Time) ([]*domain.Task, error)
	CompleteIfActive(ctx context.Context, id uuid.UUID) (bool, error)
	WithTx(tx *sql.Tx) store.TaskStore
}

// Tagger applies membership deltas.
type Tagger interface {
	Apply(ctx context.Context, taskID uuid.UUID, deltas []domain.MembershipDelta) error
	WithTx(tx *sql.Tx) *tagging.Tagger
}

// Notifier records sweep notifications.
type Notifier interface {
	NotifyDeadlineExpired(ctx context.Context, task *domain.Task)
	ExistsApproaching(ctx context.Context, taskID uuid.UUID, thresholdHours int) (bool, error)
	RecordApproaching(ctx context.Context, task *domain.Task, thresholdHours int) error
}

// Result summarizes one tick.
type Result struct {
	Expired  int
	Alerts   int
	Failures int
}

// Sweeper expires overdue tasks and emits approaching-deadline alerts.
type Sweeper struct {
	db       *sql.DB
	tasks    TaskStore
	tagger   Tagger
	notifier Notifier
	logger   *slog.Logger
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithDB makes each expiry complete the task and attach Завершені in one
// transaction on db, so an owner reopening the task concurrently never ends
// up with an active task tagged Завершені.
func WithDB(db *sql.DB) Option {
	return func(s *Sweeper) { s.db = db }
}

// New creates a Sweeper.
func New(tasks TaskStore, tagger Tagger, notifier Notifier, logger *slog.Logger, opts ...Option) *Sweeper {
	if tasks == nil || tagger == nil || notifier == nil {
		panic("sweeper dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sweeper{
		tasks:    tasks,
		tagger:   tagger,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "sweeper")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var completedDelta = []domain.MembershipDelta{domain.AddCategory(domain.CategoryCompleted)}

// Tick runs one sweep at now. The returned error is non-nil only for a
// *tagging.ConfigurationError or when ctx is cancelled between tasks.
// Per-task writes run on a context detached from ctx's cancellation, so a
// task that has started processing is finished.
func (s *Sweeper) Tick(ctx context.Context, now time.Time) (Result, error) {
	var res Result
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.expire(ctx, now, &res); err != nil {
		return res, err
	}
	if err := s.alert(ctx, now, &res); err != nil {
		return res, err
	}

	if res.Expired > 0 || res.Alerts > 0 || res.Failures > 0 {
		log.Info("sweep finished",
			slog.Int("expired", res.Expired),
			slog.Int("alerts", res.Alerts),
			slog.Int("failures", res.Failures))
	}
	return res, nil
}

func (s *Sweeper) expire(ctx context.Context, now time.Time, res *Result) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	overdue, err := s.tasks.FindActiveWithDeadlineBefore(ctx, now)
	if err != nil {
		log.Error("failed to load overdue tasks", slog.String("error", err.Error()))
		res.Failures++
		return nil
	}

	for _, task := range overdue {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.expireTask(context.WithoutCancel(ctx), task, res); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sweeper) expireTask(ctx context.Context, task *domain.Task, res *Result) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("task_id", task.ID.String()))

	var completed bool
	err := s.inTx(ctx, func(ctx context.Context, tasks TaskStore, tagger Tagger) error {
		var err error
		completed, err = tasks.CompleteIfActive(ctx, task.ID)
		if err != nil || !completed {
			return err
		}
		return tagger.Apply(ctx, task.ID, completedDelta)
	})
	if err != nil {
		if tagging.IsConfigurationError(err) {
			return err
		}
		log.Error("failed to expire task", slog.String("error", err.Error()))
		res.Failures++
		return nil
	}
	if !completed {
		// Completed concurrently by the owner or another tick.
		return nil
	}
	task.Status = domain.TaskStatusCompleted

	s.notifier.NotifyDeadlineExpired(ctx, task)
	res.Expired++
	return nil
}

// inTx runs fn with stores bound to a transaction when the sweeper has a
// database, and with the plain stores otherwise.
func (s *Sweeper) inTx(ctx context.Context, fn func(ctx context.Context, tasks TaskStore, tagger Tagger) error) error {
	if s.db == nil {
		return fn(ctx, s.tasks, s.tagger)
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.tasks.WithTx(tx), s.tagger.WithTx(tx))
	})
}

func (s *Sweeper) alert(ctx context.Context, now time.Time, res *Result) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, hours := range domain.DeadlineThresholds {
		end := now.Add(time.Duration(hours) * time.Hour)
		start := end.Add(-domain.ThresholdWindow)

		due, err := s.tasks.FindActiveWithDeadlineInWindow(ctx, start, end)
		if err != nil {
			log.Error("failed to load tasks in threshold window",
				slog.Int("threshold_hours", hours),
				slog.String("error", err.Error()))
			res.Failures++
			continue
		}

		for _, task := range due {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.alertTask(context.WithoutCancel(ctx), task, hours, res)
		}
	}
	return nil
}

func (s *Sweeper) alertTask(ctx context.Context, task *domain.Task, hours int, res *Result) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("task_id", task.ID.String()),
		slog.Int("threshold_hours", hours))

	exists, err := s.notifier.ExistsApproaching(ctx, task.ID, hours)
	if err != nil {
		log.Error("failed to check approaching alert", slog.String("error", err.Error()))
		res.Failures++
		return
	}
	if exists {
		return
	}

	if err := s.notifier.RecordApproaching(ctx, task, hours); err != nil {
		if errors.Is(err, store.ErrDuplicateAlert) {
			return
		}
		res.Failures++
		return
	}
	res.Alerts++
}
