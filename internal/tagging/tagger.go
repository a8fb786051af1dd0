package tagging

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// StatusNotifier is notified by AnnounceStatus.
type StatusNotifier interface {
	NotifyTaskCompleted(ctx context.Context, task *domain.Task)
	NotifyTaskUpdated(ctx context.Context, task *domain.Task)
}

// Tagger applies category membership changes.
type Tagger struct {
	categories store.CategoryStore
	notifier   StatusNotifier
	ids        *categoryIDs
	logger     *slog.Logger
}

// categoryIDs caches name to id lookups. The taxonomy is fixed after
// migration, so entries never expire.
type categoryIDs struct {
	mu  sync.RWMutex
	ids map[domain.CategoryName]int64
}

// NewTagger creates a Tagger backed by categories.
func NewTagger(categories store.CategoryStore, notifier StatusNotifier, logger *slog.Logger) *Tagger {
	if categories == nil {
		panic("categories cannot be nil")
	}
	if notifier == nil {
		panic("notifier cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Tagger{
		categories: categories,
		notifier:   notifier,
		ids:        &categoryIDs{ids: make(map[domain.CategoryName]int64, len(domain.AllCategories))},
		logger:     logger.With(slog.String("component", "tagger")),
	}
}

// WithTx returns a Tagger that writes memberships inside tx. The id cache is shared.
func (t *Tagger) WithTx(tx *sql.Tx) *Tagger {
	return &Tagger{
		categories: t.categories.WithTx(tx),
		notifier:   t.notifier,
		ids:        t.ids,
		logger:     t.logger,
	}
}

// TagNew applies the initial memberships of a freshly stored task. It keeps
// going after a membership write fails and returns the first error, except
// for a ConfigurationError which is returned immediately.
func (t *Tagger) TagNew(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, t.logger)

	var firstErr error
	for _, name := range domain.InitialCategories(task.Snapshot()) {
		err := t.apply(ctx, task.ID, domain.AddCategory(name))
		if err == nil {
			continue
		}
		if IsConfigurationError(err) {
			return err
		}
		log.Warn("failed to apply initial category",
			slog.String("task_id", task.ID.String()),
			slog.String("category", string(name)),
			slog.String("error", err.Error()))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Apply performs deltas on taskID in order and stops at the first error.
// Re-applying the same deltas is harmless.
func (t *Tagger) Apply(ctx context.Context, taskID uuid.UUID, deltas []domain.MembershipDelta) error {
	for _, d := range deltas {
		if err := t.apply(ctx, taskID, d); err != nil {
			return err
		}
	}
	return nil
}

// Reconcile brings the memberships of task in line with its current fields,
// given the snapshot taken before the change. It writes memberships only;
// callers announce the status change with AnnounceStatus once their
// transaction has committed.
func (t *Tagger) Reconcile(ctx context.Context, task *domain.Task, prev domain.Snapshot) ([]domain.MembershipDelta, error) {
	deltas := domain.ReconcileCategories(prev, task.Snapshot())
	if err := t.Apply(ctx, task.ID, deltas); err != nil {
		return nil, err
	}
	return deltas, nil
}

// AnnounceStatus emits task_completed for an active to completed transition
// and task_updated for a reopen. Other changes are not announced.
func (t *Tagger) AnnounceStatus(ctx context.Context, task *domain.Task, prev domain.Snapshot) {
	switch {
	case prev.Status != domain.TaskStatusCompleted && task.Status == domain.TaskStatusCompleted:
		t.notifier.NotifyTaskCompleted(ctx, task)
	case prev.Status == domain.TaskStatusCompleted && task.Status != domain.TaskStatusCompleted:
		t.notifier.NotifyTaskUpdated(ctx, task)
	}
}

// CategoryID resolves name, consulting the cache first.
func (t *Tagger) CategoryID(ctx context.Context, name domain.CategoryName) (int64, error) {
	t.ids.mu.RLock()
	id, ok := t.ids.ids[name]
	t.ids.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := t.categories.GetIDByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrCategoryNotFound) {
			logger.FromContextOrDefault(ctx, t.logger).Error("category taxonomy is incomplete",
				slog.String("category", string(name)))
			return 0, &ConfigurationError{Category: name, Err: err}
		}
		return 0, fmt.Errorf("failed to resolve category %s: %w", name, err)
	}

	t.ids.mu.Lock()
	t.ids.ids[name] = id
	t.ids.mu.Unlock()
	return id, nil
}

func (t *Tagger) apply(ctx context.Context, taskID uuid.UUID, d domain.MembershipDelta) error {
	id, err := t.CategoryID(ctx, d.Category)
	if err != nil {
		return err
	}

	switch d.Op {
	case domain.MembershipAdd:
		err = t.categories.AddMembership(ctx, taskID, id)
	case domain.MembershipRemove:
		err = t.categories.RemoveMembership(ctx, taskID, id)
	default:
		return fmt.Errorf("unknown membership op %q", d.Op)
	}
	if err != nil {
		return fmt.Errorf("failed to %s category %s: %w", d.Op, d.Category, err)
	}
	return nil
}
