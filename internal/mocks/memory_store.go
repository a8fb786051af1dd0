package mocks

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/store"
)

// MemoryDB is an in-memory backing for the task, category and notification
// stores. The three store views share one lock so a test can inspect the
// combined state after an operation.
type MemoryDB struct {
	mu            sync.Mutex
	tasks         map[uuid.UUID]*domain.Task
	categories    []domain.Category
	memberships   map[uuid.UUID]map[int64]struct{}
	notifications []*domain.Notification

	// CompleteErr makes CompleteIfActive fail for the given task ids.
	CompleteErr map[uuid.UUID]error
	// MembershipErr makes every AddMembership and RemoveMembership fail.
	MembershipErr error
	// NotificationErr makes every notification Create fail.
	NotificationErr error

	lookups int
}

// NewMemoryDB returns a MemoryDB seeded with the four categories, ids 1..4.
func NewMemoryDB() *MemoryDB {
	db := &MemoryDB{
		tasks:       make(map[uuid.UUID]*domain.Task),
		memberships: make(map[uuid.UUID]map[int64]struct{}),
		CompleteErr: make(map[uuid.UUID]error),
	}
	for i, name := range domain.AllCategories {
		db.categories = append(db.categories, domain.Category{ID: int64(i + 1), Name: name})
	}
	return db
}

// Tasks returns a store.TaskStore view.
func (db *MemoryDB) Tasks() *MemoryTaskStore { return &MemoryTaskStore{db: db} }

// Categories returns a store.CategoryStore view.
func (db *MemoryDB) Categories() *MemoryCategoryStore { return &MemoryCategoryStore{db: db} }

// Notifications returns a store.NotificationStore view.
func (db *MemoryDB) Notifications() *MemoryNotificationStore {
	return &MemoryNotificationStore{db: db}
}

// PutTask stores a copy of task directly, bypassing validation.
func (db *MemoryDB) PutTask(task *domain.Task) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tasks[task.ID] = copyTask(task)
}

// Task returns a copy of the stored task or nil.
func (db *MemoryDB) Task(id uuid.UUID) *domain.Task {
	db.mu.Lock()
	defer db.mu.Unlock()
	if t, ok := db.tasks[id]; ok {
		return copyTask(t)
	}
	return nil
}

// CategoryNames returns the category names of taskID in id order.
func (db *MemoryDB) CategoryNames(taskID uuid.UUID) []domain.CategoryName {
	db.mu.Lock()
	defer db.mu.Unlock()
	var names []domain.CategoryName
	for _, c := range db.categories {
		if _, ok := db.memberships[taskID][c.ID]; ok {
			names = append(names, c.Name)
		}
	}
	return names
}

// NotificationsOfType returns the stored notifications of type t, oldest first.
func (db *MemoryDB) NotificationsOfType(t domain.NotificationType) []*domain.Notification {
	db.mu.Lock()
	defer db.mu.Unlock()
	var out []*domain.Notification
	for _, n := range db.notifications {
		if n.Type == t {
			c := *n
			out = append(out, &c)
		}
	}
	return out
}

// NotificationCount returns the number of stored notifications.
func (db *MemoryDB) NotificationCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.notifications)
}

// DropCategory removes a category from the taxonomy.
func (db *MemoryDB) DropCategory(name domain.CategoryName) {
	db.mu.Lock()
	defer db.mu.Unlock()
	kept := db.categories[:0]
	for _, c := range db.categories {
		if c.Name != name {
			kept = append(kept, c)
		}
	}
	db.categories = kept
}

// CategoryLookups returns how many GetIDByName calls reached the store.
func (db *MemoryDB) CategoryLookups() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.lookups
}

// MemoryTaskStore implements store.TaskStore over a MemoryDB.
type MemoryTaskStore struct{ db *MemoryDB }

var _ store.TaskStore = (*MemoryTaskStore)(nil)

func (s *MemoryTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if _, exists := s.db.tasks[task.ID]; exists {
		return store.ErrDuplicate
	}
	s.db.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *MemoryTaskStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok || t.UserID != userID {
		return nil, store.ErrTaskNotFound
	}
	return copyTask(t), nil
}

// GetByIDForUpdate behaves like GetByID; MemoryDB serializes every call.
func (s *MemoryTaskStore) GetByIDForUpdate(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id, userID)
}

func (s *MemoryTaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[task.ID]
	if !ok || t.UserID != task.UserID {
		return store.ErrTaskNotFound
	}
	s.db.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *MemoryTaskStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TaskStatus) error {
	if !status.IsValid() {
		return domain.ErrInvalidTaskStatus
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = status
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryTaskStore) CompleteIfActive(ctx context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if err := s.db.CompleteErr[id]; err != nil {
		return false, err
	}
	t, ok := s.db.tasks[id]
	if !ok || t.Status != domain.TaskStatusActive {
		return false, nil
	}
	t.Status = domain.TaskStatusCompleted
	t.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *MemoryTaskStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[id]
	if !ok || t.UserID != userID {
		return store.ErrTaskNotFound
	}
	s.db.deleteLocked(id)
	return nil
}

func (s *MemoryTaskStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for id, t := range s.db.tasks {
		if t.UserID == userID {
			s.db.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryTaskStore) DeleteMany(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	n := 0
	for _, id := range ids {
		if t, ok := s.db.tasks[id]; ok && t.UserID == userID {
			s.db.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryTaskStore) List(ctx context.Context, f store.TaskFilter) ([]*domain.Task, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	q := strings.ToLower(strings.TrimSpace(f.Query))
	out := make([]*domain.Task, 0)
	for _, t := range s.db.tasks {
		if t.UserID != f.UserID {
			continue
		}
		if f.CategoryID != nil {
			if _, ok := s.db.memberships[t.ID][*f.CategoryID]; !ok {
				continue
			}
		}
		if f.Status != nil && t.Status != *f.Status {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.PinnedOnly && !t.Pinned {
			continue
		}
		if f.HasDeadline && t.Deadline == nil {
			continue
		}
		if q != "" && !matchesQuery(t, q) {
			continue
		}
		out = append(out, copyTask(t))
	}

	sort.SliceStable(out, taskLess(out, f.Sort))
	return out, nil
}

func (s *MemoryTaskStore) FindActiveWithDeadlineBefore(ctx context.Context, now time.Time) ([]*domain.Task, error) {
	return s.findActive(func(d time.Time) bool { return !d.After(now) }), nil
}

func (s *MemoryTaskStore) FindActiveWithDeadlineInWindow(ctx context.Context, start, end time.Time) ([]*domain.Task, error) {
	return s.findActive(func(d time.Time) bool { return d.After(start) && !d.After(end) }), nil
}

func (s *MemoryTaskStore) WithTx(tx *sql.Tx) store.TaskStore { return s }

func (s *MemoryTaskStore) findActive(match func(time.Time) bool) []*domain.Task {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*domain.Task, 0)
	for _, t := range s.db.tasks {
		if t.Status == domain.TaskStatusActive && t.Deadline != nil && match(*t.Deadline) {
			out = append(out, copyTask(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Deadline.Before(*out[j].Deadline) })
	return out
}

// MemoryCategoryStore implements store.CategoryStore over a MemoryDB.
type MemoryCategoryStore struct{ db *MemoryDB }

var _ store.CategoryStore = (*MemoryCategoryStore)(nil)

func (s *MemoryCategoryStore) List(ctx context.Context) ([]domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return append([]domain.Category(nil), s.db.categories...), nil
}

func (s *MemoryCategoryStore) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, c := range s.db.categories {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, store.ErrCategoryNotFound
}

func (s *MemoryCategoryStore) GetIDByName(ctx context.Context, name domain.CategoryName) (int64, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	s.db.lookups++
	for _, c := range s.db.categories {
		if c.Name == name {
			return c.ID, nil
		}
	}
	return 0, fmt.Errorf("%w: %s", store.ErrCategoryNotFound, name)
}

func (s *MemoryCategoryStore) AddMembership(ctx context.Context, taskID uuid.UUID, categoryID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.MembershipErr != nil {
		return s.db.MembershipErr
	}
	if s.db.memberships[taskID] == nil {
		s.db.memberships[taskID] = make(map[int64]struct{})
	}
	s.db.memberships[taskID][categoryID] = struct{}{}
	return nil
}

func (s *MemoryCategoryStore) RemoveMembership(ctx context.Context, taskID uuid.UUID, categoryID int64) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.MembershipErr != nil {
		return s.db.MembershipErr
	}
	delete(s.db.memberships[taskID], categoryID)
	return nil
}

func (s *MemoryCategoryStore) ListForTask(ctx context.Context, taskID, userID uuid.UUID) ([]domain.Category, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	t, ok := s.db.tasks[taskID]
	if !ok || t.UserID != userID {
		return []domain.Category{}, nil
	}
	out := make([]domain.Category, 0)
	for _, c := range s.db.categories {
		if _, ok := s.db.memberships[taskID][c.ID]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryCategoryStore) WithTx(tx *sql.Tx) store.CategoryStore { return s }

// MemoryNotificationStore implements store.NotificationStore over a MemoryDB.
type MemoryNotificationStore struct{ db *MemoryDB }

var _ store.NotificationStore = (*MemoryNotificationStore)(nil)

func (s *MemoryNotificationStore) Create(ctx context.Context, n *domain.Notification) error {
	if err := n.Validate(); err != nil {
		return err
	}
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	if s.db.NotificationErr != nil {
		return s.db.NotificationErr
	}
	if n.Type == domain.NotificationDeadlineApproaching &&
		s.db.approachingExistsLocked(*n.TaskID, *n.ThresholdHours) {
		return store.ErrDuplicateAlert
	}
	c := *n
	s.db.notifications = append(s.db.notifications, &c)
	return nil
}

func (s *MemoryNotificationStore) ExistsApproaching(ctx context.Context, taskID uuid.UUID, hours int) (bool, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.approachingExistsLocked(taskID, hours), nil
}

func (s *MemoryNotificationStore) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]*domain.Notification, 0)
	for i := len(s.db.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := s.db.notifications[i]; n.UserID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemoryNotificationStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	count := 0
	for _, n := range s.db.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (s *MemoryNotificationStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, n := range s.db.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return store.ErrNotificationNotFound
}

func (s *MemoryNotificationStore) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, n := range s.db.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *MemoryNotificationStore) DeleteAllForUser(ctx context.Context, userID uuid.UUID) (int, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	kept := s.db.notifications[:0]
	for _, n := range s.db.notifications {
		if n.UserID != userID {
			kept = append(kept, n)
		}
	}
	removed := len(s.db.notifications) - len(kept)
	s.db.notifications = kept
	return removed, nil
}

func (db *MemoryDB) approachingExistsLocked(taskID uuid.UUID, hours int) bool {
	for _, n := range db.notifications {
		if n.Type == domain.NotificationDeadlineApproaching &&
			n.TaskID != nil && *n.TaskID == taskID &&
			n.ThresholdHours != nil && *n.ThresholdHours == hours {
			return true
		}
	}
	return false
}

func (db *MemoryDB) deleteLocked(id uuid.UUID) {
	delete(db.tasks, id)
	delete(db.memberships, id)
	for _, n := range db.notifications {
		if n.TaskID != nil && *n.TaskID == id {
			n.TaskID = nil
		}
	}
}

func matchesQuery(t *domain.Task, q string) bool {
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	return t.Description != nil && strings.Contains(strings.ToLower(*t.Description), q)
}

func taskLess(tasks []*domain.Task, sortBy store.TaskSort) func(i, j int) bool {
	newer := func(a, b *domain.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	return func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch sortBy {
		case store.SortCreatedAsc:
			return a.CreatedAt.Before(b.CreatedAt)
		case store.SortCreatedDesc:
			return newer(a, b)
		case store.SortRelevance:
			if a.Priority != b.Priority {
				return a.Priority
			}
			return newer(a, b)
		case store.SortDeadlineAsc, store.SortDeadlineDesc:
			if (a.Deadline == nil) != (b.Deadline == nil) {
				return a.Deadline != nil
			}
			if a.Deadline != nil && !a.Deadline.Equal(*b.Deadline) {
				if sortBy == store.SortDeadlineAsc {
					return a.Deadline.Before(*b.Deadline)
				}
				return a.Deadline.After(*b.Deadline)
			}
			return newer(a, b)
		default:
			if a.Pinned != b.Pinned {
				return a.Pinned
			}
			if a.Priority != b.Priority {
				return a.Priority
			}
			return newer(a, b)
		}
	}
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	if t.Description != nil {
		d := *t.Description
		c.Description = &d
	}
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	return &c
}
