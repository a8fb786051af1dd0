package domain

// CategoryName is one of the fixed, pre-seeded category names.
type CategoryName string

// The category taxonomy. Names are stored verbatim in the categories table.
const (
	// CategoryMine is assigned at creation and never removed.
	CategoryMine CategoryName = "Мої"
	// CategoryPlanned is present iff the task has a deadline.
	CategoryPlanned CategoryName = "Заплановані"
	// CategoryImportant is present iff the task has priority.
	CategoryImportant CategoryName = "Важливі"
	// CategoryCompleted is present iff the task is completed.
	CategoryCompleted CategoryName = "Завершені"
)

// AllCategories lists the taxonomy in seed order.
var AllCategories = []CategoryName{
	CategoryMine,
	CategoryPlanned,
	CategoryImportant,
	CategoryCompleted,
}

// Category is a named tag tasks can belong to.
type Category struct {
	ID   int64        `json:"id"`
	Name CategoryName `json:"name"`
}

// Snapshot is the triple of task attributes that category membership
// is derived from.
type Snapshot struct {
	HasDeadline bool
	Priority    bool
	Status      TaskStatus
}

// MembershipOp is the kind of change applied to a membership.
type MembershipOp string

const (
	MembershipAdd    MembershipOp = "add"
	MembershipRemove MembershipOp = "remove"
)

// MembershipDelta is a single add or remove of a category on a task.
type MembershipDelta struct {
	Op       MembershipOp
	Category CategoryName
}

// AddCategory returns an add delta for name.
func AddCategory(name CategoryName) MembershipDelta {
	return MembershipDelta{Op: MembershipAdd, Category: name}
}

// RemoveCategory returns a remove delta for name.
func RemoveCategory(name CategoryName) MembershipDelta {
	return MembershipDelta{Op: MembershipRemove, Category: name}
}

// InitialCategories returns the categories a newly stored task belongs to.
// Мої is always included; the rest follow the membership rules.
func InitialCategories(s Snapshot) []CategoryName {
	names := []CategoryName{CategoryMine}
	if s.HasDeadline {
		names = append(names, CategoryPlanned)
	}
	if s.Priority {
		names = append(names, CategoryImportant)
	}
	if s.Status == TaskStatusCompleted {
		names = append(names, CategoryCompleted)
	}
	return names
}

// ReconcileCategories computes the membership changes implied by moving
// from prev to next. Each attribute is compared independently, so an
// unchanged attribute never produces a delta and Мої is never touched.
func ReconcileCategories(prev, next Snapshot) []MembershipDelta {
	var deltas []MembershipDelta

	switch {
	case !prev.HasDeadline && next.HasDeadline:
		deltas = append(deltas, AddCategory(CategoryPlanned))
	case prev.HasDeadline && !next.HasDeadline:
		deltas = append(deltas, RemoveCategory(CategoryPlanned))
	}

	switch {
	case !prev.Priority && next.Priority:
		deltas = append(deltas, AddCategory(CategoryImportant))
	case prev.Priority && !next.Priority:
		deltas = append(deltas, RemoveCategory(CategoryImportant))
	}

	switch {
	case prev.Status != TaskStatusCompleted && next.Status == TaskStatusCompleted:
		deltas = append(deltas, AddCategory(CategoryCompleted))
	case prev.Status == TaskStatusCompleted && next.Status != TaskStatusCompleted:
		deltas = append(deltas, RemoveCategory(CategoryCompleted))
	}

	return deltas
}
