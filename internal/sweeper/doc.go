// Package sweeper implements the periodic deadline sweep.
//
// Each tick does two passes over active tasks:
//
//  1. Tasks whose deadline is at or before now are completed through a
//     status-guarded update. Only the caller that wins the guard adds the
//     Завершені category and records a deadline_expired notification.
//  2. For every lead time L in domain.DeadlineThresholds, tasks whose
//     deadline falls in (now+L-30m, now+L] receive one deadline_approaching
//     alert keyed on (task, L).
//
// A tick is idempotent. Failures on one task are logged and counted without
// stopping the others; a missing seeded category aborts the tick.
//
// Scheduler runs ticks on a fixed interval and never lets two overlap.
package sweeper
