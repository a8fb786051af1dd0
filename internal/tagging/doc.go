// Package tagging keeps a task's category memberships consistent with its
// deadline, priority and status.
//
// The pure delta computation lives in domain.ReconcileCategories; this
// package resolves category names to ids, applies the deltas through a
// store.CategoryStore and emits the status notifications that accompany a
// completed/reopened transition. Every membership write is idempotent, so
// the same delta may be applied concurrently by the deadline sweeper and
// a user-initiated update.
package tagging
