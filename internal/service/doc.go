// Package service contains the application use cases of the task board.
// It orchestrates domain objects, the stores defined in internal/store, the
// category tagger and the notifier to fulfil the HTTP API's operations.
//
// Key components:
//
// 1. TaskService:
//   - Task CRUD, toggles, listing, search, sorting, export and import
//   - Stores a new task together with its initial category memberships in one
//     transaction, and reconciles memberships on every attribute change
//
// 2. NotificationService:
//   - Reads and clears the per-user notification feed
//   - Serves unread counts through an optional cache that every write evicts
//
// 3. CategoryService:
//   - Lists the fixed category taxonomy
//
// Services receive their dependencies through constructor injection and
// return sentinel errors (ErrTaskNotFound, ErrNothingToExport, ...) for
// expected conditions. Unexpected failures are wrapped in service-specific
// error types that keep the cause reachable through errors.Is/errors.As.
package service
