// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, plus the embedded goose migrations
// that create the tasks, categories, task_categories and notifications tables.
//
// All stores accept a store.DBTX so that they can run against either a
// connection pool or a transaction obtained through store.RunInTransaction.
package postgres
