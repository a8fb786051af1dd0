// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying database from the task,
// category and notification logic, so the tagger, the deadline sweeper
// and the services can be exercised against in-memory fakes.
package store
