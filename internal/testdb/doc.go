// Package testdb opens a migrated PostgreSQL database for integration tests
// and isolates each test in a transaction that is rolled back afterwards.
//
// The database URL comes from TASKBOARD_TEST_DATABASE_URL, falling back to
// DATABASE_URL. Without one, tests are skipped locally and fail in CI.
package testdb
