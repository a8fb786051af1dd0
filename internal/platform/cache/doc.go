// Package cache holds the Redis-backed unread notification counter.
// A nil client turns every operation into a no-op so the service keeps
// working against PostgreSQL alone when no Redis URL is configured.
package cache
