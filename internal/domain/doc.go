// Package domain contains the core business entities of the task board:
// tasks, the fixed category taxonomy with its membership rules, and
// notifications. It is independent of storage and transport.
package domain
