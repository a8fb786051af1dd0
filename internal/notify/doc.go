// Package notify records user notifications.
//
// Record and the Notify helpers never return errors: a failed notification
// write is logged and the state change that triggered it stands. Approaching
// deadline alerts are the exception because the sweeper needs to tell a
// recorded alert from a duplicate.
package notify
