// Package poller implements the polling scheduler behind reviewq.
//
// One fixed-period clock drives three independently gated concerns:
//
//   - the assigned-count probe, every [DefaultAssignedInterval] ticks
//   - the feedback probe, every [DefaultFeedbackInterval] ticks when enabled
//   - the assignment requester, on every other tick while below [Capacity]
//
// The [Scheduler] owns a single [State]. Service calls run asynchronously but
// each concern has at most one call outstanding, and all state changes are
// applied on the scheduler's loop goroutine.
//
// Users of the reviewq library should not need to interact with this
// package directly. Configuration is done through the main reviewq package.
package poller
