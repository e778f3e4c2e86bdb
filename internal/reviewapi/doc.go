// Package reviewapi is the HTTP client for the remote review service.
//
// [Client] implements the scheduler's service interfaces
// ([poller.AssignedCounter], [poller.AssignmentRequester] and
// [poller.FeedbackSource]) plus the listing calls used by the CLI.
package reviewapi
