// Package status renders scheduler state into the text shown on the terminal
// and served by the status endpoint.
package status
