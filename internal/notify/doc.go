// Package notify delivers scheduler events to the user.
//
// [Desktop] shells out to the platform notification tool; [Log] writes
// events to a slog logger. [Multi] fans one event out to several notifiers.
package notify
