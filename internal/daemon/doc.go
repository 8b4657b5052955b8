// Package daemon runs the long-lived scout process: the scheduler loop,
// the delivery worker, and the HTTP control API, guarded by a file lock
// so only one instance serves a data directory.
package daemon
