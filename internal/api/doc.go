// Package api provides the shared control surface between the daemon HTTP
// server and the CLI: transport-friendly DTOs plus thin services over the
// job store, execution history, delivery queue, and scheduler.
package api
