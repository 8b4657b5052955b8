// Package jobs defines the automation job model, schedule computation,
// and SQLite persistence for jobs and their execution history.
package jobs
