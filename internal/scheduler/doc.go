// Package scheduler fires jobs on their schedules, runs the
// resolve/filter/dedup pipeline, records execution history, and hands
// accepted candidates to the delivery queue.
package scheduler
