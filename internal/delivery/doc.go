// Package delivery persists accepted candidates and drains them to the
// request service one at a time, pacing submissions and bounding retries.
package delivery
