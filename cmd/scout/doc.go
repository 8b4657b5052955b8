// Package main hosts the Scout CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into job
// management operations, queue maintenance, execution history queries, and
// configuration scaffolding. Commands operate on the shared SQLite database
// directly, so they work whether or not the daemon is running; `scout status`
// additionally probes the daemon's HTTP API when one is reachable.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
