// Package storage owns the shared SQLite database: connection setup,
// pragmas, embedded migrations, and health diagnostics. The jobs and
// delivery packages build their stores on top of its handle.
package storage
