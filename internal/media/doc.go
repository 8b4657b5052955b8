// Package media defines the shared candidate and media-type value objects
// passed between the resolver, filter engine, dedup gate, and delivery queue.
package media
