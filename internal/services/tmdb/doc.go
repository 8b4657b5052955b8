// Package tmdb wraps the TMDB discovery, recommendation, and watch
// provider endpoints used by the resolver.
package tmdb
