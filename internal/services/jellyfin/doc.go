// Package jellyfin wraps the Jellyfin server API for user lookup, watch
// history, and library inventory.
package jellyfin
