// Package overseerr wraps the Overseerr request API for submissions,
// existing-request inventory, and discovery settings.
package overseerr
