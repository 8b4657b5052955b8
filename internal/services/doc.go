// Package services holds shared helpers for the external provider
// clients: error classification and context annotation.
package services
