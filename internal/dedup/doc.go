// Package dedup rejects candidates the downstream request service or
// media library already knows about.
package dedup
