// Package resolver expands job definitions into candidate lists via the
// catalog provider, either by filtered discovery or by fanning out from
// users' watch history.
package resolver
