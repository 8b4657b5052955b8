// Package filter evaluates job filter sets against media candidates.
// Every check is a pure predicate; the package holds no state.
package filter
