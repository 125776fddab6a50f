package core

import (
	"strings"
	"time"
)

// Filter is the client-side refinement applied after a store fetch. The
// ownership filter is not represented here: every store query is already
// scoped to one owner, which is the sole tenancy boundary.
//
// Predicates compose as a strict conjunction, evaluated in the order below
// for determinism. The exact-day filter compares localized day labels, not
// timestamp ranges, so it is independent of the range filter; when both are
// set the result is the conjunction of both.
type Filter struct {
	// StartISO/EndISO are inclusive ISO-8601 bounds compared as strings
	// against the record's ISO date. Empty means unbounded.
	StartISO string
	EndISO   string

	// Type matches exactly; empty or "all" passes everything.
	Type string

	// Search is a case-insensitive substring matched against description
	// OR category.
	Search string

	// Day selects a single calendar day by display-date equality. The zero
	// time disables it.
	Day time.Time
}

// Match reports whether a single transaction passes every active predicate.
func (f Filter) Match(t Transaction) bool {
	iso := ISOTime(t.Date)
	if f.StartISO != "" && iso < f.StartISO {
		return false
	}
	if f.EndISO != "" && iso > f.EndISO {
		return false
	}
	if f.Type != "" && f.Type != "all" && string(t.Type) != f.Type {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(t.Description), q) &&
			!strings.Contains(strings.ToLower(t.Category), q) {
			return false
		}
	}
	if !f.Day.IsZero() && DisplayDate(t.Date) != DisplayDate(f.Day) {
		return false
	}
	return true
}

// Apply filters a list, preserving order. The input is never mutated.
func (f Filter) Apply(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	return out
}
