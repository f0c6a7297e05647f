// Package domain defines core business entities and value objects for shex.
//
// The domain layer is independent of infrastructure concerns and represents
// pure data structures flowing through the generate → classify → confirm →
// execute loop.
package domain

import "strings"

// Candidate is a single proposed shell command plus an optional short
// natural-language rationale, as returned by a provider.
// Immutable once produced.
type Candidate struct {
	Command   string
	Rationale string
}

// Valid reports whether the candidate passes structural validation.
// A candidate with an empty command is a provider error, never executed.
func (c Candidate) Valid() bool {
	return strings.TrimSpace(c.Command) != ""
}
