package dedup

import (
	"errors"
	"fmt"
)

// ErrInvariantViolation marks a defect in the dedup logic itself, never a
// data-quality problem.
var ErrInvariantViolation = errors.New("invariant violation")

const (
	InvariantNoTextLoss         = "no_text_loss"
	InvariantCanonicalReference = "canonical_reference"
	InvariantUniqueCanonical    = "unique_canonical_identity"
	InvariantDenseSequence      = "dense_sequence"
)

// InvariantError identifies the invariant and the event group that failed.
type InvariantError struct {
	Invariant string
	EventID   string
	Key       EventKey
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s failed for event %s (company_id=%q headline=%q event_date=%q): %s",
		ErrInvariantViolation, e.Invariant, e.EventID, e.Key.CompanyID, e.Key.Headline, e.Key.EventDate, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return ErrInvariantViolation
}
