package domain

import "errors"

// Sentinel errors for consensus preconditions and record validation.
// Callers match these with errors.Is.
var (
	// ErrNoEvaluations indicates a consensus analysis was requested over
	// an empty record set. Callers must collect at least one successful
	// evaluation before asking for consensus.
	ErrNoEvaluations = errors.New("no evaluation records to analyze")

	// ErrIncompleteRecord indicates an evaluation record is missing a
	// score for one or more of the six criteria.
	ErrIncompleteRecord = errors.New("evaluation record missing criterion score")
)
