package workflow

import "errors"

// Validation errors. An instance that hits one of these fails with
// CategoryValidation.
var (
	ErrInvalidOption       = errors.New("invalid option")
	ErrInvalidDecision     = errors.New("invalid decision: exactly one of selection or refinement_prompt must be set")
	ErrSelectionOutOfRange = errors.New("selection out of range")
	ErrEmptyRefinement     = errors.New("refinement prompt cannot be empty")
)

// Coercion errors. An instance that hits one of these fails with
// CategoryCoercion.
var (
	ErrCoerce = errors.New("could not coerce response")
	ErrParse  = errors.New("could not parse flight options")
)

// Engine and store errors. These never terminate an instance.
var (
	ErrInstanceNotFound = errors.New("instance not found")
	ErrConflict         = errors.New("journal sequence conflict")
	ErrJournal          = errors.New("corrupt journal")
)

func categorize(err error) Category {
	switch {
	case errors.Is(err, ErrInvalidOption),
		errors.Is(err, ErrInvalidDecision),
		errors.Is(err, ErrSelectionOutOfRange),
		errors.Is(err, ErrEmptyRefinement):
		return CategoryValidation
	case errors.Is(err, ErrCoerce), errors.Is(err, ErrParse):
		return CategoryCoercion
	default:
		return CategoryAgent
	}
}
