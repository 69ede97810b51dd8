package reports

import "errors"

var (
	// ErrUnknownOffense is returned when the offense id is not in the catalogue.
	ErrUnknownOffense = errors.New("unknown offense")

	// ErrInvalidNarrative is returned for empty or oversized narratives.
	ErrInvalidNarrative = errors.New("narrative is required and must be at most 20000 characters")

	// ErrInvalidFields is returned when supplied fields are empty or not part of the offense.
	ErrInvalidFields = errors.New("fields must be non-empty values for the offense's required fields")

	// ErrSessionNotFound covers expired, abandoned, and foreign session keys alike.
	ErrSessionNotFound = errors.New("session expired")

	// ErrReportNotFound is returned when a report is not found
	ErrReportNotFound = errors.New("report not found")

	// ErrGenerationFailed wraps LLM provider failures.
	ErrGenerationFailed = errors.New("report generation failed")

	// ErrMalformedCompletion is returned when the model output is not the expected JSON.
	ErrMalformedCompletion = errors.New("model returned an unreadable report")
)
