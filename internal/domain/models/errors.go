package models

import "errors"

var (
	// ErrSourceUnavailable marks a failed fetch or read from an input collaborator.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrParse marks a single date or value record that could not be parsed.
	// Callers skip the record and continue.
	ErrParse = errors.New("parse error")

	// ErrEmptyResult is returned when no dates survive alignment.
	ErrEmptyResult = errors.New("alignment produced no data points")
)
