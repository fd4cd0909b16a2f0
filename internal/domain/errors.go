package domain

import "errors"

var (
	// ErrNotFound is returned when the referenced order does not exist
	ErrNotFound = errors.New("order not found")

	// ErrInvalidStage is returned for a stage id outside the catalog
	ErrInvalidStage = errors.New("invalid stage")
)
