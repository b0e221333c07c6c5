package models

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCityData means a registered city has no backing resource.
	ErrMissingCityData = errors.New("missing city data")
	// ErrMalformedRecord means a listing lacks a field that cannot be defaulted.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInsufficientData means fewer than two paired observations were available.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUnknownCity means a record references a city absent from the registry.
	ErrUnknownCity = errors.New("unknown city")

	ErrUnknownColumn    = errors.New("unknown column")
	ErrNonNumericColumn = errors.New("column is not numeric")
)

// RecordError pinpoints the raw listing and field path that failed normalization.
type RecordError struct {
	City   string
	Index  int
	RoomID string
	Field  string
	Err    error
}

func (e *RecordError) Error() string {
	id := e.RoomID
	if id == "" {
		id = "?"
	}
	return fmt.Sprintf("%s[%d] room %s: field %s: %v", e.City, e.Index, id, e.Field, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }
