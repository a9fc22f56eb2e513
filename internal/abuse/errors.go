package abuse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/mktabuse/internal/domain/models"
)

var (
	// ErrInputValidation marks malformed or missing order/bar fields. It aborts the run.
	ErrInputValidation = errors.New("input validation failed")

	// ErrMalformedTimestamp is reported when an order timestamp cannot be parsed.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrEmptyResult is the advisory raised when a run flags nothing.
	ErrEmptyResult = errors.New("no abusive orders found")

	// ErrEmptyInput is returned instead of an empty report when a non-empty one is required.
	ErrEmptyInput = errors.New("empty flagged order set")

	// ErrInvalidRequest marks a request without instrument or with end before start.
	ErrInvalidRequest = errors.New("invalid request")
)

// InputValidationError describes one invalid input row.
//
// Row is the 1-based position of the record in its source (0 when unknown).
type InputValidationError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *InputValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Field)
	if e.Row > 0 {
		fmt.Fprintf(&b, " on row %d", e.Row)
	}
	if e.Value != "" {
		fmt.Fprintf(&b, " (%q)", e.Value)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *InputValidationError) Unwrap() error { return e.Err }

// Is makes every InputValidationError match ErrInputValidation.
func (e *InputValidationError) Is(target error) bool {
	return target == ErrInputValidation
}

// NewInputValidationError is a small constructor used by the loaders.
func NewInputValidationError(row int, field, value string, err error) *InputValidationError {
	return &InputValidationError{Row: row, Field: field, Value: value, Err: err}
}

// DuplicateReferenceDataError reports dates that carried more than one price bar.
// It is advisory: detection keeps the first bar of each date.
type DuplicateReferenceDataError struct {
	Instrument string
	Dates      []time.Time
}

func (e *DuplicateReferenceDataError) Error() string {
	days := make([]string, len(e.Dates))
	for i, d := range e.Dates {
		days[i] = d.Format(models.DateLayout)
	}
	return fmt.Sprintf("duplicate price bars for %s on %s (first bar used)", e.Instrument, strings.Join(days, ", "))
}
