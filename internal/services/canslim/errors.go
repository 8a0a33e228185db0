package canslim

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingColumn is matched by every *MissingColumnError.
	ErrMissingColumn = errors.New("required column missing")
	// ErrMissingSignal is matched by every *MissingSignalError.
	ErrMissingSignal = errors.New("signal column missing")
	// ErrInvalidCriteria wraps criteria that failed validation.
	ErrInvalidCriteria = errors.New("invalid criteria")
)

// MissingColumnError reports a table that lacks columns a stage requires.
// The stage still returns a shaped result alongside it.
type MissingColumnError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s data missing required columns: %s", e.Table, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnError) Is(target error) bool { return target == ErrMissingColumn }

// MissingSignalError reports that CANSLI_all could not be combined.
type MissingSignalError struct {
	Columns []string
}

func (e *MissingSignalError) Error() string {
	return fmt.Sprintf("missing some CANSLI columns: %s", strings.Join(e.Columns, ", "))
}

func (e *MissingSignalError) Is(target error) bool { return target == ErrMissingSignal }
