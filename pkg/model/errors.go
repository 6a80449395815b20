package model

import (
	"errors"
	"fmt"
)

// Kind represents the category of a data error.
type Kind int

const (
	// KindUnknown is the default error kind when none is specified.
	KindUnknown Kind = iota
	// KindMissingInput indicates a missing file or required column.
	KindMissingInput
	// KindInvalidInput indicates a cell that does not parse or validate.
	KindInvalidInput
	// KindUnknownScenario indicates a scenario id absent from a parameter table.
	KindUnknownScenario
)

func (k Kind) String() string {
	switch k {
	case KindMissingInput:
		return "missing input"
	case KindInvalidInput:
		return "invalid input"
	case KindUnknownScenario:
		return "unknown scenario"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is matching against an *Error's Kind.
var (
	ErrMissingInput    = errors.New("missing input")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnknownScenario = errors.New("unknown scenario")
)

// Table names as they appear in error messages and file names.
const (
	TableProcessSteps   = "ProcessSteps"
	TableScoringMetrics = "ScoringMetrics"
	TableStepScores     = "StepScores"
	TableBusinessParams = "BusinessParams"
	TableStrategyParams = "StrategyParams"
)

// Error is a typed data error. All loader and scenario lookup failures are
// fatal for the run that hit them.
type Error struct {
	Kind    Kind
	Op      string // operation that failed: "load", "scenario"
	Table   string // table name, if any
	Row     int    // 1-based data row, 0 when not row-specific
	Message string
	Err     error // underlying error (optional)
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Row > 0 {
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if e.Op != "" {
		return e.Op + ": " + msg
	}
	return msg
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the sentinel error of the same kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrMissingInput:
		return e.Kind == KindMissingInput
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrUnknownScenario:
		return e.Kind == KindUnknownScenario
	}
	return false
}

// KindOf extracts the Kind from an error chain, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
