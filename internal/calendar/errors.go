package calendar

import (
	"errors"
	"fmt"
)

// ErrorKind classifies parse failures so callers can report them without
// string matching.
type ErrorKind int

const (
	// KindStructure means the markup does not have the expected
	// heading/block shape: no year headings, an accordion item without a
	// title, or a recognized item without a content list.
	KindStructure ErrorKind = iota
	// KindDate means a required date line was missing or its date token
	// could not be parsed.
	KindDate
)

func (k ErrorKind) String() string {
	switch k {
	case KindStructure:
		return "structure"
	case KindDate:
		return "date"
	default:
		return "unknown"
	}
}

// ParseError reports why calendar markup could not be turned into a
// semester list. Parsing never partially succeeds: when Parse returns a
// ParseError no usable Document is returned alongside it.
type ParseError struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("calendar: %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("calendar: %s: %s", e.Kind, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

func structureErr(detail string) *ParseError {
	return &ParseError{Kind: KindStructure, Detail: detail}
}

func dateErr(detail string, err error) *ParseError {
	return &ParseError{Kind: KindDate, Detail: detail, Err: err}
}

// ErrDateFormat is returned by ParseUserDate when a caller-supplied date
// string does not match the DD/MM/YYYY input format. It is a user-input
// error, not a calendar fault, and its text is suitable to echo back.
var ErrDateFormat = errors.New("date must be in format DD/MM/YYYY")
