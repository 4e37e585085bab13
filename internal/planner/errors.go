package planner

import (
	"errors"
	"fmt"
)

// UserFacingError is the only failure text callers outside the pipeline see.
const UserFacingError = "Meal plan generation failed"

// ErrorKind classifies a failed generation.
type ErrorKind string

const (
	// KindUpstream means the LLM call itself failed (network, auth, quota).
	KindUpstream ErrorKind = "upstream_error"
	// KindParse means text was received but it is not a valid JSON document.
	KindParse ErrorKind = "parse_error"
	// KindShape means the document parsed but its shape was rejected.
	KindShape ErrorKind = "shape_error"
)

// Sentinels for errors.Is matching against a *GenerationError's kind.
var (
	ErrUpstream       = errors.New("upstream error")
	ErrParse          = errors.New("parse error")
	ErrShape          = errors.New("shape error")
	ErrInvalidRequest = errors.New("invalid meal plan request")
)

// GenerationError is the classified failure of one generation.
type GenerationError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func newGenerationError(kind ErrorKind, message string, cause error) *GenerationError {
	return &GenerationError{Kind: kind, Message: message, Err: cause}
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause.
func (e *GenerationError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindUpstream:
		return ErrUpstream
	case KindParse:
		return ErrParse
	default:
		return ErrShape
	}
}

// KindOf returns the kind of a *GenerationError in err's chain, or "" if none.
func KindOf(err error) ErrorKind {
	var genErr *GenerationError
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return ""
}
