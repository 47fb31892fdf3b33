package core

import (
	"errors"
	"fmt"
)

// Kind classifies a failure so the HTTP layer can map it to a status code.
type Kind int

const (
	KindUnknown Kind = iota
	KindConfiguration
	KindInputValidation
	KindUpstream
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration_error"
	case KindInputValidation:
		return "input_validation_error"
	case KindUpstream:
		return "upstream_service_error"
	case KindNotFound:
		return "not_found"
	default:
		return "internal_error"
	}
}

var (
	ErrInvalidPageNumber    = errors.New("invalid page number")
	ErrNotPDF               = errors.New("document is not a PDF")
	ErrMalformedModelOutput = errors.New("malformed model output")
	ErrMissingCredential    = errors.New("missing credential")
	ErrPaperNotFound        = errors.New("paper not found")
)

// Error is a classified failure. Op names the stage that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func ConfigError(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

func InputError(op string, err error) error {
	return &Error{Kind: KindInputValidation, Op: op, Err: err}
}

func UpstreamError(op string, err error) error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

func NotFoundError(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsClassified reports whether err already carries a Kind.
func IsClassified(err error) bool {
	return KindOf(err) != KindUnknown
}
