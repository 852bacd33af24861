package skemajson

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/reoring/skemajson/i18n"
)

// Error codes (exported consts for IDE completion and type safety by convention)
const (
	CodeMissingSchema  = "missing_schema"
	CodeTypeResolution = "type_resolution"
	CodeNumericDecode  = "numeric_decode"
	CodeContainerShape = "container_shape"
	CodeTagConflict    = "tag_conflict"
	CodeInvalidType    = "invalid_type"
	// Reader failures (tokenizer, enforcement, I/O)
	CodeParseError   = "parse_error"
	CodeDuplicateKey = "duplicate_key"
	CodeTruncated    = "truncated"
)

// Sentinels matched by errors.Is against any *CodecError carrying the code.
var (
	ErrMissingSchema  = errors.New("skemajson: missing schema declaration")
	ErrTypeResolution = errors.New("skemajson: type resolution failed")
	ErrNumericDecode  = errors.New("skemajson: malformed numeric value")
	ErrContainerShape = errors.New("skemajson: container shape mismatch")
	ErrTagConflict    = errors.New("skemajson: conflicting type tag")
	ErrInvalidType    = errors.New("skemajson: unexpected JSON value")
	ErrParse          = errors.New("skemajson: malformed input")
)

// CodecError is the single error type returned by registry, engine and API
// calls.
type CodecError struct {
	Code    string       // One of the codes listed above.
	Path    string       // JSON Pointer of the offending value; empty for schema errors.
	Type    reflect.Type // Go type involved, when known.
	Message string
	Cause   error // Optional: underlying error.
}

func (e *CodecError) Error() string {
	b := &strings.Builder{}
	b.WriteString(e.Code)
	if e.Path != "" {
		fmt.Fprintf(b, " at %s", e.Path)
	}
	if e.Type != nil {
		fmt.Fprintf(b, " (%s)", e.Type)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap exposes both the code sentinel and the cause to errors.Is/As.
func (e *CodecError) Unwrap() []error {
	out := make([]error, 0, 2)
	if s := sentinelFor(e.Code); s != nil {
		out = append(out, s)
	}
	if e.Cause != nil {
		out = append(out, e.Cause)
	}
	return out
}

// AsCodecError extracts a *CodecError from an error chain.
func AsCodecError(err error) (*CodecError, bool) {
	if err == nil {
		return nil, false
	}
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

func sentinelFor(code string) error {
	switch code {
	case CodeMissingSchema:
		return ErrMissingSchema
	case CodeTypeResolution:
		return ErrTypeResolution
	case CodeNumericDecode:
		return ErrNumericDecode
	case CodeContainerShape:
		return ErrContainerShape
	case CodeTagConflict:
		return ErrTagConflict
	case CodeInvalidType:
		return ErrInvalidType
	case CodeParseError, CodeDuplicateKey, CodeTruncated:
		return ErrParse
	}
	return nil
}

// newError builds a *CodecError whose message is the localized text for code
// followed by detail.
func newError(code, path string, t reflect.Type, cause error, detail string, args ...any) *CodecError {
	msg := i18n.T(code, nil)
	if detail != "" {
		if len(args) > 0 {
			detail = fmt.Sprintf(detail, args...)
		}
		msg += ": " + detail
	}
	return &CodecError{Code: code, Path: path, Type: t, Message: msg, Cause: cause}
}

// withPath fills in the pointer of errors raised below a known location.
func withPath(err error, path string) error {
	if ce, ok := err.(*CodecError); ok && ce.Path == "" {
		ce.Path = path
	}
	return err
}
