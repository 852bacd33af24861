package engine

import (
	"strconv"
	"strings"
)

// DuplicateStrictness controls duplicate key handling.
type DuplicateStrictness int

const (
	DupIgnore DuplicateStrictness = iota
	DupWarn
	DupError
)

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Path    string
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.Code + " at " + e.Path + ": " + e.Message }

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	// MaxBytes is checked against Location(); sources reporting -1 are not
	// limited here.
	MaxBytes int64
	// OnWarning receives non-fatal issues (duplicate keys under DupWarn).
	OnWarning func(SimpleIssue)
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes. When every check is
// disabled the inner source is returned unchanged.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	if opt.OnDuplicate == DupIgnore && opt.MaxDepth <= 0 && opt.MaxBytes <= 0 {
		return inner
	}
	return &enforcer{inner: inner, opt: opt}
}

type frame struct {
	array bool
	path  string
	keys  map[string]struct{}
	index int
	key   string
}

type enforcer struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcer) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		p := e.childPath()
		if e.opt.MaxDepth > 0 && len(e.stack)+1 > e.opt.MaxDepth {
			return Token{}, IssueError{SimpleIssue{Code: "parse_error", Path: rootIfEmpty(p), Message: "max depth exceeded"}}
		}
		f := frame{array: tok.Kind == KindBeginArray, path: p}
		if !f.array && e.opt.OnDuplicate != DupIgnore {
			f.keys = make(map[string]struct{})
		}
		e.stack = append(e.stack, f)
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.keys != nil {
				if _, dup := top.keys[tok.String]; dup {
					si := SimpleIssue{Code: "duplicate_key", Path: JoinPointer(top.path, tok.String), Message: "key '" + tok.String + "' duplicated"}
					if e.opt.OnDuplicate == DupError {
						return Token{}, IssueError{si}
					}
					if e.opt.OnWarning != nil {
						e.opt.OnWarning(si)
					}
				}
				top.keys[tok.String] = struct{}{}
			}
			top.key = tok.String
		}
	default:
		e.childPath()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.inner.Location(); off >= 0 && off > e.opt.MaxBytes {
			return Token{}, IssueError{SimpleIssue{Code: "truncated", Path: "/", Message: "max bytes exceeded"}}
		}
	}
	return tok, nil
}

// childPath returns the pointer of the value that starts with the current
// token and advances the array index of the enclosing frame.
func (e *enforcer) childPath() string {
	n := len(e.stack)
	if n == 0 {
		return ""
	}
	top := &e.stack[n-1]
	if top.array {
		p := JoinPointer(top.path, strconv.Itoa(top.index))
		top.index++
		return p
	}
	return JoinPointer(top.path, top.key)
}

func (e *enforcer) Location() int64 { return e.inner.Location() }

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

// JoinPointer appends one RFC 6901 reference token to a JSON Pointer.
func JoinPointer(base, token string) string {
	return base + "/" + pointerEscaper.Replace(token)
}

func rootIfEmpty(p string) string {
	if p == "" {
		return "/"
	}
	return p
}
