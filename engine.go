package skemajson

import (
	"context"
	"reflect"
	"strconv"

	eng "github.com/reoring/skemajson/internal/engine"
	"github.com/reoring/skemajson/jsontree"
)

// classKey is the reserved member carrying the type tag of dynamic objects.
const classKey = "class"

// Engine converts described object graphs to and from JSON value trees. An
// Engine is safe for concurrent use once the types it handles are described;
// each call works on its own state.
type Engine struct {
	reg *Registry
}

// NewEngine binds an Engine to r (the default registry when nil).
func NewEngine(r *Registry) *Engine {
	if r == nil {
		r = DefaultRegistry()
	}
	return &Engine{reg: r}
}

func (e *Engine) Registry() *Registry { return e.reg }

// Encode writes v using its own type as the static type.
func (e *Engine) Encode(ctx context.Context, v any) (*jsontree.Node, error) {
	if v == nil {
		return jsontree.Null(), nil
	}
	return e.EncodeAs(ctx, v, reflect.TypeOf(v))
}

// EncodeAs writes v as a value of static. When static is a dynamic base the
// concrete type of v is tagged.
func (e *Engine) EncodeAs(ctx context.Context, v any, static reflect.Type) (*jsontree.Node, error) {
	if err := e.reg.Require(static); err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return jsontree.Null(), nil
	}
	if static.Kind() != reflect.Interface && rv.Type() != static {
		return nil, newError(CodeInvalidType, "", rv.Type(), nil, "value is not a %s", static)
	}
	st := &encodeState{ctx: ctx, reg: e.reg}
	return st.encodeValue(rv, static, false, "")
}

// Decode reads n into out, which must be a non-nil pointer.
func (e *Engine) Decode(ctx context.Context, n *jsontree.Node, out any) error {
	_, err := e.decode(ctx, n, out, nil)
	return err
}

// DecodeWithPresence reads n into out and records, per JSON Pointer, whether
// each field was seen, null, or filled from a default.
func (e *Engine) DecodeWithPresence(ctx context.Context, n *jsontree.Node, out any) (PresenceMap, error) {
	pm := PresenceMap{"/": PresenceSeen}
	return e.decode(ctx, n, out, pm)
}

func (e *Engine) decode(ctx context.Context, n *jsontree.Node, out any, pm PresenceMap) (PresenceMap, error) {
	rv := reflect.ValueOf(out)
	if !rv.IsValid() || rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, newError(CodeInvalidType, "", reflect.TypeOf(out), nil, "decode target must be a non-nil pointer")
	}
	target := rv.Elem()
	if err := e.reg.Require(target.Type()); err != nil {
		return nil, err
	}
	st := &decodeState{ctx: ctx, reg: e.reg, presence: pm}
	if err := st.decodeValue(n, target, false, ""); err != nil {
		return pm, err
	}
	return pm, nil
}

type encodeState struct {
	ctx context.Context
	reg *Registry
}

type decodeState struct {
	ctx      context.Context
	reg      *Registry
	presence PresenceMap
}

func (st *decodeState) mark(path string, p Presence) {
	if st.presence != nil {
		st.presence[path] |= p
	}
}

func elemPath(path string, i int) string { return eng.JoinPointer(path, strconv.Itoa(i)) }

func fieldPath(path, name string) string { return eng.JoinPointer(path, name) }
