package skemajson

import (
	"reflect"
	"sort"
	"sync"
)

// Resolver is the append-only tag <-> type table of a Registry. A tag names
// exactly one struct type and a struct type has at most one tag; the pointer
// and value forms of a struct share the same entry.
type Resolver struct {
	mu     sync.RWMutex
	byTag  map[string]reflect.Type
	byType map[reflect.Type]string
}

func newResolver() *Resolver {
	return &Resolver{byTag: make(map[string]reflect.Type), byType: make(map[reflect.Type]string)}
}

// RegisterTag binds alias to t. Registering the same pair again is a no-op;
// binding a tag or a type twice differently returns ErrTagConflict.
func (r *Resolver) RegisterTag(alias string, t reflect.Type) error {
	if alias == "" || t == nil || baseType(t).Kind() != reflect.Struct {
		return newError(CodeTagConflict, "", t, nil, "tags name struct types; got %q", alias)
	}
	key := baseType(t)
	r.mu.Lock()
	defer r.mu.Unlock()
	bound, err := r.check(alias, t)
	if err != nil || bound {
		return err
	}
	r.byTag[alias] = t
	r.byType[key] = alias
	return nil
}

// Check reports the error RegisterTag(alias, t) would return without
// registering anything.
func (r *Resolver) Check(alias string, t reflect.Type) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, err := r.check(alias, t)
	return err
}

// check reports bound=true when the exact pair is already registered.
// Callers hold r.mu.
func (r *Resolver) check(alias string, t reflect.Type) (bound bool, err error) {
	key := baseType(t)
	if prev, ok := r.byTag[alias]; ok {
		if baseType(prev) == key {
			return true, nil
		}
		return false, newError(CodeTagConflict, "", t, nil, "tag %q already names %s", alias, prev)
	}
	if prev, ok := r.byType[key]; ok {
		return false, newError(CodeTagConflict, "", t, nil, "type already tagged %q", prev)
	}
	return false, nil
}

// Resolve returns the type registered under alias, in the form (value or
// pointer) it was registered with.
func (r *Resolver) Resolve(alias string) (reflect.Type, bool) {
	r.mu.RLock()
	t, ok := r.byTag[alias]
	r.mu.RUnlock()
	return t, ok
}

// TagFor returns the alias of t or of its pointer/value counterpart.
func (r *Resolver) TagFor(t reflect.Type) (string, bool) {
	r.mu.RLock()
	s, ok := r.byType[baseType(t)]
	r.mu.RUnlock()
	return s, ok
}

// Tags lists registered aliases in lexical order.
func (r *Resolver) Tags() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.byTag))
	for k := range r.byTag {
		out = append(out, k)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}
