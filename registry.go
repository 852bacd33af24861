package skemajson

import (
	"log/slog"
	"reflect"
	"sync"
)

// Registry owns the descriptors of every described type and the tag table
// used for dynamic dispatch. Descriptor construction is serialized
// internally; lookups after construction take a read lock only.
type Registry struct {
	mu        sync.RWMutex
	descs     map[reflect.Type]*TypeDescriptor
	declared  map[reflect.Type]TypeOptions
	qualified map[string]reflect.Type
	subtypes  map[reflect.Type][]reflect.Type
	required  map[reflect.Type]struct{}

	buildMu  sync.Mutex
	resolver *Resolver
	log      *slog.Logger
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOpt) *Registry {
	var o RegistryOpt
	if len(opts) > 0 {
		o = opts[len(opts)-1]
	}
	lg := o.Logger
	if lg == nil {
		lg = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		descs:     make(map[reflect.Type]*TypeDescriptor),
		declared:  make(map[reflect.Type]TypeOptions),
		qualified: make(map[string]reflect.Type),
		subtypes:  make(map[reflect.Type][]reflect.Type),
		required:  make(map[reflect.Type]struct{}),
		resolver:  newResolver(),
		log:       lg,
	}
}

var defaultRegistry = NewRegistry()

// DefaultRegistry is the process-wide Registry used by the top-level API.
func DefaultRegistry() *Registry { return defaultRegistry }

// Resolver exposes the tag table.
func (r *Registry) Resolver() *Resolver { return r.resolver }

// Declare attaches type options to a type that cannot embed Serializable:
// interface types used as dynamic bases (always dynamic) and foreign structs.
// Declarations must precede the first Describe of the type.
func (r *Registry) Declare(t reflect.Type, o TypeOptions) error {
	if t == nil {
		return newError(CodeInvalidType, "", nil, nil, "nil type")
	}
	key := baseType(t)
	switch key.Kind() {
	case reflect.Interface:
		o.Dynamic = true
	case reflect.Struct:
	default:
		return newError(CodeInvalidType, "", t, nil, "only struct and interface types can be declared")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, done := r.descs[key]; done {
		return newError(CodeInvalidType, "", t, nil, "type already described")
	}
	r.declared[key] = o
	return nil
}

// Describe returns the descriptor of t, building it and every type it
// references on first use. Pointer types describe their element.
func (r *Registry) Describe(t reflect.Type) (*TypeDescriptor, error) {
	if t == nil {
		return nil, newError(CodeMissingSchema, "", nil, nil, "nil type")
	}
	if d := r.lookup(baseType(t)); d != nil {
		return d, nil
	}
	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	if d := r.lookup(baseType(t)); d != nil {
		return d, nil
	}
	b := newBuilder(r)
	d, err := b.describe(t)
	if err != nil {
		r.log.Debug("describe failed", "type", t.String(), "err", err)
		return nil, err
	}
	if err := r.publish(b); err != nil {
		return nil, err
	}
	return d, nil
}

// Require describes every described type reachable from t, which may be any
// supported value type (slices, maps, pointers, scalars).
func (r *Registry) Require(t reflect.Type) error {
	if t == nil {
		return newError(CodeMissingSchema, "", nil, nil, "nil type")
	}
	r.mu.RLock()
	_, done := r.required[t]
	r.mu.RUnlock()
	if done {
		return nil
	}
	r.buildMu.Lock()
	defer r.buildMu.Unlock()
	b := newBuilder(r)
	if err := b.require(t); err != nil {
		return err
	}
	if err := r.publish(b); err != nil {
		return err
	}
	r.mu.Lock()
	r.required[t] = struct{}{}
	r.mu.Unlock()
	return nil
}

// IsDescribed reports whether t carries a declaration (marker or Declare).
func (r *Registry) IsDescribed(t reflect.Type) bool {
	_, ok := r.optionsFor(baseType(t))
	return ok
}

// Register describes T and, for dynamic types, records its tag with the
// form (value or pointer) T names.
func Register[T any](r *Registry) (*TypeDescriptor, error) {
	return r.Describe(reflect.TypeFor[T]())
}

// RegisterTag binds an explicit alias to t before or after t is described.
func (r *Registry) RegisterTag(alias string, t reflect.Type) error {
	if err := r.resolver.RegisterTag(alias, t); err != nil {
		return err
	}
	r.log.Debug("tag registered", "tag", alias, "type", t.String())
	return nil
}

// RegisterSubtypes describes each type and makes it resolvable through the
// dynamic base. Types are registered in the form given: pass &S{} types when
// only *S implements the base interface.
func (r *Registry) RegisterSubtypes(base reflect.Type, types ...reflect.Type) error {
	bd, err := r.Describe(base)
	if err != nil {
		return err
	}
	for _, t := range types {
		if !isSubtype(bd.typ, t) {
			return newError(CodeTypeResolution, "", t, nil, "%s is not a subtype of %s", t, bd.typ)
		}
		d, err := r.Describe(t)
		if err != nil {
			return err
		}
		if err := checkReservedField(d); err != nil {
			return err
		}
		if !d.opts.FullyQualifiedTag {
			if err := r.RegisterTag(tagAlias(d), t); err != nil {
				return err
			}
		}
		r.mu.Lock()
		if !containsType(r.subtypes[bd.typ], t) {
			r.subtypes[bd.typ] = append(r.subtypes[bd.typ], t)
		}
		r.mu.Unlock()
	}
	return nil
}

// Subtypes lists the types registered for base through RegisterSubtypes.
func (r *Registry) Subtypes(base reflect.Type) []reflect.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]reflect.Type(nil), r.subtypes[baseType(base)]...)
}

// ResolveQualified resolves a fully-qualified type name among described types.
func (r *Registry) ResolveQualified(name string) (reflect.Type, bool) {
	r.mu.RLock()
	t, ok := r.qualified[name]
	r.mu.RUnlock()
	return t, ok
}

func (r *Registry) lookup(key reflect.Type) *TypeDescriptor {
	r.mu.RLock()
	d := r.descs[key]
	r.mu.RUnlock()
	return d
}

func (r *Registry) optionsFor(key reflect.Type) (TypeOptions, bool) {
	r.mu.RLock()
	o, ok := r.declared[key]
	r.mu.RUnlock()
	if ok {
		return o, true
	}
	return markerOptions(key)
}

// publish registers the tags of freshly built dynamic types and then makes
// the descriptors visible. Every tag is checked before any is registered, so
// a conflict leaves the resolver and the cache untouched.
func (r *Registry) publish(b *builder) error {
	var tagged []*TypeDescriptor
	batch := make(map[string]reflect.Type)
	for _, d := range b.order {
		if d.Abstract() || !d.opts.Dynamic || d.opts.FullyQualifiedTag {
			continue
		}
		alias := tagAlias(d)
		if prev, ok := batch[alias]; ok {
			return newError(CodeTagConflict, "", d.typ, nil, "tag %q already names %s", alias, prev)
		}
		if err := r.resolver.Check(alias, b.forms[d.typ]); err != nil {
			return err
		}
		batch[alias] = d.typ
		tagged = append(tagged, d)
	}
	for _, d := range tagged {
		if err := r.RegisterTag(tagAlias(d), b.forms[d.typ]); err != nil {
			return err
		}
	}
	r.mu.Lock()
	for _, d := range b.order {
		r.descs[d.typ] = d
		if !d.Abstract() {
			if _, ok := r.qualified[qualifiedName(d.typ)]; !ok {
				r.qualified[qualifiedName(d.typ)] = b.forms[d.typ]
			}
		}
	}
	r.mu.Unlock()
	for _, d := range b.order {
		r.log.Debug("descriptor built", "type", d.typ.String(), "fields", len(d.fields), "dynamic", d.opts.Dynamic)
	}
	return nil
}

// tagAlias is the short wire tag of a concrete type: its explicit alias or
// its Go type name.
func tagAlias(d *TypeDescriptor) string {
	if d.opts.Alias != "" {
		return d.opts.Alias
	}
	return d.typ.Name()
}

// isSubtype reports whether instances of t may stand where base is expected.
func isSubtype(base, t reflect.Type) bool {
	if base.Kind() == reflect.Interface {
		return t.Implements(base)
	}
	return baseType(t) == base
}

func containsType(ts []reflect.Type, t reflect.Type) bool {
	for _, x := range ts {
		if x == t {
			return true
		}
	}
	return false
}
