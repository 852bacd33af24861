package skemajson

import (
	"reflect"
	"strings"

	js "github.com/reoring/skemajson/jsonschema"
)

// bitsPattern is the wire pattern of bit-encoded floats.
const bitsPattern = `^0x[0-9A-Fa-f]+\|(-?[0-9.]+([eE][+-][0-9]+)?|[+-]?Inf|NaN)$`

// JSONSchema projects the wire shape of t into a JSON Schema document.
// Described types become $defs entries, maps become arrays of key/value
// objects and dynamic types require the "class" tag. Interface bases list the
// subtypes registered through RegisterSubtypes.
func (r *Registry) JSONSchema(t reflect.Type) (*js.Schema, error) {
	if err := r.Require(t); err != nil {
		return nil, err
	}
	x := &schemaExporter{r: r, defs: make(map[string]*js.Schema), names: make(map[reflect.Type]string)}
	root, err := x.value(t, false)
	if err != nil {
		return nil, err
	}
	root.Dialect = js.Draft
	if len(x.defs) > 0 {
		root.Defs = x.defs
	}
	return root, nil
}

type schemaExporter struct {
	r     *Registry
	defs  map[string]*js.Schema
	names map[reflect.Type]string
	taken map[string]reflect.Type
}

func (x *schemaExporter) value(t reflect.Type, fp bool) (*js.Schema, error) {
	switch {
	case t == timeType:
		return &js.Schema{Type: "string", Format: "date-time"}, nil
	case isOrderedMapType(t):
		k, v := orderedTypesOf(t)
		return x.entries(k, v, fp)
	}
	switch t.Kind() {
	case reflect.Pointer:
		if e := t.Elem(); e.Kind() == reflect.Struct {
			return x.ref(e)
		}
		return x.value(t.Elem(), fp)
	case reflect.Struct, reflect.Interface:
		return x.ref(t)
	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8 {
			return &js.Schema{Type: "string", Format: "byte"}, nil
		}
		items, err := x.value(t.Elem(), fp)
		if err != nil {
			return nil, err
		}
		s := &js.Schema{Type: "array", Items: items}
		if t.Kind() == reflect.Array {
			n := t.Len()
			s.MaxItems = &n
		}
		return s, nil
	case reflect.Map:
		return x.entries(t.Key(), t.Elem(), fp)
	case reflect.Bool:
		return &js.Schema{Type: "boolean"}, nil
	case reflect.String:
		return &js.Schema{Type: "string"}, nil
	case reflect.Float32, reflect.Float64:
		if fp {
			return &js.Schema{Type: "string", Pattern: bitsPattern}, nil
		}
		return &js.Schema{Type: "number"}, nil
	}
	if isPrimitive(t.Kind()) {
		return &js.Schema{Type: "integer"}, nil
	}
	return nil, newError(CodeMissingSchema, "", t, nil, "kind %s cannot be serialized", t.Kind())
}

func (x *schemaExporter) entries(k, v reflect.Type, fp bool) (*js.Schema, error) {
	ks, err := x.value(k, fp)
	if err != nil {
		return nil, err
	}
	vs, err := x.value(v, fp)
	if err != nil {
		return nil, err
	}
	entry := &js.Schema{
		Type:       "object",
		Properties: map[string]*js.Schema{entryKey: ks, entryValue: vs},
		Required:   []string{entryKey, entryValue},
	}
	return &js.Schema{Type: "array", Items: entry}, nil
}

// ref emits (once) the definition of a described type and returns a
// reference to it.
func (x *schemaExporter) ref(t reflect.Type) (*js.Schema, error) {
	if name, ok := x.names[t]; ok {
		return js.RefTo(name), nil
	}
	d, err := x.r.Describe(t)
	if err != nil {
		return nil, err
	}
	name := x.defName(t)
	def := &js.Schema{Title: t.String()}
	x.defs[name] = def

	if d.Abstract() {
		for _, st := range x.r.Subtypes(t) {
			s, err := x.ref(baseType(st))
			if err != nil {
				return nil, err
			}
			def.OneOf = append(def.OneOf, s)
		}
		if len(def.OneOf) == 0 {
			def.Type = "object"
			def.Required = []string{classKey}
		}
		return js.RefTo(name), nil
	}

	def.Type = "object"
	def.Properties = make(map[string]*js.Schema, len(d.fields)+1)
	sub, baseFQ := x.baseOf(t)
	if d.opts.Dynamic || sub {
		tag := qualifiedName(t)
		if !d.opts.FullyQualifiedTag && !baseFQ {
			if alias, ok := x.r.resolver.TagFor(t); ok {
				tag = alias
			}
		}
		def.Properties[classKey] = &js.Schema{Type: "string", Const: tag}
		def.Required = []string{classKey}
	}
	for _, f := range d.fields {
		var (
			s   *js.Schema
			err error
		)
		switch f.kind {
		case FieldSequence:
			var items *js.Schema
			if items, err = x.value(f.seq.elem, d.opts.EncodeFloatingPoint); err == nil {
				s = &js.Schema{Type: "array", Items: items}
			}
		case FieldMap:
			s, err = x.entries(f.mp.key, f.mp.value, d.opts.EncodeFloatingPoint)
		default:
			s, err = x.value(f.typ, d.opts.EncodeFloatingPoint)
		}
		if err != nil {
			return nil, err
		}
		if f.hasDeclaredDefault() && s.Ref == "" {
			s.Default = f.def.Interface()
		}
		def.Properties[f.name] = s
	}
	return js.RefTo(name), nil
}

// baseOf reports whether t is a registered subtype of some base and whether
// any such base asks for fully-qualified tags.
func (x *schemaExporter) baseOf(t reflect.Type) (sub, fq bool) {
	x.r.mu.RLock()
	defer x.r.mu.RUnlock()
	for base, subs := range x.r.subtypes {
		for _, s := range subs {
			if baseType(s) == t {
				sub = true
				if d := x.r.descs[base]; d != nil && d.opts.FullyQualifiedTag {
					fq = true
				}
			}
		}
	}
	return sub, fq
}

// defName is the short type name, qualified only when two described types
// share it.
func (x *schemaExporter) defName(t reflect.Type) string {
	if x.taken == nil {
		x.taken = make(map[string]reflect.Type)
	}
	name := t.Name()
	if prev, ok := x.taken[name]; ok && prev != t {
		name = strings.ReplaceAll(qualifiedName(t), "/", ".")
	}
	x.taken[name] = t
	x.names[t] = name
	return name
}
