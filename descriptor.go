package skemajson

import (
	"reflect"
	"strconv"
)

// TypeDescriptor is the cached serialization schema of one described type:
// its policies and its ordered field adapters. Descriptors are immutable once
// published by a Registry.
type TypeDescriptor struct {
	typ    reflect.Type
	opts   TypeOptions
	fields []*FieldAdapter
	byName map[string]*FieldAdapter
}

// Type returns the described type: a struct type, or an interface type
// declared as a dynamic base.
func (d *TypeDescriptor) Type() reflect.Type { return d.typ }

// Dynamic reports whether instances carry the "class" tag.
func (d *TypeDescriptor) Dynamic() bool { return d.opts.Dynamic }

// FullyQualifiedTag reports whether tags use the qualified type name.
func (d *TypeDescriptor) FullyQualifiedTag() bool { return d.opts.FullyQualifiedTag }

// WriteNulls reports whether nil fields are written as null.
func (d *TypeDescriptor) WriteNulls() bool { return d.opts.WriteNulls }

// EncodeFloatingPoint reports whether floats are written bit-encoded.
func (d *TypeDescriptor) EncodeFloatingPoint() bool { return d.opts.EncodeFloatingPoint }

// Alias is the explicit tag alias, if any.
func (d *TypeDescriptor) Alias() string { return d.opts.Alias }

// Abstract reports whether the descriptor stands for an interface base that
// is only ever instantiated through one of its subtypes.
func (d *TypeDescriptor) Abstract() bool { return d.typ.Kind() == reflect.Interface }

// Fields returns the field adapters in declaration order, own fields first,
// then fields of embedded Serializable structs.
func (d *TypeDescriptor) Fields() []*FieldAdapter {
	return append([]*FieldAdapter(nil), d.fields...)
}

// Field looks up an adapter by external name.
func (d *TypeDescriptor) Field(name string) (*FieldAdapter, bool) {
	f, ok := d.byName[name]
	return f, ok
}

func (d *TypeDescriptor) addField(f *FieldAdapter) bool {
	if _, dup := d.byName[f.name]; dup {
		return false
	}
	if d.byName == nil {
		d.byName = make(map[string]*FieldAdapter)
	}
	d.byName[f.name] = f
	d.fields = append(d.fields, f)
	return true
}

// FieldKind classifies how a field is written.
type FieldKind int

const (
	FieldScalar   FieldKind = iota // primitives, strings, time, []byte and described objects
	FieldSequence                  // slices and arrays, written as JSON arrays
	FieldMap                       // maps and *OrderedMap, written as key/value entry arrays
)

func (k FieldKind) String() string {
	switch k {
	case FieldSequence:
		return "sequence"
	case FieldMap:
		return "map"
	default:
		return "scalar"
	}
}

// MapShape selects the container built when a map field is read.
type MapShape int

const (
	MapBuiltin MapShape = iota // map[K]V, unordered
	MapOrdered                 // *OrderedMap[K, V], insertion ordered
)

// FieldAdapter is the per-field metadata and bound container codec.
type FieldAdapter struct {
	name   string
	goName string
	index  []int
	typ    reflect.Type
	kind   FieldKind

	seq *sequenceCodec
	mp  *mapCodec

	createIfAbsent bool
	writeIfDefault bool
	defLit         string
	def            reflect.Value // declared default of primitive scalars
}

// ExternalName is the member name used on the wire.
func (f *FieldAdapter) ExternalName() string { return f.name }

// GoName is the struct field name.
func (f *FieldAdapter) GoName() string { return f.goName }

// Type is the declared (static) Go type of the field.
func (f *FieldAdapter) Type() reflect.Type { return f.typ }

// Kind reports how the field is written.
func (f *FieldAdapter) Kind() FieldKind { return f.kind }

// CreateIfAbsent reports whether an absent or null member yields a default
// instance on read.
func (f *FieldAdapter) CreateIfAbsent() bool { return f.createIfAbsent }

// WriteIfDefault reports whether the field is written when it holds its
// default; false for omitdefault fields.
func (f *FieldAdapter) WriteIfDefault() bool { return f.writeIfDefault }

// Default returns the declared default literal ("" when none was declared).
func (f *FieldAdapter) Default() string { return f.defLit }

// ElemType is the declared element type of sequence fields.
func (f *FieldAdapter) ElemType() reflect.Type {
	if f.seq == nil {
		return nil
	}
	return f.seq.elem
}

// KeyType is the declared key type of map fields.
func (f *FieldAdapter) KeyType() reflect.Type {
	if f.mp == nil {
		return nil
	}
	return f.mp.key
}

// ValueType is the declared value type of map fields.
func (f *FieldAdapter) ValueType() reflect.Type {
	if f.mp == nil {
		return nil
	}
	return f.mp.value
}

// MapShape is the container built when a map field is read; MapBuiltin for
// non-map fields.
func (f *FieldAdapter) MapShape() MapShape {
	if f.mp == nil {
		return MapBuiltin
	}
	return f.mp.shape
}

// hasDeclaredDefault reports whether a default= literal applies on read.
func (f *FieldAdapter) hasDeclaredDefault() bool { return f.defLit != "" && f.def.IsValid() }

// isDefault reports whether v equals the field's default; only primitive
// scalars have one.
func (f *FieldAdapter) isDefault(v reflect.Value) bool {
	if !f.def.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool() == f.def.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == f.def.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == f.def.Uint()
	case reflect.Float32, reflect.Float64:
		return v.Float() == f.def.Float()
	case reflect.String:
		return v.String() == f.def.String()
	}
	return false
}

func isPrimitive(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// parseDefault converts a default literal into a value of type t. An empty
// literal yields the zero value.
func parseDefault(t reflect.Type, lit string) (reflect.Value, error) {
	v := reflect.New(t).Elem()
	if lit == "" {
		return v, nil
	}
	switch t.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(lit)
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(lit, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(lit, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetUint(u)
	case reflect.Float32, reflect.Float64:
		fl, err := strconv.ParseFloat(lit, t.Bits())
		if err != nil {
			return reflect.Value{}, err
		}
		v.SetFloat(fl)
	case reflect.String:
		v.SetString(lit)
	}
	return v, nil
}
