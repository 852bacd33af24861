package skemajson

import (
	"reflect"
)

// builder constructs descriptors for one Describe call. Descriptors under
// construction live in pending so self-referential types resolve to the same
// (still growing) descriptor instead of recursing forever.
type builder struct {
	r       *Registry
	pending map[reflect.Type]*TypeDescriptor
	forms   map[reflect.Type]reflect.Type
	order   []*TypeDescriptor
}

func newBuilder(r *Registry) *builder {
	return &builder{
		r:       r,
		pending: make(map[reflect.Type]*TypeDescriptor),
		forms:   make(map[reflect.Type]reflect.Type),
	}
}

// describe builds the descriptor of t's base type. form remembers whether the
// type was first met as a value or as a pointer.
func (b *builder) describe(form reflect.Type) (*TypeDescriptor, error) {
	key := baseType(form)
	if d := b.r.lookup(key); d != nil {
		return d, nil
	}
	if d, ok := b.pending[key]; ok {
		return d, nil
	}
	if key.Kind() != reflect.Struct && key.Kind() != reflect.Interface {
		return nil, newError(CodeMissingSchema, "", form, nil, "only struct and interface types can be described")
	}
	opts, ok := b.r.optionsFor(key)
	if !ok {
		if key.Kind() == reflect.Interface {
			return nil, newError(CodeMissingSchema, "", form, nil, "interface is not declared as a dynamic base")
		}
		return nil, newError(CodeMissingSchema, "", form, nil, "type does not embed skemajson.Serializable")
	}
	d := &TypeDescriptor{typ: key, opts: opts}
	b.pending[key] = d
	b.forms[key] = form
	b.order = append(b.order, d)
	if key.Kind() == reflect.Interface {
		return d, nil
	}
	if err := b.collectFields(d, key, nil); err != nil {
		return nil, err
	}
	if opts.Dynamic {
		if err := checkReservedField(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// checkReservedField rejects tagged types declaring a field named like the
// type tag member.
func checkReservedField(d *TypeDescriptor) error {
	if f, clash := d.byName[classKey]; clash {
		return newError(CodeTagConflict, "", d.typ, nil, "field %s: name %q is reserved for the type tag", f.goName, classKey)
	}
	return nil
}

// collectFields adds the declared fields of t, then continues with embedded
// Serializable structs. An embedded struct without a declaration ends the
// walk along that branch.
func (b *builder) collectFields(d *TypeDescriptor, t reflect.Type, prefix []int) error {
	var bases []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == serializableType {
			continue
		}
		tag, declared := parseFieldTag(sf)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct && !declared {
			if _, ok := b.r.optionsFor(sf.Type); ok {
				bases = append(bases, sf)
			}
			continue
		}
		if !declared {
			continue
		}
		f, err := b.newField(d, sf, tag, appendIndex(prefix, i))
		if err != nil {
			return err
		}
		// outer fields shadow embedded ones of the same name
		d.addField(f)
	}
	for _, sf := range bases {
		if err := b.collectFields(d, sf.Type, appendIndex(prefix, sf.Index...)); err != nil {
			return err
		}
	}
	return nil
}

func appendIndex(prefix []int, idx ...int) []int {
	out := make([]int, 0, len(prefix)+len(idx))
	out = append(out, prefix...)
	return append(out, idx...)
}

func (b *builder) newField(d *TypeDescriptor, sf reflect.StructField, tag fieldTag, index []int) (*FieldAdapter, error) {
	t := sf.Type
	f := &FieldAdapter{
		name:           tag.name,
		goName:         sf.Name,
		index:          index,
		typ:            t,
		createIfAbsent: tag.createIfNull,
		writeIfDefault: !tag.omitDefault,
		defLit:         tag.def,
	}
	shapeErr := func(format string, args ...any) error {
		return newError(CodeContainerShape, "", d.typ, nil, "field "+sf.Name+": "+format, args...)
	}

	switch {
	case isOrderedMapValueType(t):
		return nil, shapeErr("ordered maps must be held by pointer")
	case isOrderedMapType(t):
		k, v := orderedTypesOf(t)
		f.kind, f.mp = FieldMap, &mapCodec{key: k, value: v, shape: MapOrdered}
	case t.Kind() == reflect.Map:
		f.kind, f.mp = FieldMap, &mapCodec{key: t.Key(), value: t.Elem(), shape: MapBuiltin}
	case t.Kind() == reflect.Array,
		t.Kind() == reflect.Slice && (t.Elem().Kind() != reflect.Uint8 || tag.hint == hintSeq):
		f.kind, f.seq = FieldSequence, &sequenceCodec{elem: t.Elem()}
	}
	switch {
	case tag.hint == hintSeq && f.kind != FieldSequence:
		return nil, shapeErr("declared seq but %s is not a slice or array", t)
	case tag.hint == hintMap && f.kind != FieldMap:
		return nil, shapeErr("declared map but %s is not a map or *OrderedMap", t)
	}

	if isPrimitive(t.Kind()) {
		def, err := parseDefault(t, tag.def)
		if err != nil {
			return nil, newError(CodeInvalidType, "", d.typ, err, "field %s: bad default %q", sf.Name, tag.def)
		}
		f.def = def
	} else if tag.hasDefault {
		return nil, newError(CodeInvalidType, "", d.typ, nil, "field %s: default= applies to primitive fields only", sf.Name)
	}

	switch f.kind {
	case FieldSequence:
		if err := b.require(f.seq.elem); err != nil {
			return nil, err
		}
	case FieldMap:
		if err := b.require(f.mp.key); err != nil {
			return nil, err
		}
		if err := b.require(f.mp.value); err != nil {
			return nil, err
		}
	default:
		if err := b.require(t); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// require checks that values of t can be written and describes every
// struct or interface type it reaches.
func (b *builder) require(t reflect.Type) error {
	switch {
	case t == timeType:
		return nil
	case isOrderedMapValueType(t):
		return newError(CodeContainerShape, "", t, nil, "ordered maps must be held by pointer")
	case isOrderedMapType(t):
		k, v := orderedTypesOf(t)
		if err := b.require(k); err != nil {
			return err
		}
		return b.require(v)
	}
	switch t.Kind() {
	case reflect.Pointer:
		if t.Elem().Kind() == reflect.Pointer {
			return newError(CodeMissingSchema, "", t, nil, "pointers to pointers are not supported")
		}
		if e := t.Elem(); e.Kind() == reflect.Struct && e != timeType {
			_, err := b.describe(t)
			return err
		}
		return b.require(t.Elem())
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		return b.require(t.Elem())
	case reflect.Array:
		return b.require(t.Elem())
	case reflect.Map:
		if err := b.require(t.Key()); err != nil {
			return err
		}
		return b.require(t.Elem())
	case reflect.Struct, reflect.Interface:
		_, err := b.describe(t)
		return err
	}
	if isPrimitive(t.Kind()) {
		return nil
	}
	return newError(CodeMissingSchema, "", t, nil, "kind %s cannot be serialized", t.Kind())
}

func orderedTypesOf(t reflect.Type) (key, value reflect.Type) {
	return reflect.Zero(t).Interface().(orderedShape).orderedTypes()
}
