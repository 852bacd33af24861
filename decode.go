package skemajson

import (
	"encoding/base64"
	"reflect"
	"strconv"

	"github.com/reoring/skemajson/codec"
	"github.com/reoring/skemajson/jsontree"
)

// decodeValue reads n into target, a settable value of the declared type.
// Null and absent values reset target to its zero value.
func (st *decodeState) decodeValue(n *jsontree.Node, target reflect.Value, fp bool, path string) error {
	t := target.Type()
	if n.IsNull() {
		target.SetZero()
		return nil
	}
	switch {
	case t == timeType:
		if n.Kind() != jsontree.KindString {
			return mismatch(path, t, n)
		}
		tm, err := codec.ParseTime(n.Text())
		if err != nil {
			return newError(CodeInvalidType, path, t, err, "")
		}
		target.Set(reflect.ValueOf(tm))
		return nil
	case isOrderedMapType(t):
		k, v := orderedTypesOf(t)
		m, _, err := (&mapCodec{key: k, value: v, shape: MapOrdered}).read(st, n, t, fp, path)
		if err != nil {
			return err
		}
		target.Set(m)
		return nil
	}

	switch t.Kind() {
	case reflect.Interface, reflect.Struct:
		v, err := st.decodeObject(n, t, path)
		if err != nil {
			return err
		}
		target.Set(v)
		return nil
	case reflect.Pointer:
		if e := t.Elem(); e.Kind() == reflect.Struct && e != timeType {
			v, err := st.decodeObject(n, t, path)
			if err != nil {
				return err
			}
			target.Set(v)
			return nil
		}
		p := reflect.New(t.Elem())
		if err := st.decodeValue(n, p.Elem(), fp, path); err != nil {
			return err
		}
		target.Set(p)
		return nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 && n.Kind() == jsontree.KindString {
			b, err := base64.StdEncoding.DecodeString(n.Text())
			if err != nil {
				return newError(CodeInvalidType, path, t, err, "bad base64")
			}
			target.SetBytes(b)
			return nil
		}
		fallthrough
	case reflect.Array:
		v, _, err := (&sequenceCodec{elem: t.Elem()}).read(st, n, t, fp, path)
		if err != nil {
			return err
		}
		target.Set(v)
		return nil
	case reflect.Map:
		v, _, err := (&mapCodec{key: t.Key(), value: t.Elem(), shape: MapBuiltin}).read(st, n, t, fp, path)
		if err != nil {
			return err
		}
		target.Set(v)
		return nil
	}
	return decodeScalar(n, target, path)
}

// decodeObject reads one described instance of static. Dynamic types are
// re-routed to the descriptor of the type named by the "class" tag.
func (st *decodeState) decodeObject(n *jsontree.Node, static reflect.Type, path string) (reflect.Value, error) {
	if n.Kind() != jsontree.KindObject {
		return reflect.Value{}, mismatch(path, static, n)
	}
	sdesc, err := st.reg.Describe(static)
	if err != nil {
		return reflect.Value{}, withPath(err, path)
	}
	form := static
	if sdesc.opts.Dynamic {
		tn := n.Get(classKey)
		switch {
		case tn.Kind() == jsontree.KindString:
			if form, err = st.resolve(sdesc, static, tn.Text(), path); err != nil {
				return reflect.Value{}, err
			}
		case sdesc.Abstract():
			return reflect.Value{}, newError(CodeTypeResolution, path, static, nil, "missing %q tag", classKey)
		}
	}
	desc, err := st.reg.Describe(form)
	if err != nil {
		return reflect.Value{}, withPath(err, path)
	}

	ptr := reflect.New(desc.typ)
	if in, ok := ptr.Interface().(Initializer); ok {
		in.InitDefaults()
	}
	sv := ptr.Elem()
	for _, f := range desc.fields {
		if err := st.decodeField(desc, f, n, sv, path); err != nil {
			return reflect.Value{}, err
		}
	}
	if h, ok := ptr.Interface().(ReadHook); ok {
		if err := h.AfterRead(st.ctx); err != nil {
			return reflect.Value{}, err
		}
	}
	if form.Kind() == reflect.Pointer {
		return ptr, nil
	}
	return sv, nil
}

// resolve maps a written tag to the concrete form to instantiate. Aliases are
// tried first unless the base asks for fully-qualified tags; qualified names
// of described types always resolve.
func (st *decodeState) resolve(sdesc *TypeDescriptor, static reflect.Type, tag, path string) (reflect.Type, error) {
	var (
		rt reflect.Type
		ok bool
	)
	if !sdesc.opts.FullyQualifiedTag {
		rt, ok = st.reg.resolver.Resolve(tag)
	}
	if !ok {
		rt, ok = st.reg.ResolveQualified(tag)
	}
	if !ok {
		return nil, newError(CodeTypeResolution, path, static, nil, "unregistered tag %q", tag)
	}
	if !sdesc.Abstract() {
		if baseType(rt) != sdesc.typ {
			return nil, newError(CodeTypeResolution, path, static, nil, "%s is not assignable from %q", static, tag)
		}
		return static, nil
	}
	iface := sdesc.typ
	switch {
	case rt.Implements(iface):
		return rt, nil
	case rt.Kind() != reflect.Pointer && reflect.PointerTo(rt).Implements(iface):
		return reflect.PointerTo(rt), nil
	case rt.Kind() == reflect.Pointer && rt.Elem().Implements(iface):
		return rt.Elem(), nil
	}
	return nil, newError(CodeTypeResolution, path, static, nil, "%s is not assignable from %q", static, tag)
}

// decodeField applies one adapter. Absent and null members leave the field
// alone unless createIfAbsent or a declared default applies.
func (st *decodeState) decodeField(desc *TypeDescriptor, f *FieldAdapter, obj *jsontree.Node, sv reflect.Value, path string) error {
	p := fieldPath(path, f.name)
	m := obj.Get(f.name)
	if m != nil {
		st.mark(p, PresenceSeen)
		if m.IsNull() {
			st.mark(p, PresenceWasNull)
		}
	}
	fv := fieldByIndex(sv, f.index)
	fp := desc.opts.EncodeFloatingPoint

	switch f.kind {
	case FieldSequence:
		v, ok, err := f.seq.read(st, m, f.typ, fp, p)
		if err != nil || !ok {
			return err
		}
		fv.Set(v)
		return nil
	case FieldMap:
		v, ok, err := f.mp.read(st, m, f.typ, fp, p)
		if err != nil || !ok {
			return err
		}
		fv.Set(v)
		return nil
	}

	if !m.IsNull() {
		return st.decodeValue(m, fv, fp, p)
	}
	if desc.opts.WriteNulls {
		// null is a recorded value; the field keeps what the constructor set
		return nil
	}
	switch {
	case f.createIfAbsent && st.isDescribedStruct(f.typ):
		v := st.newDefault(f.typ)
		fv.Set(v)
		st.mark(p, PresenceDefaultApplied)
	case f.hasDeclaredDefault():
		fv.Set(f.def)
		st.mark(p, PresenceDefaultApplied)
	}
	return nil
}

func (st *decodeState) isDescribedStruct(t reflect.Type) bool {
	b := baseType(t)
	return b.Kind() == reflect.Struct && b != timeType && st.reg.IsDescribed(b)
}

// newDefault allocates a default instance of a described struct type.
func (st *decodeState) newDefault(t reflect.Type) reflect.Value {
	ptr := reflect.New(baseType(t))
	if in, ok := ptr.Interface().(Initializer); ok {
		in.InitDefaults()
	}
	if t.Kind() == reflect.Pointer {
		return ptr
	}
	return ptr.Elem()
}

func decodeScalar(n *jsontree.Node, target reflect.Value, path string) error {
	t := target.Type()
	switch t.Kind() {
	case reflect.Bool:
		if n.Kind() != jsontree.KindBool {
			return mismatch(path, t, n)
		}
		target.SetBool(n.BoolValue())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n.Kind() != jsontree.KindNumber {
			return mismatch(path, t, n)
		}
		i, err := strconv.ParseInt(n.Text(), 10, t.Bits())
		if err != nil {
			return newError(CodeNumericDecode, path, t, err, "")
		}
		target.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if n.Kind() != jsontree.KindNumber {
			return mismatch(path, t, n)
		}
		u, err := strconv.ParseUint(n.Text(), 10, t.Bits())
		if err != nil {
			return newError(CodeNumericDecode, path, t, err, "")
		}
		target.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := decodeFloat(n, t, path)
		if err != nil {
			return err
		}
		target.SetFloat(f)
	case reflect.String:
		if n.Kind() != jsontree.KindString {
			return mismatch(path, t, n)
		}
		target.SetString(n.Text())
	default:
		return newError(CodeMissingSchema, path, t, nil, "kind %s cannot be serialized", t.Kind())
	}
	return nil
}

// decodeFloat accepts both encodings whatever the current policy: strings go
// through the bit codec (bit-tagged or bare decimal), numbers are parsed
// directly. Data written before or after the encodefp policy changed reads
// back either way.
func decodeFloat(n *jsontree.Node, t reflect.Type, path string) (float64, error) {
	switch n.Kind() {
	case jsontree.KindString:
		if t.Kind() == reflect.Float32 {
			f, err := codec.DecodeFloatBits(n.Text())
			if err != nil {
				return 0, newError(CodeNumericDecode, path, t, err, "")
			}
			return float64(f), nil
		}
		d, err := codec.DecodeDoubleBits(n.Text())
		if err != nil {
			return 0, newError(CodeNumericDecode, path, t, err, "")
		}
		return d, nil
	case jsontree.KindNumber:
		f, err := strconv.ParseFloat(n.Text(), t.Bits())
		if err != nil {
			return 0, newError(CodeNumericDecode, path, t, err, "")
		}
		return f, nil
	}
	return 0, mismatch(path, t, n)
}

func mismatch(path string, t reflect.Type, n *jsontree.Node) error {
	return newError(CodeInvalidType, path, t, nil, "got %s", n.Kind())
}
