package skemajson

import (
	"encoding/base64"
	"math"
	"reflect"
	"strconv"
	"time"

	"github.com/reoring/skemajson/codec"
	"github.com/reoring/skemajson/jsontree"
)

// encodeValue writes v as a value of the declared type static. fp selects the
// bit encoding for floats reached from fields of an encodefp type.
func (st *encodeState) encodeValue(v reflect.Value, static reflect.Type, fp bool, path string) (*jsontree.Node, error) {
	switch {
	case static == timeType:
		return jsontree.String(codec.FormatTime(v.Interface().(time.Time))), nil
	case isOrderedMapType(static):
		if v.IsNil() {
			return jsontree.Null(), nil
		}
		k, val := orderedTypesOf(static)
		return (&mapCodec{key: k, value: val, shape: MapOrdered}).write(st, v, fp, path)
	}

	switch static.Kind() {
	case reflect.Interface:
		if v.Kind() == reflect.Interface {
			if v.IsNil() {
				return jsontree.Null(), nil
			}
			v = v.Elem()
		}
		if v.Kind() == reflect.Pointer && v.IsNil() {
			return jsontree.Null(), nil
		}
		return st.encodeObject(v, static, path)
	case reflect.Pointer:
		if v.IsNil() {
			return jsontree.Null(), nil
		}
		if e := static.Elem(); e.Kind() == reflect.Struct && e != timeType {
			return st.encodeObject(v, static, path)
		}
		return st.encodeValue(v.Elem(), static.Elem(), fp, path)
	case reflect.Struct:
		return st.encodeObject(v, static, path)
	case reflect.Slice:
		if v.IsNil() {
			return jsontree.Null(), nil
		}
		if static.Elem().Kind() == reflect.Uint8 {
			return jsontree.String(base64.StdEncoding.EncodeToString(v.Bytes())), nil
		}
		return (&sequenceCodec{elem: static.Elem()}).write(st, v, fp, path)
	case reflect.Array:
		return (&sequenceCodec{elem: static.Elem()}).write(st, v, fp, path)
	case reflect.Map:
		if v.IsNil() {
			return jsontree.Null(), nil
		}
		return (&mapCodec{key: static.Key(), value: static.Elem(), shape: MapBuiltin}).write(st, v, fp, path)
	}
	return encodeScalar(v, fp, path)
}

// encodeObject writes one described instance. v is a struct value or a
// non-nil pointer to one; static is the declared type it was reached through.
func (st *encodeState) encodeObject(v reflect.Value, static reflect.Type, path string) (*jsontree.Node, error) {
	ptr := addressable(v)
	desc, err := st.reg.Describe(ptr.Type())
	if err != nil {
		return nil, withPath(err, path)
	}
	dynamic := desc.opts.Dynamic
	fq := desc.opts.FullyQualifiedTag
	if static != nil && baseType(static) != desc.typ {
		sdesc, err := st.reg.Describe(static)
		if err != nil {
			return nil, withPath(err, path)
		}
		if !isSubtype(sdesc.typ, ptr.Type()) && !isSubtype(sdesc.typ, ptr.Type().Elem()) {
			return nil, newError(CodeTypeResolution, path, ptr.Type(), nil, "not a subtype of %s", sdesc.typ)
		}
		dynamic = dynamic || sdesc.opts.Dynamic
		// readers resolve through the static base, so its tag policy wins
		fq = fq || sdesc.opts.FullyQualifiedTag
	}

	if h, ok := ptr.Interface().(WriteHook); ok {
		if err := h.BeforeWrite(st.ctx); err != nil {
			return nil, err
		}
	}

	obj := jsontree.Object(len(desc.fields) + 1)
	if dynamic {
		if _, clash := desc.byName[classKey]; clash {
			return nil, newError(CodeTagConflict, path, ptr.Type(), nil, "field name %q is reserved for the type tag", classKey)
		}
		obj.Set(classKey, jsontree.String(st.tagFor(fq, ptr.Type())))
	}
	sv := ptr.Elem()
	for _, f := range desc.fields {
		n, ok, err := st.encodeField(desc, f, fieldByIndex(sv, f.index), fieldPath(path, f.name))
		if err != nil {
			return nil, err
		}
		if ok {
			obj.Set(f.name, n)
		}
	}
	return obj, nil
}

// tagFor is the alias of t unless fq is set (by the type or by the base it
// is written through) or t has no alias, in which case the qualified name is
// used.
func (st *encodeState) tagFor(fq bool, t reflect.Type) string {
	if !fq {
		if tag, ok := st.reg.resolver.TagFor(t); ok {
			return tag
		}
	}
	return qualifiedName(t)
}

// encodeField returns ok=false when the field is elided.
func (st *encodeState) encodeField(desc *TypeDescriptor, f *FieldAdapter, fv reflect.Value, path string) (*jsontree.Node, bool, error) {
	fp := desc.opts.EncodeFloatingPoint
	switch f.kind {
	case FieldSequence:
		return f.seq.writeField(st, fv, desc.opts.WriteNulls, fp, path)
	case FieldMap:
		return f.mp.writeField(st, fv, desc.opts.WriteNulls, fp, path)
	}
	if isNilable(fv.Kind()) && fv.IsNil() {
		if desc.opts.WriteNulls {
			return jsontree.Null(), true, nil
		}
		return nil, false, nil
	}
	if !f.writeIfDefault && f.isDefault(fv) {
		return nil, false, nil
	}
	n, err := st.encodeValue(fv, f.typ, fp, path)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// encodeScalar writes primitive kinds. Non-finite floats have no JSON number
// form and are always bit encoded.
func encodeScalar(v reflect.Value, fp bool, path string) (*jsontree.Node, error) {
	switch v.Kind() {
	case reflect.Bool:
		return jsontree.Bool(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return jsontree.Number(strconv.FormatInt(v.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return jsontree.Number(strconv.FormatUint(v.Uint(), 10)), nil
	case reflect.Float32:
		f := v.Float()
		if fp || math.IsNaN(f) || math.IsInf(f, 0) {
			return jsontree.String(codec.EncodeFloatBits(float32(f))), nil
		}
		return jsontree.Number(strconv.FormatFloat(f, 'g', -1, 32)), nil
	case reflect.Float64:
		f := v.Float()
		if fp || math.IsNaN(f) || math.IsInf(f, 0) {
			return jsontree.String(codec.EncodeDoubleBits(f)), nil
		}
		return jsontree.Number(strconv.FormatFloat(f, 'g', -1, 64)), nil
	case reflect.String:
		return jsontree.String(v.String()), nil
	}
	return nil, newError(CodeMissingSchema, path, v.Type(), nil, "kind %s cannot be serialized", v.Kind())
}
