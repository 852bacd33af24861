package skemajson

import (
	"reflect"

	"github.com/reoring/skemajson/jsontree"
)

// sequenceCodec writes and reads slices and arrays of a declared element
// type. Elements are written with the declared type as the static type, so
// only dynamic element types carry tags.
type sequenceCodec struct {
	elem reflect.Type
}

// writeField applies the field rules: a nil slice is omitted, or written as
// null under writeNulls; an empty one is written as [].
func (c *sequenceCodec) writeField(st *encodeState, v reflect.Value, writeNulls, fp bool, path string) (*jsontree.Node, bool, error) {
	if v.Kind() == reflect.Slice && v.IsNil() {
		if writeNulls {
			return jsontree.Null(), true, nil
		}
		return nil, false, nil
	}
	n, err := c.write(st, v, fp, path)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

func (c *sequenceCodec) write(st *encodeState, v reflect.Value, fp bool, path string) (*jsontree.Node, error) {
	size := v.Len()
	arr := jsontree.Array(size)
	for i := 0; i < size; i++ {
		en, err := st.encodeValue(v.Index(i), c.elem, fp, elemPath(path, i))
		if err != nil {
			return nil, err
		}
		arr.Append(en)
	}
	return arr, nil
}

// read returns ok=false when the member is absent or null, so callers can
// tell an omitted field from an empty one. Backing storage is sized from the
// element count before any element is decoded.
func (c *sequenceCodec) read(st *decodeState, n *jsontree.Node, t reflect.Type, fp bool, path string) (reflect.Value, bool, error) {
	if n.IsNull() {
		return reflect.Value{}, false, nil
	}
	if n.Kind() != jsontree.KindArray {
		return reflect.Value{}, false, mismatch(path, t, n)
	}
	size := n.Len()
	var out reflect.Value
	if t.Kind() == reflect.Array {
		if size > t.Len() {
			return reflect.Value{}, false, newError(CodeInvalidType, path, t, nil, "%d elements for a %d-element array", size, t.Len())
		}
		out = reflect.New(t).Elem()
	} else {
		out = reflect.MakeSlice(t, size, size)
	}
	for i, e := range n.Elements() {
		p := elemPath(path, i)
		st.mark(p, PresenceSeen)
		if err := st.decodeValue(e, out.Index(i), fp, p); err != nil {
			return reflect.Value{}, false, err
		}
	}
	return out, true, nil
}
