package skemajson

import (
	"reflect"

	"github.com/reoring/skemajson/jsontree"
)

// Member names of one map entry on the wire.
const (
	entryKey   = "key"
	entryValue = "value"
)

// mapCodec writes maps as arrays of {"key": ..., "value": ...} objects so
// keys of any declared type survive, and rebuilds the declared map shape on
// read.
type mapCodec struct {
	key, value reflect.Type
	shape      MapShape
}

func (c *mapCodec) writeField(st *encodeState, v reflect.Value, writeNulls, fp bool, path string) (*jsontree.Node, bool, error) {
	if v.IsNil() {
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

// write iterates in the map's own order: insertion order for ordered maps,
// Go's randomized order for builtin maps.
func (c *mapCodec) write(st *encodeState, v reflect.Value, fp bool, path string) (*jsontree.Node, error) {
	if c.shape == MapOrdered {
		sh := v.Interface().(orderedShape)
		size := sh.orderedLen()
		arr := jsontree.Array(size)
		for i := 0; i < size; i++ {
			k, val := sh.orderedEntry(i)
			e, err := c.writeEntry(st, k, val, fp, elemPath(path, i))
			if err != nil {
				return nil, err
			}
			arr.Append(e)
		}
		return arr, nil
	}
	arr := jsontree.Array(v.Len())
	it := v.MapRange()
	for i := 0; it.Next(); i++ {
		e, err := c.writeEntry(st, it.Key(), it.Value(), fp, elemPath(path, i))
		if err != nil {
			return nil, err
		}
		arr.Append(e)
	}
	return arr, nil
}

func (c *mapCodec) writeEntry(st *encodeState, k, v reflect.Value, fp bool, path string) (*jsontree.Node, error) {
	kn, err := st.encodeValue(k, c.key, fp, fieldPath(path, entryKey))
	if err != nil {
		return nil, err
	}
	vn, err := st.encodeValue(v, c.value, fp, fieldPath(path, entryValue))
	if err != nil {
		return nil, err
	}
	return jsontree.Object(2).Set(entryKey, kn).Set(entryValue, vn), nil
}

// read returns ok=false when the member is absent or null. Entries are
// inserted in document order.
func (c *mapCodec) read(st *decodeState, n *jsontree.Node, t reflect.Type, fp bool, path string) (reflect.Value, bool, error) {
	if n.IsNull() {
		return reflect.Value{}, false, nil
	}
	if n.Kind() != jsontree.KindArray {
		return reflect.Value{}, false, mismatch(path, t, n)
	}
	size := n.Len()
	var (
		out reflect.Value
		put func(k, v reflect.Value)
	)
	if c.shape == MapOrdered {
		out = reflect.New(t.Elem())
		sh := out.Interface().(orderedShape)
		sh.orderedInit(size)
		put = sh.orderedPut
	} else {
		out = reflect.MakeMapWithSize(t, size)
		put = out.SetMapIndex
	}
	for i, e := range n.Elements() {
		p := elemPath(path, i)
		if e.Kind() != jsontree.KindObject {
			return reflect.Value{}, false, mismatch(p, t, e)
		}
		st.mark(p, PresenceSeen)
		k := reflect.New(c.key).Elem()
		if err := st.decodeValue(e.Get(entryKey), k, fp, fieldPath(p, entryKey)); err != nil {
			return reflect.Value{}, false, err
		}
		v := reflect.New(c.value).Elem()
		if err := st.decodeValue(e.Get(entryValue), v, fp, fieldPath(p, entryValue)); err != nil {
			return reflect.Value{}, false, err
		}
		put(k, v)
	}
	return out, true, nil
}
