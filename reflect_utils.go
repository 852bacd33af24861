package skemajson

import (
	"reflect"
	"strings"
	"time"
	"unsafe"
)

// ResolveStructKey applies the repository-wide rule to resolve a struct field's
// external key.
// Priority: skema:"name" (or name=...) > json tag name > field name; "-" disables the field.
func ResolveStructKey(sf reflect.StructField) string {
	if st, ok := sf.Tag.Lookup(tagName); ok {
		parts := strings.Split(st, ",")
		if first := strings.TrimSpace(parts[0]); first == "-" {
			return "-"
		} else if first != "" && !strings.Contains(first, "=") && !isFieldOption(first) {
			return first
		}
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if strings.HasPrefix(p, "name=") {
				return strings.TrimPrefix(p, "name=")
			}
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			if jt[:i] != "" {
				return jt[:i]
			}
		} else {
			return jt
		}
	}
	return sf.Name
}

type containerHint int

const (
	hintNone containerHint = iota
	hintSeq
	hintMap
)

// fieldTag is the parsed form of a field's skema tag.
type fieldTag struct {
	name         string
	createIfNull bool
	omitDefault  bool
	def          string
	hasDefault   bool
	hint         containerHint
}

func isFieldOption(s string) bool {
	switch s {
	case "createifnull", "omitdefault", "seq", "map":
		return true
	}
	return false
}

// parseFieldTag returns false for fields that are not declared for
// serialization.
func parseFieldTag(sf reflect.StructField) (fieldTag, bool) {
	raw, ok := sf.Tag.Lookup(tagName)
	if !ok {
		return fieldTag{}, false
	}
	name := ResolveStructKey(sf)
	if name == "-" {
		return fieldTag{}, false
	}
	ft := fieldTag{name: name}
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		switch {
		case p == "createifnull":
			ft.createIfNull = true
		case p == "omitdefault":
			ft.omitDefault = true
		case p == "seq":
			ft.hint = hintSeq
		case p == "map":
			ft.hint = hintMap
		case strings.HasPrefix(p, "default="):
			ft.def = strings.TrimPrefix(p, "default=")
			ft.hasDefault = true
		}
	}
	return ft, true
}

var timeType = reflect.TypeOf(time.Time{})

// baseType strips one level of pointer indirection.
func baseType(t reflect.Type) reflect.Type {
	if t != nil && t.Kind() == reflect.Pointer {
		return t.Elem()
	}
	return t
}

// qualifiedName is the fully-qualified wire tag of a named type.
func qualifiedName(t reflect.Type) string {
	t = baseType(t)
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// fieldByIndex walks an index path from an addressable struct value and
// returns a settable field, including unexported ones.
func fieldByIndex(v reflect.Value, index []int) reflect.Value {
	for _, i := range index {
		f := v.Field(i)
		if !f.CanSet() && f.CanAddr() {
			f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
		}
		v = f
	}
	return v
}

// addressable returns a pointer to v, copying v when it cannot be addressed.
func addressable(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer {
		return v
	}
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

func isNilable(k reflect.Kind) bool {
	switch k {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
		return true
	}
	return false
}
