package skemajson

import (
	"context"
	"reflect"
	"strings"
)

// Serializable marks a struct type as described. Embed it (by value) and put
// type options in its tag:
//
//	type Shape struct {
//	    skemajson.Serializable `skema:"dynamic,encodefp"`
//	    X float32 `skema:"x"`
//	}
//
// Recognized options: dynamic, fqtag, writenull, encodefp and alias=<tag>.
type Serializable struct{}

// TypeOptions are the type-level policies of a described type.
type TypeOptions struct {
	// Dynamic instances carry a "class" tag naming their concrete type.
	Dynamic bool
	// FullyQualifiedTag uses "<import path>.<Name>" as the tag instead of an alias.
	FullyQualifiedTag bool
	// WriteNulls emits null for absent values instead of omitting them.
	WriteNulls bool
	// EncodeFloatingPoint writes float fields as "0x<bits>|<decimal>" strings.
	EncodeFloatingPoint bool
	// Alias overrides the default tag (the Go type name) of dynamic types.
	Alias string
}

// WriteHook is invoked on an instance right before its fields are written.
type WriteHook interface {
	BeforeWrite(ctx context.Context) error
}

// ReadHook is invoked on an instance after all of its fields were read.
type ReadHook interface {
	AfterRead(ctx context.Context) error
}

// Initializer assigns constructor defaults to a freshly allocated instance
// before any field is read.
type Initializer interface {
	InitDefaults()
}

var (
	serializableType = reflect.TypeOf(Serializable{})
	writeHookType    = reflect.TypeOf((*WriteHook)(nil)).Elem()
	readHookType     = reflect.TypeOf((*ReadHook)(nil)).Elem()
)

const tagName = "skema"

// parseTypeTag reads the options carried by the Serializable marker tag.
func parseTypeTag(tag string) TypeOptions {
	var o TypeOptions
	for _, p := range strings.Split(tag, ",") {
		p = strings.TrimSpace(p)
		switch {
		case p == "dynamic":
			o.Dynamic = true
		case p == "fqtag":
			o.FullyQualifiedTag = true
		case p == "writenull":
			o.WriteNulls = true
		case p == "encodefp":
			o.EncodeFloatingPoint = true
		case strings.HasPrefix(p, "alias="):
			o.Alias = strings.TrimPrefix(p, "alias=")
		}
	}
	return o
}

// markerOptions reports whether t embeds Serializable directly, or embeds a
// struct that does, and returns the nearest options found.
func markerOptions(t reflect.Type) (TypeOptions, bool) {
	if t.Kind() != reflect.Struct {
		return TypeOptions{}, false
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type == serializableType {
			return parseTypeTag(sf.Tag.Get(tagName)), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.Anonymous && sf.Type.Kind() == reflect.Struct {
			if o, ok := markerOptions(sf.Type); ok {
				// aliases name one concrete type and are not inherited
				o.Alias = ""
				return o, true
			}
		}
	}
	return TypeOptions{}, false
}
