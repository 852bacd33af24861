// Package skemajson converts declared Go object graphs to and from JSON.
//
// Types opt in by embedding Serializable; fields opt in with a `skema` tag.
// A Registry builds one immutable TypeDescriptor per type on first use and
// the Engine walks descriptors to write or read ordered JSON value trees
// (package jsontree).
//
// Design policy:
//   - Keep only public APIs in the root package; put tokenizers and
//     enforcement under internal/ and source/.
//   - Dynamic types carry a "class" tag written before any field; interface
//     bases are declared with Registry.Declare and resolved through the tag
//     table.
//   - Maps travel as arrays of {"key","value"} objects so keys keep their type.
//   - Floats of encodefp types travel as "0x<bits>|<decimal>" strings
//     (package codec) and read back bit-exact.
//
// Typical usage:
//
//	type Point struct {
//	    skemajson.Serializable `skema:"encodefp"`
//	    X float32 `skema:"x"`
//	    Y float32 `skema:"y,omitdefault"`
//	}
//
//	data, err := skemajson.Marshal(ctx, p, skemajson.WriteOpt{Indent: "  "})
//	p2, err := skemajson.Unmarshal[Point](ctx, data)
//	dm, err := skemajson.UnmarshalWithMeta[Point](ctx, data)
package skemajson
