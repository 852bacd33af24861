// Package jsontree is the ordered JSON value tree exchanged between the
// tokenizer drivers and the skemajson engine. Objects keep their members in
// insertion order, which is the field declaration order on output and the
// document order on input.
package jsontree

import "strconv"

// Kind is the JSON type of a Node.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Member is one named entry of an object node.
type Member struct {
	Name  string
	Value *Node
}

// Node is a JSON value. A nil *Node stands for an absent value; Kind and the
// accessors are safe to call on nil.
type Node struct {
	kind    Kind
	text    string // number literal or string contents
	b       bool
	members []Member
	elems   []*Node
}

// Null returns a JSON null.
func Null() *Node { return &Node{kind: KindNull} }

// Bool returns a JSON boolean.
func Bool(b bool) *Node { return &Node{kind: KindBool, b: b} }

// Number returns a JSON number. The literal is stored verbatim and is not
// validated.
func Number(literal string) *Node { return &Node{kind: KindNumber, text: literal} }

// String returns a JSON string.
func String(s string) *Node { return &Node{kind: KindString, text: s} }

// Object returns an empty object with room for capacity members.
func Object(capacity int) *Node {
	return &Node{kind: KindObject, members: make([]Member, 0, capacity)}
}

// Array returns an empty array with room for capacity elements.
func Array(capacity int) *Node {
	return &Node{kind: KindArray, elems: make([]*Node, 0, capacity)}
}

// Kind returns the node type; nil reports KindNull.
func (n *Node) Kind() Kind {
	if n == nil {
		return KindNull
	}
	return n.kind
}

// IsNull reports whether n is absent or an explicit null.
func (n *Node) IsNull() bool { return n == nil || n.kind == KindNull }

// Text returns the literal of a number node or the contents of a string node.
func (n *Node) Text() string {
	if n == nil {
		return ""
	}
	return n.text
}

// BoolValue returns the value of a bool node.
func (n *Node) BoolValue() bool { return n != nil && n.b }

// Len returns the number of members or elements.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	switch n.kind {
	case KindObject:
		return len(n.members)
	case KindArray:
		return len(n.elems)
	}
	return 0
}

// Set appends a member to an object node. Existing members with the same name
// are kept; Get returns the last one.
func (n *Node) Set(name string, v *Node) *Node {
	n.members = append(n.members, Member{Name: name, Value: v})
	return n
}

// Append adds an element to an array node.
func (n *Node) Append(v *Node) *Node {
	n.elems = append(n.elems, v)
	return n
}

// Get returns the member named name, or nil when absent. With duplicate
// names the last occurrence wins, like encoding/json.
func (n *Node) Get(name string) *Node {
	if n == nil || n.kind != KindObject {
		return nil
	}
	for i := len(n.members) - 1; i >= 0; i-- {
		if n.members[i].Name == name {
			return n.members[i].Value
		}
	}
	return nil
}

// Has reports whether an object node carries a member named name.
func (n *Node) Has(name string) bool {
	if n == nil || n.kind != KindObject {
		return false
	}
	for i := range n.members {
		if n.members[i].Name == name {
			return true
		}
	}
	return false
}

// Members returns the members of an object node in order. The slice is
// shared with the node.
func (n *Node) Members() []Member {
	if n == nil {
		return nil
	}
	return n.members
}

// Elements returns the elements of an array node in order. The slice is
// shared with the node.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	return n.elems
}

// Index returns the i-th element of an array node or nil.
func (n *Node) Index(i int) *Node {
	if n == nil || i < 0 || i >= len(n.elems) {
		return nil
	}
	return n.elems[i]
}
