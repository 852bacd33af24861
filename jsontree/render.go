package jsontree

import (
	"bytes"
	"io"

	json "github.com/goccy/go-json"
)

// MarshalJSON renders the node compactly, keeping member order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render returns the JSON text for n. A non-empty indent pretty prints the
// output with that indent per level.
func Render(n *Node, indent string) ([]byte, error) {
	var buf bytes.Buffer
	if err := n.render(&buf); err != nil {
		return nil, err
	}
	if indent == "" {
		return buf.Bytes(), nil
	}
	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", indent); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// Write renders n to w followed by a newline.
func Write(w io.Writer, n *Node, indent string) error {
	b, err := Render(n, indent)
	if err != nil {
		return err
	}
	b = append(b, '\n')
	_, err = w.Write(b)
	return err
}

func (n *Node) render(buf *bytes.Buffer) error {
	switch n.Kind() {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if n.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		buf.WriteString(n.text)
	case KindString:
		return writeString(buf, n.text)
	case KindArray:
		buf.WriteByte('[')
		for i, e := range n.elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := e.render(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindObject:
		buf.WriteByte('{')
		for i, m := range n.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeString(buf, m.Name); err != nil {
				return err
			}
			buf.WriteByte(':')
			if err := m.Value.render(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.MarshalNoEscape(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}
