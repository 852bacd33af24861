package engine

import (
	"errors"
	"fmt"
	"io"

	"github.com/reoring/skemajson/jsontree"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// ErrTrailingData reports tokens after the first complete document value.
var ErrTrailingData = errors.New("engine: unexpected data after top-level value")

// DecodeTree consumes exactly one JSON value from src and returns it as an
// ordered tree. Members keep document order and duplicate keys are kept as
// separate members; policy on duplicates belongs to the enforcement wrapper.
func DecodeTree(src TokenSource) (*jsontree.Node, error) {
	tok, err := src.NextToken()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	n, err := decodeNode(src, tok)
	if err != nil {
		return nil, err
	}
	if _, err := src.NextToken(); !errors.Is(err, io.EOF) {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return n, nil
}

func decodeNode(src TokenSource, tok Token) (*jsontree.Node, error) {
	switch tok.Kind {
	case KindBeginObject:
		return decodeObject(src)
	case KindBeginArray:
		return decodeArray(src)
	case KindString:
		return jsontree.String(tok.String), nil
	case KindNumber:
		return jsontree.Number(tok.Number), nil
	case KindBool:
		return jsontree.Bool(tok.Bool), nil
	case KindNull:
		return jsontree.Null(), nil
	default:
		return nil, fmt.Errorf("engine: unexpected token kind %d at offset %d", tok.Kind, tok.Offset)
	}
}

func decodeObject(src TokenSource) (*jsontree.Node, error) {
	obj := jsontree.Object(4)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, eofAsUnexpected(err)
		}
		if tok.Kind == KindEndObject {
			return obj, nil
		}
		if tok.Kind != KindKey {
			return nil, fmt.Errorf("engine: expected object key at offset %d", tok.Offset)
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, eofAsUnexpected(err)
		}
		v, err := decodeNode(src, vt)
		if err != nil {
			return nil, err
		}
		obj.Set(tok.String, v)
	}
}

func decodeArray(src TokenSource) (*jsontree.Node, error) {
	arr := jsontree.Array(4)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, eofAsUnexpected(err)
		}
		if tok.Kind == KindEndArray {
			return arr, nil
		}
		v, err := decodeNode(src, tok)
		if err != nil {
			return nil, err
		}
		arr.Append(v)
	}
}

func eofAsUnexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}
