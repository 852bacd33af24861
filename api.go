package skemajson

import (
	"bytes"
	"context"
	"io"
	"os"
	"reflect"
)

// Codec is a typed entry point bound to an Engine. T is the static type of
// the document root; an interface T declared as a dynamic base tags the root.
type Codec[T any] struct {
	e      *Engine
	static reflect.Type
}

// For returns the Codec of T on e (the default registry when e is nil).
func For[T any](e *Engine) Codec[T] {
	if e == nil {
		e = defaultEngine
	}
	return Codec[T]{e: e, static: reflect.TypeFor[T]()}
}

var defaultEngine = NewEngine(defaultRegistry)

// Marshal renders v to bytes.
func (c Codec[T]) Marshal(ctx context.Context, v T, opts ...WriteOpt) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.Encode(ctx, &buf, v, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode renders v to w.
func (c Codec[T]) Encode(ctx context.Context, w io.Writer, v T, opts ...WriteOpt) error {
	n, err := c.e.EncodeAs(ctx, v, c.static)
	if err != nil {
		return err
	}
	return WriteTree(w, n, opts...)
}

// Unmarshal reads a document from bytes.
func (c Codec[T]) Unmarshal(ctx context.Context, data []byte, opts ...ReadOpt) (T, error) {
	return c.Decode(ctx, bytes.NewReader(data), opts...)
}

// UnmarshalWithMeta reads a document and collects presence metadata.
func (c Codec[T]) UnmarshalWithMeta(ctx context.Context, data []byte, opts ...ReadOpt) (Decoded[T], error) {
	return c.DecodeWithMeta(ctx, bytes.NewReader(data), opts...)
}

// Decode reads one document from r.
func (c Codec[T]) Decode(ctx context.Context, r io.Reader, opts ...ReadOpt) (T, error) {
	var out T
	n, err := ReadTree(r, opts...)
	if err != nil {
		return out, err
	}
	err = c.e.Decode(ctx, n, &out)
	return out, err
}

// DecodeWithMeta reads one document from r and collects presence metadata.
func (c Codec[T]) DecodeWithMeta(ctx context.Context, r io.Reader, opts ...ReadOpt) (Decoded[T], error) {
	var dm Decoded[T]
	opt := normalizeWithMetaOpt(opts)
	n, err := ReadTree(r, opt)
	if err != nil {
		return dm, err
	}
	pm, err := c.e.DecodeWithPresence(ctx, n, &dm.Value)
	dm.Presence = applyPresenceOptions(pm, opt.Presence)
	return dm, err
}

// WriteFile renders v into path. Without an explicit compression the file
// extension decides (.gz, .zst, .lz4).
func (c Codec[T]) WriteFile(ctx context.Context, path string, v T, opts ...WriteOpt) error {
	opt := lastWriteOpt(opts)
	if opt.Compression == CompressionNone {
		opt.Compression = CompressionForPath(path)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Encode(ctx, f, v, opt); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// ReadFile reads the document stored at path; compression is detected from
// the content.
func (c Codec[T]) ReadFile(ctx context.Context, path string, opts ...ReadOpt) (T, error) {
	f, err := os.Open(path)
	if err != nil {
		var zero T
		return zero, err
	}
	defer f.Close()
	return c.Decode(ctx, f, opts...)
}

// Marshal renders v with the default registry.
func Marshal[T any](ctx context.Context, v T, opts ...WriteOpt) ([]byte, error) {
	return For[T](nil).Marshal(ctx, v, opts...)
}

// Unmarshal reads data into a T with the default registry.
func Unmarshal[T any](ctx context.Context, data []byte, opts ...ReadOpt) (T, error) {
	return For[T](nil).Unmarshal(ctx, data, opts...)
}

// UnmarshalWithMeta collects presence metadata alongside the value.
func UnmarshalWithMeta[T any](ctx context.Context, data []byte, opts ...ReadOpt) (Decoded[T], error) {
	return For[T](nil).UnmarshalWithMeta(ctx, data, opts...)
}

// Encode renders v to w with the default registry.
func Encode[T any](ctx context.Context, w io.Writer, v T, opts ...WriteOpt) error {
	return For[T](nil).Encode(ctx, w, v, opts...)
}

// Decode reads one document from r with the default registry.
func Decode[T any](ctx context.Context, r io.Reader, opts ...ReadOpt) (T, error) {
	return For[T](nil).Decode(ctx, r, opts...)
}

// WriteFile renders v into path with the default registry.
func WriteFile[T any](ctx context.Context, path string, v T, opts ...WriteOpt) error {
	return For[T](nil).WriteFile(ctx, path, v, opts...)
}

// ReadFile reads path with the default registry.
func ReadFile[T any](ctx context.Context, path string, opts ...ReadOpt) (T, error) {
	return For[T](nil).ReadFile(ctx, path, opts...)
}
