package skemajson

import (
	"bytes"
	"errors"
	"io"

	"github.com/tidwall/jsonc"

	eng "github.com/reoring/skemajson/internal/engine"
	"github.com/reoring/skemajson/jsontree"
)

// ReadTree parses one JSON document into an ordered value tree. Compressed
// input (gzip, zstd, lz4) is detected by its magic bytes. Tokenizer and I/O
// failures are returned as *CodecError with the parse_error, duplicate_key or
// truncated code and the original cause.
func ReadTree(r io.Reader, opts ...ReadOpt) (*jsontree.Node, error) {
	opt := lastReadOpt(opts)
	dr, closeFn, err := decompressReader(r)
	if err != nil {
		return nil, newError(CodeParseError, "", nil, err, "")
	}
	defer closeFn()

	var src Source
	if opt.MaxBytes > 0 || opt.AllowComments {
		data, err := readLimited(dr, opt.MaxBytes)
		if err != nil {
			return nil, err
		}
		if opt.AllowComments {
			data = jsonc.ToJSON(data)
		}
		src = JSONBytes(data)
	} else {
		src = JSONReader(dr)
	}

	n, err := eng.DecodeTree(EnforceSource(src, opt))
	if err != nil {
		return nil, toReadError(err)
	}
	return n, nil
}

// ReadTreeBytes is ReadTree over an in-memory document.
func ReadTreeBytes(data []byte, opts ...ReadOpt) (*jsontree.Node, error) {
	return ReadTree(bytes.NewReader(data), opts...)
}

// WriteTree renders n to w, indented when opt.Indent is set and compressed
// per opt.Compression.
func WriteTree(w io.Writer, n *jsontree.Node, opts ...WriteOpt) error {
	opt := lastWriteOpt(opts)
	cw, err := compressWriter(w, opt.Compression)
	if err != nil {
		return err
	}
	if err := jsontree.Write(cw, n, opt.Indent); err != nil {
		_ = cw.Close()
		return err
	}
	return cw.Close()
}

// readLimited enforces the size cap up front on the decompressed document.
func readLimited(r io.Reader, max int64) ([]byte, error) {
	if max <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, newError(CodeParseError, "", nil, err, "")
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, newError(CodeParseError, "", nil, err, "")
	}
	if int64(len(data)) > max {
		return nil, newError(CodeTruncated, "/", nil, nil, "max bytes exceeded")
	}
	return data, nil
}

func toReadError(err error) error {
	var ie eng.IssueError
	if errors.As(err, &ie) {
		return &CodecError{Code: ie.Code, Path: ie.Path, Message: ie.Message, Cause: err}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(CodeTruncated, "", nil, err, "")
	}
	return newError(CodeParseError, "", nil, err, "")
}
