package skemajson

import (
	"fmt"
	"log/slog"
	"strings"
)

// Severity expresses the severity level for reader issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for duplicate keys.
type Strictness struct {
	OnDuplicateKey Severity // Warn or Error (duplicate JSON keys).
}

// PresenceOpt configures presence collection for WithMeta-style reads.
type PresenceOpt struct {
	Collect bool
	Include []string
	Exclude []string
}

// Warning is a non-fatal reader issue reported through ReadOpt.OnWarning.
type Warning struct {
	Code    string
	Path    string
	Message string
}

// ReadOpt bundles reading options.
type ReadOpt struct {
	Strictness Strictness
	MaxDepth   int
	MaxBytes   int64
	// AllowComments strips // and /* */ comments and trailing commas before
	// tokenizing.
	AllowComments bool
	Presence      PresenceOpt
	OnWarning     func(Warning)
}

// WriteOpt bundles writing options.
type WriteOpt struct {
	Indent      string // Empty for compact output.
	Compression Compression
}

// RegistryOpt configures a Registry.
type RegistryOpt struct {
	Logger *slog.Logger // Debug records on descriptor construction; discarded when nil.
}

// Compression selects the stream codec applied to whole documents.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionGzip
	CompressionZstd
	CompressionLZ4
)

func (c Compression) String() string {
	switch c {
	case CompressionGzip:
		return "gzip"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "none"
	}
}

// ParseCompression maps a name ("none", "gzip", "zstd", "lz4") to a Compression.
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	}
	return CompressionNone, fmt.Errorf("skemajson: unknown compression %q", s)
}

func lastReadOpt(opts []ReadOpt) ReadOpt {
	if len(opts) > 0 {
		return opts[len(opts)-1]
	}
	return ReadOpt{}
}

func lastWriteOpt(opts []WriteOpt) WriteOpt {
	if len(opts) > 0 {
		return opts[len(opts)-1]
	}
	return WriteOpt{}
}
