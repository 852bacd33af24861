package codec

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// ErrMalformedFloat is returned when a string matches neither the bit-tagged
// form nor a bare decimal literal.
var ErrMalformedFloat = errors.New("codec: malformed floating point literal")

const decimalExpr = `(-?[0-9.]+(?:[eE][+-][0-9]+)?|[+-]?Inf|NaN)`

var (
	purePattern = regexp.MustCompile(`^` + decimalExpr + `$`)
	bitsPattern = regexp.MustCompile(`^0x([0-9A-Fa-f]+)\|` + decimalExpr + `$`)
)

// EncodeFloatBits renders f as "0xHHHHHHHH|<decimal>".
func EncodeFloatBits(f float32) string {
	return fmt.Sprintf("0x%08X|%s", math.Float32bits(f), formatDecimal(float64(f), 32))
}

// EncodeDoubleBits renders d as "0xHHHHHHHHHHHHHHHH|<decimal>".
func EncodeDoubleBits(d float64) string {
	return fmt.Sprintf("0x%016X|%s", math.Float64bits(d), formatDecimal(d, 64))
}

// DecodeFloatBits restores a float32 from either the bit-tagged form
// (bit-exact) or a bare decimal literal.
func DecodeFloatBits(s string) (float32, error) {
	if m := bitsPattern.FindStringSubmatch(s); m != nil {
		bits, err := strconv.ParseUint(m[1], 16, 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrMalformedFloat, s, err)
		}
		return math.Float32frombits(uint32(bits)), nil
	}
	if m := purePattern.FindStringSubmatch(s); m != nil {
		f, err := strconv.ParseFloat(m[1], 32)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrMalformedFloat, s, err)
		}
		return float32(f), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrMalformedFloat, s)
}

// DecodeDoubleBits is the float64 counterpart of DecodeFloatBits.
func DecodeDoubleBits(s string) (float64, error) {
	if m := bitsPattern.FindStringSubmatch(s); m != nil {
		bits, err := strconv.ParseUint(m[1], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrMalformedFloat, s, err)
		}
		return math.Float64frombits(bits), nil
	}
	if m := purePattern.FindStringSubmatch(s); m != nil {
		f, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrMalformedFloat, s, err)
		}
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrMalformedFloat, s)
}

// IsBitEncoded reports whether s carries the hex bit tag.
func IsBitEncoded(s string) bool { return bitsPattern.MatchString(s) }

// formatDecimal uses an upper-case exponent ("1.5E+10") so the informational
// part stays within the documented decimal pattern.
func formatDecimal(f float64, bitSize int) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(f, 'G', -1, bitSize)
}
