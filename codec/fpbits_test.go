package codec

import (
	"errors"
	"math"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wirePattern = regexp.MustCompile(`^0x[0-9A-Fa-f]+\|-?[0-9.]+(E[+-][0-9]+)?$`)

func TestFloatBits_BitExact(t *testing.T) {
	values := []float32{
		0,
		float32(math.Copysign(0, -1)),
		1,
		-1.5,
		0.1,
		3.4028235e38,
		math.SmallestNonzeroFloat32,
		math.Float32frombits(0x00000001),
		math.Float32frombits(0x007FFFFF),
		123456.78,
	}
	for _, f := range values {
		s := EncodeFloatBits(f)
		assert.Regexp(t, wirePattern, s)
		got, err := DecodeFloatBits(s)
		require.NoError(t, err, s)
		assert.Equal(t, math.Float32bits(f), math.Float32bits(got), s)
	}
}

func TestDoubleBits_BitExact(t *testing.T) {
	values := []float64{
		0,
		math.Copysign(0, -1),
		1,
		0.1,
		-2.5e-300,
		math.MaxFloat64,
		math.SmallestNonzeroFloat64,
		math.Float64frombits(0x000FFFFFFFFFFFFF),
		1e21,
	}
	for _, d := range values {
		s := EncodeDoubleBits(d)
		assert.Regexp(t, wirePattern, s)
		got, err := DecodeDoubleBits(s)
		require.NoError(t, err, s)
		assert.Equal(t, math.Float64bits(d), math.Float64bits(got), s)
	}
}

func TestBits_Layout(t *testing.T) {
	assert.Equal(t, "0x3F800000|1", EncodeFloatBits(1))
	assert.Equal(t, "0x3FF8000000000000|1.5", EncodeDoubleBits(1.5))
	assert.Equal(t, "0x80000000|-0", EncodeFloatBits(float32(math.Copysign(0, -1))))
}

func TestBits_NonFinite(t *testing.T) {
	nan := math.Float64frombits(0x7FF8000000000001)
	got, err := DecodeDoubleBits(EncodeDoubleBits(nan))
	require.NoError(t, err)
	assert.Equal(t, uint64(0x7FF8000000000001), math.Float64bits(got))

	inf, err := DecodeFloatBits(EncodeFloatBits(float32(math.Inf(-1))))
	require.NoError(t, err)
	assert.True(t, math.IsInf(float64(inf), -1))
}

func TestBits_DecimalFallback(t *testing.T) {
	d, err := DecodeDoubleBits("3.25")
	require.NoError(t, err)
	assert.Equal(t, 3.25, d)

	f, err := DecodeFloatBits("-1.5E+03")
	require.NoError(t, err)
	assert.Equal(t, float32(-1500), f)

	f, err = DecodeFloatBits("2.5e-1")
	require.NoError(t, err)
	assert.Equal(t, float32(0.25), f)
}

func TestBits_Malformed(t *testing.T) {
	for _, s := range []string{"", "abc", "0xZZ|1", "0x|1", "1,5", "0x3F800000"} {
		_, err := DecodeDoubleBits(s)
		assert.True(t, errors.Is(err, ErrMalformedFloat), "%q: %v", s, err)
	}
	_, err := DecodeFloatBits("0x1FFFFFFFF|1")
	assert.ErrorIs(t, err, ErrMalformedFloat)
}

func TestIsBitEncoded(t *testing.T) {
	assert.True(t, IsBitEncoded(EncodeDoubleBits(2)))
	assert.False(t, IsBitEncoded("2"))
}
