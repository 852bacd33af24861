// Package codec holds the scalar text codecs used by skemajson fields:
// the IEEE-754 bit encoding for float32/float64 values and the RFC3339
// rendering for time.Time values.
//
// Bit-encoded floats are written as "0x<hex bits>|<decimal>". Only the
// hex part is authoritative; the decimal part exists for human readers.
// Decoders also accept a bare decimal so documents written before the
// bit encoding was enabled keep loading.
package codec
