package benchmarks

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	skemajson "github.com/reoring/skemajson"
)

type point struct {
	skemajson.Serializable `skema:"encodefp"`
	X                      float32 `skema:"x"`
	Y                      float32 `skema:"y"`
}

type sprite struct {
	skemajson.Serializable
	Name  string            `skema:"name"`
	Pos   point             `skema:"pos"`
	Tags  []string          `skema:"tags"`
	Props map[string]string `skema:"props"`
	Alpha float64           `skema:"alpha,omitdefault,default=1"`
}

type scene struct {
	skemajson.Serializable
	Title   string    `skema:"title"`
	Sprites []*sprite `skema:"sprites"`
}

func makeScene(n int) scene {
	s := scene{Title: "bench", Sprites: make([]*sprite, n)}
	for i := range n {
		s.Sprites[i] = &sprite{
			Name:  fmt.Sprintf("sprite-%d", i),
			Pos:   point{X: float32(i) / 3, Y: float32(i) * 1.5},
			Tags:  []string{"a", "b"},
			Props: map[string]string{"layer": "fg"},
			Alpha: 1,
		}
	}
	return s
}

func benchEncode(b *testing.B, c skemajson.Compression) {
	ctx := context.Background()
	codec := skemajson.For[scene](skemajson.NewEngine(skemajson.NewRegistry()))
	s := makeScene(500)
	var buf bytes.Buffer
	b.ReportAllocs()
	for b.Loop() {
		buf.Reset()
		if err := codec.Encode(ctx, &buf, s, skemajson.WriteOpt{Compression: c}); err != nil {
			b.Fatal(err)
		}
	}
	b.SetBytes(int64(buf.Len()))
}

func benchDecode(b *testing.B, c skemajson.Compression) {
	ctx := context.Background()
	codec := skemajson.For[scene](skemajson.NewEngine(skemajson.NewRegistry()))
	var buf bytes.Buffer
	if err := codec.Encode(ctx, &buf, makeScene(500), skemajson.WriteOpt{Compression: c}); err != nil {
		b.Fatal(err)
	}
	data := buf.Bytes()
	b.SetBytes(int64(len(data)))
	b.ReportAllocs()
	for b.Loop() {
		if _, err := codec.Unmarshal(ctx, data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkEncode(b *testing.B) {
	for _, c := range []skemajson.Compression{skemajson.CompressionNone, skemajson.CompressionGzip, skemajson.CompressionZstd, skemajson.CompressionLZ4} {
		b.Run(c.String(), func(b *testing.B) { benchEncode(b, c) })
	}
}

func BenchmarkDecode(b *testing.B) {
	for _, c := range []skemajson.Compression{skemajson.CompressionNone, skemajson.CompressionZstd} {
		b.Run(c.String(), func(b *testing.B) { benchDecode(b, c) })
	}
}

// BenchmarkDecode_Drivers compares the tokenizers behind ReadTree.
func BenchmarkDecode_Drivers(b *testing.B) {
	b.Cleanup(skemajson.UseDefaultJSONDriver)
	for _, d := range []struct {
		name string
		use  func()
	}{
		{"encoding-json", skemajson.UseDefaultJSONDriver},
		{"go-json", skemajson.UseGoJSONDriver},
	} {
		b.Run(d.name, func(b *testing.B) {
			d.use()
			benchDecode(b, skemajson.CompressionNone)
		})
	}
}
