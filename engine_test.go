package skemajson_test

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	skemajson "github.com/reoring/skemajson"
	"github.com/reoring/skemajson/jsontree"
)

func encodeJSON(t *testing.T, e *skemajson.Engine, v any) string {
	t.Helper()
	n, err := e.Encode(context.Background(), v)
	require.NoError(t, err)
	b, err := n.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func decodeJSON[T any](t *testing.T, e *skemajson.Engine, doc string) (T, error) {
	t.Helper()
	var out T
	n, err := skemajson.ReadTreeBytes([]byte(doc))
	require.NoError(t, err)
	err = e.Decode(context.Background(), n, &out)
	return out, err
}

func TestEngine_RoundTrip_ThreeLevels(t *testing.T) {
	ctx := context.Background()
	e := skemajson.NewEngine(skemajson.NewRegistry())
	in := sampleTree()

	n, err := e.Encode(ctx, in)
	require.NoError(t, err)
	var out Tree
	require.NoError(t, e.Decode(ctx, n, &out))

	want := in
	want.Ignored = ""
	assert.Equal(t, want, out)
	assert.Equal(t, []int{3, 1, 2}, out.Order.Keys())
}

func TestEngine_FieldOrderAndUntaggedFields(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	got := encodeJSON(t, e, Leaf{Name: "a", Count: 3, Scale: 2, On: true})
	assert.Equal(t, `{"name":"a","count":3,"scale":2,"on":true}`, got)

	tree := encodeJSON(t, e, Tree{secret: "x", Ignored: "y"})
	assert.Equal(t, `{"secret":"x"}`, tree)
}

func TestEngine_DefaultElision(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())

	assert.Equal(t, `{"name":"a"}`, encodeJSON(t, e, Leaf{Name: "a", Scale: 1.5}))
	// zero differs from the declared 1.5 default, so scale is kept
	assert.Equal(t, `{"name":"a","scale":0}`, encodeJSON(t, e, Leaf{Name: "a"}))
	assert.Equal(t, `{"name":"","count":7}`, encodeJSON(t, e, Leaf{Count: 7, Scale: 1.5}))

	got, err := decodeJSON[Leaf](t, e, `{"name":"a"}`)
	require.NoError(t, err)
	assert.Equal(t, Leaf{Name: "a", Scale: 1.5}, got)
}

func TestEngine_DynamicDispatch(t *testing.T) {
	e := newShapeEngine(t)

	got := encodeJSON(t, e, Holder{Shape: &S{R: 2}})
	assert.Equal(t, `{"shape":{"class":"S","r":2}}`, got)

	h, err := decodeJSON[Holder](t, e, got)
	require.NoError(t, err)
	require.IsType(t, &S{}, h.Shape)
	assert.Equal(t, 2.0, h.Shape.(*S).R)
}

func TestEngine_DynamicContainersAndAlias(t *testing.T) {
	e := newShapeEngine(t)
	in := Holder{
		Shapes: []B{&S{R: 1}, &Sq{Side: 4}, nil},
		ByTag:  map[string]B{"only": &Sq{Side: 2}},
	}
	doc := encodeJSON(t, e, in)
	assert.Equal(t, `{"shapes":[{"class":"S","r":1},{"class":"square","side":4},null],"byTag":[{"key":"only","value":{"class":"square","side":2}}]}`, doc)

	out, err := decodeJSON[Holder](t, e, doc)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestEngine_DynamicRoot(t *testing.T) {
	ctx := context.Background()
	e := newShapeEngine(t)
	codec := skemajson.For[B](e)

	data, err := codec.Marshal(ctx, &Sq{Side: 9})
	require.NoError(t, err)
	assert.JSONEq(t, `{"class":"square","side":9}`, string(data))

	back, err := codec.Unmarshal(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, &Sq{Side: 9}, back)
}

func TestEngine_FullyQualifiedTagFallback(t *testing.T) {
	e := newShapeEngine(t)
	doc := `{"shape":{"class":"github.com/reoring/skemajson_test.S","r":5}}`
	h, err := decodeJSON[Holder](t, e, doc)
	require.NoError(t, err)
	assert.Equal(t, &S{R: 5}, h.Shape)
}

func TestEngine_TypeResolutionErrors(t *testing.T) {
	e := newShapeEngine(t)
	_, err := e.Registry().Describe(reflect.TypeFor[Other]())
	require.NoError(t, err)

	cases := map[string]string{
		"unregistered": `{"shape":{"class":"Nope","r":1}}`,
		"missing tag":  `{"shape":{"r":1}}`,
		"not subtype":  `{"shape":{"class":"Other","v":1}}`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeJSON[Holder](t, e, doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, skemajson.ErrTypeResolution), "got %v", err)
			ce, ok := skemajson.AsCodecError(err)
			require.True(t, ok)
			assert.Equal(t, "/shape", ce.Path)
		})
	}
}

func TestEngine_MapShape(t *testing.T) {
	ctx := context.Background()
	e := skemajson.NewEngine(skemajson.NewRegistry())
	in := Branch{ByName: map[string]*Leaf{
		"a": {Name: "a", Scale: 1.5},
		"b": {Name: "b", Scale: 1.5},
		"c": {Name: "c", Scale: 1.5},
	}}
	n, err := e.Encode(ctx, in)
	require.NoError(t, err)

	arr := n.Get("byName")
	require.Equal(t, jsontree.KindArray, arr.Kind())
	require.Equal(t, 3, arr.Len())
	for _, entry := range arr.Elements() {
		require.Equal(t, jsontree.KindObject, entry.Kind())
		members := entry.Members()
		require.Len(t, members, 2)
		assert.Equal(t, "key", members[0].Name)
		assert.Equal(t, "value", members[1].Name)
	}

	var out Branch
	require.NoError(t, e.Decode(ctx, n, &out))
	assert.Equal(t, in.ByName, out.ByName)
}

func TestEngine_OrderedMapKeepsDocumentOrder(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	out, err := decodeJSON[Tree](t, e, `{"order":[{"key":9,"value":"z"},{"key":2,"value":"b"},{"key":5,"value":"e"}]}`)
	require.NoError(t, err)
	assert.Equal(t, []int{9, 2, 5}, out.Order.Keys())
	v, ok := out.Order.Get(2)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestEngine_AbsentVersusEmptyContainers(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())

	assert.Equal(t, `{"label":"x","leaves":[],"pos":{"x":"0x00000000|0","y":"0x0000000000000000|0"}}`,
		encodeJSON(t, e, Branch{Label: "x", Leaves: []Leaf{}}))
	assert.Equal(t, `{"label":"x","pos":{"x":"0x00000000|0","y":"0x0000000000000000|0"}}`,
		encodeJSON(t, e, Branch{Label: "x"}))

	empty, err := decodeJSON[Branch](t, e, `{"leaves":[]}`)
	require.NoError(t, err)
	assert.NotNil(t, empty.Leaves)
	assert.Len(t, empty.Leaves, 0)

	absent, err := decodeJSON[Branch](t, e, `{}`)
	require.NoError(t, err)
	assert.Nil(t, absent.Leaves)
	assert.Nil(t, absent.ByName)

	null, err := decodeJSON[Branch](t, e, `{"leaves":null,"byName":null}`)
	require.NoError(t, err)
	assert.Nil(t, null.Leaves)
	assert.Nil(t, null.ByName)
}

func TestEngine_WriteNulls(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	assert.Equal(t, `{"tags":null,"ref":null,"note":null}`, encodeJSON(t, e, Nullable{}))

	// null is a recorded value under writenull: createifnull does not apply
	out, err := decodeJSON[Nullable](t, e, `{"tags":null,"ref":null,"note":null}`)
	require.NoError(t, err)
	assert.Equal(t, Nullable{}, out)

	note := "n"
	out, err = decodeJSON[Nullable](t, e, encodeJSON(t, e, Nullable{Tags: []string{}, Note: &note}))
	require.NoError(t, err)
	assert.Equal(t, []string{}, out.Tags)
	require.NotNil(t, out.Note)
	assert.Equal(t, "n", *out.Note)
}

func TestEngine_CreateIfAbsent(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	assert.Equal(t, `{}`, encodeJSON(t, e, Config{}))

	out, err := decodeJSON[Config](t, e, `{}`)
	require.NoError(t, err)
	require.NotNil(t, out.Pos)
	assert.Equal(t, Vec{}, *out.Pos)
	assert.Nil(t, out.Alt)

	out, err = decodeJSON[Config](t, e, `{"pos":null}`)
	require.NoError(t, err)
	assert.NotNil(t, out.Pos)
}

func TestEngine_Hooks(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())

	h := &Hooked{N: 1}
	assert.Equal(t, `{"n":2}`, encodeJSON(t, e, h))
	assert.Equal(t, 2, h.N, "pre-write hook runs on the instance")

	out, err := decodeJSON[Hooked](t, e, `{}`)
	require.NoError(t, err)
	assert.Equal(t, 42, out.N, "initializer provides constructor defaults")
	assert.True(t, out.Loaded)

	out, err = decodeJSON[Hooked](t, e, `{"n":5}`)
	require.NoError(t, err)
	assert.Equal(t, 5, out.N)

	_, err = e.Encode(context.Background(), &Hooked{N: -1})
	assert.ErrorIs(t, err, errNegative)
}

func TestEngine_FloatBitExact(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	in := Vec{X: 0.1, Y: math.Copysign(0, -1)}
	doc := encodeJSON(t, e, in)
	assert.Equal(t, `{"x":"0x3DCCCCCD|0.1","y":"0x8000000000000000|-0"}`, doc)

	out, err := decodeJSON[Vec](t, e, doc)
	require.NoError(t, err)
	assert.Equal(t, math.Float32bits(in.X), math.Float32bits(out.X))
	assert.Equal(t, math.Float64bits(in.Y), math.Float64bits(out.Y))
}

func TestEngine_FloatFallbackDecoding(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())

	// encodefp type reading plain decimals, as strings or numbers
	v, err := decodeJSON[Vec](t, e, `{"x":"1.5","y":2.25}`)
	require.NoError(t, err)
	assert.Equal(t, Vec{X: 1.5, Y: 2.25}, v)

	// plain type reading bit-tagged values written under encodefp
	l, err := decodeJSON[Leaf](t, e, `{"scale":"0x4004000000000000|2.5"}`)
	require.NoError(t, err)
	assert.Equal(t, 2.5, l.Scale)
}

func TestEngine_NumericDecodeError(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	_, err := decodeJSON[Vec](t, e, `{"x":"abc"}`)
	require.Error(t, err)
	assert.ErrorIs(t, err, skemajson.ErrNumericDecode)
	ce, ok := skemajson.AsCodecError(err)
	require.True(t, ok)
	assert.Equal(t, "/x", ce.Path)

	_, err = decodeJSON[Leaf](t, e, `{"count":1.5}`)
	assert.ErrorIs(t, err, skemajson.ErrNumericDecode)
}

func TestEngine_NonFiniteFloatsAlwaysBitEncoded(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	doc := encodeJSON(t, e, Leaf{Name: "n", Scale: math.Inf(1)})
	assert.Equal(t, `{"name":"n","scale":"0x7FF0000000000000|Inf"}`, doc)

	out, err := decodeJSON[Leaf](t, e, doc)
	require.NoError(t, err)
	assert.True(t, math.IsInf(out.Scale, 1))
}

func TestEngine_InvalidTypeMismatch(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	_, err := decodeJSON[Leaf](t, e, `{"name":5}`)
	assert.ErrorIs(t, err, skemajson.ErrInvalidType)

	_, err = decodeJSON[Branch](t, e, `{"leaves":{}}`)
	assert.ErrorIs(t, err, skemajson.ErrInvalidType)

	_, err = decodeJSON[Branch](t, e, `{"byName":[1]}`)
	assert.ErrorIs(t, err, skemajson.ErrInvalidType)
}

func TestEngine_Time(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	at := time.Date(2024, 2, 29, 12, 30, 0, 500, time.UTC)
	doc := encodeJSON(t, e, Stamped{At: at})
	assert.Equal(t, `{"at":"2024-02-29T12:30:00.0000005Z"}`, doc)

	out, err := decodeJSON[Stamped](t, e, doc)
	require.NoError(t, err)
	assert.True(t, at.Equal(out.At))
}

func TestEngine_DecodeTargetMustBePointer(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	err := e.Decode(context.Background(), jsontree.Object(0), Leaf{})
	assert.ErrorIs(t, err, skemajson.ErrInvalidType)
}

func TestEngine_PresenceFlags(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())
	n, err := skemajson.ReadTreeBytes([]byte(`{"leaves":[{"name":"x"}],"byName":null}`))
	require.NoError(t, err)

	var out Branch
	pm, err := e.DecodeWithPresence(context.Background(), n, &out)
	require.NoError(t, err)
	assert.True(t, pm.Has("/leaves", skemajson.PresenceSeen))
	assert.True(t, pm.Has("/leaves/0", skemajson.PresenceSeen))
	assert.True(t, pm.Has("/leaves/0/name", skemajson.PresenceSeen))
	assert.True(t, pm.Has("/leaves/0/scale", skemajson.PresenceDefaultApplied))
	assert.False(t, pm.Has("/leaves/0/scale", skemajson.PresenceSeen))
	assert.True(t, pm.Has("/byName", skemajson.PresenceSeen|skemajson.PresenceWasNull))
	_, seen := pm["/label"]
	assert.False(t, seen)
}

// Rounded is declared with fully-qualified tags; Disc, its subtype, is not.
type Rounded interface{ Radius() float64 }

type Disc struct {
	skemajson.Serializable
	R float64 `skema:"r"`
}

func (d *Disc) Radius() float64 { return d.R }

type RoundedHolder struct {
	skemajson.Serializable
	Shape Rounded `skema:"shape"`
}

type Stamp struct {
	skemajson.Serializable `skema:"dynamic,fqtag,alias=stamp"`
	ID                     int `skema:"id"`
}

type StampHolder struct {
	skemajson.Serializable
	S Stamp  `skema:"s"`
	P *Stamp `skema:"p"`
}

func TestEngine_FullyQualifiedInterfaceBase(t *testing.T) {
	reg := skemajson.NewRegistry()
	require.NoError(t, reg.Declare(reflect.TypeFor[Rounded](), skemajson.TypeOptions{FullyQualifiedTag: true}))
	require.NoError(t, reg.RegisterSubtypes(reflect.TypeFor[Rounded](), reflect.TypeFor[*Disc]()))
	e := skemajson.NewEngine(reg)

	in := RoundedHolder{Shape: &Disc{R: 3}}
	doc := encodeJSON(t, e, in)
	assert.Equal(t, `{"shape":{"class":"github.com/reoring/skemajson_test.Disc","r":3}}`, doc)

	out, err := decodeJSON[RoundedHolder](t, e, doc)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	// the short alias exists but is not consulted for this base
	_, err = decodeJSON[RoundedHolder](t, e, `{"shape":{"class":"Disc","r":3}}`)
	assert.ErrorIs(t, err, skemajson.ErrTypeResolution)
}

func TestEngine_FullyQualifiedDynamicStruct(t *testing.T) {
	e := skemajson.NewEngine(skemajson.NewRegistry())

	in := StampHolder{S: Stamp{ID: 1}, P: &Stamp{ID: 2}}
	doc := encodeJSON(t, e, in)
	assert.Equal(t, `{"s":{"class":"github.com/reoring/skemajson_test.Stamp","id":1},"p":{"class":"github.com/reoring/skemajson_test.Stamp","id":2}}`, doc)
	assert.Empty(t, e.Registry().Resolver().Tags(), "fully-qualified types register no alias")

	out, err := decodeJSON[StampHolder](t, e, doc)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	require.NoError(t, e.Registry().RegisterTag("stamp", reflect.TypeFor[Stamp]()))
	_, err = decodeJSON[StampHolder](t, e, `{"s":{"class":"stamp","id":1}}`)
	assert.ErrorIs(t, err, skemajson.ErrTypeResolution)
}

// Labelled uses the tag member name for a field, which is fine until it is
// written through a dynamic base.
type Labelled struct {
	skemajson.Serializable
	Class string `skema:"class"`
}

func (l *Labelled) Kind() string { return "labelled" }

type Classy struct {
	skemajson.Serializable `skema:"dynamic"`
	Class                  string `skema:"class"`
}

func TestEngine_ReservedTagMember(t *testing.T) {
	r := skemajson.NewRegistry()
	_, err := r.Describe(reflect.TypeFor[Classy]())
	assert.ErrorIs(t, err, skemajson.ErrTagConflict)

	e := skemajson.NewEngine(skemajson.NewRegistry())
	assert.Equal(t, `{"class":"warrior"}`, encodeJSON(t, e, Labelled{Class: "warrior"}))

	require.NoError(t, e.Registry().Declare(reflect.TypeFor[B](), skemajson.TypeOptions{}))
	err = e.Registry().RegisterSubtypes(reflect.TypeFor[B](), reflect.TypeFor[*Labelled]())
	assert.ErrorIs(t, err, skemajson.ErrTagConflict)

	_, err = e.Encode(context.Background(), Holder{Shape: &Labelled{Class: "warrior"}})
	assert.ErrorIs(t, err, skemajson.ErrTagConflict)
	ce, ok := skemajson.AsCodecError(err)
	require.True(t, ok)
	assert.Equal(t, "/shape", ce.Path)
}
