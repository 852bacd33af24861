package skemajson_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	skemajson "github.com/reoring/skemajson"
)

type Vec struct {
	skemajson.Serializable `skema:"encodefp"`
	X                      float32 `skema:"x"`
	Y                      float64 `skema:"y"`
}

type Leaf struct {
	skemajson.Serializable
	Name  string  `skema:"name"`
	Count int     `skema:"count,omitdefault"`
	Scale float64 `skema:"scale,omitdefault,default=1.5"`
	On    bool    `skema:"on,omitdefault"`
}

type Branch struct {
	skemajson.Serializable
	Label  string           `skema:"label"`
	Leaves []Leaf           `skema:"leaves"`
	ByName map[string]*Leaf `skema:"byName"`
	Pos    Vec              `skema:"pos"`
}

type Tree struct {
	skemajson.Serializable
	Root     *Branch                            `skema:"root"`
	Branches []*Branch                          `skema:"branches"`
	Order    *skemajson.OrderedMap[int, string] `skema:"order"`
	Blob     []byte                             `skema:"blob"`
	secret   string                             `skema:"secret"`
	Ignored  string
}

// B is a dynamic base; S is its registered subtype.
type B interface{ Kind() string }

type S struct {
	skemajson.Serializable `skema:"dynamic"`
	R                      float64 `skema:"r"`
}

func (s *S) Kind() string { return "S" }

type Sq struct {
	skemajson.Serializable `skema:"dynamic,alias=square"`
	Side                   int `skema:"side"`
}

func (s *Sq) Kind() string { return "square" }

// Other is dynamic but does not implement B.
type Other struct {
	skemajson.Serializable `skema:"dynamic"`
	V                      int `skema:"v"`
}

type Holder struct {
	skemajson.Serializable
	Shape  B            `skema:"shape"`
	Shapes []B          `skema:"shapes"`
	ByTag  map[string]B `skema:"byTag"`
}

type Config struct {
	skemajson.Serializable
	Pos *Vec `skema:"pos,createifnull"`
	Alt *Vec `skema:"alt"`
}

type Nullable struct {
	skemajson.Serializable `skema:"writenull"`
	Tags                   []string `skema:"tags"`
	Ref                    *Vec     `skema:"ref,createifnull"`
	Note                   *string  `skema:"note"`
}

type Hooked struct {
	skemajson.Serializable
	N      int `skema:"n"`
	Loaded bool
}

var errNegative = errors.New("negative n")

func (h *Hooked) BeforeWrite(context.Context) error {
	if h.N < 0 {
		return errNegative
	}
	h.N++
	return nil
}

func (h *Hooked) AfterRead(context.Context) error {
	h.Loaded = true
	return nil
}

func (h *Hooked) InitDefaults() { h.N = 42 }

type Stamped struct {
	skemajson.Serializable
	At time.Time `skema:"at"`
}

// newShapeEngine builds an Engine whose registry knows B, *S and *Sq.
func newShapeEngine(t *testing.T) *skemajson.Engine {
	t.Helper()
	reg := skemajson.NewRegistry()
	require.NoError(t, reg.Declare(reflect.TypeFor[B](), skemajson.TypeOptions{Dynamic: true}))
	require.NoError(t, reg.RegisterSubtypes(reflect.TypeFor[B](), reflect.TypeFor[*S](), reflect.TypeFor[*Sq]()))
	return skemajson.NewEngine(reg)
}

func sampleTree() Tree {
	order := skemajson.NewOrderedMap[int, string](3)
	order.Set(3, "c")
	order.Set(1, "a")
	order.Set(2, "b")
	leaf := func(n string, c int) *Leaf { return &Leaf{Name: n, Count: c, Scale: 1.5} }
	return Tree{
		Root: &Branch{
			Label:  "root",
			Leaves: []Leaf{{Name: "l1", Count: 1, Scale: 2, On: true}, {Name: "l2", Scale: 1.5}},
			ByName: map[string]*Leaf{"a": leaf("a", 1), "b": leaf("b", 2)},
			Pos:    Vec{X: 0.1, Y: 1.0 / 3},
		},
		Branches: []*Branch{{Label: "empty", Leaves: []Leaf{}}, {Label: "nil"}},
		Order:    order,
		Blob:     []byte{0, 1, 2, 250},
		secret:   "s3",
		Ignored:  "dropped",
	}
}
