// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"testing"

	"github.com/emirpasic/gods/v2/sets/hashset"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/slicing"
	"github.com/gomlx/layergroup/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T, config string) *backends.Backend {
	t.Helper()
	backend, err := backends.NewWithConfig(config)
	require.NoError(t, err)
	return backend
}

func pairs(values ...int) []slicing.Pair {
	result := make([]slicing.Pair, 0, len(values)/2)
	for ii := 0; ii+1 < len(values); ii += 2 {
		result = append(result, slicing.Pair{Offset: values[ii], Length: values[ii+1]})
	}
	return result
}

// chain is a group of two point-wise ops: mid = Scale(x, w); out = Relu(mid).
type chain struct {
	g           *graph.Graph
	group       *Group
	x, w        *graph.Tensor
	mid, out    *graph.Tensor
	scale, relu *graph.Op
}

// newChain builds the chain over x shaped [batch, 64, height, 16] float32. On the bm1684x each
// activation takes 6400 bytes per batch item when height is 100, and the weight 4 bytes.
func newChain(batch, height int) *chain {
	c := &chain{g: graph.New("chain")}
	c.x = c.g.Input("x", shapes.Make(dtypes.Float32, batch, 64, height, 16))
	c.w = c.g.Weight("w", shapes.Make(dtypes.Float32, 1, 64, 1, 1))
	c.mid = graph.Elementwise(backends.OpTypeScale, c.x, c.w)
	c.out = graph.Elementwise(backends.OpTypeRelu, c.mid)
	c.scale, c.relu = c.mid.Producer(), c.out.Producer()
	c.group = NewGroup("chain", shapes.LayoutNormal, c.scale, c.relu)
	return c
}

func TestNewGroup(t *testing.T) {
	g := graph.New("test")
	x := g.Input("x", shapes.Make(dtypes.Float32, 2, 8, 16, 16))
	w := g.Weight("w", shapes.Make(dtypes.Float32, 1, 8, 1, 1))
	a := graph.Elementwise(backends.OpTypeRelu, x)
	b := graph.Elementwise(backends.OpTypeSigmoid, a)
	c := graph.Elementwise(backends.OpTypeScale, a, w)
	d := graph.Binary(backends.OpTypeAdd, b, c)
	e := graph.Elementwise(backends.OpTypeRelu, b)
	group := NewGroup("fan", shapes.LayoutNormal, a.Producer(), b.Producer(), c.Producer(), d.Producer())

	assert.Equal(t, []*graph.Tensor{x}, group.Ins)
	assert.Equal(t, []*graph.Tensor{b, d}, group.Outs, "b is read by e, outside the group")
	assert.Equal(t, []*graph.Tensor{w}, group.Weights())
	assert.True(t, group.IsInput(x))
	assert.False(t, group.IsInput(w))
	assert.True(t, group.IsOutput(b))
	assert.False(t, group.IsOutput(a))
	assert.True(t, group.Contains(c.Producer()))
	assert.False(t, group.Contains(e.Producer()))
	assert.Equal(t, 3, group.OpIndex(d.Producer()))
	assert.Equal(t, -1, group.OpIndex(e.Producer()))
	assert.Contains(t, group.String(), "layout=normal")

	require.Panics(t, func() { NewGroup("empty", shapes.LayoutNormal) })
	require.Panics(t, func() { NewGroup("repeated", shapes.LayoutNormal, a.Producer(), a.Producer()) })
}

func TestIsReady(t *testing.T) {
	g := graph.New("test")
	x := g.Input("x", shapes.Make(dtypes.Float32, 2, 8, 16, 16))
	a := graph.Elementwise(backends.OpTypeRelu, x)
	b := graph.Elementwise(backends.OpTypeSigmoid, a)
	c := graph.Elementwise(backends.OpTypeTanh, a)
	d := graph.Binary(backends.OpTypeAdd, b, c)
	outside := graph.Elementwise(backends.OpTypeRelu, a)
	group := NewGroup("fan", shapes.LayoutNormal, a.Producer(), b.Producer(), c.Producer(), d.Producer())

	visited := hashset.New[*graph.Op]()
	assert.True(t, isReady(group, visited, d), "no consumers")
	assert.False(t, isReady(group, visited, b))

	visited.Add(d.Producer())
	assert.True(t, isReady(group, visited, b))
	assert.True(t, isReady(group, visited, c))

	// a is consumed outside the group, but it is a group output.
	visited.Add(b.Producer())
	assert.False(t, isReady(group, visited, a), "c not visited yet")
	visited.Add(c.Producer())
	assert.True(t, group.IsOutput(a))
	assert.True(t, isReady(group, visited, a))
	assert.False(t, group.Contains(outside.Producer()))
}

func TestTensorInfos(t *testing.T) {
	c := newChain(8, 100)
	infos := NewTensorInfos()
	infos.Set(c.out, &TensorInfo{Slice: slicing.Info{N: pairs(0, 4, 4, 4), H: pairs(0, 100)}})
	infos.Set(c.mid, &TensorInfo{Slice: slicing.Info{N: pairs(0, 8), H: pairs(0, 100)}})
	infos.Set(c.x, &TensorInfo{})
	infos.Set(c.out, &TensorInfo{EUAlign: true})
	assert.Equal(t, []*graph.Tensor{c.out, c.mid, c.x}, infos.Tensors(), "replaced records keep their position")

	clone := infos.Clone()
	info, found := clone.Get(c.mid)
	require.True(t, found)
	info.Slice.N[0].Length = 1
	original, _ := infos.Get(c.mid)
	assert.Equal(t, 8, original.Slice.N[0].Length)

	_, found = infos.Get(c.w)
	assert.False(t, found)
	assert.Equal(t, 3, clone.Len())
}
