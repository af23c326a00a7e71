// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"errors"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/slicing"
	"github.com/gomlx/layergroup/types/shapes"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireSlice(t *testing.T, infos *TensorInfos, tensor *graph.Tensor, want slicing.Info) {
	t.Helper()
	info, found := infos.Get(tensor)
	require.Truef(t, found, "no record for tensor %s", tensor.Name())
	if diff := cmp.Diff(want, info.Slice); diff != "" {
		t.Fatalf("unexpected slices of tensor %s (-want +got):\n%s", tensor.Name(), diff)
	}
}

func TestPropagateChain(t *testing.T) {
	backend := newBackend(t, "bm1684x")
	c := newChain(8, 100)

	infos, err := Propagate(backend, c.group, Secs{N: 2, H: 1}, Exact, DefaultOptions())
	require.NoError(t, err)
	want := slicing.Info{N: pairs(0, 4, 4, 4), H: pairs(0, 100)}
	requireSlice(t, infos, c.out, want)
	requireSlice(t, infos, c.mid, want)
	requireSlice(t, infos, c.x, want)
	_, found := infos.Get(c.w)
	assert.False(t, found, "weights are not propagated")

	infos, err = Propagate(backend, c.group, Secs{N: 3, H: 2}, Exact, DefaultOptions())
	require.NoError(t, err)
	requireSlice(t, infos, c.x, slicing.Info{N: pairs(0, 3, 3, 3, 6, 2), H: pairs(0, 50, 50, 50)})

	infos, err = Propagate(backend, c.group, Secs{N: 3, H: 2}, MaxSlice, DefaultOptions())
	require.NoError(t, err)
	requireSlice(t, infos, c.x, slicing.Info{N: pairs(0, 3), H: pairs(0, 50)})

	require.Panics(t, func() { _, _ = Propagate(backend, c.group, Secs{N: 0, H: 1}, Exact, DefaultOptions()) })
	assert.Equal(t, "exact", Exact.String())
	assert.Equal(t, "max-slice", MaxSlice.String())
}

func TestPropagateSharedTensor(t *testing.T) {
	backend := newBackend(t, "bm1684x")
	g := graph.New("shared")
	x := g.Input("x", shapes.Make(dtypes.Float32, 8, 16, 32, 32))
	a := graph.Elementwise(backends.OpTypeRelu, x)
	b := graph.Elementwise(backends.OpTypeSigmoid, x)
	sum := graph.Binary(backends.OpTypeAdd, a, b)
	want := slicing.Info{N: pairs(0, 4, 4, 4), H: pairs(0, 16, 16, 16)}

	// The result doesn't depend on the order the consumers of x are listed in.
	for _, group := range []*Group{
		NewGroup("ab", shapes.LayoutNormal, a.Producer(), b.Producer(), sum.Producer()),
		NewGroup("ba", shapes.LayoutNormal, b.Producer(), a.Producer(), sum.Producer()),
	} {
		infos, err := Propagate(backend, group, Secs{N: 2, H: 2}, Exact, DefaultOptions())
		require.NoError(t, err, group.Name)
		requireSlice(t, infos, x, want)
		requireSlice(t, infos, a, want)
		requireSlice(t, infos, b, want)
		assert.Equal(t, sum, infos.Tensors()[0], "outputs are seeded first")
	}
}

func TestPropagateInconsistent(t *testing.T) {
	backend := newBackend(t, "bm1684x")
	g := graph.New("inconsistent")
	x := g.Input("x", shapes.Make(dtypes.Float32, 1, 4, 100, 100))
	filter := g.Weight("filter", shapes.Make(dtypes.Float32, 4, 4, 3, 3))
	conv := graph.Conv(x, filter, nil, graph.ConvAttrs{WindowAttrs: graph.Window2D(3, 1, 1)})
	relu := graph.Elementwise(backends.OpTypeRelu, x)
	sum := graph.Binary(backends.OpTypeAdd, conv, relu)
	group := NewGroup("residual", shapes.LayoutNormal, conv.Producer(), relu.Producer(), sum.Producer())

	// A single height section: both consumers read the whole x.
	infos, err := Propagate(backend, group, Secs{N: 1, H: 1}, Exact, DefaultOptions())
	require.NoError(t, err)
	requireSlice(t, infos, x, slicing.Info{N: pairs(0, 1), H: pairs(0, 100)})

	// The convolution needs a halo around the sections of x, the Relu doesn't.
	_, err = Propagate(backend, group, Secs{N: 1, H: 2}, Exact, DefaultOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentSlice), "got %v", err)
	var splitErr *SplitError
	require.True(t, errors.As(err, &splitErr))
	assert.Equal(t, x, splitErr.Tensor)
	assert.Contains(t, err.Error(), "inconsistent")
}

func TestPropagateInfeasible(t *testing.T) {
	backend := newBackend(t, "bm1684x")

	t.Run("SoftmaxHeight", func(t *testing.T) {
		g := graph.New("softmax")
		x := g.Input("x", shapes.Make(dtypes.Float32, 2, 64, 100, 16))
		s := graph.AlongAxis(backends.OpTypeSoftmax, x, 2)
		out := graph.Elementwise(backends.OpTypeRelu, s)
		group := NewGroup("softmax", shapes.LayoutNormal, s.Producer(), out.Producer())

		_, err := Propagate(backend, group, Secs{N: 1, H: 2}, Exact, DefaultOptions())
		require.ErrorIs(t, err, ErrInfeasibleSplit)
		var splitErr *SplitError
		require.True(t, errors.As(err, &splitErr))
		assert.Equal(t, s.Producer(), splitErr.Op)

		infos, err := Propagate(backend, group, Secs{N: 2, H: 1}, Exact, DefaultOptions())
		require.NoError(t, err)
		requireSlice(t, infos, x, slicing.Info{N: pairs(0, 1, 1, 1), H: pairs(0, 100)})
	})

	t.Run("EmptySections", func(t *testing.T) {
		c := newChain(2, 100)
		_, err := Propagate(backend, c.group, Secs{N: 4, H: 1}, Exact, DefaultOptions())
		require.ErrorIs(t, err, ErrInfeasibleSplit)
		_, err = Propagate(backend, c.group, Secs{N: 1, H: 101}, Exact, DefaultOptions())
		require.ErrorIs(t, err, ErrInfeasibleSplit)
	})

	t.Run("StridedGaps", func(t *testing.T) {
		// A stride larger than the kernel skips input rows: the sections have gaps, which is valid.
		g := graph.New("strided")
		x := g.Input("x", shapes.Make(dtypes.Float32, 1, 4, 100, 100))
		filter := g.Weight("filter", shapes.Make(dtypes.Float32, 4, 4, 1, 1))
		conv := graph.Conv(x, filter, nil, graph.ConvAttrs{WindowAttrs: graph.Window2D(1, 2, 0)})
		out := graph.Elementwise(backends.OpTypeRelu, conv)
		group := NewGroup("strided", shapes.LayoutNormal, conv.Producer(), out.Producer())
		infos, err := Propagate(backend, group, Secs{N: 1, H: 2}, Exact, DefaultOptions())
		require.NoError(t, err)
		requireSlice(t, infos, conv, slicing.Info{N: pairs(0, 1), H: pairs(0, 25, 25, 25)})
		requireSlice(t, infos, x, slicing.Info{N: pairs(0, 1), H: pairs(0, 49, 50, 50)})
	})
}

func TestPropagateGrowth(t *testing.T) {
	backend := newBackend(t, "bm1684x")
	g := graph.New("growth")
	x := g.Input("x", shapes.Make(dtypes.Float32, 1, 4, 20, 20))
	filter := g.Weight("filter", shapes.Make(dtypes.Float32, 4, 4, 7, 7))
	conv := graph.Conv(x, filter, nil, graph.ConvAttrs{WindowAttrs: graph.Window2D(7, 1, 3)})
	out := graph.Elementwise(backends.OpTypeRelu, conv)
	group := NewGroup("growth", shapes.LayoutNormal, conv.Producer(), out.Producer())
	secs := Secs{N: 1, H: 4}

	// The 4 sections of x cover 38 rows of 20, over the 1.5x default limit.
	_, err := Propagate(backend, group, secs, Exact, DefaultOptions())
	require.ErrorIs(t, err, ErrExcessiveGrowth)

	infos, err := Propagate(backend, group, secs, Exact, DefaultOptions().WithGrowthLimit(2))
	require.NoError(t, err)
	requireSlice(t, infos, x, slicing.Info{N: pairs(0, 1), H: pairs(0, 8, 2, 11, 7, 11, 12, 8)})

	_, err = Propagate(backend, group, secs, Exact, DefaultOptions().WithGrowthLimit(0))
	require.NoError(t, err, "a zero limit disables the check")
}

func TestPropagateBroadcast(t *testing.T) {
	backend := newBackend(t, "bm1684x")
	g := graph.New("broadcast")
	x := g.Input("x", shapes.Make(dtypes.Float32, 8, 16, 32, 32))
	bias := g.Input("bias", shapes.Make(dtypes.Float32, 1, 16, 1, 1))
	sum := graph.Binary(backends.OpTypeAdd, x, bias)
	out := graph.Elementwise(backends.OpTypeRelu, sum)
	group := NewGroup("broadcast", shapes.LayoutNormal, sum.Producer(), out.Producer())

	infos, err := Propagate(backend, group, Secs{N: 2, H: 2}, Exact, DefaultOptions())
	require.NoError(t, err)
	requireSlice(t, infos, x, slicing.Info{N: pairs(0, 4, 4, 4), H: pairs(0, 16, 16, 16)})
	requireSlice(t, infos, bias, slicing.Info{N: pairs(0, 1, 0, 1), H: pairs(0, 1, 0, 1)})
}

func TestPropagateMaxSlice4N(t *testing.T) {
	backend := newBackend(t, "bm1684")
	require.True(t, backend.Align4N)
	for _, tc := range []struct {
		dtype dtypes.DType
		want  int
	}{
		{dtypes.Int8, 4},
		{dtypes.Int16, 2},
		{dtypes.Float32, 2},
	} {
		g := graph.New("4n")
		x := g.Input("x", shapes.Make(tc.dtype, 6, 16, 8, 8))
		a := graph.Elementwise(backends.OpTypeRelu, x)
		out := graph.Elementwise(backends.OpTypeRelu, a)
		group := NewGroup("4n", shapes.LayoutNormal, a.Producer(), out.Producer())

		infos, err := Propagate(backend, group, Secs{N: 4, H: 1}, MaxSlice, DefaultOptions())
		require.NoError(t, err)
		requireSlice(t, infos, out, slicing.Info{N: pairs(0, tc.want), H: pairs(0, 8)})
		requireSlice(t, infos, x, slicing.Info{N: pairs(0, tc.want), H: pairs(0, 8)})
	}
}

func TestPropagateMaxSlice4NSingleBatchSection(t *testing.T) {
	backend := newBackend(t, "bm1684:lmem=524288")
	g := graph.New("4n")
	x := g.Input("x", shapes.Make(dtypes.Int8, 1, 16, 8, 8))
	a := graph.Elementwise(backends.OpTypeRelu, x)
	b := graph.Elementwise(backends.OpTypeRelu, a)
	graph.Elementwise(backends.OpTypeRelu, a)
	group := NewGroup("4n", shapes.LayoutNormal, a.Producer(), b.Producer())
	require.Equal(t, []*graph.Tensor{a, b}, group.Outs, "a is also read outside the group")

	infos, err := Propagate(backend, group, Secs{N: 1, H: 2}, MaxSlice, DefaultOptions())
	require.NoError(t, err)
	requireSlice(t, infos, a, slicing.Info{N: pairs(0, 1), H: pairs(0, 4)})
	requireSlice(t, infos, x, slicing.Info{N: pairs(0, 1), H: pairs(0, 4)})

	plan, err := NewPlanner(backend, DefaultOptions()).Plan(group, nil)
	require.NoError(t, err)
	assert.Equal(t, Secs{N: 1, H: 1}, plan.Secs)
}
