// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/slicing"
	"github.com/gomlx/layergroup/types/shapes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// alignFixture holds one weight per alignment rule.
type alignFixture struct {
	x                                 *graph.Tensor
	lutTable, bf16Table, bf16Mantissa *graph.Tensor
	scaleLutTable, scale, slope       *graph.Tensor
	filter, bias                      *graph.Tensor
	dwFilter                          *graph.Tensor
	groupedBias, quantGroupedBias     *graph.Tensor
	requantParams, gamma, shared      *graph.Tensor
	unused                            *graph.Tensor
}

func newAlignFixture() *alignFixture {
	g := graph.New("align")
	f := &alignFixture{}
	weight := func(name string, dtype dtypes.DType, dims ...int) *graph.Tensor {
		return g.Weight(name, shapes.Make(dtype, dims...))
	}
	f.x = g.Input("x", shapes.Make(dtypes.Int8, 1, 16, 8, 8))
	xBF16 := g.Input("x_bf16", shapes.Make(dtypes.BFloat16, 1, 16, 8, 8))

	f.lutTable = weight("lut_table", dtypes.Int8, 1, 1, 16, 16)
	graph.Elementwise(backends.OpTypeLut, f.x, f.lutTable)
	f.bf16Table = weight("bf16_table", dtypes.BFloat16, 1, 1, 16, 16)
	f.bf16Mantissa = weight("bf16_mantissa", dtypes.BFloat16, 1, 1, 16, 16)
	graph.Elementwise(backends.OpTypeLutBF16, xBF16, f.bf16Table, f.bf16Mantissa)
	f.scaleLutTable = weight("scale_lut_table", dtypes.Int8, 1, 16, 1, 256)
	graph.Elementwise(backends.OpTypeScaleLut, f.x, f.scaleLutTable)
	f.scale = weight("scale", dtypes.Int8, 1, 16, 1, 1)
	graph.Elementwise(backends.OpTypeScale, f.x, f.scale)
	f.slope = weight("slope", dtypes.Int8, 1, 16, 1, 1)
	graph.Elementwise(backends.OpTypePRelu, f.x, f.slope)

	conv := graph.ConvAttrs{WindowAttrs: graph.Window2D(3, 1, 1)}
	f.filter = weight("filter", dtypes.Int8, 32, 16, 3, 3)
	f.bias = weight("bias", dtypes.Int32, 1, 32, 1, 1)
	graph.Conv(f.x, f.filter, f.bias, conv)

	depthWise := conv
	depthWise.Groups = 16
	f.dwFilter = weight("dw_filter", dtypes.Int8, 16, 1, 3, 3)
	graph.Conv(f.x, f.dwFilter, nil, depthWise)

	grouped := conv
	grouped.Groups = 4
	f.groupedBias = weight("grouped_bias", dtypes.Int32, 1, 32, 1, 1)
	graph.Conv(f.x, weight("grouped_filter", dtypes.Int8, 32, 4, 3, 3), f.groupedBias, grouped)
	f.quantGroupedBias = weight("quant_grouped_bias", dtypes.Int32, 1, 32, 1, 1)
	graph.Conv(f.x, weight("quant_grouped_filter", dtypes.Int8, 32, 4, 3, 3), f.quantGroupedBias, grouped).
		SetQuantization(graph.Quantization{Quantized: true, Scale: 0.5})

	f.requantParams = weight("requant_params", dtypes.Int32, 1, 16, 1, 3)
	graph.Elementwise(backends.OpTypeRequantIntAxis, f.x, f.requantParams)
	f.gamma = weight("gamma", dtypes.BFloat16, 1, 1, 1, 8)
	graph.AlongAxis(backends.OpTypeLayerNorm, xBF16, -1, f.gamma)

	// Scale is the first consumer, it decides.
	f.shared = weight("shared", dtypes.Int8, 1, 16, 1, 1)
	graph.Elementwise(backends.OpTypeScale, f.x, f.shared)
	graph.Binary(backends.OpTypeAdd, f.x, f.shared)

	f.unused = weight("unused", dtypes.Int8, 1, 16, 1, 1)
	return f
}

func TestAlignPolicies(t *testing.T) {
	f := newAlignFixture()
	for _, tc := range []struct {
		name                   string
		tensor                 *graph.Tensor
		common, bm1686, cv18xx bool
	}{
		{"activation", f.x, true, true, true},
		{"unused", f.unused, true, true, true},
		{"lut_table", f.lutTable, true, true, false},
		{"bf16_table", f.bf16Table, true, true, false},
		{"bf16_mantissa", f.bf16Mantissa, true, true, false},
		{"scale_lut_table", f.scaleLutTable, true, true, false},
		{"scale", f.scale, false, false, false},
		{"slope", f.slope, false, false, true},
		{"filter", f.filter, false, false, false},
		{"bias", f.bias, false, false, false},
		{"dw_filter", f.dwFilter, false, false, true},
		{"grouped_bias", f.groupedBias, false, false, false},
		{"quant_grouped_bias", f.quantGroupedBias, false, false, true},
		{"requant_params", f.requantParams, true, false, true},
		{"gamma", f.gamma, true, true, false},
		{"shared", f.shared, false, false, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.common, CommonAlign(tc.tensor), "common")
			assert.Equal(t, tc.bm1686, BM1686Align(tc.tensor), "bm1686")
			assert.Equal(t, tc.cv18xx, CV18xxAlign(tc.tensor), "cv18xx")
			assert.Equal(t, tc.common, AlignPolicyFor(backends.FamilyBM168x)(tc.tensor))
			assert.Equal(t, tc.bm1686, AlignPolicyFor(backends.FamilyBM1686)(tc.tensor))
			assert.Equal(t, tc.cv18xx, AlignPolicyFor(backends.FamilyCV18xx)(tc.tensor))
		})
	}
}

func TestNeedBroadcast(t *testing.T) {
	f := newAlignFixture()
	for _, family := range []backends.Family{backends.FamilyBM168x, backends.FamilyCV18xx} {
		assert.True(t, NeedBroadcast(f.lutTable, family))
		assert.True(t, NeedBroadcast(f.bf16Table, family))
		assert.True(t, NeedBroadcast(f.bf16Mantissa, family))
		assert.False(t, NeedBroadcast(f.x, family), "x has many consumers")
		assert.False(t, NeedBroadcast(f.scale, family))
		assert.False(t, NeedBroadcast(f.shared, family))
		assert.False(t, NeedBroadcast(f.unused, family))
	}
	assert.True(t, NeedBroadcast(f.gamma, backends.FamilyCV18xx))
	assert.False(t, NeedBroadcast(f.gamma, backends.FamilyBM168x))

	// A table shared by two lookups is not broadcast.
	g := graph.New("shared_table")
	x := g.Input("x", shapes.Make(dtypes.Int8, 1, 16, 8, 8))
	table := g.Weight("table", shapes.Make(dtypes.Int8, 1, 1, 16, 16))
	graph.Elementwise(backends.OpTypeLut, x, table)
	graph.Elementwise(backends.OpTypeLut, x, table)
	assert.False(t, NeedBroadcast(table, backends.FamilyBM168x))
}

func TestUse3IC(t *testing.T) {
	g := graph.New("3ic")
	x := g.Input("x", shapes.Make(dtypes.Int8, 1, 3, 224, 224))
	filter := g.Weight("filter", shapes.Make(dtypes.Int8, 32, 3, 3, 3))
	attrs := graph.ConvAttrs{WindowAttrs: graph.Window2D(3, 2, 1), Use3IC: 2}
	y := graph.Conv(x, filter, nil, attrs)
	z := g.Input("z", shapes.Make(dtypes.Int8, 1, 3, 224, 224))
	graph.Elementwise(backends.OpTypeRelu, z)

	assert.Equal(t, 2, Use3IC(x))
	assert.Equal(t, 0, Use3IC(filter), "only the convolution input")
	assert.Equal(t, 0, Use3IC(y))
	assert.Equal(t, 0, Use3IC(z))
}

func TestUpdateTensorInfos(t *testing.T) {
	backend := newBackend(t, "bm1684x")
	c := newChain(8, 100)
	infos, err := Propagate(backend, c.group, Secs{N: 2, H: 1}, Exact, DefaultOptions())
	require.NoError(t, err)
	UpdateTensorInfos(c.group, infos, backend.Family)

	require.Equal(t, 4, infos.Len())
	for _, tensor := range []*graph.Tensor{c.x, c.mid, c.out} {
		info, _ := infos.Get(tensor)
		assert.True(t, info.EUAlign, tensor.Name())
		assert.False(t, info.NeedBroadcast, tensor.Name())
		assert.Zero(t, info.Use3IC, tensor.Name())
	}
	requireSlice(t, infos, c.w, slicing.Info{N: pairs(0, 1), H: pairs(0, 1)})
	info, _ := infos.Get(c.w)
	assert.False(t, info.EUAlign, "Scale parameters are unaligned")

	t.Run("Lut", func(t *testing.T) {
		g := graph.New("lut")
		x := g.Input("x", shapes.Make(dtypes.Int8, 1, 16, 8, 8))
		table := g.Weight("table", shapes.Make(dtypes.Int8, 1, 1, 16, 16))
		y := graph.Elementwise(backends.OpTypeLut, x, table)
		out := graph.Elementwise(backends.OpTypeRelu, y)
		group := NewGroup("lut", shapes.LayoutNormal, y.Producer(), out.Producer())
		infos, err := Propagate(backend, group, Secs{N: 1, H: 2}, Exact, DefaultOptions())
		require.NoError(t, err)
		UpdateTensorInfos(group, infos, backends.FamilyCV18xx)

		info, found := infos.Get(table)
		require.True(t, found)
		assert.True(t, info.NeedBroadcast)
		assert.False(t, info.EUAlign)
		requireSlice(t, infos, table, slicing.Info{N: pairs(0, 1), H: pairs(0, 16)})
		requireSlice(t, infos, x, slicing.Info{N: pairs(0, 1), H: pairs(0, 4, 4, 4)})
	})
}
