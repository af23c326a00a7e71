// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/layergroup"
	"github.com/gomlx/layergroup/slicing"
	"github.com/gomlx/layergroup/types/shapes"
	"github.com/google/go-cmp/cmp"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chainModel = `
name: block
tensors:
  - {name: x, kind: input, dtype: float32, shape: [8, 64, 100, 16]}
  - {name: w, kind: weight, dtype: float32, shape: [1, 64, 1, 1]}
ops:
  - {name: t1, type: Scale, inputs: [x, w]}
  - {name: y, type: relu, inputs: [t1]}
groups:
  - {name: g0, ops: [t1, y]}
`

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadModel(t *testing.T) {
	model, err := LoadModel(strings.NewReader(chainModel))
	require.NoError(t, err)
	g := model.Graph
	assert.Equal(t, "block", g.Name())
	require.Len(t, g.Ops(), 2)

	t1 := g.OpByName("t1")
	require.NotNil(t, t1)
	assert.Equal(t, backends.OpTypeScale, t1.Type())
	assert.Equal(t, t1.Output(0), g.TensorByName("t1"))
	assert.True(t, g.TensorByName("w").IsWeight())
	assert.Equal(t, backends.OpTypeRelu, g.OpByName("y").Type())

	require.Len(t, model.Groups, 1)
	group := model.Groups[0]
	assert.Equal(t, "g0", group.Name)
	assert.Equal(t, shapes.LayoutNormal, group.Layout)
	assert.Equal(t, []*graph.Op{t1, g.OpByName("y")}, group.Ops)
	assert.Equal(t, []*graph.Tensor{g.TensorByName("x")}, group.Ins)

	planner := layergroup.NewPlanner(must.M1(backends.NewWithConfig("bm1684x:lmem=65536")), layergroup.DefaultOptions())
	plan, err := planner.Plan(group, nil)
	require.NoError(t, err)
	assert.Equal(t, layergroup.Secs{N: 2, H: 1}, plan.Secs)
	info, found := plan.Infos.Get(g.TensorByName("t1"))
	require.True(t, found)
	want := slicing.Info{
		N: []slicing.Pair{{Offset: 0, Length: 4}, {Offset: 4, Length: 4}},
		H: []slicing.Pair{{Offset: 0, Length: 100}},
	}
	if diff := cmp.Diff(want, info.Slice); diff != "" {
		t.Errorf("slices of t1 differ (-want +got):\n%s", diff)
	}
}

func TestLoadModelAttributes(t *testing.T) {
	model, err := LoadModel(strings.NewReader(`
name: attrs
layout: normal
tensors:
  - {name: x, dtype: int8, shape: [1, 16, 32, 32], quantized: true, zero_point: 3}
  - {name: filter, kind: weight, dtype: int8, shape: [16, 1, 3, 3]}
ops:
  - {name: dw, type: Conv2D, inputs: [x, filter, none], kernel: [3, 3], strides: [2, 2], pads: [1, 1], groups: 16, quantized: true}
  - {name: pool, type: MaxPool, inputs: [dw], kernel: [2, 2], strides: [2, 2]}
  - {name: up, type: Upsample, inputs: [pool], scale: [2, 2]}
  - {name: cat, type: Concat, inputs: [up, dw], axis: 1}
  - {name: sm, type: Softmax, inputs: [cat], axis: -1}
groups:
  - {name: all, ops: [dw, pool, up, cat, sm]}
  - {name: small, layout: small_c, ops: [pool]}
`))
	require.NoError(t, err)
	g := model.Graph
	x := g.TensorByName("x")
	assert.True(t, x.IsQuantized())
	assert.Equal(t, 3, x.Quantization().ZeroPoint)

	dw := g.OpByName("dw")
	attrs := dw.Attrs().(*graph.ConvAttrs)
	assert.Equal(t, 16, attrs.Groups)
	assert.True(t, attrs.IsDepthWise(16, 16))
	assert.True(t, dw.Input(2).IsNone())
	assert.True(t, dw.Output(0).IsQuantized())
	assert.Equal(t, []int{1, 16, 16, 16}, dw.Output(0).Shape().Dimensions)
	assert.Equal(t, []int{1, 16, 8, 8}, g.TensorByName("pool").Shape().Dimensions)
	assert.Equal(t, []int{1, 32, 16, 16}, g.TensorByName("cat").Shape().Dimensions)
	assert.Equal(t, 3, g.OpByName("sm").Attrs().(*graph.AxisAttrs).Axis)
	require.Len(t, model.Groups, 2)
	assert.Len(t, model.Groups[0].Ops, 5)
	assert.Equal(t, shapes.LayoutNormal, model.Groups[0].Layout)
	assert.Equal(t, shapes.LayoutSmallC, model.Groups[1].Layout)
}

func TestLoadModelErrors(t *testing.T) {
	for _, tc := range []struct {
		name, model, want string
	}{
		{"UnknownField", "name: m\nflavour: spicy\n", "flavour"},
		{"UnknownDType", "tensors:\n  - {name: x, dtype: float7, shape: [1]}\n", "float7"},
		{"InvalidDType", "tensors:\n  - {name: x, dtype: InvalidDType, shape: [1]}\n", "InvalidDType"},
		{"UnknownKind", "tensors:\n  - {name: x, kind: constant, dtype: int8, shape: [1]}\n", "constant"},
		{"UnknownInput", "ops:\n  - {name: y, type: Relu, inputs: [x]}\n", `unknown input "x"`},
		{"UnknownOpType", "tensors:\n  - {name: x, dtype: int8, shape: [1, 1, 4, 4]}\nops:\n  - {name: y, type: Gelu, inputs: [x]}\n", "Gelu"},
		{"NoInputs", "ops:\n  - {name: y, type: Relu}\n", "no inputs"},
		{"MissingOpType", "ops:\n  - {name: y, inputs: [x]}\n", "no valid type"},
		{"MarkerOpType", "ops:\n  - {name: y, type: Last, inputs: [x]}\n", "no valid type"},
		{"BuilderPanic", "tensors:\n  - {name: x, dtype: int8, shape: [2, 1, 4, 4]}\n  - {name: z, dtype: int8, shape: [3, 1, 4, 4]}\n" +
			"ops:\n  - {name: y, type: Add, inputs: [x, z]}\n", `"y"`},
		{"DuplicateName", "tensors:\n  - {name: x, dtype: int8, shape: [1, 1, 4, 4]}\nops:\n  - {name: x, type: Relu, inputs: [x]}\n", `"x"`},
		{"UnknownGroupOp", "tensors:\n  - {name: x, dtype: int8, shape: [1, 1, 4, 4]}\nops:\n  - {name: y, type: Relu, inputs: [x]}\n" +
			"groups:\n  - {name: g, ops: [y, z]}\n", `unknown op "z"`},
		{"UnknownLayout", "layout: nhwc\n", "nhwc"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadModel(strings.NewReader(tc.model))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	_, err := LoadModelFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	t.Run("Planned", func(t *testing.T) {
		backend := must.M1(backends.NewWithConfig("bm1684x:lmem=65536"))
		var buf bytes.Buffer
		numFailed, err := run(context.Background(), &buf, backend, layergroup.DefaultOptions(), writeModel(t, chainModel), false)
		require.NoError(t, err)
		assert.Zero(t, numFailed)
		report := buf.String()
		assert.Contains(t, report, "Group g0")
		assert.Contains(t, report, "2x1")
		assert.Contains(t, report, "t1(Scale)")
		assert.Contains(t, report, "(0,4) (4,4)")
	})

	t.Run("Failed", func(t *testing.T) {
		content := strings.Replace(chainModel, "ops:\n",
			"  - {name: xs, kind: input, dtype: float32, shape: [1, 64, 100, 16]}\nops:\n"+
				"  - {name: s, type: Softmax, inputs: [xs], axis: 2}\n"+
				"  - {name: r, type: Relu, inputs: [s]}\n", 1)
		content += "  - {name: g1, ops: [s, r]}\n"
		backend := must.M1(backends.NewWithConfig("bm1684x:lmem=16384"))
		var buf bytes.Buffer
		numFailed, err := run(context.Background(), &buf, backend, layergroup.DefaultOptions().WithParallelism(1),
			writeModel(t, content), false)
		require.NoError(t, err)
		assert.Equal(t, 1, numFailed)
		report := buf.String()
		assert.Contains(t, report, "7x2")
		assert.Contains(t, report, layergroup.ErrSearchExhausted.Error())
		assert.NotContains(t, report, "Group g1")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := run(context.Background(), &bytes.Buffer{}, must.M1(backends.NewWithConfig("bm1684x")),
			layergroup.DefaultOptions(), filepath.Join(t.TempDir(), "missing.yaml"), false)
		require.Error(t, err)
	})
}

func TestPairsSummary(t *testing.T) {
	assert.Equal(t, "(0,4) (4,4)", pairsSummary(slicing.Partition(8, 2)))
	assert.Equal(t, "(0,2) (2,2) … (14,2) [8]", pairsSummary(slicing.Partition(16, 8)))
	assert.Equal(t, "", pairsSummary(nil))
}

func TestReportTable(t *testing.T) {
	overview := newReportTable(left("Group"), right("Peak"))
	overview.Add("g0", "1.0 KiB")
	overview.AddFailed("g1", "-")
	assert.Equal(t, map[int]bool{1: true}, overview.failed)
	rendered := overview.Render()
	assert.Contains(t, rendered, "Group")
	assert.Contains(t, rendered, "g1")
	assert.Contains(t, rendered, "├", "header separator")

	summary := newReportTable(right(""), left(""))
	summary.Add("Ops", "relu")
	assert.NotContains(t, summary.Render(), "├", "no header row")
}
