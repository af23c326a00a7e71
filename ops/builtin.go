// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package ops

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/slicing"
	"github.com/gomlx/layergroup/types/shapes"
)

func init() {
	// Every known kind starts as point-wise: element-wise unary ops, PRelu, Scale, Lut, Cast, ...
	for _, opType := range backends.OpTypeValues() {
		if opType.IsValid() {
			Register(opType, Capability{})
		}
	}

	window := Capability{CanSplit: windowCanSplit, BackwardH: windowBackwardH}
	Register(backends.OpTypeConv1D, window)
	Register(backends.OpTypeConv2D, window)
	Register(backends.OpTypeConv3D, window)
	Register(backends.OpTypeMaxPool, window)
	Register(backends.OpTypeAvgPool, Capability{CanSplit: windowCanSplit, BackwardH: windowBackwardH, BufferSize: avgPoolBuffer})
	Register(backends.OpTypeDeconv, Capability{CanSplit: batchOnly})

	Register(backends.OpTypeUpsample, Capability{BackwardH: upsampleBackwardH})
	Register(backends.OpTypeSoftmax, Capability{CanSplit: alongAxisCanSplit, BufferSize: softmaxBuffer})
	Register(backends.OpTypeLayerNorm, Capability{CanSplit: alongAxisCanSplit, BufferSize: layerNormBuffer})
	Register(backends.OpTypeConcat, Capability{CanSplit: alongAxisCanSplit})
	Register(backends.OpTypeReshape, Capability{CanSplit: reshapeCanSplit})
	Register(backends.OpTypePermute, Capability{CanSplit: permuteCanSplit})
	Register(backends.OpTypeMatMul, Capability{CanSplit: matMulCanSplit, BackwardN: matMulBackwardN})

	for _, opType := range []backends.OpType{backends.OpTypeSigmoid, backends.OpTypeTanh} {
		Register(opType, Capability{BufferSize: transcendentalBuffer})
	}
	for _, opType := range []backends.OpType{
		backends.OpTypeAdd, backends.OpTypeSub, backends.OpTypeMul,
		backends.OpTypeDiv, backends.OpTypeMax, backends.OpTypeMin} {
		Register(opType, Capability{BufferSize: binaryBuffer})
	}
	Register(backends.OpTypeMulShift, Capability{BufferSize: mulShiftBuffer})
	Register(backends.OpTypeRequantIntAxis, Capability{BufferSize: requantIntAxisBuffer})
}

// fullSection returns the whole extent of the operand along the axis.
func fullSection(op *graph.Op, operand int, layout shapes.Layout, axis Axis) slicing.Pair {
	shape := op.Input(operand).Shape()
	if axis == AxisHeight {
		return slicing.Pair{Offset: 0, Length: shape.Height(layout)}
	}
	return slicing.Pair{Offset: 0, Length: shape.Batch(layout)}
}

func batchOnly(_ *graph.Op, axis Axis, _ shapes.Layout) bool {
	return axis == AxisBatch
}

// Convolutions and pooling ---------------------------------------------------------------------------

func windowOf(op *graph.Op) *graph.WindowAttrs {
	switch attrs := op.Attrs().(type) {
	case *graph.ConvAttrs:
		return &attrs.WindowAttrs
	case *graph.PoolAttrs:
		return &attrs.WindowAttrs
	}
	exceptions.Panicf("ops: %s has no window attributes (got %T)", op, op.Attrs())
	return nil
}

// heightSpatialAxis returns the spatial axis of the window that is packed into the canonical height.
func heightSpatialAxis(op *graph.Op, layout shapes.Layout) int {
	if layout == shapes.Layout3D && op.Input(0).Shape().Rank() >= 5 {
		return 1
	}
	return 0
}

// windowCanSplit: volumetric windows only split height when the group keeps the depth axis apart.
func windowCanSplit(op *graph.Op, axis Axis, layout shapes.Layout) bool {
	if axis == AxisHeight && op.Input(0).Shape().Rank() >= 5 {
		return layout == shapes.Layout3D
	}
	return true
}

// windowBackwardH expands the output section by the receptive field of the window.
// The section is clamped to the input and the last section always extends to the end of the input.
func windowBackwardH(op *graph.Op, operand int, out slicing.Pair, layout shapes.Layout) (slicing.Pair, bool) {
	if operand != 0 {
		return fullSection(op, operand, layout, AxisHeight), true
	}
	g := windowOf(op).Geometry(heightSpatialAxis(op, layout))
	inH := op.Input(0).Shape().Height(layout)
	outH := op.Output(0).Shape().Height(layout)
	start := out.Offset*g.Stride - g.PadBegin
	end := start + (out.Length-1)*g.Stride + g.KernelExtent()
	start = max(start, 0)
	if end > inH || out.End() == outH {
		end = inH
	}
	if out.Length <= 0 || end <= start {
		return slicing.Pair{}, false
	}
	return slicing.Pair{Offset: start, Length: end - start}, true
}

// Layout-changing ops ----------------------------------------------------------------------------------

// upsampleBackwardH requires sections aligned to the scale, except for the length of the last one.
func upsampleBackwardH(op *graph.Op, operand int, out slicing.Pair, layout shapes.Layout) (slicing.Pair, bool) {
	scale := max(op.Attrs().(*graph.UpsampleAttrs).ScaleH, 1)
	isLast := out.End() == op.Output(0).Shape().Height(layout)
	if out.Offset%scale != 0 || (!isLast && out.Length%scale != 0) {
		return slicing.Pair{}, false
	}
	return slicing.Pair{Offset: out.Offset / scale, Length: backends.CeilDiv(out.Length, scale)}, true
}

// alongAxisCanSplit is used by ops that need the whole extent of their axis: Softmax, LayerNorm and Concat.
func alongAxisCanSplit(op *graph.Op, axis Axis, layout shapes.Layout) bool {
	attrs := op.Attrs().(*graph.AxisAttrs)
	return op.Input(0).Shape().CanonicalAxis(attrs.Axis, layout) != axis.Canonical()
}

func reshapeCanSplit(op *graph.Op, axis Axis, layout shapes.Layout) bool {
	if axis == AxisHeight {
		return false
	}
	in, out := op.Input(0).Shape(), op.Output(0).Shape()
	return in.Rank() > 0 && out.Rank() > 0 && in.Batch(layout) == out.Batch(layout) && in.Dimensions[0] == out.Dimensions[0]
}

// permuteCanSplit only allows splitting an axis every output axis of which stays in place.
func permuteCanSplit(op *graph.Op, axis Axis, layout shapes.Layout) bool {
	order := op.Attrs().(*graph.PermuteAttrs).Order
	out := op.Output(0).Shape()
	for ii := range out.Rank() {
		if out.CanonicalAxis(ii, layout) == axis.Canonical() && order[ii] != ii {
			return false
		}
	}
	return true
}

func matMulCanSplit(op *graph.Op, axis Axis, _ shapes.Layout) bool {
	return axis == AxisBatch && op.Input(0).Shape().Rank() >= 3
}

// matMulBackwardN: a right-hand side without the batch axes is read whole by every section.
func matMulBackwardN(op *graph.Op, operand int, out slicing.Pair, layout shapes.Layout) (slicing.Pair, bool) {
	if operand == 1 && op.Input(1).Shape().Rank() < op.Input(0).Shape().Rank() {
		return fullSection(op, operand, layout, AxisBatch), true
	}
	return out, true
}

// Scratch buffers ---------------------------------------------------------------------------------------

// sectionBytes returns the local memory bytes of a section of t stored with the given dtype.
func sectionBytes(q BufferQuery, t *graph.Tensor, dtype dtypes.DType, n, h int) int64 {
	_, c, d, _, w := t.Shape().NCDHW(q.Layout)
	return q.Backend.TensorLmemBytes(dtype, int64(n), int64(c), int64(d), int64(h), int64(w), true)
}

// rowBytes returns the bytes of one float32 value per (n, c, d, h) row of a section of t.
func rowBytes(q BufferQuery, t *graph.Tensor, n, h int) int64 {
	_, c, d, _, _ := t.Shape().NCDHW(q.Layout)
	return q.Backend.TensorLmemBytes(dtypes.Float32, int64(n), int64(c), int64(d), int64(h), 1, true)
}

// softmaxBuffer holds the float32 exponentials and the per-row sums.
func softmaxBuffer(op *graph.Op, q BufferQuery) int64 {
	out := op.Output(0)
	return sectionBytes(q, out, dtypes.Float32, q.OutN, q.OutH) + rowBytes(q, out, q.OutN, q.OutH)
}

// layerNormBuffer holds the per-row mean and reciprocal standard deviation.
func layerNormBuffer(op *graph.Op, q BufferQuery) int64 {
	return 2 * rowBytes(q, op.Output(0), q.OutN, q.OutH)
}

func transcendentalBuffer(op *graph.Op, q BufferQuery) int64 {
	out := op.Output(0)
	if out.DType() == dtypes.Float32 {
		return q.OutputBytes
	}
	return sectionBytes(q, out, dtypes.Float32, q.OutN, q.OutH)
}

// binaryBuffer: quantized operands are rescaled to int16 before being combined.
func binaryBuffer(op *graph.Op, q BufferQuery) int64 {
	out := op.Output(0)
	if !out.IsQuantized() {
		return 0
	}
	return 2 * sectionBytes(q, out, dtypes.Int16, q.OutN, q.OutH)
}

func mulShiftBuffer(op *graph.Op, q BufferQuery) int64 {
	in := op.Input(0)
	if in.Quantization().ZeroPoint == 0 && op.Output(0).Quantization().ZeroPoint == 0 {
		return 0
	}
	return sectionBytes(q, in, dtypes.Int16, q.InN, q.InH)
}

// avgPoolBuffer holds int32 accumulators for quantized pooling.
func avgPoolBuffer(op *graph.Op, q BufferQuery) int64 {
	out := op.Output(0)
	if !out.IsQuantized() {
		return 0
	}
	return sectionBytes(q, out, dtypes.Int32, q.OutN, q.OutH)
}

func requantIntAxisBuffer(op *graph.Op, q BufferQuery) int64 {
	return sectionBytes(q, op.Output(0), dtypes.Int32, q.OutN, q.OutH)
}
