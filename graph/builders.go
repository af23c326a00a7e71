// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/types/shapes"
)

// This file holds helpers that create ops inferring their output shapes.
// They panic (see package github.com/gomlx/exceptions) on invalid arguments.

// Elementwise creates a unary element-wise op (Relu, Lut, Scale, ...) on x. The extra operands
// are typically weights (tables, scales, slopes) and don't change the output shape.
func Elementwise(opType backends.OpType, x *Tensor, operands ...*Tensor) *Tensor {
	inputs := append([]*Tensor{x}, operands...)
	return x.graph.NewOp("", opType, nil, inputs, x.shape.Clone()).Output(0)
}

// Binary creates a binary element-wise op with numpy-like broadcasting of axes of dimension 1.
// Both operands must have the same rank.
func Binary(opType backends.OpType, lhs, rhs *Tensor) *Tensor {
	if !opType.IsBinary() {
		exceptions.Panicf("graph.Binary(%s): not a binary op", opType)
	}
	if lhs.shape.Rank() != rhs.shape.Rank() {
		exceptions.Panicf("graph.Binary(%s): operands %s and %s have different ranks", opType, lhs, rhs)
	}
	output := lhs.shape.Clone()
	for axis, dim := range rhs.shape.Dimensions {
		lhsDim := lhs.shape.Dimensions[axis]
		switch {
		case dim == lhsDim:
		case lhsDim == 1:
			output.Dimensions[axis] = dim
		case dim == 1:
		default:
			exceptions.Panicf("graph.Binary(%s): operands %s and %s are not broadcastable on axis %d", opType, lhs, rhs, axis)
		}
	}
	return lhs.graph.NewOp("", opType, nil, []*Tensor{lhs, rhs}, output).Output(0)
}

// Conv creates a Conv1D, Conv2D or Conv3D op, depending on the rank of x (3, 4 or 5).
// The filter is shaped [outChannels, inChannels/groups, spatial kernel...]. bias can be nil.
func Conv(x, filter, bias *Tensor, attrs ConvAttrs) *Tensor {
	shapes.AssertMinRank(x, 3)
	var opType backends.OpType
	switch x.shape.Rank() {
	case 3:
		opType = backends.OpTypeConv1D
	case 4:
		opType = backends.OpTypeConv2D
	case 5:
		opType = backends.OpTypeConv3D
	default:
		exceptions.Panicf("graph.Conv: input %s must have rank 3, 4 or 5", x)
	}
	if attrs.NumSpatialAxes() != x.shape.Rank()-2 {
		exceptions.Panicf("graph.Conv: kernel %v doesn't match the %d spatial axes of %s", attrs.Kernel, x.shape.Rank()-2, x)
	}
	if attrs.Groups <= 0 {
		attrs.Groups = 1
	}
	output := x.shape.WithDim(1, filter.shape.Dim(0))
	for spatial := range attrs.NumSpatialAxes() {
		dim := attrs.Geometry(spatial).OutputDim(x.shape.Dim(2 + spatial))
		if dim <= 0 {
			exceptions.Panicf("graph.Conv: window %+v too large for input %s", attrs.WindowAttrs, x)
		}
		output.Dimensions[2+spatial] = dim
	}
	return x.graph.NewOp("", opType, &attrs, convOperands(x, filter, bias), output).Output(0)
}

// Deconv creates a transposed 2D convolution. The filter is shaped [inChannels, outChannels/groups, kh, kw].
func Deconv(x, filter, bias *Tensor, attrs ConvAttrs) *Tensor {
	if err := x.shape.CheckMinRank(4); err != nil || attrs.NumSpatialAxes() != 2 {
		exceptions.Panicf("graph.Deconv: input %s must have rank 4 and a 2D kernel, got kernel %v", x, attrs.Kernel)
	}
	if attrs.Groups <= 0 {
		attrs.Groups = 1
	}
	output := x.shape.WithDim(1, filter.shape.Dim(1)*attrs.Groups)
	for spatial := range 2 {
		g := attrs.Geometry(spatial)
		dim := (x.shape.Dim(2+spatial)-1)*g.Stride - g.PadBegin - g.PadEnd + g.KernelExtent()
		if dim <= 0 {
			exceptions.Panicf("graph.Deconv: invalid window %+v for input %s", attrs.WindowAttrs, x)
		}
		output.Dimensions[2+spatial] = dim
	}
	return x.graph.NewOp("", backends.OpTypeDeconv, &attrs, convOperands(x, filter, bias), output).Output(0)
}

func convOperands(x, filter, bias *Tensor) []*Tensor {
	if bias == nil {
		bias = x.graph.None()
	}
	return []*Tensor{x, filter, bias}
}

// Pool creates a MaxPool or AvgPool over the spatial axes of x.
func Pool(opType backends.OpType, x *Tensor, attrs PoolAttrs) *Tensor {
	if opType != backends.OpTypeMaxPool && opType != backends.OpTypeAvgPool {
		exceptions.Panicf("graph.Pool(%s): not a pooling op", opType)
	}
	shapes.AssertMinRank(x, 3)
	if attrs.NumSpatialAxes() != x.shape.Rank()-2 {
		exceptions.Panicf("graph.Pool: kernel %v doesn't match the %d spatial axes of %s", attrs.Kernel, x.shape.Rank()-2, x)
	}
	output := x.shape.Clone()
	for spatial := range attrs.NumSpatialAxes() {
		dim := attrs.Geometry(spatial).OutputDim(x.shape.Dim(2 + spatial))
		if dim <= 0 {
			exceptions.Panicf("graph.Pool: window %+v too large for input %s", attrs.WindowAttrs, x)
		}
		output.Dimensions[2+spatial] = dim
	}
	return x.graph.NewOp("", opType, &attrs, []*Tensor{x}, output).Output(0)
}

// Upsample creates a nearest-neighbour upsampling of the two last axes of x.
func Upsample(x *Tensor, scaleH, scaleW int) *Tensor {
	shapes.AssertMinRank(x, 4)
	if scaleH <= 0 || scaleW <= 0 {
		exceptions.Panicf("graph.Upsample: scales must be positive, got %d, %d", scaleH, scaleW)
	}
	rank := x.shape.Rank()
	output := x.shape.Clone()
	output.Dimensions[rank-2] *= scaleH
	output.Dimensions[rank-1] *= scaleW
	return x.graph.NewOp("", backends.OpTypeUpsample, &UpsampleAttrs{ScaleH: scaleH, ScaleW: scaleW}, []*Tensor{x}, output).Output(0)
}

// AlongAxis creates an op working along a logical axis that keeps the shape: Softmax or LayerNorm
// (with optional gamma/beta weights as extra operands).
func AlongAxis(opType backends.OpType, x *Tensor, axis int, operands ...*Tensor) *Tensor {
	if axis < 0 {
		axis += x.shape.Rank()
	}
	if axis < 0 || axis >= x.shape.Rank() {
		exceptions.Panicf("graph.AlongAxis(%s): axis %d out of range for %s", opType, axis, x)
	}
	inputs := append([]*Tensor{x}, operands...)
	return x.graph.NewOp("", opType, &AxisAttrs{Axis: axis}, inputs, x.shape.Clone()).Output(0)
}

// Concat concatenates the operands along the given logical axis.
func Concat(axis int, operands ...*Tensor) *Tensor {
	if len(operands) == 0 {
		exceptions.Panicf("graph.Concat: no operands")
	}
	first := operands[0]
	if axis < 0 {
		axis += first.shape.Rank()
	}
	output := first.shape.Clone()
	for _, operand := range operands[1:] {
		if operand.shape.Rank() != first.shape.Rank() {
			exceptions.Panicf("graph.Concat: operands %s and %s have different ranks", first, operand)
		}
		for ii, dim := range operand.shape.Dimensions {
			if ii == axis {
				output.Dimensions[ii] += dim
			} else if dim != first.shape.Dimensions[ii] {
				exceptions.Panicf("graph.Concat: operands %s and %s differ on axis %d", first, operand, ii)
			}
		}
	}
	return first.graph.NewOp("", backends.OpTypeConcat, &AxisAttrs{Axis: axis}, operands, output).Output(0)
}

// Permute transposes the axes of x: output axis ii is the input axis order[ii].
func Permute(x *Tensor, order ...int) *Tensor {
	if len(order) != x.shape.Rank() {
		exceptions.Panicf("graph.Permute: order %v doesn't match rank of %s", order, x)
	}
	sorted := slices.Sorted(slices.Values(order))
	for ii, axis := range sorted {
		if axis != ii {
			exceptions.Panicf("graph.Permute: order %v is not a permutation", order)
		}
	}
	output := x.shape.Clone()
	for ii, axis := range order {
		output.Dimensions[ii] = x.shape.Dimensions[axis]
	}
	return x.graph.NewOp("", backends.OpTypePermute, &PermuteAttrs{Order: slices.Clone(order)}, []*Tensor{x}, output).Output(0)
}

// Reshape changes the dimensions of x, keeping its size.
func Reshape(x *Tensor, dimensions ...int) *Tensor {
	output := shapes.Make(x.shape.DType, dimensions...)
	if output.Size() != x.shape.Size() {
		exceptions.Panicf("graph.Reshape: can't reshape %s to %v", x, dimensions)
	}
	return x.graph.NewOp("", backends.OpTypeReshape, nil, []*Tensor{x}, output).Output(0)
}

// MatMul multiplies the last two axes of lhs by rhs shaped [k, n], keeping the leading axes of lhs.
func MatMul(lhs, rhs *Tensor) *Tensor {
	shapes.AssertMinRank(lhs, 2)
	if err := rhs.shape.CheckDims(lhs.shape.Dim(-1), shapes.UncheckedAxis); err != nil {
		exceptions.Panicf("graph.MatMul: incompatible operands %s and %s: %v", lhs, rhs, err)
	}
	output := lhs.shape.WithDim(lhs.shape.Rank()-1, rhs.shape.Dim(1))
	return lhs.graph.NewOp("", backends.OpTypeMatMul, nil, []*Tensor{lhs, rhs}, output).Output(0)
}
