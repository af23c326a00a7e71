// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

// OpType is an enum of all operator kinds that can be part of a fusion group.
//
// Notice: nothing precludes adding new kinds, as long as a capability entry is registered
// for them in package github.com/gomlx/layergroup/ops.
type OpType int

//go:generate go tool enumer -type=OpType -trimprefix=OpType -yaml -output=gen_optype_enumer.go optype.go

const (
	OpTypeInvalid OpType = iota

	// Convolution-like, with receptive field growth along the height.
	OpTypeConv1D
	OpTypeConv2D
	OpTypeConv3D
	OpTypeDeconv
	OpTypeMaxPool
	OpTypeAvgPool

	// Binary element-wise, possibly broadcasting.
	OpTypeAdd
	OpTypeSub
	OpTypeMul
	OpTypeDiv
	OpTypeMax
	OpTypeMin

	// Unary element-wise.
	OpTypeAddConst
	OpTypeMulShift
	OpTypeCompareConst
	OpTypeRelu
	OpTypeSigmoid
	OpTypeTanh
	OpTypeCast
	OpTypeRequant
	OpTypeRequantIntAxis
	OpTypeLut
	OpTypeLutBF16
	OpTypeScaleLut
	OpTypeScale
	OpTypePRelu
	OpTypePixelNorm
	OpTypeSwapChannel

	// Ops with axis semantics.
	OpTypeLayerNorm
	OpTypeSoftmax
	OpTypeConcat
	OpTypeUpsample
	OpTypeReshape
	OpTypePermute
	OpTypeMatMul

	// OpTypeLast should always be kept the last, it is used as a counter/marker for OpType.
	OpTypeLast
)

// IsValid returns whether t is one of the op kinds, and not OpTypeInvalid or the OpTypeLast marker.
func (t OpType) IsValid() bool {
	return t > OpTypeInvalid && t < OpTypeLast
}

// IsConvolution returns whether the op is one of the convolution kinds (including Deconv).
func (t OpType) IsConvolution() bool {
	switch t {
	case OpTypeConv1D, OpTypeConv2D, OpTypeConv3D, OpTypeDeconv:
		return true
	}
	return false
}

// IsBinary returns whether the op is a binary element-wise op with two tensor operands.
func (t OpType) IsBinary() bool {
	switch t {
	case OpTypeAdd, OpTypeSub, OpTypeMul, OpTypeDiv, OpTypeMax, OpTypeMin:
		return true
	}
	return false
}
