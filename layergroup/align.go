// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
)

// AlignPolicy decides whether a tensor is stored element-unit aligned in local memory.
//
// Activations are always aligned. For weights the decision depends on the chip family and on the
// kind of the op consuming it (the first consumer, if more than one), and on which operand it is.
type AlignPolicy func(t *graph.Tensor) bool

// AlignPolicyFor returns the policy of the chip family.
func AlignPolicyFor(family backends.Family) AlignPolicy {
	switch family {
	case backends.FamilyBM1686:
		return BM1686Align
	case backends.FamilyCV18xx:
		return CV18xxAlign
	default:
		return CommonAlign
	}
}

// weightConsumer returns the op that decides the alignment of t and t's operand index in it.
// ok is false for activations and unused weights.
func weightConsumer(t *graph.Tensor) (op *graph.Op, operand int, ok bool) {
	if !t.IsWeight() {
		return nil, -1, false
	}
	op = t.FirstConsumer()
	if op == nil {
		return nil, -1, false
	}
	return op, op.OperandIndex(t), true
}

// CommonAlign is the policy of the BM168x chips: convolution filters and biases, PRelu slopes and
// Scale parameters are stored unaligned.
func CommonAlign(t *graph.Tensor) bool {
	op, operand, ok := weightConsumer(t)
	if !ok {
		return true
	}
	switch op.Type() {
	case backends.OpTypeConv1D, backends.OpTypeConv2D, backends.OpTypeConv3D, backends.OpTypeDeconv:
		return operand != 1 && operand != 2
	case backends.OpTypePRelu, backends.OpTypeScale:
		return false
	}
	return true
}

// BM1686Align is CommonAlign plus unaligned per-channel requantization parameters.
func BM1686Align(t *graph.Tensor) bool {
	op, operand, ok := weightConsumer(t)
	if ok && op.Type() == backends.OpTypeRequantIntAxis && operand == 1 {
		return false
	}
	return CommonAlign(t)
}

// CV18xxAlign is the policy of the CV18xx chips.
func CV18xxAlign(t *graph.Tensor) bool {
	op, operand, ok := weightConsumer(t)
	if !ok {
		return true
	}
	switch op.Type() {
	case backends.OpTypeLut, backends.OpTypeScaleLut:
		return operand != 1
	case backends.OpTypeLutBF16:
		return operand != 1 && operand != 2
	case backends.OpTypeScale, backends.OpTypeLayerNorm:
		return false
	case backends.OpTypeConv2D, backends.OpTypeDeconv:
		attrs, isConv := op.Attrs().(*graph.ConvAttrs)
		if !isConv {
			return false
		}
		depthWise := attrs.IsDepthWise(op.Input(0).Shape().Dim(1), op.Output(0).Shape().Dim(1))
		if operand == 1 && depthWise {
			return true
		}
		// Biases of quantized grouped convolutions.
		if operand == 2 && op.Output(0).IsQuantized() && !depthWise && attrs.Groups > 1 {
			return true
		}
		return false
	}
	return true
}
