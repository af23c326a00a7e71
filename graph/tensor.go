// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergroup/types/shapes"
)

// TensorKind tells apart runtime activations, compile-time constants and absent operands.
type TensorKind int

const (
	KindActivation TensorKind = iota
	KindWeight
	KindNone
)

// String implements fmt.Stringer.
func (k TensorKind) String() string {
	switch k {
	case KindActivation:
		return "activation"
	case KindWeight:
		return "weight"
	case KindNone:
		return "none"
	}
	return fmt.Sprintf("TensorKind(%d)", int(k))
}

// Quantization describes the uniform quantization of a tensor's storage, if any.
type Quantization struct {
	Quantized bool
	Scale     float64
	ZeroPoint int
}

// Tensor is a handle to a value in the graph: a graph input, a weight or the output of an Op.
type Tensor struct {
	graph *Graph
	id    TensorId
	name  string
	shape shapes.Shape
	kind  TensorKind
	quant Quantization

	producer  *Op
	consumers []*Op
}

// Graph that holds this Tensor.
func (t *Tensor) Graph() *Graph { return t.graph }

// Id is the unique id of this tensor within the Graph.
func (t *Tensor) Id() TensorId { return t.id }

// Name of the tensor, unique within the Graph.
func (t *Tensor) Name() string { return t.name }

// Shape of the tensor. It implements shapes.HasShape.
func (t *Tensor) Shape() shapes.Shape { return t.shape }

// DType returns the storage type of the tensor elements.
func (t *Tensor) DType() dtypes.DType { return t.shape.DType }

// Kind of the tensor.
func (t *Tensor) Kind() TensorKind { return t.kind }

// IsWeight returns whether the tensor is a compile-time constant.
func (t *Tensor) IsWeight() bool { return t.kind == KindWeight }

// IsNone returns whether the tensor is the placeholder for an absent operand.
func (t *Tensor) IsNone() bool { return t.kind == KindNone }

// Quantization returns the quantization parameters of the tensor.
func (t *Tensor) Quantization() Quantization { return t.quant }

// IsQuantized returns whether the tensor holds uniformly quantized values.
func (t *Tensor) IsQuantized() bool { return t.quant.Quantized }

// SetQuantization sets the quantization parameters and returns the tensor itself, for chaining.
//
// It is meant to be used while building the graph.
func (t *Tensor) SetQuantization(q Quantization) *Tensor {
	t.quant = q
	return t
}

// Producer returns the op that produces the tensor, or nil for inputs and weights.
func (t *Tensor) Producer() *Op { return t.producer }

// Consumers returns the ops that use the tensor as an operand, in creation order.
// The slice must not be changed.
func (t *Tensor) Consumers() []*Op { return t.consumers }

// HasOneUse returns whether exactly one op consumes the tensor.
func (t *Tensor) HasOneUse() bool { return len(t.consumers) == 1 }

// FirstConsumer returns the first op that consumes the tensor, or nil.
func (t *Tensor) FirstConsumer() *Op {
	if len(t.consumers) == 0 {
		return nil
	}
	return t.consumers[0]
}

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	if t == nil {
		return "<nil>"
	}
	if t.kind == KindNone {
		return "none"
	}
	return fmt.Sprintf("%s%s", t.name, t.shape)
}
