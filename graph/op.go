// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/layergroup/backends"
)

// Op is an operator node with ordered input and output tensor handles.
type Op struct {
	graph   *Graph
	id      OpId
	name    string
	opType  backends.OpType
	attrs   any
	inputs  []*Tensor
	outputs []*Tensor
}

// Graph that holds this Op.
func (op *Op) Graph() *Graph { return op.graph }

// Id is the unique id of this op within the Graph.
func (op *Op) Id() OpId { return op.id }

// Name of the op, unique within the Graph.
func (op *Op) Name() string { return op.name }

// SetName renames the op and its outputs, following the naming of Graph.NewOp.
// It panics if the name is already used by another op or tensor.
func (op *Op) SetName(name string) *Op {
	g := op.graph
	if other, found := g.opsByName[name]; found && other != op {
		exceptions.Panicf("graph %q: op name %q used more than once", g.name, name)
	}
	outNames := make([]string, len(op.outputs))
	for ii := range op.outputs {
		outNames[ii] = name
		if len(op.outputs) > 1 {
			outNames[ii] = fmt.Sprintf("%s:%d", name, ii)
		}
		if other, found := g.tensorsByName[outNames[ii]]; found && other != op.outputs[ii] {
			exceptions.Panicf("graph %q: tensor name %q used more than once", g.name, outNames[ii])
		}
	}
	delete(g.opsByName, op.name)
	op.name = name
	g.opsByName[name] = op
	for ii, output := range op.outputs {
		delete(g.tensorsByName, output.name)
		output.name = outNames[ii]
		g.tensorsByName[output.name] = output
	}
	return op
}

// Type of the operator.
func (op *Op) Type() backends.OpType { return op.opType }

// Attrs returns the attributes of the op (e.g.: *ConvAttrs), or nil.
func (op *Op) Attrs() any { return op.attrs }

// Inputs returns all operands, including None placeholders. The slice must not be changed.
func (op *Op) Inputs() []*Tensor { return op.inputs }

// Input returns the ii-th operand. It returns the None tensor if ii is out of range, so optional
// trailing operands can be queried uniformly.
func (op *Op) Input(ii int) *Tensor {
	if ii < 0 || ii >= len(op.inputs) {
		return op.graph.None()
	}
	return op.inputs[ii]
}

// Outputs returns the results of the op. The slice must not be changed.
func (op *Op) Outputs() []*Tensor { return op.outputs }

// Output returns the ii-th result.
func (op *Op) Output(ii int) *Tensor { return op.outputs[ii] }

// InputValues returns the operands that are not None placeholders.
func (op *Op) InputValues() []*Tensor {
	values := make([]*Tensor, 0, len(op.inputs))
	for _, input := range op.inputs {
		if !input.IsNone() {
			values = append(values, input)
		}
	}
	return values
}

// OperandIndex returns the position of the first operand equal to t, or -1.
func (op *Op) OperandIndex(t *Tensor) int {
	for ii, input := range op.inputs {
		if input == t {
			return ii
		}
	}
	return -1
}

// String implements fmt.Stringer.
func (op *Op) String() string {
	if op == nil {
		return "<nil>"
	}
	inputs := make([]string, 0, len(op.inputs))
	for _, input := range op.inputs {
		if input.IsNone() {
			inputs = append(inputs, "none")
			continue
		}
		inputs = append(inputs, input.name)
	}
	outputs := make([]string, 0, len(op.outputs))
	for _, output := range op.outputs {
		outputs = append(outputs, output.String())
	}
	return fmt.Sprintf("%s = %s %s(%s)", strings.Join(outputs, ", "), op.opType, op.name, strings.Join(inputs, ", "))
}
