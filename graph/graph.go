// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package graph holds the computation graph the layer-group planner reads: tensor handles and
// operator nodes with ordered inputs and outputs.
//
// The planner never mutates the graph: shapes, producers and consumers are fixed once an op is
// created. Transient planning annotations (slice info, alignment flags) are kept outside of it,
// in maps keyed by the tensor, see package github.com/gomlx/layergroup/layergroup.
//
// Example:
//
//	g := graph.New("block")
//	x := g.Input("x", shapes.Make(dtypes.Float32, 8, 16, 100, 100))
//	filter := g.Weight("filter", shapes.Make(dtypes.Float32, 16, 16, 3, 3))
//	y := graph.Conv(x, filter, nil, graph.ConvAttrs{WindowAttrs: graph.Window2D(3, 1, 1)})
//	z := graph.Elementwise(backends.OpTypeRelu, y)
package graph

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/types/shapes"
)

// TensorId is the unique id of a Tensor within its Graph.
type TensorId int

// OpId is the unique id of an Op within its Graph.
type OpId int

// Graph owns the tensors and operators. It is built once and then only read.
type Graph struct {
	name    string
	tensors []*Tensor
	ops     []*Op

	tensorsByName map[string]*Tensor
	opsByName     map[string]*Op
	none          *Tensor
}

// New creates an empty graph.
func New(name string) *Graph {
	g := &Graph{
		name:          name,
		tensorsByName: make(map[string]*Tensor),
		opsByName:     make(map[string]*Op),
	}
	// The placeholder is not listed in Tensors nor indexed by name.
	g.none = &Tensor{graph: g, id: -1, name: "none", shape: shapes.Invalid(), kind: KindNone}
	return g
}

// Name of the graph.
func (g *Graph) Name() string { return g.name }

// Tensors returns all the tensors of the graph, in creation order. The slice must not be changed.
func (g *Graph) Tensors() []*Tensor { return g.tensors }

// Ops returns all the ops of the graph, in creation order. The slice must not be changed.
func (g *Graph) Ops() []*Op { return g.ops }

// TensorByName returns the tensor with the given name or nil.
func (g *Graph) TensorByName(name string) *Tensor { return g.tensorsByName[name] }

// OpByName returns the op with the given name or nil.
func (g *Graph) OpByName(name string) *Op { return g.opsByName[name] }

func (g *Graph) newTensor(name string, shape shapes.Shape, kind TensorKind) *Tensor {
	t := &Tensor{
		graph: g,
		id:    TensorId(len(g.tensors)),
		shape: shape,
		kind:  kind,
	}
	if name == "" {
		name = fmt.Sprintf("t%d", t.id)
	}
	if _, found := g.tensorsByName[name]; found {
		exceptions.Panicf("graph %q: tensor name %q used more than once", g.name, name)
	}
	t.name = name
	g.tensors = append(g.tensors, t)
	g.tensorsByName[name] = t
	return t
}

// Input creates a runtime activation produced outside the graph.
func (g *Graph) Input(name string, shape shapes.Shape) *Tensor {
	return g.newTensor(name, shape, KindActivation)
}

// Weight creates a compile-time constant tensor.
func (g *Graph) Weight(name string, shape shapes.Shape) *Tensor {
	return g.newTensor(name, shape, KindWeight)
}

// None returns the graph's "absent operand" placeholder, used for optional inputs (e.g.: a
// convolution without bias). It is never part of Tensors, so reading it doesn't change the graph.
func (g *Graph) None() *Tensor { return g.none }

// NewOp creates an operator of the given type and its output tensors, one per given shape.
//
// Inputs can include the None tensor for absent optional operands. If name is empty, a unique
// name is generated from the op type.
func (g *Graph) NewOp(name string, opType backends.OpType, attrs any, inputs []*Tensor, outputShapes ...shapes.Shape) *Op {
	if !opType.IsValid() {
		exceptions.Panicf("graph %q: invalid op type %d", g.name, opType)
	}
	for ii, input := range inputs {
		if input == nil {
			exceptions.Panicf("graph %q: op %s input #%d is nil, use Graph.None() for absent operands", g.name, opType, ii)
		}
		if input.graph != g {
			exceptions.Panicf("graph %q: op %s input #%d %q belongs to another graph", g.name, opType, ii, input.name)
		}
	}
	if len(outputShapes) == 0 {
		exceptions.Panicf("graph %q: op %s must have at least one output", g.name, opType)
	}
	op := &Op{
		graph:  g,
		id:     OpId(len(g.ops)),
		opType: opType,
		attrs:  attrs,
		inputs: append([]*Tensor(nil), inputs...),
	}
	if name == "" {
		name = fmt.Sprintf("%s_%d", strings.ToLower(opType.String()), op.id)
	}
	if _, found := g.opsByName[name]; found {
		exceptions.Panicf("graph %q: op name %q used more than once", g.name, name)
	}
	op.name = name
	for ii, input := range op.inputs {
		if input.kind == KindNone {
			continue
		}
		// An op consuming the same tensor twice is listed once as a consumer.
		if ii > 0 && op.OperandIndex(input) < ii {
			continue
		}
		input.consumers = append(input.consumers, op)
	}
	for ii, shape := range outputShapes {
		outName := name
		if len(outputShapes) > 1 {
			outName = fmt.Sprintf("%s:%d", name, ii)
		}
		out := g.newTensor(outName, shape, KindActivation)
		out.producer = op
		op.outputs = append(op.outputs, out)
	}
	g.ops = append(g.ops, op)
	g.opsByName[name] = op
	return op
}

// String implements fmt.Stringer, listing the ops of the graph.
func (g *Graph) String() string {
	var sb strings.Builder
	_, _ = fmt.Fprintf(&sb, "Graph %q: %d tensors, %d ops\n", g.name, len(g.tensors), len(g.ops))
	for _, op := range g.ops {
		_, _ = fmt.Fprintf(&sb, "\t%s\n", op)
	}
	return sb.String()
}
