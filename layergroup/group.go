// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package layergroup plans the tiled execution of fusion groups in the local memory of an accelerator.
//
// A fusion Group is a sequence of ops that execute back-to-back without their intermediate results
// leaving local memory. When the group's tensors don't fit at once, the group is executed on
// sections of the batch and height axes. Planning a group means:
//
//  1. Searching the smallest number of sections (Secs) along batch and height such that every op
//     can be executed on its sections (see package github.com/gomlx/layergroup/ops) and the peak of
//     local memory used by the group's buffers fits the backend's capacity (see Sizer and Schedule).
//  2. Propagating the sections of the group outputs backwards through the group (Propagate), so
//     every tensor gets its slicing.Info: the (offset, length) of each of its sections.
//  3. Setting the per-tensor flags the code generation needs: element-unit alignment (AlignPolicy),
//     broadcast and 3-input-channels optimization (UpdateTensorInfos).
//
// Planner drives the three steps, for one group (Planner.Plan) or for many in parallel (Planner.PlanAll).
// The graph is never modified: all planning results are kept in TensorInfos, owned by the Plan.
package layergroup

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/types/shapes"
)

// Group is a fusion group: an ordered sequence of ops executed as one pipeline in local memory.
//
// Ins are the activations read from outside the group and Outs the tensors that must be stored
// out of local memory: those consumed outside the group or by no one. Weights are not group inputs.
type Group struct {
	Name   string
	Ops    []*graph.Op
	Ins    []*graph.Tensor
	Outs   []*graph.Tensor
	Layout shapes.Layout

	opIndex map[*graph.Op]int
	isIn    map[*graph.Tensor]bool
	isOut   map[*graph.Tensor]bool
}

// NewGroup creates a group with the given ops, in execution order, deriving its inputs and outputs.
// It panics if ops is empty or has repeated ops.
func NewGroup(name string, layout shapes.Layout, ops ...*graph.Op) *Group {
	if len(ops) == 0 {
		exceptions.Panicf("layergroup.NewGroup(%q): a group needs at least one op", name)
	}
	g := &Group{
		Name:    name,
		Ops:     append([]*graph.Op(nil), ops...),
		Layout:  layout,
		opIndex: make(map[*graph.Op]int, len(ops)),
		isIn:    make(map[*graph.Tensor]bool),
		isOut:   make(map[*graph.Tensor]bool),
	}
	for ii, op := range ops {
		if _, found := g.opIndex[op]; found {
			exceptions.Panicf("layergroup.NewGroup(%q): op %q listed more than once", name, op.Name())
		}
		g.opIndex[op] = ii
	}
	for _, op := range ops {
		for _, input := range op.Inputs() {
			if input.IsNone() || input.IsWeight() || g.isIn[input] {
				continue
			}
			if producer := input.Producer(); producer == nil || !g.Contains(producer) {
				g.isIn[input] = true
				g.Ins = append(g.Ins, input)
			}
		}
	}
	for _, op := range ops {
		for _, output := range op.Outputs() {
			external := len(output.Consumers()) == 0
			for _, consumer := range output.Consumers() {
				if !g.Contains(consumer) {
					external = true
					break
				}
			}
			if external {
				g.isOut[output] = true
				g.Outs = append(g.Outs, output)
			}
		}
	}
	return g
}

// Contains returns whether op is part of the group.
func (g *Group) Contains(op *graph.Op) bool { return g.OpIndex(op) >= 0 }

// OpIndex returns the position of op in the group, or -1 if it's not part of it.
func (g *Group) OpIndex(op *graph.Op) int {
	if idx, found := g.opIndex[op]; found {
		return idx
	}
	return -1
}

// IsInput returns whether t is read from outside the group.
func (g *Group) IsInput(t *graph.Tensor) bool { return g.isIn[t] }

// IsOutput returns whether t is stored out of the group.
func (g *Group) IsOutput(t *graph.Tensor) bool { return g.isOut[t] }

// Weights returns the weights used by the group's ops, in order of first use.
func (g *Group) Weights() []*graph.Tensor {
	var weights []*graph.Tensor
	seen := make(map[*graph.Tensor]bool)
	for _, op := range g.Ops {
		for _, input := range op.Inputs() {
			if input.IsWeight() && !seen[input] {
				seen[input] = true
				weights = append(weights, input)
			}
		}
	}
	return weights
}

// String implements fmt.Stringer.
func (g *Group) String() string {
	names := make([]string, 0, len(g.Ops))
	for _, op := range g.Ops {
		names = append(names, op.Name())
	}
	return fmt.Sprintf("Group %q(%s, layout=%s)", g.Name, strings.Join(names, ", "), g.Layout)
}
