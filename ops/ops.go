// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package ops holds the slicing capabilities of every operator kind that can be part of a fusion
// group: whether it can be split along batch or height, how an output section maps back to the
// section of each operand it reads, and how much scratch local memory it needs.
//
// Capabilities are kept in a dispatch table keyed by backends.OpType. Built-in entries are
// registered for every op type in this package; new operator kinds are added with Register.
// A Capability with nil functions uses the point-wise defaults: splittable along both axes,
// operand sections equal to output sections, and no scratch memory.
package ops

import (
	"fmt"
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/slicing"
	"github.com/gomlx/layergroup/types/shapes"
)

// Axis is one of the two axes a fusion group can be split along.
type Axis int

const (
	AxisBatch Axis = iota
	AxisHeight
)

// String implements fmt.Stringer.
func (a Axis) String() string {
	switch a {
	case AxisBatch:
		return "batch"
	case AxisHeight:
		return "height"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// Canonical returns the canonical NCDHW axis (see shapes.AxisBatch) of the split axis.
func (a Axis) Canonical() int {
	if a == AxisHeight {
		return shapes.AxisHeight
	}
	return shapes.AxisBatch
}

// CanSplitFn reports whether op supports being executed on sections of the given axis.
type CanSplitFn func(op *graph.Op, axis Axis, layout shapes.Layout) bool

// BackwardFn maps one output section to the section of the operand (given by its index in op.Inputs())
// that is required to compute it. It returns false if the mapping is infeasible.
type BackwardFn func(op *graph.Op, operand int, out slicing.Pair, layout shapes.Layout) (slicing.Pair, bool)

// BufferQuery describes the section being executed, for the scratch buffer computation.
type BufferQuery struct {
	Backend *backends.Backend
	Layout  shapes.Layout

	// InputBytes and OutputBytes are the local memory bytes of the sections of the first operand
	// and the first result.
	InputBytes, OutputBytes int64

	// InN, InH, OutN and OutH are the section lengths of the first operand and the first result.
	InN, InH, OutN, OutH int
}

// BufferSizeFn returns the extra local memory bytes op needs to execute one section, beyond its
// operands and results.
type BufferSizeFn func(op *graph.Op, q BufferQuery) int64

// Capability is the dispatch table entry of an operator kind. Nil functions take the point-wise defaults.
type Capability struct {
	CanSplit   CanSplitFn
	BackwardN  BackwardFn
	BackwardH  BackwardFn
	BufferSize BufferSizeFn
}

var (
	muRegistry sync.RWMutex
	registry   = make(map[backends.OpType]Capability)
)

// Register the capability of an operator kind, replacing any previous entry.
//
// It's usually called during initialization of a package.
func Register(opType backends.OpType, capability Capability) {
	if !opType.IsValid() {
		exceptions.Panicf("ops.Register: invalid op type %d", opType)
	}
	muRegistry.Lock()
	defer muRegistry.Unlock()
	registry[opType] = capability
}

// Lookup returns the capability registered for opType.
func Lookup(opType backends.OpType) (Capability, bool) {
	muRegistry.RLock()
	defer muRegistry.RUnlock()
	capability, found := registry[opType]
	return capability, found
}

// IsRegistered returns whether opType has a registered capability. Ops without one can't be part
// of a fusion group.
func IsRegistered(opType backends.OpType) bool {
	_, found := Lookup(opType)
	return found
}

// CanSplit returns whether op can be executed on sections of the given axis.
// Unregistered op types can't be split.
func CanSplit(op *graph.Op, axis Axis, layout shapes.Layout) bool {
	capability, found := Lookup(op.Type())
	if !found {
		return false
	}
	if capability.CanSplit == nil {
		return true
	}
	return capability.CanSplit(op, axis, layout)
}

// BackwardN returns the batch section of the operand required to compute the output batch section.
// It is infeasible if op can't split batch.
func BackwardN(op *graph.Op, operand int, out slicing.Pair, layout shapes.Layout) (slicing.Pair, bool) {
	return backward(op, operand, out, layout, AxisBatch)
}

// BackwardH returns the height section of the operand required to compute the output height section.
// It is infeasible if op can't split height.
func BackwardH(op *graph.Op, operand int, out slicing.Pair, layout shapes.Layout) (slicing.Pair, bool) {
	return backward(op, operand, out, layout, AxisHeight)
}

func backward(op *graph.Op, operand int, out slicing.Pair, layout shapes.Layout, axis Axis) (slicing.Pair, bool) {
	capability, found := Lookup(op.Type())
	if !found {
		return slicing.Pair{}, false
	}
	if capability.CanSplit != nil && !capability.CanSplit(op, axis, layout) {
		return slicing.Pair{}, false
	}
	fn := capability.BackwardN
	if axis == AxisHeight {
		fn = capability.BackwardH
	}
	if fn == nil {
		return out, true
	}
	return fn(op, operand, out, layout)
}

// BufferSize returns the extra scratch bytes op needs to execute the section described by q.
func BufferSize(op *graph.Op, q BufferQuery) int64 {
	capability, found := Lookup(op.Type())
	if !found || capability.BufferSize == nil {
		return 0
	}
	return capability.BufferSize(op, q)
}

// IsBroadcastBinary returns whether operand t of op is broadcast by a binary element-wise op
// (Add, Sub, Mul, Max or Min): it has the same rank as the other operand and a dimension 1 where
// the other operand doesn't.
//
// Such operands are read whole on every section of the broadcast axis.
func IsBroadcastBinary(op *graph.Op, t *graph.Tensor) bool {
	switch op.Type() {
	case backends.OpTypeAdd, backends.OpTypeSub, backends.OpTypeMul, backends.OpTypeMax, backends.OpTypeMin:
	default:
		return false
	}
	other := op.Input(0)
	if other == t {
		other = op.Input(1)
	}
	if other.IsNone() || t.Shape().Rank() != other.Shape().Rank() {
		return false
	}
	for axis, dim := range t.Shape().Dimensions {
		if dim == 1 && other.Shape().Dimensions[axis] != 1 {
			return true
		}
	}
	return false
}
