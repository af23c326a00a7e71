// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"iter"

	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/slicing"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TensorInfo is the planning record of one tensor of a group.
type TensorInfo struct {
	// Slice holds the sections of the tensor.
	Slice slicing.Info

	// EUAlign is set if the tensor is stored element-unit aligned in local memory.
	EUAlign bool

	// NeedBroadcast is set for tables and parameters replicated to every lane.
	NeedBroadcast bool

	// Use3IC is the 3-input-channels optimization mode of the convolution reading the tensor, 0 if disabled.
	Use3IC int
}

// TensorInfos maps the tensors of a group to their planning records. Iteration follows insertion
// order, which is deterministic for a given group.
type TensorInfos struct {
	m *orderedmap.OrderedMap[*graph.Tensor, *TensorInfo]
}

// NewTensorInfos creates an empty TensorInfos.
func NewTensorInfos() *TensorInfos {
	return &TensorInfos{m: orderedmap.New[*graph.Tensor, *TensorInfo]()}
}

// Get the record of t.
func (ti *TensorInfos) Get(t *graph.Tensor) (*TensorInfo, bool) {
	return ti.m.Get(t)
}

// Set the record of t, replacing any previous one. Replaced records keep their position.
func (ti *TensorInfos) Set(t *graph.Tensor, info *TensorInfo) {
	ti.m.Set(t, info)
}

// Len returns the number of records.
func (ti *TensorInfos) Len() int { return ti.m.Len() }

// All iterates over the records in insertion order.
func (ti *TensorInfos) All() iter.Seq2[*graph.Tensor, *TensorInfo] {
	return func(yield func(*graph.Tensor, *TensorInfo) bool) {
		for pair := ti.m.Oldest(); pair != nil; pair = pair.Next() {
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Tensors returns the tensors with a record, in insertion order.
func (ti *TensorInfos) Tensors() []*graph.Tensor {
	tensors := make([]*graph.Tensor, 0, ti.Len())
	for t := range ti.All() {
		tensors = append(tensors, t)
	}
	return tensors
}

// Clone returns a deep copy.
func (ti *TensorInfos) Clone() *TensorInfos {
	clone := NewTensorInfos()
	for t, info := range ti.All() {
		infoCopy := *info
		infoCopy.Slice = info.Slice.Clone()
		clone.Set(t, &infoCopy)
	}
	return clone
}
