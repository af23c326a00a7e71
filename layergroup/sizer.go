// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/ops"
	"github.com/gomlx/layergroup/slicing"
	"github.com/gomlx/layergroup/types/shapes"
	"github.com/pkg/errors"
)

// Buffer is the local memory allocation of a tensor (Op is nil) or the scratch of an op (Tensor is nil).
type Buffer struct {
	Tensor *graph.Tensor
	Op     *graph.Op
	Window Window
	Bytes  int64
}

// Sizer computes the local memory bytes of the buffers of a group.
type Sizer struct {
	Backend *backends.Backend
	Policy  AlignPolicy
}

// NewSizer returns a Sizer using the alignment policy of the backend's chip family.
func NewSizer(backend *backends.Backend) *Sizer {
	return &Sizer{Backend: backend, Policy: AlignPolicyFor(backend.Family)}
}

// sectionLengths returns the largest section along batch and height of t, or its whole extent
// if t has no record.
func sectionLengths(layout shapes.Layout, t *graph.Tensor, infos *TensorInfos) (n, h int) {
	if info, found := infos.Get(t); found && len(info.Slice.N) > 0 && len(info.Slice.H) > 0 {
		return slicing.MaxLengths(info.Slice)
	}
	n, _, _, h, _ = t.Shape().NCDHW(layout)
	return
}

// TensorBytes returns the local memory bytes of t.
//
// Weights take their constant storage size, independent of the sections, except in groups with
// shapes.LayoutSmallC where they are stored like activations. Activations take the size of their
// largest section along batch and along height.
func (s *Sizer) TensorBytes(group *Group, t *graph.Tensor, infos *TensorInfos) int64 {
	euAlign := s.Policy(t)
	layout := group.Layout
	if t.IsWeight() && layout != shapes.LayoutSmallC {
		return s.Backend.WeightLmemBytes(t.Shape(), layout, euAlign)
	}
	_, c, d, _, w := t.Shape().NCDHW(layout)
	n, h := sectionLengths(layout, t, infos)
	return s.Backend.TensorLmemBytes(t.DType(), int64(n), int64(c), int64(d), int64(h), int64(w), euAlign)
}

// ScratchBytes returns the extra local memory bytes op needs to execute a section.
func (s *Sizer) ScratchBytes(group *Group, op *graph.Op, infos *TensorInfos) int64 {
	inputs := op.InputValues()
	if len(inputs) == 0 {
		return 0
	}
	in, out := inputs[0], op.Output(0)
	q := ops.BufferQuery{
		Backend:     s.Backend,
		Layout:      group.Layout,
		InputBytes:  s.TensorBytes(group, in, infos),
		OutputBytes: s.TensorBytes(group, out, infos),
	}
	q.InN, q.InH = sectionLengths(group.Layout, in, infos)
	q.OutN, q.OutH = sectionLengths(group.Layout, out, infos)
	return ops.BufferSize(op, q)
}

// Buffers returns the buffers of the group: one per tensor resident in local memory, sized by
// TensorBytes, plus one per op needing scratch memory, resident at the op's timestep.
func (s *Sizer) Buffers(group *Group, schedule *Schedule, infos *TensorInfos) ([]Buffer, error) {
	var buffers []Buffer
	seen := make(map[*graph.Tensor]bool)
	addTensor := func(t *graph.Tensor) error {
		if t.IsNone() || seen[t] {
			return nil
		}
		seen[t] = true
		w, found := schedule.Windows[t]
		if !found {
			return errors.Errorf("schedule of %s has no residency window for tensor %s", group.Name, t.Name())
		}
		buffers = append(buffers, Buffer{Tensor: t, Window: w, Bytes: s.TensorBytes(group, t, infos)})
		return nil
	}
	for _, op := range group.Ops {
		for _, t := range op.Inputs() {
			if err := addTensor(t); err != nil {
				return nil, err
			}
		}
		for _, t := range op.Outputs() {
			if err := addTensor(t); err != nil {
				return nil, err
			}
		}
	}
	for _, op := range group.Ops {
		bytes := s.ScratchBytes(group, op, infos)
		if bytes == 0 {
			continue
		}
		ts := schedule.OpStep[op]
		buffers = append(buffers, Buffer{Op: op, Window: Window{Start: ts, End: ts}, Bytes: bytes})
	}
	return buffers, nil
}

// Peak returns the peak local memory bytes used by the group at any timestep of the schedule.
func (s *Sizer) Peak(group *Group, schedule *Schedule, infos *TensorInfos) (int64, error) {
	buffers, err := s.Buffers(group, schedule, infos)
	if err != nil {
		return 0, err
	}
	peak, _ := PeakBytes(schedule.NumTimesteps, buffers)
	return peak, nil
}
