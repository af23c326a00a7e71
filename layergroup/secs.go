// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"fmt"

	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/ops"
)

// Secs is the number of sections a group is split into along batch (N) and height (H).
// Both are >= 1.
type Secs struct {
	N, H int
}

// Total number of sections.
func (s Secs) Total() int { return s.N * s.H }

// String implements fmt.Stringer.
func (s Secs) String() string { return fmt.Sprintf("%dx%d", s.N, s.H) }

// MaxSecs returns the upper bounds of the section counts of the group.
//
// The batch bound is the batch of the first op's input (or the largest of both operands of a
// binary first op), limited by the batch of every op's results counted in 4N packs on aligned
// backends. It is 1 if any op can't split the batch.
// The height bound is the smallest height of the op results, or 1 if any op can't split the height.
func MaxSecs(backend *backends.Backend, group *Group) Secs {
	layout := group.Layout
	first := group.Ops[0]
	maxN := first.Input(0).Shape().Batch(layout)
	if first.Type().IsBinary() && !first.Input(1).IsNone() {
		maxN = max(maxN, first.Input(1).Shape().Batch(layout))
	}
	maxH := -1
	splitN, splitH := true, true
	for _, op := range group.Ops {
		splitN = splitN && ops.CanSplit(op, ops.AxisBatch, layout)
		splitH = splitH && ops.CanSplit(op, ops.AxisHeight, layout)
		for _, output := range op.Outputs() {
			n, _, _, h, _ := output.Shape().NCDHW(layout)
			maxN = min(maxN, backends.CeilDiv(n, int(backend.BatchAlign(output.DType()))))
			if maxH < 0 || h < maxH {
				maxH = h
			}
		}
	}
	secs := Secs{N: max(maxN, 1), H: max(maxH, 1)}
	if !splitN {
		secs.N = 1
	}
	if !splitH {
		secs.H = 1
	}
	return secs
}

// activationBytes returns the local memory bytes of the whole tensor.
func activationBytes(backend *backends.Backend, group *Group, t *graph.Tensor, euAlign bool) int64 {
	n, c, d, h, w := t.Shape().NCDHW(group.Layout)
	return backend.TensorLmemBytes(t.DType(), int64(n), int64(c), int64(d), int64(h), int64(w), euAlign)
}

// InitSecs returns a quick estimate of the section counts, looking at each op separately: the
// bytes of its whole operands, results and scratch are divided by the local memory capacity.
//
// It doesn't take into account the receptive field growth nor the buffers shared between ops, and
// is only used as a reference to compare the searched section counts with.
func InitSecs(backend *backends.Backend, group *Group) Secs {
	secs := Secs{N: 1, H: 1}
	if len(group.Ops) == 1 {
		return secs
	}
	maxSecs := MaxSecs(backend, group)
	policy := AlignPolicyFor(backend.Family)
	layout := group.Layout
	for _, op := range group.Ops {
		inputs := op.InputValues()
		if len(inputs) == 0 {
			continue
		}
		in0, out0 := inputs[0], op.Output(0)
		in0Bytes := activationBytes(backend, group, in0, true)
		out0Bytes := activationBytes(backend, group, out0, true)
		total := in0Bytes + out0Bytes + ops.BufferSize(op, ops.BufferQuery{
			Backend:     backend,
			Layout:      layout,
			InputBytes:  in0Bytes,
			OutputBytes: out0Bytes,
			InN:         in0.Shape().Batch(layout),
			InH:         in0.Shape().Height(layout),
			OutN:        out0.Shape().Batch(layout),
			OutH:        out0.Shape().Height(layout),
		})
		for _, input := range inputs[1:] {
			if input.IsWeight() {
				total += backend.WeightLmemBytes(input.Shape(), layout, policy(input))
			} else {
				total += activationBytes(backend, group, input, true)
			}
		}
		for _, output := range op.Outputs()[1:] {
			total += activationBytes(backend, group, output, true)
		}

		totalSecs := int(backends.CeilDiv(total, backend.LmemBytes))
		secs.N = max(min(totalSecs, maxSecs.N), secs.N)
		secs.H = max(backends.CeilDiv(totalSecs, secs.N), secs.H)
	}
	return secs
}
