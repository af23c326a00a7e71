// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/slicing"
)

// NeedBroadcast returns whether t must be replicated to every lane of local memory: lookup tables
// (and the mantissa table of LutBF16), and on CV18xx chips the weights of LayerNorm.
// Only tensors with exactly one consumer are broadcast.
func NeedBroadcast(t *graph.Tensor, family backends.Family) bool {
	if !t.HasOneUse() {
		return false
	}
	op := t.FirstConsumer()
	switch op.Type() {
	case backends.OpTypeLut:
		return op.Input(1) == t
	case backends.OpTypeLutBF16:
		return op.Input(1) == t || op.Input(2) == t
	case backends.OpTypeLayerNorm:
		return family == backends.FamilyCV18xx && t.IsWeight()
	}
	return false
}

// Use3IC returns the 3-input-channels optimization mode of the first Conv2D reading t as its
// input, or 0.
func Use3IC(t *graph.Tensor) int {
	for _, op := range t.Consumers() {
		if op.Type() != backends.OpTypeConv2D || op.Input(0) != t {
			continue
		}
		if attrs, ok := op.Attrs().(*graph.ConvAttrs); ok {
			return attrs.Use3IC
		}
		return 0
	}
	return 0
}

// UpdateTensorInfos sets the flags of every record in infos, and adds records covering the full
// extent of every weight used by the group.
func UpdateTensorInfos(group *Group, infos *TensorInfos, family backends.Family) {
	policy := AlignPolicyFor(family)
	for t, info := range infos.All() {
		info.Use3IC = Use3IC(t)
		info.EUAlign = policy(t)
		info.NeedBroadcast = NeedBroadcast(t, family)
	}
	for _, weight := range group.Weights() {
		n, _, _, h, _ := weight.Shape().NCDHW(group.Layout)
		infos.Set(weight, &TensorInfo{
			Slice: slicing.Info{
				N: []slicing.Pair{{Offset: 0, Length: n}},
				H: []slicing.Pair{{Offset: 0, Length: h}},
			},
			EUAlign:       policy(weight),
			NeedBroadcast: NeedBroadcast(weight, family),
		})
	}
}
