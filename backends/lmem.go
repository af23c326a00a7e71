// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package backends

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergroup/types/shapes"
)

// EUNum returns the number of elements of dtype that fit in one element unit.
func (b *Backend) EUNum(dtype dtypes.DType) int64 {
	return max(b.EUBytes/int64(max(dtype.Size(), 1)), 1)
}

// BatchAlign returns the number of batch items packed together in local memory:
// 32/bits for 4N aligned targets, 1 otherwise.
func (b *Backend) BatchAlign(dtype dtypes.DType) int64 {
	if !b.Align4N {
		return 1
	}
	return max(4/int64(max(dtype.Size(), 1)), 1)
}

// TensorLmemBytes returns the bytes a (n, c, d, h, w) block of an activation takes in local memory.
//
// Channels are distributed over the NPU lanes; each lane stores d*n rows of h*w elements, and rows
// are aligned to the element unit if euAlign is set.
func (b *Backend) TensorLmemBytes(dtype dtypes.DType, n, c, d, h, w int64, euAlign bool) int64 {
	elementBytes := int64(max(dtype.Size(), 1))
	cPerNPU := CeilDiv(c, b.NPUNum)
	if b.Align4N {
		// 4N storage: batch items are packed in 32 bits words.
		nPacked := CeilDiv(n, b.BatchAlign(dtype))
		row := h * w
		if euAlign {
			row = AlignUp(row, max(b.EUBytes/4, 1))
		}
		return nPacked * d * cPerNPU * row * 4
	}
	row := h * w
	if euAlign {
		row = AlignUp(row, b.EUNum(dtype))
	}
	return n * d * cPerNPU * row * elementBytes
}

// WeightLmemBytes returns the bytes a constant tensor takes in local memory, in its constant storage
// layout: the leading non-unit axis of (n, c) is distributed over the NPU lanes, the remaining axes
// form the per-lane row, aligned to the element unit if euAlign is set.
//
// For groups in shapes.LayoutSmallC weights are stored like activations: use TensorLmemBytes instead.
func (b *Backend) WeightLmemBytes(shape shapes.Shape, layout shapes.Layout, euAlign bool) int64 {
	n, c, d, h, w := shape.NCDHW(layout)
	lanes, row := int64(c), int64(d*h*w)
	if n > 1 {
		lanes, row = int64(n), int64(c*d*h*w)
	}
	if euAlign {
		row = AlignUp(row, b.EUNum(shape.DType))
	}
	return CeilDiv(lanes, b.NPUNum) * row * int64(max(shape.ElementBytes(), 1))
}
