// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

// Layout is the group layout convention: how the logical axes of a tensor are packed into the
// canonical (batch, channel, depth, height, width) ordering used by a fusion group.
//
//go:generate go tool enumer -type=Layout -trimprefix=Layout -transform=snake -text -yaml -output=gen_layout_enumer.go layout.go
type Layout int

const (
	// LayoutNormal packs `[n, c, h, w...]`: trailing axes after the third are merged into the width.
	LayoutNormal Layout = iota

	// LayoutSmallC is used for groups of small-channel tensors: the batch axis is folded
	// into the channels, so there is never more than one batch section.
	// Weights in SmallC groups are sized like activations.
	LayoutSmallC

	// Layout3D packs `[n, c, d, h, w...]`.
	Layout3D
)

// Canonical axes of the NCDHW decomposition. Only AxisBatch and AxisHeight are ever split.
const (
	AxisBatch   = 0
	AxisChannel = 1
	AxisDepth   = 2
	AxisHeight  = 3
	AxisWidth   = 4
)

// dimOr returns the dimension of axis, or 1 if the shape doesn't have it.
func (s Shape) dimOr(axis int) int {
	if axis < s.Rank() {
		return s.Dimensions[axis]
	}
	return 1
}

// prodFrom returns the product of all dimensions from axis (inclusive), or 1 if there are none.
func (s Shape) prodFrom(axis int) int {
	prod := 1
	for ii := axis; ii < s.Rank(); ii++ {
		prod *= s.Dimensions[ii]
	}
	return prod
}

// NCDHW returns the logical dimensions of the shape decomposed into the canonical 5D ordering,
// under the given layout convention.
func (s Shape) NCDHW(layout Layout) (n, c, d, h, w int) {
	switch layout {
	case Layout3D:
		return s.dimOr(0), s.dimOr(1), s.dimOr(2), s.dimOr(3), s.prodFrom(4)
	case LayoutSmallC:
		if s.Rank() <= 2 {
			return 1, s.dimOr(0), 1, s.dimOr(1), 1
		}
		return 1, s.dimOr(0) * s.dimOr(1), 1, s.dimOr(2), s.prodFrom(3)
	default:
		return s.dimOr(0), s.dimOr(1), 1, s.dimOr(2), s.prodFrom(3)
	}
}

// Batch is a shortcut to the batch dimension of NCDHW.
func (s Shape) Batch(layout Layout) int {
	n, _, _, _, _ := s.NCDHW(layout)
	return n
}

// Height is a shortcut to the height dimension of NCDHW.
func (s Shape) Height(layout Layout) int {
	_, _, _, h, _ := s.NCDHW(layout)
	return h
}

// CanonicalAxis returns which of the canonical NCDHW axes (AxisBatch ... AxisWidth) the logical
// axis of the shape is packed into, under the given layout. Negative axes count from the end.
func (s Shape) CanonicalAxis(axis int, layout Layout) int {
	if axis < 0 {
		axis += s.Rank()
	}
	switch layout {
	case Layout3D:
		return min(axis, AxisWidth)
	case LayoutSmallC:
		if s.Rank() <= 2 {
			return []int{AxisChannel, AxisHeight}[min(axis, 1)]
		}
		switch {
		case axis <= 1:
			return AxisChannel
		case axis == 2:
			return AxisHeight
		}
		return AxisWidth
	default:
		switch axis {
		case 0:
			return AxisBatch
		case 1:
			return AxisChannel
		case 2:
			return AxisHeight
		}
		return AxisWidth
	}
}
