// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package slicing implements the algebra of tensor sections used by the layer-group planner:
// (offset, length) pairs along one axis, and the per-tensor slice info holding one sequence of
// pairs for the batch axis and one for the height axis.
//
// All functions are pure and never mutate their arguments.
package slicing

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gomlx/exceptions"
)

// Pair is one section along an axis: it covers [Offset, Offset+Length).
// A Length of 0 signals an infeasible section.
type Pair struct {
	Offset, Length int
}

// End returns the first position after the section.
func (p Pair) End() int { return p.Offset + p.Length }

// String implements fmt.Stringer.
func (p Pair) String() string { return fmt.Sprintf("(%d,%d)", p.Offset, p.Length) }

// Info holds the sections of one tensor along the batch (N) and the height (H) axes.
// len(N) and len(H) are the number of sections of the respective axis.
type Info struct {
	N, H []Pair
}

// Clone returns a deep copy.
func (info Info) Clone() Info {
	return Info{N: slices.Clone(info.N), H: slices.Clone(info.H)}
}

// String implements fmt.Stringer. E.g.: "N[(0,4),(4,4)] H[(0,100)]".
func (info Info) String() string {
	return fmt.Sprintf("N%s H%s", pairsString(info.N), pairsString(info.H))
}

func pairsString(pairs []Pair) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, p.String())
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Partition splits the range [0, extent) into numSections contiguous sections whose lengths
// differ at most by one: the first extent%numSections sections get the extra unit.
//
// If numSections > extent, the trailing sections have length 0.
// It panics if numSections < 1 or extent < 0.
//
// Example: Partition(10, 3) returns [(0,4), (4,3), (7,3)].
func Partition(extent, numSections int) []Pair {
	if numSections < 1 || extent < 0 {
		exceptions.Panicf("slicing.Partition(%d, %d): invalid arguments", extent, numSections)
	}
	base, remainder := extent/numSections, extent%numSections
	pairs := make([]Pair, numSections)
	offset := 0
	for ii := range pairs {
		length := base
		if ii < remainder {
			length++
		}
		pairs[ii] = Pair{Offset: offset, Length: length}
		offset += length
	}
	return pairs
}

// Equal returns whether both slice infos have the same number of sections on both axes and
// every corresponding pair matches exactly.
func Equal(a, b Info) bool {
	return slices.Equal(a.N, b.N) && slices.Equal(a.H, b.H)
}

// Covered returns the total length of the sections, counting overlaps as many times as they occur.
func Covered(pairs []Pair) int {
	total := 0
	for _, p := range pairs {
		total += p.Length
	}
	return total
}

// MaxLength returns the longest section length, or 0 if there are no sections.
func MaxLength(pairs []Pair) int {
	maxLength := 0
	for _, p := range pairs {
		maxLength = max(maxLength, p.Length)
	}
	return maxLength
}

// MaxLengths returns the worst-case section lengths along batch and height.
func MaxLengths(info Info) (n, h int) {
	return MaxLength(info.N), MaxLength(info.H)
}

// GrownTooMuch returns whether the total covered length of the height sections exceeds
// limit times the natural extent of the axis. A limit <= 0 disables the check.
//
// Receptive fields of convolutions make neighbouring sections overlap, so the covered length of
// backward propagated slices grows with the number of sections.
func GrownTooMuch(info Info, extent int, limit float64) bool {
	if limit <= 0 {
		return false
	}
	return float64(Covered(info.H)) > limit*float64(extent)
}

// DefaultGrowthLimit is the growth factor above which backward propagated height slices are rejected.
const DefaultGrowthLimit = 1.5

// FirstDiscontinuity checks that the sections advance along the axis: every section after the
// first must start after 0 and must end past the previous section's end. Overlaps are allowed,
// and so are gaps: a strided window with a kernel smaller than its stride never reads the skipped
// positions.
//
// It returns the index of the first offending section, or -1 if the sequence is contiguous.
func FirstDiscontinuity(pairs []Pair) int {
	for ii := 1; ii < len(pairs); ii++ {
		prev, cur := pairs[ii-1], pairs[ii]
		if cur.Offset == 0 || cur.End() <= prev.End() {
			return ii
		}
	}
	return -1
}
