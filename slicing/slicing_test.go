// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package slicing

import (
	"fmt"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition(t *testing.T) {
	got := Partition(10, 3)
	if diff := cmp.Diff([]Pair{{0, 4}, {4, 3}, {7, 3}}, got); diff != "" {
		t.Errorf("Partition(10, 3) mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []Pair{{0, 100}}, Partition(100, 1))
	assert.Equal(t, []Pair{{0, 1}, {1, 1}, {2, 0}}, Partition(2, 3))

	err := exceptions.TryCatch[error](func() { Partition(10, 0) })
	require.Error(t, err)
	require.Panics(t, func() { Partition(-1, 2) })
}

func TestPartitionProperties(t *testing.T) {
	for extent := 1; extent <= 40; extent++ {
		for numSections := 1; numSections <= extent; numSections++ {
			t.Run(fmt.Sprintf("%d/%d", extent, numSections), func(t *testing.T) {
				pairs := Partition(extent, numSections)
				require.Len(t, pairs, numSections)
				assert.Equal(t, extent, Covered(pairs))
				base := extent / numSections
				offset := 0
				for _, p := range pairs {
					assert.Equal(t, offset, p.Offset)
					assert.True(t, p.Length == base || p.Length == base+1, "length %d for base %d", p.Length, base)
					offset = p.End()
				}
				assert.Equal(t, -1, FirstDiscontinuity(pairs))
			})
		}
	}
}

func TestEqual(t *testing.T) {
	a := Info{N: Partition(8, 2), H: Partition(100, 1)}
	b := a.Clone()
	assert.True(t, Equal(a, b))

	b.N[1].Length = 3
	assert.False(t, Equal(a, b))
	assert.Equal(t, 4, a.N[1].Length, "Clone must not share storage")

	c := Info{N: Partition(8, 2), H: Partition(100, 2)}
	assert.False(t, Equal(a, c))
	assert.Equal(t, "N[(0,4),(4,4)] H[(0,100)]", a.String())
}

func TestGrownTooMuch(t *testing.T) {
	// Three overlapping sections of a 3x3 convolution.
	info := Info{N: Partition(1, 1), H: []Pair{{0, 35}, {33, 36}, {67, 33}}}
	assert.False(t, GrownTooMuch(info, 100, DefaultGrowthLimit))

	info.H = []Pair{{0, 60}, {20, 60}, {40, 60}}
	assert.True(t, GrownTooMuch(info, 100, DefaultGrowthLimit))
	assert.False(t, GrownTooMuch(info, 100, 0))
	assert.False(t, GrownTooMuch(info, 100, 2))

	// Exactly 1.5x is accepted.
	info.H = []Pair{{0, 75}, {25, 75}}
	assert.False(t, GrownTooMuch(info, 100, DefaultGrowthLimit))
}

func TestMaxLengths(t *testing.T) {
	n, h := MaxLengths(Info{N: Partition(7, 2), H: Partition(10, 3)})
	assert.Equal(t, 4, n)
	assert.Equal(t, 4, h)
	assert.Equal(t, 0, MaxLength(nil))
}

func TestFirstDiscontinuity(t *testing.T) {
	assert.Equal(t, -1, FirstDiscontinuity([]Pair{{0, 10}}))
	assert.Equal(t, -1, FirstDiscontinuity([]Pair{{0, 6}, {4, 6}}))
	assert.Equal(t, 1, FirstDiscontinuity([]Pair{{0, 6}, {0, 8}}), "restarting at 0")
	assert.Equal(t, -1, FirstDiscontinuity([]Pair{{0, 49}, {50, 50}}), "gaps are allowed")
	assert.Equal(t, 2, FirstDiscontinuity([]Pair{{0, 4}, {2, 6}, {3, 4}}), "end not advancing")
}
