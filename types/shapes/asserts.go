// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package shapes

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// UncheckedAxis can be used in CheckDims for an axis whose dimension doesn't matter.
const UncheckedAxis = int(-1)

// HasShape is an interface for objects that have an associated Shape.
// `graph.Tensor` and Shape itself implement the interface.
type HasShape interface {
	Shape() Shape
}

// Shape returns a shallow copy of itself. It implements the HasShape interface.
func (s Shape) Shape() Shape { return s }

// CheckDims checks that the shape has the given dimensions and rank. A value of -1 in
// dimensions means it can take any value and is not checked.
func (s Shape) CheckDims(dimensions ...int) error {
	if s.Rank() != len(dimensions) {
		return errors.Errorf("shape (%s) has incompatible rank %d (wanted %d)", s, s.Rank(), len(dimensions))
	}
	for ii, wantDim := range dimensions {
		if wantDim != UncheckedAxis && s.Dimensions[ii] != wantDim {
			return errors.Errorf("shape (%s) axis %d has dimension %d, wanted %d (shape wanted=%v)", s, ii, s.Dimensions[ii], wantDim, dimensions)
		}
	}
	return nil
}

// CheckMinRank checks that the shape has at least the given rank.
func (s Shape) CheckMinRank(rank int) error {
	if s.Rank() < rank {
		return errors.Errorf("shape (%s) has rank %d -- wanted at least %d", s, s.Rank(), rank)
	}
	return nil
}

// AssertMinRank panics if the shape of shaped has rank lower than the given one.
func AssertMinRank(shaped HasShape, rank int) {
	if err := shaped.Shape().CheckMinRank(rank); err != nil {
		exceptions.Panicf("shapes.AssertMinRank(%d): %+v", rank, err)
	}
}
