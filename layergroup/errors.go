// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"fmt"

	"github.com/gomlx/layergroup/graph"
	"github.com/pkg/errors"
)

// Expected negative outcomes of planning. They are returned wrapped, test them with errors.Is.
var (
	// ErrInfeasibleSplit is returned when an op can't compute a requested section, or when the
	// resulting operand sections are empty or don't advance along the height.
	ErrInfeasibleSplit = errors.New("infeasible split")

	// ErrInconsistentSlice is returned when two consumers of a tensor require different sections of it.
	ErrInconsistentSlice = errors.New("inconsistent slices of a shared tensor")

	// ErrExcessiveGrowth is returned when the height sections of a tensor overlap too much.
	ErrExcessiveGrowth = errors.New("excessive growth of the height sections")

	// ErrSearchExhausted is returned when no section counts within bounds fit the local memory.
	ErrSearchExhausted = errors.New("no section counts fit the group in local memory")

	// ErrUnsupportedOp is returned when an op or one of its dtypes can't be executed in local memory.
	ErrUnsupportedOp = errors.New("op can't execute in local memory")
)

// SplitError describes why a propagation failed. Kind is one of ErrInfeasibleSplit,
// ErrInconsistentSlice or ErrExcessiveGrowth.
type SplitError struct {
	Kind   error
	Tensor *graph.Tensor
	Op     *graph.Op
	Reason string
}

// Error implements the error interface.
func (e *SplitError) Error() string {
	opName := "<none>"
	if e.Op != nil {
		opName = e.Op.Name()
	}
	return fmt.Sprintf("%v: tensor %s of op %s: %s", e.Kind, e.Tensor, opName, e.Reason)
}

// Unwrap returns Kind, so errors.Is works with the sentinel errors.
func (e *SplitError) Unwrap() error { return e.Kind }

func splitErrorf(kind error, t *graph.Tensor, op *graph.Op, format string, args ...any) error {
	return &SplitError{Kind: kind, Tensor: t, Op: op, Reason: fmt.Sprintf(format, args...)}
}
