// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"fmt"

	"github.com/gomlx/layergroup/graph"
	"github.com/pkg/errors"
)

// Window is the residency of a buffer in local memory: from timestep Start to End, inclusive.
//
// A window with Start > End wraps around the end of the schedule: it covers [Start, NumTimesteps)
// and [0, End]. Software-pipelined schedules load the next section's tensors before the current
// section is finished.
type Window struct {
	Start, End int
}

// Covers returns whether the window includes timestep ts.
func (w Window) Covers(ts int) bool {
	if w.Start <= w.End {
		return ts >= w.Start && ts <= w.End
	}
	return ts <= w.End || ts >= w.Start
}

// String implements fmt.Stringer.
func (w Window) String() string { return fmt.Sprintf("[%d,%d]", w.Start, w.End) }

// Schedule of the execution of one section of a group: the timestep of each op and the residency
// window of each tensor's buffer in local memory.
type Schedule struct {
	NumTimesteps int
	OpStep       map[*graph.Op]int
	Windows      map[*graph.Tensor]Window
}

// LinearSchedule returns a schedule with one timestep per op, in group order.
// Each tensor stays resident from the timestep it is produced (or first read, for group inputs and
// weights) to the timestep of its last reader in the group.
func LinearSchedule(group *Group) *Schedule {
	s := &Schedule{
		NumTimesteps: len(group.Ops),
		OpStep:       make(map[*graph.Op]int, len(group.Ops)),
		Windows:      make(map[*graph.Tensor]Window),
	}
	extend := func(t *graph.Tensor, ts int) {
		if w, found := s.Windows[t]; found {
			s.Windows[t] = Window{Start: min(w.Start, ts), End: max(w.End, ts)}
			return
		}
		s.Windows[t] = Window{Start: ts, End: ts}
	}
	for ts, op := range group.Ops {
		s.OpStep[op] = ts
		for _, input := range op.Inputs() {
			if !input.IsNone() {
				extend(input, ts)
			}
		}
		for _, output := range op.Outputs() {
			extend(output, ts)
		}
	}
	return s
}

// Validate checks that every op of the group has a timestep and that all timesteps are in range.
func (s *Schedule) Validate(group *Group) error {
	if s.NumTimesteps <= 0 {
		return errors.Errorf("schedule of %s has %d timesteps", group.Name, s.NumTimesteps)
	}
	inRange := func(ts int) bool { return ts >= 0 && ts < s.NumTimesteps }
	for _, op := range group.Ops {
		ts, found := s.OpStep[op]
		if !found {
			return errors.Errorf("schedule of %s has no timestep for op %s", group.Name, op.Name())
		}
		if !inRange(ts) {
			return errors.Errorf("schedule of %s has timestep %d out of range for op %s", group.Name, ts, op.Name())
		}
	}
	for t, w := range s.Windows {
		if !inRange(w.Start) || !inRange(w.End) {
			return errors.Errorf("schedule of %s has window %s out of range for tensor %s", group.Name, w, t.Name())
		}
	}
	return nil
}

// PeakBytes returns the largest sum of the bytes of the buffers resident at the same timestep,
// and the sum at every timestep.
func PeakBytes(numTimesteps int, buffers []Buffer) (peak int64, perTimestep []int64) {
	perTimestep = make([]int64, numTimesteps)
	for _, buffer := range buffers {
		for ts := range perTimestep {
			if buffer.Window.Covers(ts) {
				perTimestep[ts] += buffer.Bytes
			}
		}
	}
	for _, bytes := range perTimestep {
		peak = max(peak, bytes)
	}
	return
}
