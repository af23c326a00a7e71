// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"runtime"

	"github.com/gomlx/layergroup/slicing"
)

// Order is the policy used to distribute the number of sections a group needs between batch and height.
//
//go:generate go tool enumer -type=Order -transform=snake -text -yaml -output=gen_order_enumer.go options.go
type Order int

const (
	// BatchFirst puts as many of the needed sections as possible in the batch axis, and only the
	// remainder in the height. Batch sections don't overlap, height sections do.
	BatchFirst Order = iota

	// HeightFirst keeps the batch sections of the candidate being tried and puts every other needed
	// section in the height.
	HeightFirst
)

// Options of the planner.
type Options struct {
	// GrowthLimit is the factor over the natural height above which the total length of a tensor's
	// overlapping height sections is rejected. 0 disables the check.
	GrowthLimit float64

	// Order distributes the needed sections between batch and height.
	Order Order

	// Parallelism is the maximum number of groups planned concurrently by Planner.PlanAll.
	// Values <= 0 mean runtime.NumCPU().
	Parallelism int
}

// DefaultOptions returns the default planner options.
func DefaultOptions() Options {
	return Options{
		GrowthLimit: slicing.DefaultGrowthLimit,
		Order:       BatchFirst,
		Parallelism: runtime.NumCPU(),
	}
}

// WithGrowthLimit returns a copy of the options with the given growth limit.
func (o Options) WithGrowthLimit(limit float64) Options {
	o.GrowthLimit = limit
	return o
}

// WithOrder returns a copy of the options with the given order.
func (o Options) WithOrder(order Order) Options {
	o.Order = order
	return o
}

// WithParallelism returns a copy of the options with the given parallelism.
func (o Options) WithParallelism(parallelism int) Options {
	o.Parallelism = parallelism
	return o
}

func (o Options) parallelism() int {
	if o.Parallelism <= 0 {
		return runtime.NumCPU()
	}
	return o.Parallelism
}
