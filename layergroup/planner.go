// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/ops"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// Plan is the tiling decision for one group, attached to it for code generation.
type Plan struct {
	// ID identifies the planning run in the logs.
	ID uuid.UUID

	Group    *Group
	Schedule *Schedule

	// Secs are the chosen section counts, MaxSecs their bounds and InitSecs the quick estimate
	// computed op by op (see InitSecs).
	Secs, MaxSecs, InitSecs Secs

	// Infos holds the sections and flags of every tensor of the group, weights included.
	Infos *TensorInfos

	// PeakBytes is the worst-case local memory used at any timestep, and CapacityBytes the local
	// memory of the backend.
	PeakBytes, CapacityBytes int64

	// Candidates is the number of section counts evaluated by the search.
	Candidates int

	// Elapsed is the time spent planning.
	Elapsed time.Duration
}

// Planner tiles fusion groups for one backend. It holds no state besides its configuration, and
// can plan several groups concurrently.
type Planner struct {
	Backend *backends.Backend
	Options Options

	sizer *Sizer
}

// NewPlanner creates a Planner for the backend.
func NewPlanner(backend *backends.Backend, opts Options) *Planner {
	return &Planner{Backend: backend, Options: opts, sizer: NewSizer(backend)}
}

// CheckSupported returns an error wrapping ErrUnsupportedOp if an op of the group, or the dtype of
// one of its tensors, can't be executed in the local memory of the backend.
func (p *Planner) CheckSupported(group *Group) error {
	caps := p.Backend.Capabilities
	checkDType := func(op *graph.Op, t *graph.Tensor) error {
		if !t.IsNone() && !caps.SupportsDType(t.DType()) {
			return errors.Wrapf(ErrUnsupportedOp, "op %s: dtype %s of tensor %s not supported by %s",
				op.Name(), t.DType(), t.Name(), p.Backend.Name())
		}
		return nil
	}
	for _, op := range group.Ops {
		if !ops.IsRegistered(op.Type()) || !caps.SupportsOp(op.Type()) {
			return errors.Wrapf(ErrUnsupportedOp, "op %s of type %s not supported by %s", op.Name(), op.Type(), p.Backend.Name())
		}
		for _, t := range op.Inputs() {
			if err := checkDType(op, t); err != nil {
				return err
			}
		}
		for _, t := range op.Outputs() {
			if err := checkDType(op, t); err != nil {
				return err
			}
		}
	}
	return nil
}

// Plan tiles the group: it checks the ops are supported, searches the section counts, and sets the
// flags of every tensor. If schedule is nil, LinearSchedule(group) is used.
func (p *Planner) Plan(group *Group, schedule *Schedule) (*Plan, error) {
	start := time.Now()
	plan := &Plan{
		ID:            uuid.New(),
		Group:         group,
		Schedule:      schedule,
		CapacityBytes: p.Backend.LmemBytes,
	}
	if err := p.CheckSupported(group); err != nil {
		return nil, err
	}
	if plan.Schedule == nil {
		plan.Schedule = LinearSchedule(group)
	}
	klog.V(2).Infof("layergroup %s: plan %s started for %d ops", group.Name, plan.ID, len(group.Ops))

	result, err := p.Search(group, plan.Schedule)
	if err != nil {
		return nil, errors.WithMessagef(err, "plan %s", plan.ID)
	}
	UpdateTensorInfos(group, result.Infos, p.Backend.Family)
	plan.Secs, plan.MaxSecs, plan.Infos = result.Secs, result.MaxSecs, result.Infos
	plan.PeakBytes, plan.Candidates = result.PeakBytes, result.Candidates
	plan.InitSecs = InitSecs(p.Backend, group)
	plan.Elapsed = time.Since(start)
	klog.V(1).Infof("layergroup %s: %s sections (init %s, max %s), peak %s of %s, %d candidates, plan %s",
		group.Name, plan.Secs, plan.InitSecs, plan.MaxSecs,
		humanize.IBytes(uint64(plan.PeakBytes)), humanize.IBytes(uint64(plan.CapacityBytes)),
		plan.Candidates, plan.ID)
	return plan, nil
}

// Result of planning one of the groups given to PlanAll: either Plan or Err is set.
type Result struct {
	Plan *Plan
	Err  error
}

// PlanAll plans the groups concurrently, with at most Options.Parallelism at a time.
// A group failing to be planned doesn't stop the others: its error is returned in its Result.
// The results are in the same order as groups. The optional onDone functions are called, possibly
// concurrently, as each group is planned.
//
// The groups can share tensors: planning never modifies the graph.
// It returns an error only if ctx is done before all groups are planned.
func (p *Planner) PlanAll(ctx context.Context, groups []*Group, onDone ...func(Result)) ([]Result, error) {
	results := make([]Result, len(groups))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(p.Options.parallelism())
	for ii, group := range groups {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			plan, err := p.Plan(group, nil)
			if err != nil {
				klog.V(1).Infof("layergroup %s: %v", group.Name, err)
			}
			results[ii] = Result{Plan: plan, Err: err}
			for _, fn := range onDone {
				fn(results[ii])
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return results, errors.Wrap(err, "planning groups")
	}
	return results, nil
}
