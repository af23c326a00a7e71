// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
	"github.com/emirpasic/gods/v2/sets/hashset"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/ops"
	"github.com/gomlx/layergroup/slicing"
	"k8s.io/klog/v2"
)

// Mode selects how the sections of the group outputs are seeded by Propagate.
type Mode int

const (
	// MaxSlice seeds every output with a single section of the largest length a section can have,
	// aligned to the 4N packing on backends that use it. It is used to estimate the worst-case
	// local memory usage of the group for a candidate Secs.
	MaxSlice Mode = iota

	// Exact seeds every output with its actual sections, see slicing.Partition.
	Exact
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Exact {
		return "exact"
	}
	return "max-slice"
}

// Propagate computes the sections of every activation of the group for the given section counts,
// walking the group backwards from its outputs.
//
// Each tensor is propagated (to its producer's operands) only once all of its consumers in the
// group have contributed its sections, and tensors shared by several consumers must be given the
// same sections by all of them. Weights, absent operands and group inputs are not propagated.
//
// A failure returns a *SplitError wrapping one of ErrInfeasibleSplit, ErrInconsistentSlice or
// ErrExcessiveGrowth. The returned TensorInfos are owned by the caller.
func Propagate(backend *backends.Backend, group *Group, secs Secs, mode Mode, opts Options) (*TensorInfos, error) {
	if secs.N < 1 || secs.H < 1 {
		exceptions.Panicf("layergroup.Propagate(%s): invalid section counts %s", group.Name, secs)
	}
	p := &propagator{
		backend:  backend,
		group:    group,
		secs:     secs,
		opts:     opts,
		infos:    NewTensorInfos(),
		queue:    linkedlistqueue.New[*graph.Tensor](),
		enqueued: hashset.New[*graph.Tensor](),
		visited:  hashset.New[*graph.Op](),
	}
	for _, out := range group.Outs {
		info, err := p.seed(out, mode)
		if err != nil {
			return nil, err
		}
		p.infos.Set(out, &TensorInfo{Slice: info})
		p.enqueueIfReady(out)
	}
	for !p.queue.Empty() {
		t, _ := p.queue.Dequeue()
		if err := p.propagateFrom(t); err != nil {
			return nil, err
		}
	}
	return p.infos, nil
}

type propagator struct {
	backend *backends.Backend
	group   *Group
	secs    Secs
	opts    Options

	infos    *TensorInfos
	queue    *linkedlistqueue.Queue[*graph.Tensor]
	enqueued *hashset.Set[*graph.Tensor]
	visited  *hashset.Set[*graph.Op]
}

// seed returns the sections of a group output.
func (p *propagator) seed(out *graph.Tensor, mode Mode) (slicing.Info, error) {
	n, _, _, h, _ := out.Shape().NCDHW(p.group.Layout)
	if mode == Exact {
		info := slicing.Info{N: slicing.Partition(n, p.secs.N), H: slicing.Partition(h, p.secs.H)}
		// Partition leaves the empty sections at the end.
		if info.N[len(info.N)-1].Length == 0 || info.H[len(info.H)-1].Length == 0 {
			return info, splitErrorf(ErrInfeasibleSplit, out, out.Producer(), "%s sections of an output with batch %d and height %d", p.secs, n, h)
		}
		return info, nil
	}
	nSlice := backends.CeilDiv(n, p.secs.N)
	// A single batch section is the whole batch, as backwardInfo assigns it to every operand.
	if p.backend.Align4N && p.secs.N > 1 {
		nSlice = backends.AlignUp(nSlice, int(p.backend.BatchAlign(out.DType())))
	}
	hSlice := backends.CeilDiv(h, p.secs.H)
	return slicing.Info{
		N: []slicing.Pair{{Offset: 0, Length: nSlice}},
		H: []slicing.Pair{{Offset: 0, Length: hSlice}},
	}, nil
}

// isReady is the predicate deciding whether t can be propagated further: every consumer of t in the
// group must have been visited already, and if t is consumed outside the group it must be a group output.
func isReady(group *Group, visited *hashset.Set[*graph.Op], t *graph.Tensor) bool {
	external := false
	for _, consumer := range t.Consumers() {
		if !group.Contains(consumer) {
			external = true
			continue
		}
		if !visited.Contains(consumer) {
			return false
		}
	}
	return !external || group.IsOutput(t)
}

func (p *propagator) enqueueIfReady(t *graph.Tensor) {
	if p.enqueued.Contains(t) || !isReady(p.group, p.visited, t) {
		return
	}
	p.enqueued.Add(t)
	p.queue.Enqueue(t)
}

// propagateFrom computes the sections of the operands of t's producer.
func (p *propagator) propagateFrom(t *graph.Tensor) error {
	if p.group.IsInput(t) {
		return nil
	}
	op := t.Producer()
	if op == nil || !p.group.Contains(op) {
		return nil
	}
	p.visited.Add(op)
	outInfo, _ := p.infos.Get(t)
	for operand, input := range op.Inputs() {
		if input.IsNone() || input.IsWeight() {
			continue
		}
		info, err := p.backwardInfo(op, operand, input, outInfo.Slice)
		if err != nil {
			return err
		}
		if existing, found := p.infos.Get(input); found {
			if !slicing.Equal(info, existing.Slice) {
				return splitErrorf(ErrInconsistentSlice, input, op, "requires %s, previously %s", info, existing.Slice)
			}
		} else {
			p.infos.Set(input, &TensorInfo{Slice: info})
		}
		if klog.V(3).Enabled() {
			klog.Infof("layergroup %s(%s): %s <- %s %s", p.group.Name, p.secs, input.Name(), op.Name(), info)
		}
		p.enqueueIfReady(input)
	}
	return nil
}

// backwardInfo maps the sections of op's output to the sections of one of its operands.
func (p *propagator) backwardInfo(op *graph.Op, operand int, input *graph.Tensor, out slicing.Info) (slicing.Info, error) {
	layout := p.group.Layout
	n, _, _, h, _ := input.Shape().NCDHW(layout)
	broadcast := ops.IsBroadcastBinary(op, input)
	var info slicing.Info

	if p.secs.N == 1 {
		info.N = []slicing.Pair{{Offset: 0, Length: n}}
	} else {
		info.N = make([]slicing.Pair, 0, len(out.N))
		for _, outPair := range out.N {
			if broadcast && n == 1 {
				info.N = append(info.N, slicing.Pair{Offset: 0, Length: 1})
				continue
			}
			pair, ok := ops.BackwardN(op, operand, outPair, layout)
			if !ok || pair.Length <= 0 || pair.Offset >= n {
				return info, splitErrorf(ErrInfeasibleSplit, input, op, "batch section %s of the output", outPair)
			}
			info.N = append(info.N, pair)
		}
	}

	if p.secs.H == 1 {
		info.H = []slicing.Pair{{Offset: 0, Length: h}}
		return info, nil
	}
	info.H = make([]slicing.Pair, 0, len(out.H))
	for _, outPair := range out.H {
		if broadcast && h == 1 {
			info.H = append(info.H, slicing.Pair{Offset: 0, Length: 1})
			continue
		}
		pair, ok := ops.BackwardH(op, operand, outPair, layout)
		if !ok || pair.Length <= 0 || pair.Offset >= h {
			return info, splitErrorf(ErrInfeasibleSplit, input, op, "height section %s of the output", outPair)
		}
		info.H = append(info.H, pair)
	}
	if broadcast && h == 1 {
		return info, nil
	}
	if idx := slicing.FirstDiscontinuity(info.H); idx >= 0 {
		return info, splitErrorf(ErrInfeasibleSplit, input, op, "height section #%d %s doesn't advance from %s", idx, info.H[idx], info.H[idx-1])
	}
	if len(info.H) > 1 && slicing.GrownTooMuch(info, h, p.opts.GrowthLimit) {
		return info, splitErrorf(ErrExcessiveGrowth, input, op, "height sections cover %d for a height of %d (limit %gx)",
			slicing.Covered(info.H), h, p.opts.GrowthLimit)
	}
	return info, nil
}
