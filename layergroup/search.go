// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package layergroup

import (
	"github.com/dustin/go-humanize"
	"github.com/gomlx/layergroup/backends"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// SearchResult is the outcome of a successful section count search.
type SearchResult struct {
	// Secs are the chosen section counts.
	Secs Secs

	// MaxSecs are the bounds the search was limited to.
	MaxSecs Secs

	// Infos holds the exact sections of every activation of the group for Secs.
	Infos *TensorInfos

	// PeakBytes is the worst-case peak of local memory used by a section, over all timesteps.
	PeakBytes int64

	// Candidates is the number of section counts evaluated.
	Candidates int
}

// Search finds the section counts for the group, trying batch section counts in increasing order:
//
//  1. The group is propagated in MaxSlice mode with the candidate batch sections and a single
//     height section, and the peak of local memory used over the schedule is measured.
//  2. The peak gives the number of sections needed to fit the local memory. They are distributed
//     between batch and height according to Options.Order.
//  3. The resulting section counts are validated: the MaxSlice peak must fit the local memory (the
//     height sections are increased up to their bound otherwise) and the Exact propagation must succeed.
//
// The first candidate validated is returned. Groups with a single op are never split: they get 1x1
// sections whatever their peak.
// It returns an error wrapping ErrSearchExhausted if no candidate within MaxSecs fits.
// If schedule is nil, LinearSchedule(group) is used.
func (p *Planner) Search(group *Group, schedule *Schedule) (*SearchResult, error) {
	if schedule == nil {
		schedule = LinearSchedule(group)
	}
	if err := schedule.Validate(group); err != nil {
		return nil, err
	}
	result := &SearchResult{MaxSecs: MaxSecs(p.Backend, group)}
	if len(group.Ops) == 1 {
		// A single op has no intermediate tensors to keep in local memory.
		one := Secs{N: 1, H: 1}
		infos, err := Propagate(p.Backend, group, one, Exact, p.Options)
		if err != nil {
			return nil, errors.WithMessagef(err, "group %s", group.Name)
		}
		peak, err := p.sizer.Peak(group, schedule, infos)
		if err != nil {
			return nil, err
		}
		result.Secs, result.Infos, result.PeakBytes, result.Candidates = one, infos, peak, 1
		return result, nil
	}

	maxSecs := result.MaxSecs
	for nSecs := 1; nSecs <= maxSecs.N; nSecs++ {
		result.Candidates++
		candidate := Secs{N: nSecs, H: 1}
		infos, err := Propagate(p.Backend, group, candidate, MaxSlice, p.Options)
		if err != nil {
			p.reject(group, candidate, err)
			continue
		}
		peak, err := p.sizer.Peak(group, schedule, infos)
		if err != nil {
			return nil, err
		}
		secs := p.distribute(nSecs, max(backends.CeilDiv(peak, p.Backend.LmemBytes), 1), maxSecs)
		if secs.H > maxSecs.H {
			p.reject(group, candidate, errors.Errorf("peak of %s needs %s sections, height is limited to %d",
				humanize.IBytes(uint64(peak)), secs, maxSecs.H))
			continue
		}
		ok, err := p.validate(group, schedule, secs, result)
		if err != nil {
			return nil, err
		}
		if ok {
			return result, nil
		}
	}
	return nil, errors.Wrapf(ErrSearchExhausted, "group %s within %s sections and %s of local memory",
		group.Name, maxSecs, humanize.IBytes(uint64(p.Backend.LmemBytes)))
}

// distribute the sections needed to fit the peak measured with nSecs batch sections.
func (p *Planner) distribute(nSecs int, needed int64, maxSecs Secs) Secs {
	total := nSecs * int(needed)
	if p.Options.Order == HeightFirst {
		return Secs{N: nSecs, H: backends.CeilDiv(total, nSecs)}
	}
	n := max(nSecs, min(maxSecs.N, total))
	return Secs{N: n, H: backends.CeilDiv(total, n)}
}

// validate tries secs, increasing its height sections up to their bound until the MaxSlice peak
// fits the local memory and the Exact propagation succeeds. On success result is filled.
func (p *Planner) validate(group *Group, schedule *Schedule, secs Secs, result *SearchResult) (bool, error) {
	for h := secs.H; h <= result.MaxSecs.H; h++ {
		candidate := Secs{N: secs.N, H: h}
		infos, err := Propagate(p.Backend, group, candidate, MaxSlice, p.Options)
		if err != nil {
			p.reject(group, candidate, err)
			continue
		}
		peak, err := p.sizer.Peak(group, schedule, infos)
		if err != nil {
			return false, err
		}
		if peak > p.Backend.LmemBytes {
			p.reject(group, candidate, errors.Errorf("peak of %s exceeds the local memory", humanize.IBytes(uint64(peak))))
			continue
		}
		exact, err := Propagate(p.Backend, group, candidate, Exact, p.Options)
		if err != nil {
			p.reject(group, candidate, err)
			continue
		}
		result.Secs, result.Infos, result.PeakBytes = candidate, exact, peak
		return true, nil
	}
	return false, nil
}

func (p *Planner) reject(group *Group, secs Secs, reason error) {
	klog.V(2).Infof("layergroup %s: rejected %s sections: %v", group.Name, secs, reason)
}
