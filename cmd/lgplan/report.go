// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/layergroup"
	"github.com/gomlx/layergroup/slicing"
)

// maxPairsShown is the number of sections listed per axis before the rest are elided.
const maxPairsShown = 4

// writeReport prints the overview of all groups, followed by the details of each planned group.
// It returns the number of groups that failed.
func writeReport(w io.Writer, backend *backends.Backend, model *Model, results []layergroup.Result) (numFailed int) {
	_, _ = fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Model %q on %s", model.Graph.Name(), backend.Description())))
	overview := newReportTable(left("Group"), right("Ops"), right("Secs (NxH)"), right("Peak"), left("Status"))
	for ii, result := range results {
		group := model.Groups[ii]
		if result.Err != nil {
			numFailed++
			overview.AddFailed(group.Name, strconv.Itoa(len(group.Ops)), "-", "-", result.Err.Error())
			continue
		}
		plan := result.Plan
		overview.Add(group.Name, strconv.Itoa(len(group.Ops)), plan.Secs.String(),
			humanize.IBytes(uint64(plan.PeakBytes)), "ok")
	}
	_, _ = fmt.Fprintln(w, overview.Render())

	for _, result := range results {
		if result.Plan != nil {
			writePlan(w, result.Plan)
		}
	}
	return
}

// writePlan prints the summary of one plan and the sections of each of its tensors.
func writePlan(w io.Writer, plan *layergroup.Plan) {
	_, _ = fmt.Fprintln(w, titleStyle.Render("Group "+plan.Group.Name))
	summary := newReportTable(right(""), left(""))
	summary.Add("Ops", opsList(plan.Group))
	summary.Add("Sections", plan.Secs.String())
	summary.Add("Max / initial sections", plan.MaxSecs.String()+" / "+plan.InitSecs.String())
	summary.Add("Peak local memory", fmt.Sprintf("%s of %s (%.1f%%)",
		humanize.IBytes(uint64(plan.PeakBytes)), humanize.IBytes(uint64(plan.CapacityBytes)),
		100*float64(plan.PeakBytes)/float64(plan.CapacityBytes)))
	summary.Add("Timesteps", strconv.Itoa(plan.Schedule.NumTimesteps))
	summary.Add("Candidates evaluated", humanize.Comma(int64(plan.Candidates)))
	summary.Add("Elapsed", plan.Elapsed.String())
	summary.Add("Plan ID", plan.ID.String())
	_, _ = fmt.Fprintln(w, summary.Render())

	tensors := newReportTable(left("Tensor"), left("Kind"), left("Shape"), left("N sections"), left("H sections"),
		center("EU align"), center("Broadcast"), center("3IC"))
	for tensor, info := range plan.Infos.All() {
		tensors.Add(tensor.Name(), tensorRole(plan.Group, tensor), tensor.Shape().String(),
			pairsSummary(info.Slice.N), pairsSummary(info.Slice.H),
			yesNo(info.EUAlign), yesNo(info.NeedBroadcast), use3ICString(info.Use3IC))
	}
	_, _ = fmt.Fprintln(w, tensors.Render())
}

func opsList(group *layergroup.Group) string {
	parts := make([]string, 0, len(group.Ops))
	for _, op := range group.Ops {
		parts = append(parts, fmt.Sprintf("%s(%s)", op.Name(), op.Type()))
	}
	return strings.Join(parts, " → ")
}

// tensorRole describes how the tensor is used by the group.
func tensorRole(group *layergroup.Group, t *graph.Tensor) string {
	switch {
	case t.IsWeight():
		return "weight"
	case group.IsInput(t):
		return "input"
	case group.IsOutput(t):
		return "output"
	default:
		return "internal"
	}
}

// pairsSummary lists the sections, eliding the middle ones if there are too many.
func pairsSummary(pairs []slicing.Pair) string {
	if len(pairs) <= maxPairsShown {
		parts := make([]string, len(pairs))
		for ii, p := range pairs {
			parts[ii] = p.String()
		}
		return strings.Join(parts, " ")
	}
	return fmt.Sprintf("%s %s … %s [%d]", pairs[0], pairs[1], pairs[len(pairs)-1], len(pairs))
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "-"
}

func use3ICString(mode int) string {
	if mode == 0 {
		return "-"
	}
	return strconv.Itoa(mode)
}
