// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// lgplan plans the tiling of the fusion groups of a model for a chip, and prints the chosen
// sections, the local memory peak and the slices of every tensor.
//
// Usage:
//
//	lgplan [-backend bm1684x:lmem=65536] [-order batch_first] [-parallel 4] [-progress] model.yaml
//
// See modelFile for the format of the model description.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/layergroup"
	"github.com/gomlx/layergroup/slicing"
	"github.com/janpfeifer/must"
	"github.com/muesli/termenv"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagBackend = flag.String("backend", "",
		fmt.Sprintf("Chip configuration, formatted as \"<chip>[:key=value,...]\". "+
			"If empty it uses $%s or the first known chip. Known chips: %q", backends.LAYERGROUP_BACKEND, backends.List()))
	flagOrder    = flag.String("order", layergroup.BatchFirst.String(),
		fmt.Sprintf("Order in which sections are added, one of %q.", layergroup.OrderStrings()))
	flagGrowth   = flag.Float64("growth", slicing.DefaultGrowthLimit, "Maximum growth of the height sections over the natural height, 0 disables the check.")
	flagParallel = flag.Int("parallel", 0, "Number of groups planned concurrently. If <= 0 it uses the number of CPUs.")
	flagProgress = flag.Bool("progress", false, "Display a progress bar while planning.")
	flagNoColor  = flag.Bool("nocolor", false, "Disable colors in the report.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		klog.Errorf("Missing model file to plan. See 'lgplan -help'")
		os.Exit(1)
	}
	if len(args) > 1 {
		klog.Errorf("Too many arguments. See 'lgplan -help'.")
		os.Exit(1)
	}
	if *flagNoColor {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	var backend *backends.Backend
	if *flagBackend == "" {
		backend = backends.MustNew()
	} else {
		backend = must.M1(backends.NewWithConfig(*flagBackend))
	}
	order := must.M1(layergroup.OrderString(*flagOrder))
	opts := layergroup.DefaultOptions().
		WithOrder(order).
		WithGrowthLimit(*flagGrowth).
		WithParallelism(*flagParallel)

	numFailed, err := run(context.Background(), os.Stdout, backend, opts, args[0], *flagProgress)
	if err != nil {
		klog.Errorf("%+v", err)
		os.Exit(1)
	}
	if numFailed > 0 {
		klog.Errorf("%d group(s) could not be planned", numFailed)
		os.Exit(1)
	}
}

// run loads the model, plans all its groups and writes the report to w.
// It returns the number of groups that could not be planned.
func run(ctx context.Context, w io.Writer, backend *backends.Backend, opts layergroup.Options, modelPath string, progress bool) (int, error) {
	model, err := LoadModelFile(modelPath)
	if err != nil {
		return 0, err
	}
	klog.V(1).Infof("loaded %d groups from %q, planning for %s", len(model.Groups), modelPath, backend.Description())

	var onDone []func(layergroup.Result)
	if progress {
		bar := progressbar.NewOptions(len(model.Groups),
			progressbar.OptionSetDescription("Planning"),
			progressbar.OptionSetItsString("groups"),
			progressbar.OptionShowIts(),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
		onDone = append(onDone, func(layergroup.Result) { _ = bar.Add(1) })
		defer func() { _ = bar.Finish() }()
	}

	planner := layergroup.NewPlanner(backend, opts)
	results, err := planner.PlanAll(ctx, model.Groups, onDone...)
	if err != nil {
		return 0, errors.WithMessagef(err, "model %q", modelPath)
	}
	return writeReport(w, backend, model, results), nil
}
