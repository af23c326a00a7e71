// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package graph

// Geometry of a sliding window along one spatial axis.
type Geometry struct {
	Kernel, Stride, PadBegin, PadEnd, Dilation int
}

// KernelExtent is the number of input positions spanned by one window, including dilation holes.
func (g Geometry) KernelExtent() int {
	return (g.Kernel-1)*g.Dilation + 1
}

// OutputDim returns the output dimension for the given input dimension.
func (g Geometry) OutputDim(in int) int {
	return (in+g.PadBegin+g.PadEnd-g.KernelExtent())/g.Stride + 1
}

// WindowAttrs configures the sliding window of convolutions and pooling, one value per spatial axis.
// Missing values take the defaults: stride 1, padding 0, dilation 1.
type WindowAttrs struct {
	Kernel    []int
	Strides   []int
	PadsBegin []int
	PadsEnd   []int
	Dilations []int
}

func valueOr(values []int, ii, defaultValue int) int {
	if ii < len(values) && values[ii] > 0 {
		return values[ii]
	}
	return defaultValue
}

// NumSpatialAxes returns the number of spatial axes the window is defined over.
func (w *WindowAttrs) NumSpatialAxes() int { return len(w.Kernel) }

// Geometry returns the window geometry along the given spatial axis (0 is the first spatial axis).
func (w *WindowAttrs) Geometry(spatialAxis int) Geometry {
	g := Geometry{
		Kernel:   valueOr(w.Kernel, spatialAxis, 1),
		Stride:   valueOr(w.Strides, spatialAxis, 1),
		Dilation: valueOr(w.Dilations, spatialAxis, 1),
	}
	if spatialAxis < len(w.PadsBegin) {
		g.PadBegin = w.PadsBegin[spatialAxis]
	}
	if spatialAxis < len(w.PadsEnd) {
		g.PadEnd = w.PadsEnd[spatialAxis]
	}
	return g
}

// Window2D returns a square 2D window with the same kernel, stride and padding on both spatial axes.
func Window2D(kernel, stride, pad int) WindowAttrs {
	return WindowAttrs{
		Kernel:    []int{kernel, kernel},
		Strides:   []int{stride, stride},
		PadsBegin: []int{pad, pad},
		PadsEnd:   []int{pad, pad},
	}
}

// ConvAttrs configures Conv1D, Conv2D, Conv3D and Deconv ops.
// Operands are (input, filter, bias), bias being optional.
type ConvAttrs struct {
	WindowAttrs

	// Groups of channels, 1 for a regular convolution.
	Groups int

	// Use3IC is the 3-input-channels read optimization mode for the input (0 disabled).
	Use3IC int
}

// IsDepthWise returns whether the convolution is depth-wise: one group per channel.
func (a *ConvAttrs) IsDepthWise(inChannels, outChannels int) bool {
	return a.Groups > 1 && a.Groups == inChannels && a.Groups == outChannels
}

// PoolAttrs configures MaxPool and AvgPool.
type PoolAttrs struct {
	WindowAttrs
	CountIncludePad bool
}

// AxisAttrs configures ops working along one logical axis: Softmax, LayerNorm and Concat.
type AxisAttrs struct {
	Axis int
}

// UpsampleAttrs configures nearest-neighbour Upsample.
type UpsampleAttrs struct {
	ScaleH, ScaleW int
}

// PermuteAttrs configures Permute: output axis ii is the input axis Order[ii].
type PermuteAttrs struct {
	Order []int
}
