// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/gomlx/layergroup/backends"
	"github.com/gomlx/layergroup/graph"
	"github.com/gomlx/layergroup/layergroup"
	"github.com/gomlx/layergroup/types/shapes"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// modelFile is the YAML description of a model: its tensors, ops (in topological order) and the
// fusion groups to plan. Example:
//
//	name: block
//	tensors:
//	  - {name: x, kind: input, dtype: float32, shape: [8, 64, 100, 16]}
//	  - {name: w, kind: weight, dtype: float32, shape: [1, 64, 1, 1]}
//	ops:
//	  - {name: t1, type: Scale, inputs: [x, w]}
//	  - {name: y, type: Relu, inputs: [t1]}
//	groups:
//	  - {name: g0, ops: [t1, y]}
type modelFile struct {
	Name    string        `yaml:"name"`
	Layout  shapes.Layout `yaml:"layout"`
	Tensors []tensorDesc  `yaml:"tensors"`
	Ops     []opDesc      `yaml:"ops"`
	Groups  []groupDesc   `yaml:"groups"`
}

type tensorDesc struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	DType     string `yaml:"dtype"`
	Shape     []int  `yaml:"shape"`
	Quantized bool   `yaml:"quantized"`
	ZeroPoint int    `yaml:"zero_point"`
}

// opDesc describes one op. Its single output tensor takes the op's name. Only the attributes of
// the op's type are used.
type opDesc struct {
	Name   string          `yaml:"name"`
	Type   backends.OpType `yaml:"type"`
	Inputs []string        `yaml:"inputs"`

	// Window of convolutions and pooling. Pads is symmetric, PadsBegin/PadsEnd override it.
	Kernel    []int `yaml:"kernel"`
	Strides   []int `yaml:"strides"`
	Pads      []int `yaml:"pads"`
	PadsBegin []int `yaml:"pads_begin"`
	PadsEnd   []int `yaml:"pads_end"`
	Dilations []int `yaml:"dilations"`
	Groups    int   `yaml:"groups"`
	Use3IC    int   `yaml:"use_3ic"`

	Axis  int   `yaml:"axis"`
	Scale []int `yaml:"scale"`
	Order []int `yaml:"order"`
	Shape []int `yaml:"shape"`

	// Quantization of the output.
	Quantized bool `yaml:"quantized"`
	ZeroPoint int  `yaml:"zero_point"`
}

// groupDesc describes a fusion group. Its layout defaults to the model's.
type groupDesc struct {
	Name   string         `yaml:"name"`
	Layout *shapes.Layout `yaml:"layout"`
	Ops    []string       `yaml:"ops"`
}

// Model is a loaded model: the graph and its fusion groups.
type Model struct {
	Graph  *graph.Graph
	Groups []*layergroup.Group
}

// LoadModelFile reads the YAML model description in path.
func LoadModelFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening model file")
	}
	defer func() { _ = f.Close() }()
	model, err := LoadModel(f)
	if err != nil {
		return nil, errors.WithMessagef(err, "model file %q", path)
	}
	return model, nil
}

// LoadModel parses a YAML model description and builds its graph and groups.
func LoadModel(r io.Reader) (*Model, error) {
	var file modelFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, errors.Wrap(err, "parsing model")
	}
	if file.Name == "" {
		file.Name = "model"
	}
	model := &Model{Graph: graph.New(file.Name)}
	g := model.Graph

	for _, ts := range file.Tensors {
		dtype, err := dtypes.DTypeString(ts.DType)
		if err != nil || dtype == dtypes.InvalidDType {
			return nil, errors.Errorf("tensor %q: unknown dtype %q", ts.Name, ts.DType)
		}
		var t *graph.Tensor
		err = exceptions.TryCatch[error](func() {
			shape := shapes.Make(dtype, ts.Shape...)
			switch strings.ToLower(ts.Kind) {
			case "", "input":
				t = g.Input(ts.Name, shape)
			case "weight":
				t = g.Weight(ts.Name, shape)
			default:
				exceptions.Panicf("unknown kind %q, valid values are \"input\" and \"weight\"", ts.Kind)
			}
			if ts.Quantized {
				t.SetQuantization(graph.Quantization{Quantized: true, ZeroPoint: ts.ZeroPoint})
			}
		})
		if err != nil {
			return nil, errors.WithMessagef(err, "tensor %q", ts.Name)
		}
	}

	for ii, desc := range file.Ops {
		if err := buildOp(g, desc); err != nil {
			return nil, errors.WithMessagef(err, "op #%d %q", ii, desc.Name)
		}
	}

	for ii, gs := range file.Groups {
		layout := file.Layout
		if gs.Layout != nil {
			layout = *gs.Layout
		}
		if gs.Name == "" {
			gs.Name = fmt.Sprintf("group_%d", ii)
		}
		ops := make([]*graph.Op, 0, len(gs.Ops))
		for _, name := range gs.Ops {
			op := g.OpByName(name)
			if op == nil {
				return nil, errors.Errorf("group %q: unknown op %q", gs.Name, name)
			}
			ops = append(ops, op)
		}
		var group *layergroup.Group
		err := exceptions.TryCatch[error](func() { group = layergroup.NewGroup(gs.Name, layout, ops...) })
		if err != nil {
			return nil, err
		}
		model.Groups = append(model.Groups, group)
	}
	return model, nil
}

// buildOp creates the op described by desc with the builder of its type.
func buildOp(g *graph.Graph, desc opDesc) error {
	opType := desc.Type
	if !opType.IsValid() {
		return errors.Errorf("op has no valid type, got %s", opType)
	}
	if len(desc.Inputs) == 0 {
		return errors.Errorf("op of type %s has no inputs", opType)
	}
	inputs := make([]*graph.Tensor, len(desc.Inputs))
	for ii, name := range desc.Inputs {
		if name == "" || name == "none" {
			inputs[ii] = g.None()
			continue
		}
		if inputs[ii] = g.TensorByName(name); inputs[ii] == nil {
			return errors.Errorf("unknown input %q", name)
		}
	}
	operand := func(ii int) *graph.Tensor {
		if ii < len(inputs) && !inputs[ii].IsNone() {
			return inputs[ii]
		}
		return nil
	}
	window := graph.WindowAttrs{
		Kernel:    desc.Kernel,
		Strides:   desc.Strides,
		PadsBegin: desc.Pads,
		PadsEnd:   desc.Pads,
		Dilations: desc.Dilations,
	}
	if desc.PadsBegin != nil {
		window.PadsBegin = desc.PadsBegin
	}
	if desc.PadsEnd != nil {
		window.PadsEnd = desc.PadsEnd
	}

	return exceptions.TryCatch[error](func() {
		x := inputs[0]
		var out *graph.Tensor
		switch {
		case opType == backends.OpTypeDeconv:
			out = graph.Deconv(x, operand(1), operand(2), graph.ConvAttrs{WindowAttrs: window, Groups: desc.Groups, Use3IC: desc.Use3IC})
		case opType.IsConvolution():
			out = graph.Conv(x, operand(1), operand(2), graph.ConvAttrs{WindowAttrs: window, Groups: desc.Groups, Use3IC: desc.Use3IC})
		case opType == backends.OpTypeMaxPool || opType == backends.OpTypeAvgPool:
			out = graph.Pool(opType, x, graph.PoolAttrs{WindowAttrs: window})
		case opType.IsBinary():
			if len(inputs) != 2 {
				exceptions.Panicf("binary op %s needs 2 inputs, got %d", opType, len(inputs))
			}
			out = graph.Binary(opType, x, inputs[1])
		case opType == backends.OpTypeSoftmax || opType == backends.OpTypeLayerNorm:
			out = graph.AlongAxis(opType, x, desc.Axis, inputs[1:]...)
		case opType == backends.OpTypeConcat:
			out = graph.Concat(desc.Axis, inputs...)
		case opType == backends.OpTypeUpsample:
			if len(desc.Scale) != 2 {
				exceptions.Panicf("upsample needs a scale with 2 values, got %v", desc.Scale)
			}
			out = graph.Upsample(x, desc.Scale[0], desc.Scale[1])
		case opType == backends.OpTypeReshape:
			out = graph.Reshape(x, desc.Shape...)
		case opType == backends.OpTypePermute:
			out = graph.Permute(x, desc.Order...)
		case opType == backends.OpTypeMatMul:
			out = graph.MatMul(x, inputs[1])
		default:
			out = graph.Elementwise(opType, x, inputs[1:]...)
		}
		if desc.Name != "" {
			out.Producer().SetName(desc.Name)
		}
		if desc.Quantized {
			out.SetQuantization(graph.Quantization{Quantized: true, ZeroPoint: desc.ZeroPoint})
		}
	})
}
