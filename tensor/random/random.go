// Copyright 2025 The PyMC Developers
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package random defines the random-variable operations whose densities
// can be derived. A random variable node has inputs [size, params...]:
// size is either the none constant or a constant integer vector giving
// the output shape, and the parameters broadcast together to the
// remaining axes.
package random

import (
	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/tensor"
)

// Variate is implemented by random-variable operations. The graph
// simplifier rebuilds variates over transformed inputs, so every
// variate can reconstruct a node of its own distribution.
type Variate interface {
	graph.Op

	// Measurable marks the operation as having a derivable density.
	Measurable()

	// Make builds a node of this distribution from inputs laid out as
	// [size, params...], re-inferring the output type.
	Make(inputs []*graph.Variable) (*graph.Apply, error)
}

type (
	// NormalOp draws from a normal distribution.
	// Inputs: [size, loc, scale].
	NormalOp struct{}

	// DiracDeltaOp is the distribution concentrated on its single
	// parameter. Inputs: [size, point].
	DiracDeltaOp struct{}
)

var (
	_ Variate = NormalOp{}
	_ Variate = DiracDeltaOp{}
)

// OpName identifies the operation.
func (NormalOp) OpName() string { return "normal_rv" }

// OpName identifies the operation.
func (DiracDeltaOp) OpName() string { return "dirac_delta_rv" }

// Measurable marks the operation as having a derivable density.
func (NormalOp) Measurable() {}

// Measurable marks the operation as having a derivable density.
func (DiracDeltaOp) Measurable() {}

// SizeDims returns the static output shape requested by a size input,
// or nil when the size is none and the shape follows the parameters.
func SizeDims(size *graph.Variable) ([]int, error) {
	if tensor.IsNone(size) {
		return nil, nil
	}
	if !size.IsConstant() {
		return nil, errors.Errorf("size %s is not a constant", size)
	}
	st := tensor.TypeOf(size)
	if st.DT != dtype.Int64 || st.Rank() > 1 {
		return nil, errors.Errorf("size has type %s: want an integer vector", st)
	}
	vals, err := kernels.Int64Values(size.Data)
	if err != nil {
		return nil, err
	}
	dims := make([]int, len(vals))
	for i, v := range vals {
		dims[i] = int(v)
	}
	return dims, nil
}

func variateType(op Variate, dt dtype.DataType, size *graph.Variable, params []*graph.Variable) (*tensor.TensorType, error) {
	dims, err := SizeDims(size)
	if err != nil {
		return nil, errors.Errorf("%s: %v", op.OpName(), err)
	}
	if dims != nil {
		return tensor.NewType(dt, dims...), nil
	}
	pts := make([]*tensor.TensorType, len(params))
	for i, p := range params {
		pts[i] = tensor.TypeOf(p)
	}
	return tensor.BroadcastTypes(dt, pts...)
}

func makeVariate(op Variate, dt dtype.DataType, nparams int, inputs []*graph.Variable) (*graph.Apply, error) {
	if len(inputs) != 1+nparams {
		return nil, errors.Errorf("%s: got %d inputs: want %d", op.OpName(), len(inputs), 1+nparams)
	}
	out, err := variateType(op, dt, inputs[0], inputs[1:])
	if err != nil {
		return nil, err
	}
	return graph.NewApply(op, inputs, out), nil
}

// Make builds a normal node from inputs [size, loc, scale].
func (op NormalOp) Make(inputs []*graph.Variable) (*graph.Apply, error) {
	return makeVariate(op, dtype.Float64, 2, inputs)
}

// Make builds a dirac delta node from inputs [size, point].
func (op DiracDeltaOp) Make(inputs []*graph.Variable) (*graph.Apply, error) {
	if len(inputs) != 2 {
		return nil, errors.Errorf("%s: got %d inputs: want 2", op.OpName(), len(inputs))
	}
	return makeVariate(op, tensor.TypeOf(inputs[1]).DT, 1, inputs)
}

// Normal returns a normal random variable. A none size lets the output
// shape follow the broadcast of loc and scale.
func Normal(size, loc, scale *graph.Variable) (*graph.Variable, error) {
	a, err := NormalOp{}.Make([]*graph.Variable{size, loc, scale})
	if err != nil {
		return nil, err
	}
	return a.Default(), nil
}

// DiracDelta returns the random variable concentrated on point.
func DiracDelta(point *graph.Variable) (*graph.Variable, error) {
	a, err := DiracDeltaOp{}.Make([]*graph.Variable{tensor.None, point})
	if err != nil {
		return nil, err
	}
	return a.Default(), nil
}
