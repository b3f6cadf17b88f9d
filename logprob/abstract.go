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

// Package logprob derives log-density graphs from random-variable
// graphs. Rewrite rules recognize measurable patterns (indexed stacks
// of random variables, element-wise and lazy conditionals) and replace
// them with measurable operations; a dispatch registry then maps every
// measurable operation to the graph of its log-density.
package logprob

import (
	"reflect"
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"github.com/Armavica/pymc/base/iter"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/tensor"
)

// MeasurableOp is implemented by operations whose outputs have a
// derivable log-density. Random-variable operations implement it
// directly; rewrite rules convert recognizable patterns into
// measurable operations.
type MeasurableOp interface {
	graph.Op

	// Measurable marks the operation as having a derivable density.
	Measurable()
}

// IsMeasurable returns true if the variable is the output of a
// measurable operation.
func IsMeasurable(v *graph.Variable) bool {
	if v.Owner == nil {
		return false
	}
	_, ok := v.Owner.Op.(MeasurableOp)
	return ok
}

// FilterMeasurableVariables returns the variables that are outputs of
// measurable operations.
func FilterMeasurableVariables(vs []*graph.Variable) []*graph.Variable {
	var out []*graph.Variable
	for v := range iter.Filter(IsMeasurable, vs) {
		out = append(out, v)
	}
	return out
}

type (
	// ValuedRVOp ties a random variable to its value variable. It acts
	// as the identity on the random variable; rewrite rules treat it as
	// a boundary and never look through it.
	ValuedRVOp struct{}

	// PromisedValuedRVOp marks a random variable that will be tied to a
	// value once an enclosing pattern is resolved. Stacking operations
	// introduce it to keep interdependencies visible; the mixture
	// extractor looks through it.
	PromisedValuedRVOp struct{}
)

var (
	_ tensor.Evaluable = ValuedRVOp{}
	_ tensor.Evaluable = PromisedValuedRVOp{}
)

// OpName identifies the operation.
func (ValuedRVOp) OpName() string { return "valued_rv" }

// OpName identifies the operation.
func (PromisedValuedRVOp) OpName() string { return "promised_valued_rv" }

// Eval acts as the identity on the random variable.
func (ValuedRVOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return []kernels.Array{inputs[0]}, nil
}

// Eval acts as the identity on the random variable.
func (PromisedValuedRVOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return []kernels.Array{inputs[0]}, nil
}

// ValuedRV ties a random variable to its value variable.
func ValuedRV(rv, value *graph.Variable) *graph.Variable {
	return graph.NewApply(ValuedRVOp{}, []*graph.Variable{rv, value}, rv.Type).Default()
}

// PromisedValuedRV wraps a random variable pending valuation.
func PromisedValuedRV(rv *graph.Variable) *graph.Variable {
	return graph.NewApply(PromisedValuedRVOp{}, []*graph.Variable{rv}, rv.Type).Default()
}

// unwrapPromised looks through a promised-valued wrapper.
func unwrapPromised(v *graph.Variable) *graph.Variable {
	if v.Owner != nil {
		if _, ok := v.Owner.Op.(PromisedValuedRVOp); ok {
			return v.Owner.Inputs[0]
		}
	}
	return v
}

// CheckPotentialMeasurability returns true if any of the variables
// depends on an unvalued measurable variable. Valued random variables
// stop the search: their density is accounted for elsewhere.
func CheckPotentialMeasurability(vs []*graph.Variable) bool {
	seen := map[*graph.Variable]bool{}
	var visit func(v *graph.Variable) bool
	visit = func(v *graph.Variable) bool {
		if seen[v] {
			return false
		}
		seen[v] = true
		if v.Owner == nil {
			return false
		}
		if _, ok := v.Owner.Op.(ValuedRVOp); ok {
			return false
		}
		if _, ok := v.Owner.Op.(MeasurableOp); ok {
			return true
		}
		for _, in := range v.Owner.Inputs {
			if visit(in) {
				return true
			}
		}
		return false
	}
	for _, v := range vs {
		if visit(v) {
			return true
		}
	}
	return false
}

// DensityFn builds the log-density graph of one node of a measurable
// operation, given the value variable of its default output.
type DensityFn func(a *graph.Apply, value *graph.Variable) (*graph.Variable, error)

var densities = map[reflect.Type]DensityFn{}

// RegisterDensity maps an operation type to its density deriver.
// Registration happens at process start-up.
func RegisterDensity(op graph.Op, fn DensityFn) {
	densities[reflect.TypeOf(op)] = fn
}

// LogProb returns the log-density graph of a measurable variable at a
// value.
func LogProb(rv, value *graph.Variable) (*graph.Variable, error) {
	if rv.Owner == nil {
		return nil, errors.Errorf("%s is not the output of an operation", rv)
	}
	fn, ok := densities[reflect.TypeOf(rv.Owner.Op)]
	if !ok {
		known := make([]string, 0, len(densities))
		for _, t := range maps.Keys(densities) {
			known = append(known, t.String())
		}
		sort.Strings(known)
		return nil, errors.Errorf("no density registered for operation %s (registered: %v)", rv.Owner.Op.OpName(), known)
	}
	return fn(rv.Owner, value)
}
