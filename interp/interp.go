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

// Package interp evaluates expression graphs on host arrays.
// It is a reference interpreter: operations compute through their Eval
// methods, if-else nodes evaluate lazily, and operations without
// runtime semantics (the placeholders synthesized by rewrite rules)
// are rejected with an error.
package interp

import (
	"github.com/pkg/errors"
	"github.com/Armavica/pymc/base/sync"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/tensor"
)

// Env binds free variables to host arrays.
type Env map[*graph.Variable]kernels.Array

type evaluator struct {
	env  Env
	memo map[*graph.Variable]kernels.Array
}

// Eval computes the value of a variable given bindings for its free
// variables. Nodes shared between outputs are computed once.
func Eval(v *graph.Variable, env Env) (kernels.Array, error) {
	ev := &evaluator{env: env, memo: map[*graph.Variable]kernels.Array{}}
	return ev.eval(v)
}

// EvalAll computes the values of several variables under shared
// memoization.
func EvalAll(vs []*graph.Variable, env Env) ([]kernels.Array, error) {
	ev := &evaluator{env: env, memo: map[*graph.Variable]kernels.Array{}}
	outs := make([]kernels.Array, len(vs))
	for i, v := range vs {
		a, err := ev.eval(v)
		if err != nil {
			return nil, err
		}
		outs[i] = a
	}
	return outs, nil
}

func (ev *evaluator) eval(v *graph.Variable) (kernels.Array, error) {
	if a, ok := ev.memo[v]; ok {
		return a, nil
	}
	a, err := ev.compute(v)
	if err != nil {
		return nil, err
	}
	ev.memo[v] = a
	return a, nil
}

func (ev *evaluator) compute(v *graph.Variable) (kernels.Array, error) {
	if v.IsConstant() {
		return v.Data, nil
	}
	if v.Owner == nil {
		a, ok := ev.env[v]
		if !ok {
			return nil, errors.Errorf("free variable %s has no binding", v)
		}
		return a, nil
	}
	if ifElse, ok := v.Owner.Op.(brancher); ok {
		return ev.ifElse(v, ifElse)
	}
	evaluable, ok := v.Owner.Op.(tensor.Evaluable)
	if !ok {
		return nil, errors.Errorf("operation %s of %s has no runtime semantics", v.Owner.Op.OpName(), v)
	}
	inputs := make([]kernels.Array, len(v.Owner.Inputs))
	for i, in := range v.Owner.Inputs {
		a, err := ev.eval(in)
		if err != nil {
			return nil, err
		}
		inputs[i] = a
	}
	outputs, err := evaluable.Eval(inputs)
	if err != nil {
		return nil, errors.Errorf("evaluating %s: %v", v.Owner.Op.OpName(), err)
	}
	if len(outputs) != len(v.Owner.Outputs) {
		return nil, errors.Errorf("operation %s returned %d values: want %d", v.Owner.Op.OpName(), len(outputs), len(v.Owner.Outputs))
	}
	for i, out := range v.Owner.Outputs {
		ev.memo[out] = outputs[i]
	}
	return ev.memo[v], nil
}

// brancher is the if-else family: nodes whose inputs split into a
// condition and two branches, of which only one is computed.
type brancher interface {
	Branches(inputs []*graph.Variable) (cond *graph.Variable, thens, elses []*graph.Variable)
}

// ifElse only computes the taken branch.
func (ev *evaluator) ifElse(v *graph.Variable, op brancher) (kernels.Array, error) {
	cond, thens, elses := op.Branches(v.Owner.Inputs)
	condVal, err := ev.eval(cond)
	if err != nil {
		return nil, err
	}
	taken, err := kernels.ScalarBool(condVal)
	if err != nil {
		return nil, err
	}
	branch := elses
	if taken {
		branch = thens
	}
	for i, out := range v.Owner.Outputs {
		a, err := ev.eval(branch[i])
		if err != nil {
			return nil, err
		}
		ev.memo[out] = a
	}
	return ev.memo[v], nil
}

// Variables are immutable, so folded values stay valid for the life of
// the process. Rewrite rules fold the same axis nodes repeatedly.
var foldCache sync.Map[*graph.Variable, kernels.Array]

// ConstantFold evaluates a variable that depends on no free variables
// and returns it as a constant.
func ConstantFold(v *graph.Variable) (*graph.Variable, error) {
	if a := foldCache.Load(v); a != nil {
		return tensor.Constant(a), nil
	}
	a, err := Eval(v, nil)
	if err != nil {
		return nil, err
	}
	foldCache.Store(v, a)
	return tensor.Constant(a), nil
}
