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

package logprob

import (
	"github.com/Armavica/pymc/base/ordered"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/tensor"
	"github.com/Armavica/pymc/tensor/random"
)

// pullDownMaxUseRatio bounds the pull-down rewriter: at most this many
// rewrites per initial node.
const pullDownMaxUseRatio = 100

// liftSize replaces a sized random variable by a size-free one with
// its parameters broadcast to the requested shape, so that later lifts
// can transform the parameters instead of the variable.
func liftSize(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	op, ok := node.Op.(random.Variate)
	if !ok {
		return nil, nil
	}
	size := node.Inputs[0]
	if tensor.IsNone(size) {
		return nil, nil
	}
	dims, err := random.SizeDims(size)
	if err != nil {
		// A symbolic size cannot be lifted.
		return nil, nil
	}
	newInputs := []*graph.Variable{tensor.None}
	for _, param := range node.Inputs[1:] {
		bp, err := tensor.BroadcastTo(param, dims)
		if err != nil {
			return nil, err
		}
		newInputs = append(newInputs, bp)
	}
	lifted, err := op.Make(newInputs)
	if err != nil {
		return nil, err
	}
	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(node.Default(), lifted.Default())
	return repl, nil
}

// variateInput returns the size-free random variable feeding a lifting
// operation, when its parameters already span the variable's axes.
func variateInput(v *graph.Variable) (random.Variate, *graph.Apply) {
	if v.Owner == nil {
		return nil, nil
	}
	op, ok := v.Owner.Op.(random.Variate)
	if !ok {
		return nil, nil
	}
	if !tensor.IsNone(v.Owner.Inputs[0]) {
		return nil, nil
	}
	rank := tensor.TypeOf(v).Rank()
	for _, param := range v.Owner.Inputs[1:] {
		if tensor.TypeOf(param).Rank() != rank {
			return nil, nil
		}
	}
	return op, v.Owner
}

// liftDimShuffle moves an axis permutation on a random variable onto
// its parameters.
func liftDimShuffle(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	ds, ok := node.Op.(tensor.DimShuffleOp)
	if !ok {
		return nil, nil
	}
	op, owner := variateInput(node.Inputs[0])
	if op == nil {
		return nil, nil
	}
	newInputs := []*graph.Variable{tensor.None}
	for _, param := range owner.Inputs[1:] {
		sp, err := tensor.DimShuffle(param, ds.Order)
		if err != nil {
			return nil, err
		}
		newInputs = append(newInputs, sp)
	}
	lifted, err := op.Make(newInputs)
	if err != nil {
		return nil, err
	}
	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(node.Default(), lifted.Default())
	return repl, nil
}

// liftSubtensor moves an indexing operation on a random variable onto
// its parameters: indexing a draw is distributed as drawing from the
// indexed parameters.
func liftSubtensor(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	idxOp, ok := node.Op.(tensor.IndexableOp)
	if !ok {
		return nil, nil
	}
	op, owner := variateInput(node.Inputs[0])
	if op == nil {
		return nil, nil
	}
	indices := idxOp.Indices(node.Inputs[1:])
	newInputs := []*graph.Variable{tensor.None}
	for _, param := range owner.Inputs[1:] {
		ip, err := tensor.IndexOf(param, indices...)
		if err != nil {
			return nil, err
		}
		newInputs = append(newInputs, ip)
	}
	lifted, err := op.Make(newInputs)
	if err != nil {
		return nil, err
	}
	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(node.Default(), lifted.Default())
	return repl, nil
}

// liftDiracDelta moves a unary element-wise operation on a degenerate
// random variable inside the degenerate distribution.
func liftDiracDelta(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	switch node.Op.(type) {
	case tensor.NegOp, tensor.LogOp, tensor.ExpOp:
	default:
		return nil, nil
	}
	in := node.Inputs[0]
	if in.Owner == nil {
		return nil, nil
	}
	op, ok := in.Owner.Op.(random.DiracDeltaOp)
	if !ok {
		return nil, nil
	}
	point := in.Owner.Inputs[1]
	inner := graph.NewApply(node.Op, []*graph.Variable{point}, tensor.TypeOf(point)).Default()
	// The size input rides along: rebuilding with a defaulted size
	// would change the shape of a sized degenerate variable.
	lifted, err := op.Make([]*graph.Variable{in.Owner.Inputs[0], inner})
	if err != nil {
		return nil, err
	}
	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(node.Default(), lifted.Default())
	return repl, nil
}

func isVariate(op graph.Op) bool {
	_, ok := op.(random.Variate)
	return ok
}

func isLiftable(op graph.Op) bool {
	switch op.(type) {
	case tensor.DimShuffleOp, tensor.SubtensorOp, tensor.AdvancedSubtensorOp,
		tensor.NegOp, tensor.LogOp, tensor.ExpOp:
		return true
	}
	return false
}

var pullDownRules = []graph.Rule{
	{Name: "lift_size", Tracks: isVariate, Rewrite: liftSize},
	{Name: "lift_dimshuffle", Tracks: isLiftable, Rewrite: liftDimShuffle},
	{Name: "lift_subtensor", Tracks: isLiftable, Rewrite: liftSubtensor},
	{Name: "lift_dirac_delta", Tracks: isLiftable, Rewrite: liftDiracDelta},
}

// PullDown pulls random-variable operations down through the lifting
// operations applied to them, to a bounded fixed point: indexing or
// reshaping a draw becomes drawing from indexed or reshaped
// parameters. The variable is returned unchanged when nothing lifts.
func PullDown(v *graph.Variable) (*graph.Variable, error) {
	g := graph.New(v)
	rewriter := graph.NewEquilibriumRewriter(pullDownRules, pullDownMaxUseRatio)
	if _, err := rewriter.Rewrite(g); err != nil {
		return nil, err
	}
	return g.Outputs()[0], nil
}
