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
	"sort"

	"github.com/Armavica/pymc/base/ordered"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/tensor"
)

// MeasurableIfElse is the measurable form of a single-output lazy
// conditional between two measurable branches.
type MeasurableIfElse struct {
	tensor.IfElseOp
}

var _ MeasurableOp = MeasurableIfElse{}

// OpName identifies the operation.
func (MeasurableIfElse) OpName() string { return "measurable_if_else" }

// Measurable marks the operation as having a derivable density.
func (MeasurableIfElse) Measurable() {}

func init() {
	RegisterDensity(MeasurableIfElse{}, ifElseDensity)
}

// valuedBranch is one valued output of a multi-output conditional:
// the branch pair producing it, its value variable, and the valued
// wrapper to replace.
type valuedBranch struct {
	then, els *graph.Variable
	value     *graph.Variable
	valuedOut *graph.Variable
}

// SplitValuedIfElse splits the valued outputs of a multi-output lazy
// conditional into single-output conditionals, so the measurable
// matcher can handle them one at a time. Outputs are split in
// topological order of their branches; the rule abstains when the
// remaining branches feed the first split, since the conditional
// cannot be divided there.
func SplitValuedIfElse(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	op, ok := node.Op.(tensor.IfElseOp)
	if !ok || op.NOuts == 1 {
		return nil, nil
	}

	cond, thens, elses := op.Branches(node.Inputs)
	clients := g.Clients()
	var branches []valuedBranch
	for i, out := range node.Outputs {
		for _, client := range clients[out] {
			if _, ok := client.Op.(ValuedRVOp); !ok {
				continue
			}
			if client.Inputs[0] != out {
				continue
			}
			branches = append(branches, valuedBranch{
				then:      thens[i],
				els:       elses[i],
				value:     client.Inputs[1],
				valuedOut: client.Outputs[0],
			})
		}
	}
	if len(branches) == 0 {
		return nil, nil
	}

	position := map[*graph.Apply]int{}
	for i, ap := range g.Toposort() {
		position[ap] = i
	}
	rank := func(v *graph.Variable) int {
		if v.Owner == nil {
			return -1
		}
		return position[v.Owner]
	}
	sort.SliceStable(branches, func(i, j int) bool {
		return max(rank(branches[i].then), rank(branches[i].els)) <
			max(rank(branches[j].then), rank(branches[j].els))
	})

	first, remaining := branches[0], branches[1:]
	firstIfElse, err := tensor.IfElse(cond, []*graph.Variable{first.then}, []*graph.Variable{first.els})
	if err != nil {
		return nil, err
	}
	firstValued := ValuedRV(firstIfElse[0], first.value)

	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(first.valuedOut, firstValued)

	if len(remaining) > 0 {
		firstAncestors := graph.Ancestors(first.then, first.els)
		remThens := make([]*graph.Variable, len(remaining))
		remElses := make([]*graph.Variable, len(remaining))
		for i, rem := range remaining {
			if (rem.then.Owner != nil && firstAncestors[rem.then]) ||
				(rem.els.Owner != nil && firstAncestors[rem.els]) {
				// The first conditional consumes the remaining
				// branches, so no split point exists.
				return nil, nil
			}
			remThens[i] = rem.then
			remElses[i] = rem.els
		}
		remIfElse, err := tensor.IfElse(cond, remThens, remElses)
		if err != nil {
			return nil, err
		}

		// Dependencies of the remaining branches on the first pair are
		// redirected to the first valued conditional. The substitution
		// goes through a free placeholder so that rebuilding the first
		// pair does not loop through its own replacement.
		dummy := graph.NewVariable(firstValued.Type, "")
		temp := graph.New(remIfElse...)
		step := ordered.NewMap[*graph.Variable, *graph.Variable]()
		step.Store(first.then, dummy)
		step.Store(first.els, dummy)
		temp.Replace(step)
		step = ordered.NewMap[*graph.Variable, *graph.Variable]()
		step.Store(dummy, firstValued)
		temp.Replace(step)

		for i, rem := range remaining {
			remValued := ValuedRV(temp.Outputs()[i], rem.value)
			repl.Store(rem.valuedOut, remValued)
		}
	}
	return repl, nil
}

// FindMeasurableIfElse identifies single-output lazy conditionals with
// two measurable branches and a non-measurable condition, and replaces
// them with the measurable conditional. Multi-output conditionals are
// left to the splitting rule.
func FindMeasurableIfElse(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	if _, ok := node.Op.(MeasurableOp); ok {
		return nil, nil
	}
	op, ok := node.Op.(tensor.IfElseOp)
	if !ok || op.NOuts > 1 {
		return nil, nil
	}
	cond, thens, elses := op.Branches(node.Inputs)
	if CheckPotentialMeasurability([]*graph.Variable{cond}) {
		return nil, nil
	}
	if len(FilterMeasurableVariables([]*graph.Variable{thens[0], elses[0]})) != 2 {
		return nil, nil
	}

	out := node.Default()
	measurable := graph.NewApply(MeasurableIfElse{IfElseOp: op}, node.Inputs, out.Type).Default()
	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(out, measurable)
	return repl, nil
}

// ifElseDensity selects lazily between the densities of the two
// branches.
func ifElseDensity(a *graph.Apply, value *graph.Variable) (*graph.Variable, error) {
	op := a.Op.(MeasurableIfElse)
	cond, thens, elses := op.Branches(a.Inputs)
	logpThen, err := LogProb(thens[0], value)
	if err != nil {
		return nil, err
	}
	logpElse, err := LogProb(elses[0], value)
	if err != nil {
		return nil, err
	}
	outs, err := tensor.IfElse(cond, []*graph.Variable{logpThen}, []*graph.Variable{logpElse})
	if err != nil {
		return nil, err
	}
	return outs[0], nil
}
