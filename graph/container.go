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

package graph

import (
	"github.com/Armavica/pymc/base/ordered"
	"github.com/Armavica/pymc/kernels"
)

// Replacements maps variables to the variables standing in for them.
// Application order follows insertion order.
type Replacements = *ordered.Map[*Variable, *Variable]

// Graph owns a set of output variables and the substitution machinery
// over the DAG reaching them. The nodes themselves stay immutable:
// Replace rebuilds the affected spine of the graph and re-points the
// outputs, leaving replaced nodes dangling for the garbage collector.
type Graph struct {
	outputs    []*Variable
	testValues map[*Variable]kernels.Array
}

// New returns a graph over the given outputs.
func New(outputs ...*Variable) *Graph {
	return &Graph{
		outputs:    append([]*Variable{}, outputs...),
		testValues: map[*Variable]kernels.Array{},
	}
}

// Outputs of the graph. Replace updates them in place.
func (g *Graph) Outputs() []*Variable {
	return g.outputs
}

// Toposort returns all Apply nodes reachable from the outputs in a
// deterministic topological order (inputs before users).
func (g *Graph) Toposort() []*Apply {
	var order []*Apply
	seen := map[*Apply]bool{}
	var visit func(v *Variable)
	visit = func(v *Variable) {
		ap := v.Owner
		if ap == nil || seen[ap] {
			return
		}
		seen[ap] = true
		for _, in := range ap.Inputs {
			visit(in)
		}
		order = append(order, ap)
	}
	for _, out := range g.outputs {
		visit(out)
	}
	return order
}

// Clients returns, for every variable of the graph, the Apply nodes
// using it as an input. A node using the same variable in several
// input slots is listed once.
func (g *Graph) Clients() map[*Variable][]*Apply {
	clients := map[*Variable][]*Apply{}
	for _, ap := range g.Toposort() {
		seen := map[*Variable]bool{}
		for _, in := range ap.Inputs {
			if seen[in] {
				continue
			}
			seen[in] = true
			clients[in] = append(clients[in], ap)
		}
	}
	return clients
}

// Replace substitutes variables in the graph. Every node depending on a
// replaced variable is rebuilt with the substitution applied; the
// replacement sub-graphs themselves are inserted as-is. Outputs are
// updated to the rebuilt variables.
func (g *Graph) Replace(repl Replacements) {
	varMemo := map[*Variable]*Variable{}
	for k, v := range repl.Iter() {
		varMemo[k] = v
	}
	applyMemo := map[*Apply]*Apply{}
	var rebuildVar func(v *Variable) *Variable
	rebuildVar = func(v *Variable) *Variable {
		if nv, ok := varMemo[v]; ok {
			return nv
		}
		if v.Owner == nil {
			varMemo[v] = v
			return v
		}
		ap := v.Owner
		na, ok := applyMemo[ap]
		if !ok {
			changed := false
			newInputs := make([]*Variable, len(ap.Inputs))
			for i, in := range ap.Inputs {
				newInputs[i] = rebuildVar(in)
				changed = changed || newInputs[i] != in
			}
			na = ap
			if changed {
				outTypes := make([]Type, len(ap.Outputs))
				for i, out := range ap.Outputs {
					outTypes[i] = out.Type
				}
				na = NewApply(ap.Op, newInputs, outTypes...)
				for i, out := range ap.Outputs {
					na.Outputs[i].Name = out.Name
				}
			}
			applyMemo[ap] = na
		}
		nv := na.Outputs[v.Index]
		varMemo[v] = nv
		return nv
	}
	for i, out := range g.outputs {
		g.outputs[i] = rebuildVar(out)
	}
}

// SetTestValue attaches a preview value to a variable. Preview values
// are debugging metadata only: they are kept in a side table and never
// affect rewriting.
func (g *Graph) SetTestValue(v *Variable, value kernels.Array) {
	g.testValues[v] = value
}

// TestValue returns the preview value of a variable, if any.
func (g *Graph) TestValue(v *Variable) (kernels.Array, bool) {
	value, ok := g.testValues[v]
	return value, ok
}
