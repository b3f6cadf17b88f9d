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

// Package graph defines the symbolic expression IR: an immutable,
// shared DAG of variables produced by applying operations to other
// variables. Rewriting never mutates a node; it builds new nodes and
// redirects references through a graph container (see container.go).
package graph

import (
	"fmt"

	"github.com/Armavica/pymc/kernels"
)

type (
	// Op identifies the computation performed by an Apply node.
	// Implementations carry all the static attributes of the operation;
	// the inputs of the Apply node carry everything symbolic.
	Op interface {
		// OpName identifies the operation in errors and dumps.
		OpName() string
	}

	// Type describes the static type of a variable.
	Type interface {
		// String representation of the type.
		String() string
	}

	// Variable is an immutable node of the DAG: either the output of an
	// Apply node, a constant, or a free input of the graph.
	Variable struct {
		// Type of the variable.
		Type Type

		// Owner is the Apply node computing this variable,
		// or nil for constants and free inputs.
		Owner *Apply

		// Index of this variable among its owner outputs.
		Index int

		// Name of the variable, for debugging only. May be empty.
		Name string

		// Data holds the value of a constant. Nil otherwise.
		Data kernels.Array
	}

	// Apply is the application of an operation to input variables.
	// Inputs are shared, not owned: several Apply nodes may reference
	// the same variable.
	Apply struct {
		// Op performed by the node.
		Op Op

		// Inputs of the operation, in positional order.
		Inputs []*Variable

		// Outputs produced by the operation.
		Outputs []*Variable
	}
)

// NewApply builds an Apply node producing one output per given type.
func NewApply(op Op, inputs []*Variable, outTypes ...Type) *Apply {
	ap := &Apply{Op: op, Inputs: inputs}
	ap.Outputs = make([]*Variable, len(outTypes))
	for i, t := range outTypes {
		ap.Outputs[i] = &Variable{Type: t, Owner: ap, Index: i}
	}
	return ap
}

// Default returns the default (first) output of the node.
func (a *Apply) Default() *Variable {
	return a.Outputs[0]
}

// String representation of the node.
func (a *Apply) String() string {
	return fmt.Sprintf("%s(%d inputs)", a.Op.OpName(), len(a.Inputs))
}

// NewVariable returns a free variable of the given type.
func NewVariable(t Type, name string) *Variable {
	return &Variable{Type: t, Name: name}
}

// NewConstant returns a constant variable holding the given value.
func NewConstant(t Type, data kernels.Array) *Variable {
	return &Variable{Type: t, Data: data}
}

// IsConstant returns true if the variable holds a constant value.
func (v *Variable) IsConstant() bool {
	return v.Data != nil
}

// String representation of the variable.
func (v *Variable) String() string {
	if v.Name != "" {
		return v.Name
	}
	if v.IsConstant() {
		return v.Data.String()
	}
	if v.Owner != nil {
		return fmt.Sprintf("%s.out%d", v.Owner.Op.OpName(), v.Index)
	}
	return fmt.Sprintf("<var %s>", v.Type)
}

// Ancestors returns the set of all variables reachable from the roots,
// the roots included.
func Ancestors(roots ...*Variable) map[*Variable]bool {
	seen := map[*Variable]bool{}
	var visit func(v *Variable)
	visit = func(v *Variable) {
		if seen[v] {
			return
		}
		seen[v] = true
		if v.Owner == nil {
			return
		}
		for _, in := range v.Owner.Inputs {
			visit(in)
		}
	}
	for _, root := range roots {
		visit(root)
	}
	return seen
}
