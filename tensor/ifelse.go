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

package tensor

import (
	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/Armavica/pymc/graph"
)

// IfElseOp selects between two whole branches given a rank-0 boolean
// condition. Inputs: [cond, thens..., elses...], with NOuts variables
// per branch. Unlike switch, the selection is lazy: only the taken
// branch is computed, so the interpreter treats it as a special case
// instead of an Eval method.
type IfElseOp struct {
	NOuts int
}

// OpName identifies the operation.
func (IfElseOp) OpName() string { return "if_else" }

// Branches splits the inputs of an if-else node into its condition and
// the two branches.
func (op IfElseOp) Branches(inputs []*graph.Variable) (cond *graph.Variable, thens, elses []*graph.Variable) {
	return inputs[0], inputs[1 : 1+op.NOuts], inputs[1+op.NOuts:]
}

// IfElse returns variables selecting pairwise between two branches of
// equal length given a rank-0 boolean condition.
func IfElse(cond *graph.Variable, thens, elses []*graph.Variable) ([]*graph.Variable, error) {
	ct := TypeOf(cond)
	if ct.DT != dtype.Bool || ct.Rank() != 0 {
		return nil, errors.Errorf("if_else: condition has type %s: want a rank-0 %s", ct, dtype.Bool)
	}
	if len(thens) != len(elses) || len(thens) == 0 {
		return nil, errors.Errorf("if_else: branches have %d and %d variables: want equal and nonzero", len(thens), len(elses))
	}
	outTypes := make([]graph.Type, len(thens))
	for i := range thens {
		tt, et := TypeOf(thens[i]), TypeOf(elses[i])
		if tt.DT != et.DT {
			return nil, errors.Errorf("if_else: output %d has mismatched data types %s and %s", i, tt.DT, et.DT)
		}
		dims := make([]Dim, 0, tt.Rank())
		if tt.Rank() != et.Rank() {
			return nil, errors.Errorf("if_else: output %d has mismatched ranks %d and %d", i, tt.Rank(), et.Rank())
		}
		for d := range tt.Dims {
			td, ed := tt.Dims[d], et.Dims[d]
			if td.Size == ed.Size {
				dims = append(dims, td)
			} else {
				dims = append(dims, Dim{Size: UnknownSize})
			}
		}
		outTypes[i] = &TensorType{DT: tt.DT, Dims: dims}
	}
	inputs := append([]*graph.Variable{cond}, thens...)
	inputs = append(inputs, elses...)
	return graph.NewApply(IfElseOp{NOuts: len(thens)}, inputs, outTypes...).Outputs, nil
}
