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
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
	"github.com/Armavica/pymc/base/ordered"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/interp"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/tensor"
)

// MixtureRV is the placeholder standing in for an indexed stack of
// measurable variables. Its node's inputs are laid out as
// [join-axis, index variables..., components...], with the index
// variables ending at IndicesEndIdx; Items encodes the original
// indexing tuple so the density deriver can rebuild it around the
// index variables. The placeholder has no runtime semantics.
type MixtureRV struct {
	IndicesEndIdx int
	Items         []tensor.IndexItem
	OutDType      dtype.DataType
	OutDims       []tensor.Dim
}

var _ MeasurableOp = MixtureRV{}

// OpName identifies the operation.
func (MixtureRV) OpName() string { return "mixture_rv" }

// Measurable marks the operation as having a derivable density.
func (MixtureRV) Measurable() {}

func init() {
	RegisterDensity(MixtureRV{}, mixtureDensity)
	RegisterDensity(MeasurableSwitch{}, switchDensity)
}

// stackMixtureVars extracts the mixture components from the stacking
// operation feeding an indexing node, along with the join axis: the
// none constant for a vector of stacked rank-0 variables, the axis
// input of the join otherwise. It returns nil components when the
// input is not a stacking operation or the join axis is symbolic.
func stackMixtureVars(node *graph.Apply) (comps []*graph.Variable, joinAxis *graph.Variable) {
	joined := node.Inputs[0]
	if joined.Owner == nil {
		return nil, nil
	}
	switch joined.Owner.Op.(type) {
	case tensor.MakeVectorOp:
		joinAxis = tensor.None
		comps = joined.Owner.Inputs
	case tensor.JoinOp:
		joinAxis = joined.Owner.Inputs[0]
		if !joinAxis.IsConstant() {
			folded, err := interp.ConstantFold(joinAxis)
			if err != nil {
				return nil, nil
			}
			joinAxis = folded
		}
		comps = joined.Owner.Inputs[1:]
	default:
		return nil, nil
	}
	unwrapped := make([]*graph.Variable, len(comps))
	for i, comp := range comps {
		unwrapped[i] = unwrapPromised(comp)
	}
	return unwrapped, joinAxis
}

// testValueOf returns the preview value of a variable, computing it
// from the preview values of its node's inputs when absent.
func testValueOf(g *graph.Graph, v *graph.Variable) (kernels.Array, bool) {
	if tv, ok := g.TestValue(v); ok {
		return tv, true
	}
	if v.Owner == nil {
		return nil, false
	}
	op, ok := v.Owner.Op.(tensor.Evaluable)
	if !ok {
		return nil, false
	}
	inputs := make([]kernels.Array, len(v.Owner.Inputs))
	for i, in := range v.Owner.Inputs {
		if in.IsConstant() {
			inputs[i] = in.Data
			continue
		}
		tv, ok := testValueOf(g, in)
		if !ok {
			return nil, false
		}
		inputs[i] = tv
	}
	outputs, err := op.Eval(inputs)
	if err != nil {
		return nil, false
	}
	return outputs[v.Index], true
}

// FindMeasurableIndexMixture identifies indexed stacks of measurable
// variables and replaces them with a mixture placeholder. The pattern
// is stack(components)[indices] where every component is measurable;
// the placeholder's density enumerates the components per selected
// position.
func FindMeasurableIndexMixture(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	var items []tensor.IndexItem
	switch op := node.Op.(type) {
	case tensor.SubtensorOp:
		items = op.Items
	case tensor.AdvancedSubtensorOp:
		items = op.Items
		// Non-scalar integer index arrays can select repeated
		// positions, and the mixture density assumes all selected
		// values are independent. Boolean arrays index by their 0/1
		// values and stay within independent positions.
		for _, idx := range node.Inputs[1:] {
			t := tensor.TypeOf(idx)
			if t.DT != dtype.Int64 {
				continue
			}
			for _, d := range t.Dims {
				if !d.Broadcastable {
					return nil, nil
				}
			}
		}
	default:
		return nil, nil
	}

	mixingIndices := node.Inputs[1:]
	old := node.Default()
	comps, joinAxis := stackMixtureVars(node)
	if comps == nil {
		return nil, nil
	}
	if len(FilterMeasurableVariables(comps)) != len(comps) {
		return nil, nil
	}

	oldType := tensor.TypeOf(old)
	mixOp := MixtureRV{
		IndicesEndIdx: 1 + len(mixingIndices),
		Items:         items,
		OutDType:      oldType.DT,
		OutDims:       append([]tensor.Dim{}, oldType.Dims...),
	}
	inputs := append([]*graph.Variable{joinAxis}, mixingIndices...)
	inputs = append(inputs, comps...)
	mixture := graph.NewApply(mixOp, inputs, &tensor.TensorType{DT: mixOp.OutDType, Dims: mixOp.OutDims}).Default()

	// The placeholder cannot compute a preview value, so it inherits
	// the value of the node it stands in for.
	if tv, ok := testValueOf(g, old); ok {
		g.SetTestValue(mixture, tv)
	}

	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(old, mixture)
	return repl, nil
}

// mixtureDensity derives the log-density of a mixture placeholder.
//
// With array-valued or multiple indices, the indexing tuple is
// expanded into broadcast index arrays and the density of each
// component is scattered into the positions where that component was
// selected. With a single rank-0 index, the densities of all
// components are combined through lazy conditionals on the index
// value.
func mixtureDensity(a *graph.Apply, value *graph.Variable) (*graph.Variable, error) {
	op := a.Op.(MixtureRV)
	joinAxis := a.Inputs[0]
	idxVars := a.Inputs[1:op.IndicesEndIdx]
	comps := a.Inputs[op.IndicesEndIdx:]

	if len(idxVars) == 0 {
		panic(fmt.Sprintf("mixture placeholder %s has no index variables", a))
	}

	if len(idxVars) > 1 || tensor.TypeOf(idxVars[0]).Rank() > 0 {
		return arrayMixtureDensity(op, joinAxis, idxVars, comps, value)
	}
	return scalarMixtureDensity(joinAxis, idxVars[0], comps, value)
}

func arrayMixtureDensity(op MixtureRV, joinAxis *graph.Variable, idxVars, comps []*graph.Variable, value *graph.Variable) (*graph.Variable, error) {
	var axis int64
	var originalShape []int
	if tensor.IsNone(joinAxis) {
		// The stack was a vector of rank-0 components. Advanced
		// indexing is occurring, so reformat the components into the
		// joined layout: one leading axis of length one each.
		axis = 0
		expanded := make([]*graph.Variable, len(comps))
		for i, comp := range comps {
			e, err := tensor.ExpandDims(comp, 0)
			if err != nil {
				return nil, err
			}
			expanded[i] = e
		}
		comps = expanded
		originalShape = []int{len(comps)}
	} else {
		av, err := kernels.ScalarInt(joinAxis.Data)
		if err != nil {
			return nil, errors.Errorf("join axis: %v", err)
		}
		axis = av
		dims, ok := tensor.TypeOf(comps[0]).StaticDims()
		if !ok {
			return nil, errors.Errorf("component %s has no static shape", comps[0])
		}
		originalShape = dims
	}

	indices := tensor.ItemsToIndices(op.Items, idxVars)
	bcast, err := ExpandIndices(indices, originalShape)
	if err != nil {
		return nil, err
	}

	logp := tensor.ZerosLike(bcast[axis], dtype.Float64)
	for m, comp := range comps {
		selected, err := tensor.Eq(bcast[axis], tensor.ConstInt(int64(m)))
		if err != nil {
			return nil, err
		}
		coords, err := tensor.Nonzero(selected)
		if err != nil {
			return nil, err
		}
		coordIdxs := make([]tensor.Index, len(coords))
		for i, c := range coords {
			coordIdxs[i] = tensor.Idx(c)
		}
		var mIdxs []tensor.Index
		for i, b := range bcast {
			if int64(i) == axis {
				continue
			}
			gathered, err := tensor.IndexOf(b, coordIdxs...)
			if err != nil {
				return nil, err
			}
			mIdxs = append(mIdxs, tensor.Idx(gathered))
		}

		// Drop the superfluous join axis before lifting.
		rv, err := tensor.IndexOf(comp, tensor.At(0))
		if err != nil {
			return nil, err
		}
		if len(mIdxs) > 0 {
			rv, err = tensor.IndexOf(rv, mIdxs...)
			if err != nil {
				return nil, err
			}
		}
		rvM, err := PullDown(rv)
		if err != nil {
			return nil, err
		}
		valM, err := tensor.IndexOf(value, coordIdxs...)
		if err != nil {
			return nil, err
		}
		logpM, err := LogProb(rvM, valM)
		if err != nil {
			return nil, err
		}
		logp, err = tensor.SetIndex(logp, logpM, coords...)
		if err != nil {
			return nil, err
		}
	}
	return logp, nil
}

// scalarMixtureDensity handles a single rank-0 index. It assumes the
// index selects whole components: mixing across positions of distinct
// components is not expressible here, because the placeholder does not
// record at which axis the scalar indexing starts.
func scalarMixtureDensity(joinAxis, idx *graph.Variable, comps []*graph.Variable, value *graph.Variable) (*graph.Variable, error) {
	var axis *int64
	if !tensor.IsNone(joinAxis) {
		av, err := kernels.ScalarInt(joinAxis.Data)
		if err != nil {
			return nil, errors.Errorf("join axis: %v", err)
		}
		axis = &av
	}

	// If the stacking expanded the components, the value gains the
	// join axis back so component densities line up, and loses it
	// again afterwards.
	val := value
	if axis != nil {
		expanded, err := tensor.ExpandDims(value, int(*axis))
		if err != nil {
			return nil, err
		}
		val = expanded
	}

	var logp *graph.Variable
	for i, comp := range comps {
		compLogp, err := LogProb(comp, val)
		if err != nil {
			return nil, err
		}
		if axis != nil {
			compLogp, err = tensor.Squeeze(compLogp, int(*axis))
			if err != nil {
				return nil, err
			}
		}
		selected, err := tensor.Eq(idx, tensor.ConstInt(int64(i)))
		if err != nil {
			return nil, err
		}
		branch, err := tensor.IfElse(selected, []*graph.Variable{compLogp}, []*graph.Variable{tensor.ZerosLike(compLogp, tensor.TypeOf(compLogp).DT)})
		if err != nil {
			return nil, err
		}
		if logp == nil {
			logp = branch[0]
			continue
		}
		logp, err = tensor.Add(logp, branch[0])
		if err != nil {
			return nil, err
		}
	}
	return logp, nil
}

// MeasurableSwitch is the measurable form of the element-wise
// conditional between two measurable components.
type MeasurableSwitch struct {
	tensor.SwitchOp
}

var _ MeasurableOp = MeasurableSwitch{}

// OpName identifies the operation.
func (MeasurableSwitch) OpName() string { return "measurable_switch" }

// Measurable marks the operation as having a derivable density.
func (MeasurableSwitch) Measurable() {}

// FindMeasurableSwitch identifies element-wise conditionals between
// two measurable components and replaces them with the measurable
// switch. Components must span the output without broadcasting, since
// broadcast components would yield dependent (identical) values; the
// condition may broadcast freely but must not itself be measurable.
func FindMeasurableSwitch(g *graph.Graph, node *graph.Apply) (graph.Replacements, error) {
	if _, ok := node.Op.(MeasurableOp); ok {
		return nil, nil
	}
	if _, ok := node.Op.(tensor.SwitchOp); !ok {
		return nil, nil
	}
	cond := node.Inputs[0]
	comps := node.Inputs[1:]

	out := node.Default()
	outType := tensor.TypeOf(out)
	for _, comp := range comps {
		if !tensor.TypeOf(comp).SamePattern(outType) {
			return nil, nil
		}
	}
	if len(FilterMeasurableVariables(comps)) != len(comps) {
		return nil, nil
	}
	if CheckPotentialMeasurability([]*graph.Variable{cond}) {
		return nil, nil
	}

	measurable := graph.NewApply(MeasurableSwitch{}, node.Inputs, outType).Default()
	repl := ordered.NewMap[*graph.Variable, *graph.Variable]()
	repl.Store(out, measurable)
	return repl, nil
}

// switchDensity selects element-wise between the densities of the two
// components.
func switchDensity(a *graph.Apply, value *graph.Variable) (*graph.Variable, error) {
	cond, onTrue, onFalse := a.Inputs[0], a.Inputs[1], a.Inputs[2]
	logpTrue, err := LogProb(onTrue, value)
	if err != nil {
		return nil, err
	}
	logpFalse, err := LogProb(onFalse, value)
	if err != nil {
		return nil, err
	}
	return tensor.Switch(cond, logpTrue, logpFalse)
}
