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
	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/tensor"
)

// padAxes surrounds the axes of a tensor with broadcastable axes.
func padAxes(v *graph.Variable, lead, trail int) (*graph.Variable, error) {
	if lead == 0 && trail == 0 {
		return v, nil
	}
	rank := tensor.TypeOf(v).Rank()
	order := make([]int, 0, lead+rank+trail)
	for i := 0; i < lead; i++ {
		order = append(order, -1)
	}
	for d := 0; d < rank; d++ {
		order = append(order, d)
	}
	for i := 0; i < trail; i++ {
		order = append(order, -1)
	}
	return tensor.DimShuffle(v, order)
}

func asIntIndex(v *graph.Variable) (*graph.Variable, error) {
	t := tensor.TypeOf(v)
	switch t.DT {
	case dtype.Int64:
		return v, nil
	case dtype.Bool:
		// Boolean index arrays gather by their 0/1 integer values.
		return tensor.Cast(v, dtype.Int64), nil
	}
	return nil, errors.Errorf("index has data type %s: want an integer or boolean", t.DT)
}

// sliceRange turns a slice over an axis of the given length into the
// constant vector of the positions it selects.
func sliceRange(s tensor.Slice, length int) (*graph.Variable, error) {
	start, stop, step, err := kernels.CanonicalSlice(s.Start, s.Stop, s.Step, int64(length))
	if err != nil {
		return nil, err
	}
	return tensor.ARange(tensor.ConstInt(start), tensor.ConstInt(stop), tensor.ConstInt(step))
}

// ExpandIndices converts a mixed basic/advanced indexing tuple over an
// array of the given shape into a single tuple of broadcast integer
// index arrays, one per axis of the array, each shaped like the
// indexing result. When advanced indices bookend basic ones, the
// subspace they span moves to the front of the result, matching the
// semantics of the indexing operation itself.
func ExpandIndices(indices []tensor.Index, shape []int) ([]*graph.Variable, error) {
	nonNewaxis := 0
	for _, idx := range indices {
		if _, ok := idx.(tensor.NewAxis); !ok {
			nonNewaxis++
		}
	}
	if nonNewaxis > len(shape) {
		return nil, errors.Errorf("too many indices (%d) for rank %d", nonNewaxis, len(shape))
	}
	full := append([]tensor.Index{}, indices...)
	for d := nonNewaxis; d < len(shape); d++ {
		full = append(full, tensor.Span())
	}

	basic := make([]bool, len(full))
	for i, idx := range full {
		basic[i] = tensor.IsBasicIndex(idx)
	}

	// The subspace moves to the front when advanced indices bookend
	// basic ones.
	firstAdv := -1
	for i, b := range basic {
		if !b {
			firstAdv = i
			break
		}
	}
	moved := false
	if firstAdv >= 0 {
		for i := firstAdv + 1; i < len(basic); i++ {
			if !basic[i] && anyBasicBetween(basic, firstAdv, i) {
				moved = true
				break
			}
		}
	}

	nBasic := 0
	for _, b := range basic {
		if b {
			nBasic++
		}
	}
	nSubspace := 0
	for i, idx := range full {
		if basic[i] {
			continue
		}
		if iv, ok := idx.(tensor.IndexVar); ok {
			nSubspace = max(nSubspace, tensor.TypeOf(iv.Var).Rank())
		}
	}
	nOutputDims := nSubspace + nBasic

	var expanded []*graph.Variable
	axis := 0
	precedingBasics := 0
	for d, idx := range full {
		var exp *graph.Variable
		if !basic[d] {
			iv := idx.(tensor.IndexVar)
			v, err := asIntIndex(iv.Var)
			if err != nil {
				return nil, err
			}
			axis++
			if moved {
				exp, err = padAxes(v, 0, nBasic)
			} else {
				exp, err = padAxes(v, precedingBasics, nBasic-precedingBasics)
			}
			if err != nil {
				return nil, err
			}
		} else {
			if _, ok := idx.(tensor.NewAxis); ok {
				precedingBasics++
				continue
			}
			length := shape[axis]
			axis++
			var v *graph.Variable
			var err error
			switch it := idx.(type) {
			case tensor.Slice:
				v, err = sliceRange(it, length)
			case tensor.IndexVar:
				v = it.Var
			}
			if err != nil {
				return nil, err
			}
			if moved {
				exp, err = padAxes(v, nSubspace+precedingBasics, nBasic-precedingBasics-1)
			} else {
				preceding := precedingBasics
				if d > firstAdv && firstAdv >= 0 {
					preceding += nSubspace
				}
				exp, err = padAxes(v, preceding, nOutputDims-preceding-1)
			}
			if err != nil {
				return nil, err
			}
			precedingBasics++
		}
		expanded = append(expanded, exp)
	}

	return tensor.BroadcastArrays(expanded...)
}

func anyBasicBetween(basic []bool, from, to int) bool {
	for i := from + 1; i < to; i++ {
		if basic[i] {
			return true
		}
	}
	return false
}
