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

package logprob_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/stretchr/testify/require"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/interp"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/logprob"
	"github.com/Armavica/pymc/tensor"
)

func intsConst(vals []int64, dims []int) *graph.Variable {
	return tensor.Constant(kernels.Int64s(vals, dims))
}

func evalInts(t *testing.T, v *graph.Variable) []int64 {
	t.Helper()
	a, err := interp.Eval(v, nil)
	require.NoError(t, err)
	vals, err := kernels.Int64Values(a)
	require.NoError(t, err)
	return vals
}

func TestExpandIndicesContiguous(t *testing.T) {
	rows := intsConst([]int64{2, 0}, []int{2})
	expanded, err := logprob.ExpandIndices([]tensor.Index{tensor.Idx(rows), tensor.Span()}, []int{3, 4})
	require.NoError(t, err)
	require.Len(t, expanded, 2)

	if diff := cmp.Diff([]int64{2, 2, 2, 2, 0, 0, 0, 0}, evalInts(t, expanded[0])); diff != "" {
		t.Errorf("row index mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{0, 1, 2, 3, 0, 1, 2, 3}, evalInts(t, expanded[1])); diff != "" {
		t.Errorf("column index mismatch (-want +got):\n%s", diff)
	}

	// Gathering with the expanded indices reproduces the original
	// indexing operation.
	x := kernels.Float64s([]float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}, []int{3, 4})
	arrays := make([]kernels.Array, len(expanded))
	for i, e := range expanded {
		a, err := interp.Eval(e, nil)
		require.NoError(t, err)
		arrays[i] = a
	}
	got, err := kernels.AdvIndex(x, arrays)
	require.NoError(t, err)
	vals, err := kernels.Float64Values(got)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{8, 9, 10, 11, 0, 1, 2, 3}, vals); diff != "" {
		t.Errorf("gather mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandIndicesMovedSubspace(t *testing.T) {
	i0 := intsConst([]int64{1, 0}, []int{2})
	i2 := intsConst([]int64{0, 1}, []int{2})
	expanded, err := logprob.ExpandIndices(
		[]tensor.Index{tensor.Idx(i0), tensor.Span(), tensor.Idx(i2)},
		[]int{2, 3, 2},
	)
	require.NoError(t, err)
	require.Len(t, expanded, 3)

	arrays := make([]kernels.Array, len(expanded))
	for i, e := range expanded {
		a, err := interp.Eval(e, nil)
		require.NoError(t, err)
		arrays[i] = a
		// The subspace spans the leading axis: every expanded index
		// has the subspace-first shape.
		if diff := cmp.Diff([]int{2, 3}, kernels.Dims(a)); diff != "" {
			t.Errorf("expanded index %d dims mismatch (-want +got):\n%s", i, diff)
		}
	}

	vals := make([]float64, 12)
	for i := range vals {
		vals[i] = float64(i)
	}
	x := kernels.Float64s(vals, []int{2, 3, 2})
	got, err := kernels.AdvIndex(x, arrays)
	require.NoError(t, err)
	gv, err := kernels.Float64Values(got)
	require.NoError(t, err)
	// got[k, j] = x[i0[k], j, i2[k]]
	if diff := cmp.Diff([]float64{6, 8, 10, 1, 3, 5}, gv); diff != "" {
		t.Errorf("gather mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandIndicesBroadcastRank(t *testing.T) {
	iv := tensor.Var(tensor.NewType(dtype.Int64, 2), "i")
	bv := tensor.Var(tensor.NewType(dtype.Bool, 5), "b")
	tests := []struct {
		name     string
		indices  []tensor.Index
		shape    []int
		wantRank int
	}{
		{
			name:     "advanced_only",
			indices:  []tensor.Index{tensor.Idx(bv)},
			shape:    []int{2},
			wantRank: 1,
		},
		{
			name:     "advanced_and_slice",
			indices:  []tensor.Index{tensor.Idx(iv), tensor.Span()},
			shape:    []int{3, 4},
			wantRank: 2,
		},
		{
			name:     "bookended",
			indices:  []tensor.Index{tensor.Idx(iv), tensor.Span(), tensor.Idx(iv)},
			shape:    []int{3, 4, 3},
			wantRank: 2,
		},
		{
			name:     "newaxis_counts_as_basic",
			indices:  []tensor.Index{tensor.NewAxis{}, tensor.Idx(iv)},
			shape:    []int{3},
			wantRank: 2,
		},
		{
			name:     "slices_only",
			indices:  []tensor.Index{tensor.Span()},
			shape:    []int{4, 3},
			wantRank: 2,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			expanded, err := logprob.ExpandIndices(test.indices, test.shape)
			require.NoError(t, err)
			require.NotEmpty(t, expanded)
			types := make([]*tensor.TensorType, len(expanded))
			for i, e := range expanded {
				types[i] = tensor.TypeOf(e)
			}
			// All outputs are mutually broadcastable and their common
			// shape has the expected rank.
			common, err := tensor.BroadcastTypes(dtype.Int64, types...)
			require.NoError(t, err)
			if common.Rank() != test.wantRank {
				t.Errorf("got rank %d: want %d", common.Rank(), test.wantRank)
			}
		})
	}
}
