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

package kernels_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/stretchr/testify/require"
	"github.com/Armavica/pymc/kernels"
)

func floats(t *testing.T, a kernels.Array) []float64 {
	t.Helper()
	vals, err := kernels.Float64Values(a)
	require.NoError(t, err)
	return vals
}

func ints(t *testing.T, a kernels.Array) []int64 {
	t.Helper()
	vals, err := kernels.Int64Values(a)
	require.NoError(t, err)
	return vals
}

func TestBroadcastDims(t *testing.T) {
	tests := []struct {
		x, y, want []int
	}{
		{x: []int{2, 3}, y: []int{3}, want: []int{2, 3}},
		{x: []int{2, 1}, y: []int{1, 4}, want: []int{2, 4}},
		{x: []int{}, y: []int{5}, want: []int{5}},
		{x: []int{1}, y: []int{1}, want: []int{1}},
	}
	for _, test := range tests {
		got, err := kernels.BroadcastDims(test.x, test.y)
		if err != nil {
			t.Errorf("BroadcastDims(%v, %v): %v", test.x, test.y, err)
			continue
		}
		if !cmp.Equal(got, test.want) {
			t.Errorf("BroadcastDims(%v, %v) = %v: want %v", test.x, test.y, got, test.want)
		}
	}
	if _, err := kernels.BroadcastDims([]int{2}, []int{3}); err == nil {
		t.Errorf("BroadcastDims(2, 3): want an error")
	}
}

func TestBroadcastTo(t *testing.T) {
	a := kernels.Float64s([]float64{1, 2, 3}, []int{3})
	got, err := kernels.BroadcastTo(a, []int{2, 3})
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{1, 2, 3, 1, 2, 3}, floats(t, got)); diff != "" {
		t.Errorf("BroadcastTo values mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3}, kernels.Dims(got)); diff != "" {
		t.Errorf("BroadcastTo dims mismatch (-want +got):\n%s", diff)
	}
}

func TestDimShuffle(t *testing.T) {
	a := kernels.Float64s([]float64{1, 2, 3, 4, 5, 6}, []int{2, 3})
	tests := []struct {
		order    []int
		wantDims []int
		want     []float64
	}{
		{order: []int{1, 0}, wantDims: []int{3, 2}, want: []float64{1, 4, 2, 5, 3, 6}},
		{order: []int{-1, 0, 1}, wantDims: []int{1, 2, 3}, want: []float64{1, 2, 3, 4, 5, 6}},
		{order: []int{0, 1, -1}, wantDims: []int{2, 3, 1}, want: []float64{1, 2, 3, 4, 5, 6}},
	}
	for _, test := range tests {
		got, err := kernels.DimShuffle(a, test.order)
		require.NoError(t, err)
		if diff := cmp.Diff(test.wantDims, kernels.Dims(got)); diff != "" {
			t.Errorf("DimShuffle(%v) dims mismatch (-want +got):\n%s", test.order, diff)
		}
		if diff := cmp.Diff(test.want, floats(t, got)); diff != "" {
			t.Errorf("DimShuffle(%v) values mismatch (-want +got):\n%s", test.order, diff)
		}
	}
}

func TestArange(t *testing.T) {
	tests := []struct {
		start, stop, step int64
		want              []int64
	}{
		{start: 0, stop: 4, step: 1, want: []int64{0, 1, 2, 3}},
		{start: 3, stop: -1, step: -1, want: []int64{3, 2, 1, 0}},
		{start: 1, stop: 7, step: 2, want: []int64{1, 3, 5}},
		{start: 2, stop: 2, step: 1, want: []int64{}},
	}
	for _, test := range tests {
		got, err := kernels.Arange(test.start, test.stop, test.step)
		require.NoError(t, err)
		if diff := cmp.Diff(test.want, ints(t, got)); diff != "" {
			t.Errorf("Arange(%d, %d, %d) mismatch (-want +got):\n%s", test.start, test.stop, test.step, diff)
		}
	}
}

func TestCanonicalSlice(t *testing.T) {
	ref := func(v int64) *int64 { return &v }
	tests := []struct {
		start, stop, step      *int64
		n                      int64
		wantLo, wantHi, wantSt int64
	}{
		{n: 5, wantLo: 0, wantHi: 5, wantSt: 1},
		{start: ref(1), stop: ref(4), n: 5, wantLo: 1, wantHi: 4, wantSt: 1},
		{start: ref(-2), n: 5, wantLo: 3, wantHi: 5, wantSt: 1},
		{step: ref(-1), n: 5, wantLo: 4, wantHi: -1, wantSt: -1},
		{start: ref(3), stop: ref(0), step: ref(-2), n: 5, wantLo: 3, wantHi: 0, wantSt: -2},
		{start: ref(10), n: 5, wantLo: 5, wantHi: 5, wantSt: 1},
	}
	for i, test := range tests {
		lo, hi, st, err := kernels.CanonicalSlice(test.start, test.stop, test.step, test.n)
		require.NoError(t, err)
		if lo != test.wantLo || hi != test.wantHi || st != test.wantSt {
			t.Errorf("case %d: got (%d, %d, %d): want (%d, %d, %d)", i, lo, hi, st, test.wantLo, test.wantHi, test.wantSt)
		}
	}
}

func TestBasicIndex(t *testing.T) {
	ref := func(v int64) *int64 { return &v }
	a := kernels.Float64s([]float64{
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
	}, []int{3, 4})
	tests := []struct {
		name     string
		items    []kernels.BasicIdx
		wantDims []int
		want     []float64
	}{
		{
			name:     "row",
			items:    []kernels.BasicIdx{kernels.IdxScalar{At: 1}},
			wantDims: []int{4},
			want:     []float64{4, 5, 6, 7},
		},
		{
			name:     "negative_row",
			items:    []kernels.BasicIdx{kernels.IdxScalar{At: -1}},
			wantDims: []int{4},
			want:     []float64{8, 9, 10, 11},
		},
		{
			name:     "column",
			items:    []kernels.BasicIdx{kernels.IdxSlice{}, kernels.IdxScalar{At: 2}},
			wantDims: []int{3},
			want:     []float64{2, 6, 10},
		},
		{
			name:     "reversed_rows",
			items:    []kernels.BasicIdx{kernels.IdxSlice{Step: ref(-1)}},
			wantDims: []int{3, 4},
			want:     []float64{8, 9, 10, 11, 4, 5, 6, 7, 0, 1, 2, 3},
		},
		{
			name:     "newaxis",
			items:    []kernels.BasicIdx{kernels.IdxNewAxis{}, kernels.IdxScalar{At: 0}, kernels.IdxSlice{Start: ref(1), Stop: ref(3)}},
			wantDims: []int{1, 2},
			want:     []float64{1, 2},
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := kernels.BasicIndex(a, test.items)
			require.NoError(t, err)
			if diff := cmp.Diff(test.wantDims, kernels.Dims(got)); diff != "" {
				t.Errorf("dims mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(test.want, floats(t, got)); diff != "" {
				t.Errorf("values mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAdvIndex(t *testing.T) {
	a := kernels.Float64s([]float64{
		0, 1, 2,
		3, 4, 5,
	}, []int{2, 3})

	rows := kernels.Int64s([]int64{1, 0, 1}, []int{3})
	got, err := kernels.AdvIndex(a, []kernels.Array{rows})
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{3, 4, 5, 0, 1, 2, 3, 4, 5}, floats(t, got)); diff != "" {
		t.Errorf("row gather mismatch (-want +got):\n%s", diff)
	}

	cols := kernels.Int64s([]int64{2, 0, 1}, []int{3})
	got, err = kernels.AdvIndex(a, []kernels.Array{rows, cols})
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{5, 0, 4}, floats(t, got)); diff != "" {
		t.Errorf("element gather mismatch (-want +got):\n%s", diff)
	}

	neg := kernels.Int64s([]int64{-1}, []int{1})
	got, err = kernels.AdvIndex(a, []kernels.Array{neg})
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{3, 4, 5}, floats(t, got)); diff != "" {
		t.Errorf("negative gather mismatch (-want +got):\n%s", diff)
	}

	out := kernels.Int64s([]int64{2}, []int{1})
	if _, err := kernels.AdvIndex(a, []kernels.Array{out}); err == nil {
		t.Errorf("out-of-bounds gather: want an error")
	}
}

func TestAdvSet(t *testing.T) {
	a := kernels.Float64s([]float64{0, 0, 0, 0, 0}, []int{5})
	idx := kernels.Int64s([]int64{1, 3}, []int{2})
	y := kernels.Float64s([]float64{7, 9}, []int{2})
	got, err := kernels.AdvSet(a, y, []kernels.Array{idx})
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{0, 7, 0, 9, 0}, floats(t, got)); diff != "" {
		t.Errorf("scatter mismatch (-want +got):\n%s", diff)
	}
	// The input array is not modified.
	if diff := cmp.Diff([]float64{0, 0, 0, 0, 0}, floats(t, a)); diff != "" {
		t.Errorf("input array modified (-want +got):\n%s", diff)
	}
}

func TestNonzero(t *testing.T) {
	a := kernels.Bools([]bool{
		false, true, false,
		true, false, true,
	}, []int{2, 3})
	coords, err := kernels.Nonzero(a)
	require.NoError(t, err)
	require.Len(t, coords, 2)
	if diff := cmp.Diff([]int64{0, 1, 1}, ints(t, coords[0])); diff != "" {
		t.Errorf("row coordinates mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int64{1, 0, 2}, ints(t, coords[1])); diff != "" {
		t.Errorf("column coordinates mismatch (-want +got):\n%s", diff)
	}
}

func TestEqMixedTypes(t *testing.T) {
	b := kernels.Bools([]bool{true, false, true}, []int{3})
	i := kernels.Int64s([]int64{1, 1, 0}, []int{3})
	got, err := kernels.Eq(b, i)
	require.NoError(t, err)
	want := []bool{true, false, false}
	vals, err := kernels.BoolValues(got)
	require.NoError(t, err)
	if diff := cmp.Diff(want, vals); diff != "" {
		t.Errorf("Eq mismatch (-want +got):\n%s", diff)
	}
}

func TestSelectBroadcast(t *testing.T) {
	cond := kernels.Bools([]bool{true, false}, []int{2, 1})
	x := kernels.Float64s([]float64{1, 2, 3}, []int{3})
	y := kernels.Float64s([]float64{9}, []int{})
	got, err := kernels.Select(cond, x, y)
	require.NoError(t, err)
	if diff := cmp.Diff([]int{2, 3}, kernels.Dims(got)); diff != "" {
		t.Errorf("dims mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]float64{1, 2, 3, 9, 9, 9}, floats(t, got)); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCast(t *testing.T) {
	b := kernels.Bools([]bool{true, false, true}, []int{3})
	got, err := kernels.Cast(b, dtype.Int64)
	require.NoError(t, err)
	if diff := cmp.Diff([]int64{1, 0, 1}, ints(t, got)); diff != "" {
		t.Errorf("bool to int cast mismatch (-want +got):\n%s", diff)
	}
}
