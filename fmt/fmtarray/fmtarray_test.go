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

package fmtarray_test

import (
	"strings"
	"testing"

	"github.com/Armavica/pymc/fmt/fmtarray"
)

func buildData(axes []int) []int64 {
	total := int64(1)
	for _, axisSize := range axes {
		total *= int64(axisSize)
	}
	data := make([]int64, total)
	for i := range total {
		data[i] = i
	}
	return data
}

func TestFmtArray(t *testing.T) {
	tests := []struct {
		data []int64
		axes []int
		want string
	}{
		{
			data: []int64{42},
			want: "int64(42)",
		},
		{
			data: []int64{1, 2, 3, 4, 5, 6},
			axes: []int{6},
			want: "[6]int64{1, 2, 3, 4, 5, 6}",
		},
		{
			axes: []int{2, 3},
			want: `
[2][3]int64{
	{0, 1, 2},
	{3, 4, 5},
}
`,
		},
		{
			axes: []int{2, 3, 4},
			want: `
[2][3][4]int64{
	{
		{0, 1, 2, 3},
		{4, 5, 6, 7},
		{8, 9, 10, 11},
	},
	{
		{12, 13, 14, 15},
		{16, 17, 18, 19},
		{20, 21, 22, 23},
	},
}
`,
		},
	}
	for i, test := range tests {
		if test.data == nil {
			test.data = buildData(test.axes)
		}
		test.want = strings.TrimSpace(test.want)
		got := fmtarray.Sprint[int64](test.data, test.axes)
		if got != test.want {
			t.Errorf("test %d: incorrect array formatting:\naxes: %v\ndata: %v\ngot:\n%s\nwant:\n%s\n", i, test.axes, test.data, got, test.want)
		}
	}
}

func TestFmtArrayFloats(t *testing.T) {
	got := fmtarray.Sprint[float64]([]float64{1.5, 2, -0.25}, []int{3})
	want := "[3]float64{1.5, 2, -0.25}"
	if got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	got = fmtarray.SDataPrint[float64]([]float64{0.5}, nil)
	want = "(0.5)"
	if got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
