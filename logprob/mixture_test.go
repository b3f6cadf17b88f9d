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
	"strings"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/stretchr/testify/require"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/interp"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/logprob"
	"github.com/Armavica/pymc/tensor"
	"github.com/Armavica/pymc/tensor/random"
)

func scalarNormal(t *testing.T, mu, sigma float64) *graph.Variable {
	t.Helper()
	rv, err := random.Normal(tensor.None, tensor.ConstFloat(mu), tensor.ConstFloat(sigma))
	require.NoError(t, err)
	return rv
}

// stackedMixture builds stack(components)[index] and runs the
// measurable rewrites, returning the rewritten graph output and the
// number of rewrites applied.
func stackedMixture(t *testing.T, index *graph.Variable, comps ...*graph.Variable) (*graph.Variable, int) {
	t.Helper()
	stacked, err := tensor.MakeVector(comps...)
	require.NoError(t, err)
	mix, err := tensor.IndexOf(stacked, tensor.Idx(index))
	require.NoError(t, err)
	g := graph.New(mix)
	applied, err := logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	return g.Outputs()[0], applied
}

func TestScalarMixtureDensity(t *testing.T) {
	i := tensor.ScalarVar(dtype.Int64, "i")
	mixed, applied := stackedMixture(t, i,
		scalarNormal(t, 0, 1),
		scalarNormal(t, 10, 2),
	)
	require.Equal(t, 1, applied)
	if _, ok := mixed.Owner.Op.(logprob.MixtureRV); !ok {
		t.Fatalf("got op %s: want the mixture placeholder", mixed.Owner.Op.OpName())
	}

	value := tensor.ScalarVar(dtype.Float64, "v")
	lp, err := logprob.LogProb(mixed, value)
	require.NoError(t, err)

	const v = 1.5
	want := []float64{normalLogPDF(v, 0, 1), normalLogPDF(v, 10, 2)}
	for idx, w := range want {
		got, err := interp.Eval(lp, interp.Env{
			i:     kernels.Int64Scalar(int64(idx)),
			value: kernels.Float64Scalar(v),
		})
		require.NoError(t, err)
		gv, err := kernels.ScalarFloat(got)
		require.NoError(t, err)
		// The density is exactly the selected component's: the other
		// component contributes zero weight.
		require.InDelta(t, w, gv, 1e-12, "index %d", idx)
	}
}

func TestJoinedMixtureDensity(t *testing.T) {
	size := intsConst([]int64{1, 3}, []int{2})
	c1, err := random.Normal(size, tensor.ConstFloat(0), tensor.ConstFloat(1))
	require.NoError(t, err)
	c2, err := random.Normal(size, tensor.ConstFloat(10), tensor.ConstFloat(2))
	require.NoError(t, err)
	joined, err := tensor.Join(tensor.ConstInt(0), c1, c2)
	require.NoError(t, err)
	i := tensor.ScalarVar(dtype.Int64, "i")
	mix, err := tensor.IndexOf(joined, tensor.Idx(i))
	require.NoError(t, err)

	g := graph.New(mix)
	applied, err := logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	mixed := g.Outputs()[0]

	value := tensor.Var(tensor.NewType(dtype.Float64, 3), "v")
	lp, err := logprob.LogProb(mixed, value)
	require.NoError(t, err)

	vals := []float64{-0.5, 0.5, 2}
	for idx, params := range []struct{ mu, sigma float64 }{{0, 1}, {10, 2}} {
		got, err := interp.Eval(lp, interp.Env{
			i:     kernels.Int64Scalar(int64(idx)),
			value: kernels.Float64s(vals, []int{3}),
		})
		require.NoError(t, err)
		gv, err := kernels.Float64Values(got)
		require.NoError(t, err)
		require.Len(t, gv, 3)
		for k, v := range vals {
			require.InDelta(t, normalLogPDF(v, params.mu, params.sigma), gv[k], 1e-12, "index %d position %d", idx, k)
		}
	}
}

func TestJoinedBooleanMixtureDensity(t *testing.T) {
	size := intsConst([]int64{1}, []int{1})
	c1, err := random.Normal(size, tensor.ConstFloat(0), tensor.ConstFloat(1))
	require.NoError(t, err)
	c2, err := random.Normal(size, tensor.ConstFloat(10), tensor.ConstFloat(2))
	require.NoError(t, err)
	joined, err := tensor.Join(tensor.ConstInt(0), c1, c2)
	require.NoError(t, err)
	selector := tensor.Var(tensor.NewType(dtype.Bool, 2), "I")
	mix, err := tensor.IndexOf(joined, tensor.Idx(selector))
	require.NoError(t, err)

	g := graph.New(mix)
	applied, err := logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	require.Equal(t, 1, applied)
	mixed := g.Outputs()[0]
	if _, ok := mixed.Owner.Op.(logprob.MixtureRV); !ok {
		t.Fatalf("got op %s: want the mixture placeholder", mixed.Owner.Op.OpName())
	}

	value := tensor.Var(tensor.NewType(dtype.Float64, 2), "v")
	lp, err := logprob.LogProb(mixed, value)
	require.NoError(t, err)

	pick := []bool{true, false}
	vals := []float64{9, 0.5}
	got, err := interp.Eval(lp, interp.Env{
		selector: kernels.Bools(pick, []int{2}),
		value:    kernels.Float64s(vals, []int{2}),
	})
	require.NoError(t, err)
	gv, err := kernels.Float64Values(got)
	require.NoError(t, err)
	require.Len(t, gv, 2)
	for k := range vals {
		want := normalLogPDF(vals[k], 0, 1)
		if pick[k] {
			want = normalLogPDF(vals[k], 10, 2)
		}
		require.InDelta(t, want, gv[k], 1e-12, "position %d", k)
	}
}

func TestVectorBooleanMixtureDensity(t *testing.T) {
	selector := tensor.Var(tensor.NewType(dtype.Bool, 5), "I")
	mixed, applied := stackedMixture(t, selector,
		scalarNormal(t, 0, 1),
		scalarNormal(t, 10, 2),
	)
	require.Equal(t, 1, applied)
	if _, ok := mixed.Owner.Op.(logprob.MixtureRV); !ok {
		t.Fatalf("got op %s: want the mixture placeholder", mixed.Owner.Op.OpName())
	}

	value := tensor.Var(tensor.NewType(dtype.Float64, 5), "v")
	lp, err := logprob.LogProb(mixed, value)
	require.NoError(t, err)

	pick := []bool{false, true, false, true, true}
	vals := []float64{0.5, -1, 2, 3, 9}
	got, err := interp.Eval(lp, interp.Env{
		selector: kernels.Bools(pick, []int{5}),
		value:    kernels.Float64s(vals, []int{5}),
	})
	require.NoError(t, err)
	gv, err := kernels.Float64Values(got)
	require.NoError(t, err)
	require.Len(t, gv, 5)
	for k := range vals {
		want := normalLogPDF(vals[k], 0, 1)
		if pick[k] {
			want = normalLogPDF(vals[k], 10, 2)
		}
		require.InDelta(t, want, gv[k], 1e-12, "position %d", k)
	}
}

func TestMixtureMatcherRejectsIntArrayIndex(t *testing.T) {
	x := scalarNormal(t, 0, 1)
	y := scalarNormal(t, 10, 2)
	stacked, err := tensor.MakeVector(x, y)
	require.NoError(t, err)
	selector := tensor.Var(tensor.NewType(dtype.Int64, 5), "I")
	mix, err := tensor.IndexOf(stacked, tensor.Idx(selector))
	require.NoError(t, err)

	// Integer array indices can select repeated positions, so the
	// matcher must leave the graph untouched.
	g := graph.New(mix)
	applied, err := logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	require.Equal(t, 0, applied)
	if g.Outputs()[0] != mix {
		t.Errorf("graph changed without any match")
	}
}

func TestMixtureMatcherRequiresMeasurableComponents(t *testing.T) {
	a := tensor.ScalarVar(dtype.Float64, "a")
	b := tensor.ScalarVar(dtype.Float64, "b")
	i := tensor.ScalarVar(dtype.Int64, "i")
	stacked, err := tensor.MakeVector(a, b)
	require.NoError(t, err)
	mix, err := tensor.IndexOf(stacked, tensor.Idx(i))
	require.NoError(t, err)

	g := graph.New(mix)
	applied, err := logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	require.Equal(t, 0, applied)
	if g.Outputs()[0] != mix {
		t.Errorf("graph changed without any match")
	}
}

func TestMixtureRewriteIdempotence(t *testing.T) {
	i := tensor.ScalarVar(dtype.Int64, "i")
	stacked, err := tensor.MakeVector(scalarNormal(t, 0, 1), scalarNormal(t, 10, 2))
	require.NoError(t, err)
	mix, err := tensor.IndexOf(stacked, tensor.Idx(i))
	require.NoError(t, err)

	g := graph.New(mix)
	applied, err := logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	converted := g.Outputs()[0]
	applied, err = logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	require.Equal(t, 0, applied)
	if g.Outputs()[0] != converted {
		t.Errorf("converted graph changed on the second pass")
	}
}

func TestMixturePlaceholderIsNotExecutable(t *testing.T) {
	i := tensor.ScalarVar(dtype.Int64, "i")
	mixed, _ := stackedMixture(t, i,
		scalarNormal(t, 0, 1),
		scalarNormal(t, 10, 2),
	)
	_, err := interp.Eval(mixed, interp.Env{i: kernels.Int64Scalar(0)})
	if err == nil || !strings.Contains(err.Error(), "no runtime semantics") {
		t.Errorf("got error %v: want a no-runtime-semantics error", err)
	}
}

func TestMixtureKeepsTestValue(t *testing.T) {
	i := tensor.ScalarVar(dtype.Int64, "i")
	stacked, err := tensor.MakeVector(scalarNormal(t, 0, 1), scalarNormal(t, 10, 2))
	require.NoError(t, err)
	mix, err := tensor.IndexOf(stacked, tensor.Idx(i))
	require.NoError(t, err)

	g := graph.New(mix)
	preview := kernels.Float64Scalar(1.25)
	g.SetTestValue(mix, preview)
	applied, err := logprob.RewriteForLogProb(g)
	require.NoError(t, err)
	require.Equal(t, 1, applied)

	tv, ok := g.TestValue(g.Outputs()[0])
	if !ok {
		t.Fatalf("placeholder lost the preview value")
	}
	if tv != preview {
		t.Errorf("got preview value %v: want %v", tv, preview)
	}
}
