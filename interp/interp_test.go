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

package interp_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/stretchr/testify/require"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/interp"
	"github.com/Armavica/pymc/kernels"
	"github.com/Armavica/pymc/tensor"
)

func TestEvalArithmetic(t *testing.T) {
	a := tensor.Var(tensor.NewType(dtype.Float64, 3), "a")
	b := tensor.ScalarVar(dtype.Float64, "b")
	sum, err := tensor.Add(a, b)
	require.NoError(t, err)
	out, err := tensor.Mul(sum, tensor.ConstFloat(2))
	require.NoError(t, err)

	got, err := interp.Eval(out, interp.Env{
		a: kernels.Float64s([]float64{1, 2, 3}, []int{3}),
		b: kernels.Float64Scalar(10),
	})
	require.NoError(t, err)
	vals, err := kernels.Float64Values(got)
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{22, 24, 26}, vals); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestEvalMissingBinding(t *testing.T) {
	a := tensor.ScalarVar(dtype.Float64, "a")
	out := tensor.Neg(a)
	_, err := interp.Eval(out, nil)
	if err == nil || !strings.Contains(err.Error(), "no binding") {
		t.Errorf("got error %v: want a missing binding error", err)
	}
}

func TestEvalIfElseIsLazy(t *testing.T) {
	cond := tensor.ScalarVar(dtype.Bool, "c")
	taken := tensor.ConstFloat(1)
	// The untaken branch has no binding: it must never be computed.
	unbound := tensor.ScalarVar(dtype.Float64, "unbound")
	outs, err := tensor.IfElse(cond, []*graph.Variable{taken}, []*graph.Variable{unbound})
	require.NoError(t, err)

	got, err := interp.Eval(outs[0], interp.Env{cond: kernels.BoolScalar(true)})
	require.NoError(t, err)
	v, err := kernels.ScalarFloat(got)
	require.NoError(t, err)
	if v != 1 {
		t.Errorf("got %v: want 1", v)
	}

	if _, err := interp.Eval(outs[0], interp.Env{cond: kernels.BoolScalar(false)}); err == nil {
		t.Errorf("untaken branch bound: want a missing binding error for the else branch")
	}
}

func TestEvalMultiOutput(t *testing.T) {
	x := tensor.Var(tensor.NewType(dtype.Float64, 2, 1), "x")
	y := tensor.Var(tensor.NewType(dtype.Float64, 3), "y")
	outs, err := tensor.BroadcastArrays(x, y)
	require.NoError(t, err)

	got, err := interp.EvalAll(outs, interp.Env{
		x: kernels.Float64s([]float64{1, 2}, []int{2, 1}),
		y: kernels.Float64s([]float64{10, 20, 30}, []int{3}),
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	xv, err := kernels.Float64Values(got[0])
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{1, 1, 1, 2, 2, 2}, xv); diff != "" {
		t.Errorf("first output mismatch (-want +got):\n%s", diff)
	}
	yv, err := kernels.Float64Values(got[1])
	require.NoError(t, err)
	if diff := cmp.Diff([]float64{10, 20, 30, 10, 20, 30}, yv); diff != "" {
		t.Errorf("second output mismatch (-want +got):\n%s", diff)
	}
}

type opaqueOp struct{}

func (opaqueOp) OpName() string { return "opaque" }

func TestEvalRejectsNonEvaluable(t *testing.T) {
	a := tensor.ConstFloat(1)
	out := graph.NewApply(opaqueOp{}, []*graph.Variable{a}, tensor.ScalarType(dtype.Float64)).Default()
	_, err := interp.Eval(out, nil)
	if err == nil || !strings.Contains(err.Error(), "no runtime semantics") {
		t.Errorf("got error %v: want a no-runtime-semantics error", err)
	}
}

func TestConstantFold(t *testing.T) {
	r, err := tensor.ARange(tensor.ConstInt(0), tensor.ConstInt(6), tensor.ConstInt(2))
	require.NoError(t, err)
	folded, err := interp.ConstantFold(r)
	require.NoError(t, err)
	if !folded.IsConstant() {
		t.Fatalf("folded variable is not a constant")
	}
	vals, err := kernels.Int64Values(folded.Data)
	require.NoError(t, err)
	if diff := cmp.Diff([]int64{0, 2, 4}, vals); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}

	free := tensor.ScalarVar(dtype.Float64, "free")
	if _, err := interp.ConstantFold(tensor.Neg(free)); err == nil {
		t.Errorf("folding a graph with free variables: want an error")
	}
}
