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
	"github.com/Armavica/pymc/kernels"
)

type (
	// AddOp is broadcast element-wise addition.
	AddOp struct{}
	// SubOp is broadcast element-wise subtraction.
	SubOp struct{}
	// MulOp is broadcast element-wise multiplication.
	MulOp struct{}
	// DivOp is broadcast element-wise division.
	DivOp struct{}
	// NegOp is element-wise negation.
	NegOp struct{}
	// LogOp is the element-wise natural logarithm.
	LogOp struct{}
	// ExpOp is the element-wise exponential.
	ExpOp struct{}
	// EqOp is broadcast element-wise equality.
	EqOp struct{}
	// SwitchOp selects element-wise between two tensors given a
	// boolean condition, with the three inputs broadcast together.
	SwitchOp struct{}
)

var (
	_ Evaluable = AddOp{}
	_ Evaluable = SubOp{}
	_ Evaluable = MulOp{}
	_ Evaluable = DivOp{}
	_ Evaluable = NegOp{}
	_ Evaluable = LogOp{}
	_ Evaluable = ExpOp{}
	_ Evaluable = EqOp{}
	_ Evaluable = SwitchOp{}
)

// OpName identifies the operation.
func (AddOp) OpName() string { return "add" }

// OpName identifies the operation.
func (SubOp) OpName() string { return "sub" }

// OpName identifies the operation.
func (MulOp) OpName() string { return "mul" }

// OpName identifies the operation.
func (DivOp) OpName() string { return "div" }

// OpName identifies the operation.
func (NegOp) OpName() string { return "neg" }

// OpName identifies the operation.
func (LogOp) OpName() string { return "log" }

// OpName identifies the operation.
func (ExpOp) OpName() string { return "exp" }

// OpName identifies the operation.
func (EqOp) OpName() string { return "eq" }

// OpName identifies the operation.
func (SwitchOp) OpName() string { return "switch" }

func binary(op graph.Op, x, y *graph.Variable) (*graph.Variable, error) {
	xt, yt := TypeOf(x), TypeOf(y)
	if xt.DT != yt.DT {
		return nil, errors.Errorf("%s: mismatched data types %s and %s", op.OpName(), xt.DT, yt.DT)
	}
	out, err := BroadcastTypes(xt.DT, xt, yt)
	if err != nil {
		return nil, err
	}
	return graph.NewApply(op, []*graph.Variable{x, y}, out).Default(), nil
}

func unary(op graph.Op, x *graph.Variable, dt dtype.DataType) *graph.Variable {
	xt := TypeOf(x)
	out := &TensorType{DT: dt, Dims: append([]Dim{}, xt.Dims...)}
	return graph.NewApply(op, []*graph.Variable{x}, out).Default()
}

// Add returns the broadcast element-wise sum of two tensors.
func Add(x, y *graph.Variable) (*graph.Variable, error) {
	return binary(AddOp{}, x, y)
}

// Sub returns the broadcast element-wise difference of two tensors.
func Sub(x, y *graph.Variable) (*graph.Variable, error) {
	return binary(SubOp{}, x, y)
}

// Mul returns the broadcast element-wise product of two tensors.
func Mul(x, y *graph.Variable) (*graph.Variable, error) {
	return binary(MulOp{}, x, y)
}

// Div returns the broadcast element-wise quotient of two tensors.
func Div(x, y *graph.Variable) (*graph.Variable, error) {
	return binary(DivOp{}, x, y)
}

// Neg returns the element-wise negation of a tensor.
func Neg(x *graph.Variable) *graph.Variable {
	return unary(NegOp{}, x, TypeOf(x).DT)
}

// Log returns the element-wise natural logarithm of a tensor.
func Log(x *graph.Variable) *graph.Variable {
	return unary(LogOp{}, x, TypeOf(x).DT)
}

// Exp returns the element-wise exponential of a tensor.
func Exp(x *graph.Variable) *graph.Variable {
	return unary(ExpOp{}, x, TypeOf(x).DT)
}

// Eq returns the broadcast element-wise equality of two tensors.
// Boolean tensors compare equal to integer tensors by 0/1 promotion.
func Eq(x, y *graph.Variable) (*graph.Variable, error) {
	xt, yt := TypeOf(x), TypeOf(y)
	mixed := (xt.DT == dtype.Bool && yt.DT == dtype.Int64) ||
		(yt.DT == dtype.Bool && xt.DT == dtype.Int64)
	if xt.DT != yt.DT && !mixed {
		return nil, errors.Errorf("eq: mismatched data types %s and %s", xt.DT, yt.DT)
	}
	out, err := BroadcastTypes(dtype.Bool, xt, yt)
	if err != nil {
		return nil, err
	}
	return graph.NewApply(EqOp{}, []*graph.Variable{x, y}, out).Default(), nil
}

// Switch returns the element-wise selection between two tensors.
func Switch(cond, x, y *graph.Variable) (*graph.Variable, error) {
	ct, xt, yt := TypeOf(cond), TypeOf(x), TypeOf(y)
	if ct.DT != dtype.Bool {
		return nil, errors.Errorf("switch: condition has data type %s: want %s", ct.DT, dtype.Bool)
	}
	if xt.DT != yt.DT {
		return nil, errors.Errorf("switch: mismatched data types %s and %s", xt.DT, yt.DT)
	}
	out, err := BroadcastTypes(xt.DT, ct, xt, yt)
	if err != nil {
		return nil, err
	}
	return graph.NewApply(SwitchOp{}, []*graph.Variable{cond, x, y}, out).Default(), nil
}

func one(a kernels.Array, err error) ([]kernels.Array, error) {
	if err != nil {
		return nil, err
	}
	return []kernels.Array{a}, nil
}

// Eval computes the operation on host arrays.
func (AddOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Add(inputs[0], inputs[1]))
}

// Eval computes the operation on host arrays.
func (SubOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Sub(inputs[0], inputs[1]))
}

// Eval computes the operation on host arrays.
func (MulOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Mul(inputs[0], inputs[1]))
}

// Eval computes the operation on host arrays.
func (DivOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Div(inputs[0], inputs[1]))
}

// Eval computes the operation on host arrays.
func (NegOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Neg(inputs[0]))
}

// Eval computes the operation on host arrays.
func (LogOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Log(inputs[0]))
}

// Eval computes the operation on host arrays.
func (ExpOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Exp(inputs[0]))
}

// Eval computes the operation on host arrays.
func (EqOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Eq(inputs[0], inputs[1]))
}

// Eval computes the operation on host arrays.
func (SwitchOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Select(inputs[0], inputs[1], inputs[2]))
}
