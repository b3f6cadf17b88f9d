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

// Package tensor provides the elementary symbolic tensor operations the
// rewriting rules match on and the density derivation builds with:
// stacking, joining, indexing, element-wise algebra and conditional
// selection. Operations only carry static type inference; running them
// is the interpreter's concern.
package tensor

import (
	"github.com/gx-org/backend/dtype"
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/kernels"
)

// Evaluable is implemented by operations with runtime semantics.
// Placeholder operations synthesized by the rewrite rules deliberately
// do not implement it.
type Evaluable interface {
	graph.Op

	// Eval computes the outputs of the operation from input values.
	Eval(inputs []kernels.Array) ([]kernels.Array, error)
}

// TypeFromArray returns the tensor type describing a host array.
func TypeFromArray(a kernels.Array) *TensorType {
	return NewType(a.DType(), kernels.Dims(a)...)
}

// Constant returns a constant tensor variable holding the given array.
func Constant(a kernels.Array) *graph.Variable {
	return graph.NewConstant(TypeFromArray(a), a)
}

// ConstInt returns a rank-0 int64 constant.
func ConstInt(v int64) *graph.Variable {
	return Constant(kernels.Int64Scalar(v))
}

// ConstFloat returns a rank-0 float64 constant.
func ConstFloat(v float64) *graph.Variable {
	return Constant(kernels.Float64Scalar(v))
}

// ConstBool returns a rank-0 boolean constant.
func ConstBool(v bool) *graph.Variable {
	return Constant(kernels.BoolScalar(v))
}

// Var returns a free tensor variable.
func Var(t *TensorType, name string) *graph.Variable {
	return graph.NewVariable(t, name)
}

// ScalarVar returns a free rank-0 variable.
func ScalarVar(dt dtype.DataType, name string) *graph.Variable {
	return Var(ScalarType(dt), name)
}

// VectorVar returns a free rank-1 variable.
func VectorVar(dt dtype.DataType, size int, name string) *graph.Variable {
	return Var(NewType(dt, size), name)
}
