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

package kernels

import (
	"math"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
)

func mapBinary[X, Y, Z element](x *array[X], y *array[Y], dt dtype.DataType, f func(X, Y) Z) (Array, error) {
	dims, err := BroadcastDims(Dims(x), Dims(y))
	if err != nil {
		return nil, err
	}
	xv, err := broadcastValues(x, dims)
	if err != nil {
		return nil, err
	}
	yv, err := broadcastValues(y, dims)
	if err != nil {
		return nil, err
	}
	out := make([]Z, len(xv))
	for i := range out {
		out[i] = f(xv[i], yv[i])
	}
	return newArray(dt, out, dims), nil
}

func mapUnary[T element](x *array[T], f func(T) T) Array {
	out := make([]T, len(x.values))
	for i, v := range x.values {
		out[i] = f(v)
	}
	return newArray(x.sh.DType, out, Dims(x))
}

func binaryNumeric(x, y Array, opName string, fi func(int64, int64) int64, ff func(float64, float64) float64) (Array, error) {
	if x.DType() != y.DType() {
		return nil, errors.Errorf("operator %s not supported between %s and %s", opName, x.DType(), y.DType())
	}
	switch xa := x.(type) {
	case *array[int64]:
		ya, err := values[int64](y)
		if err != nil {
			return nil, err
		}
		return mapBinary(xa, ya, dtype.Int64, fi)
	case *array[float64]:
		ya, err := values[float64](y)
		if err != nil {
			return nil, err
		}
		return mapBinary(xa, ya, dtype.Float64, ff)
	}
	return nil, errors.Errorf("operator %s not supported for %s", opName, x.DType())
}

// Add returns the broadcast element-wise sum of two arrays.
func Add(x, y Array) (Array, error) {
	return binaryNumeric(x, y, "+",
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b })
}

// Sub returns the broadcast element-wise difference of two arrays.
func Sub(x, y Array) (Array, error) {
	return binaryNumeric(x, y, "-",
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b })
}

// Mul returns the broadcast element-wise product of two arrays.
func Mul(x, y Array) (Array, error) {
	return binaryNumeric(x, y, "*",
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b })
}

// Div returns the broadcast element-wise quotient of two arrays.
func Div(x, y Array) (Array, error) {
	return binaryNumeric(x, y, "/",
		func(a, b int64) int64 { return a / b },
		func(a, b float64) float64 { return a / b })
}

// Neg returns the element-wise negation of an array.
func Neg(x Array) (Array, error) {
	switch xa := x.(type) {
	case *array[int64]:
		return mapUnary(xa, func(v int64) int64 { return -v }), nil
	case *array[float64]:
		return mapUnary(xa, func(v float64) float64 { return -v }), nil
	}
	return nil, errors.Errorf("operator - not supported for %s", x.DType())
}

// Log returns the element-wise natural logarithm of a float64 array.
func Log(x Array) (Array, error) {
	xa, err := values[float64](x)
	if err != nil {
		return nil, err
	}
	return mapUnary(xa, math.Log), nil
}

// Exp returns the element-wise exponential of a float64 array.
func Exp(x Array) (Array, error) {
	xa, err := values[float64](x)
	if err != nil {
		return nil, err
	}
	return mapUnary(xa, math.Exp), nil
}

// Eq returns the broadcast element-wise equality of two arrays.
// Boolean operands are promoted to integers when compared to integers.
func Eq(x, y Array) (Array, error) {
	if x.DType() == dtype.Bool && y.DType() == dtype.Int64 {
		cast, err := Cast(x, dtype.Int64)
		if err != nil {
			return nil, err
		}
		x = cast
	}
	if y.DType() == dtype.Bool && x.DType() == dtype.Int64 {
		cast, err := Cast(y, dtype.Int64)
		if err != nil {
			return nil, err
		}
		y = cast
	}
	if x.DType() != y.DType() {
		return nil, errors.Errorf("operator == not supported between %s and %s", x.DType(), y.DType())
	}
	switch xa := x.(type) {
	case *array[bool]:
		ya, err := values[bool](y)
		if err != nil {
			return nil, err
		}
		return mapBinary(xa, ya, dtype.Bool, func(a, b bool) bool { return a == b })
	case *array[int64]:
		ya, err := values[int64](y)
		if err != nil {
			return nil, err
		}
		return mapBinary(xa, ya, dtype.Bool, func(a, b int64) bool { return a == b })
	case *array[float64]:
		ya, err := values[float64](y)
		if err != nil {
			return nil, err
		}
		return mapBinary(xa, ya, dtype.Bool, func(a, b float64) bool { return a == b })
	}
	return nil, errors.Errorf("operator == not supported for %s", x.DType())
}

func selectValues[T element](cond []bool, x, y *array[T], dims []int) (Array, error) {
	xv, err := broadcastValues(x, dims)
	if err != nil {
		return nil, err
	}
	yv, err := broadcastValues(y, dims)
	if err != nil {
		return nil, err
	}
	out := make([]T, len(cond))
	for i, c := range cond {
		if c {
			out[i] = xv[i]
		} else {
			out[i] = yv[i]
		}
	}
	return newArray(x.sh.DType, out, dims), nil
}

// Select returns the broadcast element-wise selection between two arrays
// given a boolean condition.
func Select(cond, x, y Array) (Array, error) {
	if x.DType() != y.DType() {
		return nil, errors.Errorf("cannot select between %s and %s", x.DType(), y.DType())
	}
	condArr, err := values[bool](cond)
	if err != nil {
		return nil, err
	}
	dims, err := BroadcastAll(Dims(cond), Dims(x), Dims(y))
	if err != nil {
		return nil, err
	}
	cv, err := broadcastValues(condArr, dims)
	if err != nil {
		return nil, err
	}
	switch xa := x.(type) {
	case *array[bool]:
		ya, err := values[bool](y)
		if err != nil {
			return nil, err
		}
		return selectValues(cv, xa, ya, dims)
	case *array[int64]:
		ya, err := values[int64](y)
		if err != nil {
			return nil, err
		}
		return selectValues(cv, xa, ya, dims)
	case *array[float64]:
		ya, err := values[float64](y)
		if err != nil {
			return nil, err
		}
		return selectValues(cv, xa, ya, dims)
	}
	return nil, errors.Errorf("cannot select values of %s", x.DType())
}
