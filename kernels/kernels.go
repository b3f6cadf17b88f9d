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

// Package kernels implements host arrays and the numerical kernels
// used by the reference interpreter and by constant folding.
//
// Arrays are immutable: every kernel allocates its result.
package kernels

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/Armavica/pymc/fmt/fmtarray"
)

type element interface {
	bool | int64 | float64
}

// Array is a host value with a shape and a data type.
type Array interface {
	// Shape of the array.
	Shape() *shape.Shape

	// DType is the data type of the array elements.
	DType() dtype.DataType

	// String representation of the array.
	String() string

	array()
}

type array[T element] struct {
	sh     *shape.Shape
	values []T
}

var (
	_ Array = (*array[bool])(nil)
	_ Array = (*array[int64])(nil)
	_ Array = (*array[float64])(nil)
)

func (a *array[T]) array() {}

func (a *array[T]) Shape() *shape.Shape {
	return a.sh
}

func (a *array[T]) DType() dtype.DataType {
	return a.sh.DType
}

func (a *array[T]) String() string {
	return fmtarray.Sprint(a.values, a.sh.AxisLengths)
}

func newArray[T element](dt dtype.DataType, values []T, dims []int) *array[T] {
	sh := &shape.Shape{DType: dt, AxisLengths: append([]int{}, dims...)}
	if len(values) != sh.Size() {
		panic(fmt.Sprintf("mismatch between the number of values (=%d) and the number of elements (=%d) in shape %s", len(values), sh.Size(), sh.String()))
	}
	return &array[T]{sh: sh, values: values}
}

// Float64s returns an array of float64 given its values in row-major order.
func Float64s(values []float64, dims []int) Array {
	return newArray(dtype.Float64, values, dims)
}

// Int64s returns an array of int64 given its values in row-major order.
func Int64s(values []int64, dims []int) Array {
	return newArray(dtype.Int64, values, dims)
}

// Bools returns an array of booleans given its values in row-major order.
func Bools(values []bool, dims []int) Array {
	return newArray(dtype.Bool, values, dims)
}

// Float64Scalar returns a rank-0 float64 array.
func Float64Scalar(v float64) Array {
	return Float64s([]float64{v}, nil)
}

// Int64Scalar returns a rank-0 int64 array.
func Int64Scalar(v int64) Array {
	return Int64s([]int64{v}, nil)
}

// BoolScalar returns a rank-0 boolean array.
func BoolScalar(v bool) Array {
	return Bools([]bool{v}, nil)
}

// Dims returns the axis lengths of an array.
func Dims(a Array) []int {
	return a.Shape().AxisLengths
}

func dtypeOf[T element]() dtype.DataType {
	var zero T
	switch any(zero).(type) {
	case bool:
		return dtype.Bool
	case int64:
		return dtype.Int64
	default:
		return dtype.Float64
	}
}

func values[T element](a Array) (*array[T], error) {
	arr, ok := a.(*array[T])
	if !ok {
		return nil, errors.Errorf("array has data type %s: want %s", a.DType(), dtypeOf[T]())
	}
	return arr, nil
}

// Float64Values returns the flat values of a float64 array.
func Float64Values(a Array) ([]float64, error) {
	arr, err := values[float64](a)
	if err != nil {
		return nil, err
	}
	return arr.values, nil
}

// Int64Values returns the flat values of an int64 array.
func Int64Values(a Array) ([]int64, error) {
	arr, err := values[int64](a)
	if err != nil {
		return nil, err
	}
	return arr.values, nil
}

// BoolValues returns the flat values of a boolean array.
func BoolValues(a Array) ([]bool, error) {
	arr, err := values[bool](a)
	if err != nil {
		return nil, err
	}
	return arr.values, nil
}

// IndexValues returns the flat values of an array used as an index.
// Boolean arrays are read as 0/1 integers.
func IndexValues(a Array) ([]int64, error) {
	switch arr := a.(type) {
	case *array[int64]:
		return arr.values, nil
	case *array[bool]:
		vals := make([]int64, len(arr.values))
		for i, b := range arr.values {
			if b {
				vals[i] = 1
			}
		}
		return vals, nil
	}
	return nil, errors.Errorf("array of %s cannot be used as an index", a.DType())
}

// ScalarInt returns the value of a one-element integer (or boolean) array.
func ScalarInt(a Array) (int64, error) {
	vals, err := IndexValues(a)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, errors.Errorf("array of shape %v is not a scalar", Dims(a))
	}
	return vals[0], nil
}

// ScalarBool returns the value of a one-element boolean array.
func ScalarBool(a Array) (bool, error) {
	vals, err := BoolValues(a)
	if err != nil {
		return false, err
	}
	if len(vals) != 1 {
		return false, errors.Errorf("array of shape %v is not a scalar", Dims(a))
	}
	return vals[0], nil
}

// ScalarFloat returns the value of a one-element float64 array.
func ScalarFloat(a Array) (float64, error) {
	vals, err := Float64Values(a)
	if err != nil {
		return 0, err
	}
	if len(vals) != 1 {
		return 0, errors.Errorf("array of shape %v is not a scalar", Dims(a))
	}
	return vals[0], nil
}

// Zeros returns an array of zero values.
func Zeros(dims []int, dt dtype.DataType) (Array, error) {
	size := (&shape.Shape{DType: dt, AxisLengths: dims}).Size()
	switch dt {
	case dtype.Bool:
		return Bools(make([]bool, size), dims), nil
	case dtype.Int64:
		return Int64s(make([]int64, size), dims), nil
	case dtype.Float64:
		return Float64s(make([]float64, size), dims), nil
	}
	return nil, errors.Errorf("cannot allocate an array of data type %s: not supported", dt)
}

// Cast converts an array to another data type.
func Cast(a Array, dt dtype.DataType) (Array, error) {
	if a.DType() == dt {
		return a, nil
	}
	dims := Dims(a)
	switch arr := a.(type) {
	case *array[bool]:
		switch dt {
		case dtype.Int64:
			vals, err := IndexValues(a)
			if err != nil {
				return nil, err
			}
			return Int64s(vals, dims), nil
		case dtype.Float64:
			vals := make([]float64, len(arr.values))
			for i, b := range arr.values {
				if b {
					vals[i] = 1
				}
			}
			return Float64s(vals, dims), nil
		}
	case *array[int64]:
		if dt == dtype.Float64 {
			vals := make([]float64, len(arr.values))
			for i, v := range arr.values {
				vals[i] = float64(v)
			}
			return Float64s(vals, dims), nil
		}
	}
	return nil, errors.Errorf("cannot cast array of %s to %s", a.DType(), dt)
}
