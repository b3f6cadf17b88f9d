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
	"github.com/pkg/errors"
)

// SizeOf returns the number of elements of an array with the given axis lengths.
func SizeOf(dims []int) int {
	size := 1
	for _, d := range dims {
		size *= d
	}
	return size
}

func rowMajorStrides(dims []int) []int {
	strides := make([]int, len(dims))
	stride := 1
	for d := len(dims) - 1; d >= 0; d-- {
		strides[d] = stride
		stride *= dims[d]
	}
	return strides
}

// BroadcastDims returns the axis lengths resulting from broadcasting
// two arrays together, following the usual right-aligned rules.
func BroadcastDims(x, y []int) ([]int, error) {
	n := max(len(x), len(y))
	out := make([]int, n)
	for d := 0; d < n; d++ {
		xd, yd := 1, 1
		if i := len(x) - n + d; i >= 0 {
			xd = x[i]
		}
		if i := len(y) - n + d; i >= 0 {
			yd = y[i]
		}
		switch {
		case xd == yd:
			out[d] = xd
		case xd == 1:
			out[d] = yd
		case yd == 1:
			out[d] = xd
		default:
			return nil, errors.Errorf("cannot broadcast axis lengths %v with %v", x, y)
		}
	}
	return out, nil
}

// BroadcastAll broadcasts any number of axis lengths together.
func BroadcastAll(all ...[]int) ([]int, error) {
	out := []int{}
	for _, dims := range all {
		var err error
		out, err = BroadcastDims(out, dims)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// broadcastStrides returns the strides to read a source array as if it
// had the (broadcast) output axis lengths: broadcast axes get a zero stride.
func broadcastStrides(src, out []int) ([]int, error) {
	if len(src) > len(out) {
		return nil, errors.Errorf("cannot broadcast axis lengths %v to %v", src, out)
	}
	srcStrides := rowMajorStrides(src)
	strides := make([]int, len(out))
	pad := len(out) - len(src)
	for d := range out {
		if d < pad {
			continue
		}
		switch {
		case src[d-pad] == out[d]:
			strides[d] = srcStrides[d-pad]
		case src[d-pad] == 1:
			strides[d] = 0
		default:
			return nil, errors.Errorf("cannot broadcast axis lengths %v to %v", src, out)
		}
	}
	return strides, nil
}

func broadcastValues[T element](a *array[T], dims []int) ([]T, error) {
	strides, err := broadcastStrides(Dims(a), dims)
	if err != nil {
		return nil, err
	}
	outStrides := rowMajorStrides(dims)
	out := make([]T, SizeOf(dims))
	for i := range out {
		rem, off := i, 0
		for d, s := range outStrides {
			off += (rem / s) * strides[d]
			rem %= s
		}
		out[i] = a.values[off]
	}
	return out, nil
}

func broadcastTo[T element](a *array[T], dims []int) (Array, error) {
	vals, err := broadcastValues(a, dims)
	if err != nil {
		return nil, err
	}
	return newArray(a.sh.DType, vals, dims), nil
}

// BroadcastTo broadcasts an array to the given axis lengths.
func BroadcastTo(a Array, dims []int) (Array, error) {
	switch arr := a.(type) {
	case *array[bool]:
		return broadcastTo(arr, dims)
	case *array[int64]:
		return broadcastTo(arr, dims)
	case *array[float64]:
		return broadcastTo(arr, dims)
	}
	return nil, errors.Errorf("cannot broadcast array of %s", a.DType())
}

// BroadcastArrays broadcasts all the arrays to their common axis lengths.
func BroadcastArrays(all ...Array) ([]Array, error) {
	allDims := make([][]int, len(all))
	for i, a := range all {
		allDims[i] = Dims(a)
	}
	dims, err := BroadcastAll(allDims...)
	if err != nil {
		return nil, err
	}
	out := make([]Array, len(all))
	for i, a := range all {
		if out[i], err = BroadcastTo(a, dims); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func dimShuffle[T element](a *array[T], order []int) (Array, error) {
	src := Dims(a)
	srcStrides := rowMajorStrides(src)
	seen := make([]bool, len(src))
	outDims := make([]int, len(order))
	strides := make([]int, len(order))
	for d, o := range order {
		if o < 0 {
			outDims[d] = 1
			continue
		}
		if o >= len(src) {
			return nil, errors.Errorf("axis %d out of bounds for array of shape %v", o, src)
		}
		seen[o] = true
		outDims[d] = src[o]
		strides[d] = srcStrides[o]
	}
	for o, ok := range seen {
		if !ok && src[o] != 1 {
			return nil, errors.Errorf("cannot drop axis %d of length %d in shape %v", o, src[o], src)
		}
	}
	outStrides := rowMajorStrides(outDims)
	out := make([]T, SizeOf(outDims))
	for i := range out {
		rem, off := i, 0
		for d, s := range outStrides {
			off += (rem / s) * strides[d]
			rem %= s
		}
		out[i] = a.values[off]
	}
	return newArray(a.sh.DType, out, outDims), nil
}

// DimShuffle reorders the axes of an array. Each entry of order is either
// a source axis or -1 to insert a new axis of length one. Source axes
// absent from order are dropped and must have length one.
func DimShuffle(a Array, order []int) (Array, error) {
	switch arr := a.(type) {
	case *array[bool]:
		return dimShuffle(arr, order)
	case *array[int64]:
		return dimShuffle(arr, order)
	case *array[float64]:
		return dimShuffle(arr, order)
	}
	return nil, errors.Errorf("cannot shuffle array of %s", a.DType())
}
