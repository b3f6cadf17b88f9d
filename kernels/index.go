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

// Arange returns the int64 array of values from start to stop (excluded)
// by increments of step.
func Arange(start, stop, step int64) (Array, error) {
	if step == 0 {
		return nil, errors.Errorf("arange step cannot be zero")
	}
	var count int64
	if step > 0 && stop > start {
		count = (stop - start + step - 1) / step
	} else if step < 0 && stop < start {
		count = (start - stop - step - 1) / -step
	}
	vals := make([]int64, count)
	for i := range vals {
		vals[i] = start + int64(i)*step
	}
	return Int64s(vals, []int{int(count)}), nil
}

// CanonicalSlice resolves a slice against an axis length, following
// Python slice semantics: nil bounds take their defaults and negative
// bounds count from the end of the axis. The returned (start, stop, step)
// are such that iterating from start to stop by step visits exactly the
// selected indices, in order.
func CanonicalSlice(start, stop, step *int64, n int64) (int64, int64, int64, error) {
	st := int64(1)
	if step != nil {
		st = *step
	}
	if st == 0 {
		return 0, 0, 0, errors.Errorf("slice step cannot be zero")
	}
	var lo, hi int64
	if st > 0 {
		lo, hi = 0, n
	} else {
		lo, hi = n-1, -1
	}
	resolve := func(v int64) int64 {
		if v < 0 {
			v += n
		}
		if st > 0 {
			return min(max(v, 0), n)
		}
		return min(max(v, -1), n-1)
	}
	if start != nil {
		lo = resolve(*start)
	}
	if stop != nil {
		hi = resolve(*stop)
	}
	return lo, hi, st, nil
}

func concat[T element](axis int, parts []*array[T], dims []int) (Array, error) {
	outer := SizeOf(dims[:axis])
	inner := SizeOf(dims[axis+1:])
	out := make([]T, SizeOf(dims))
	outStride := dims[axis] * inner
	offset := 0
	for _, p := range parts {
		pAxis := Dims(p)[axis]
		pStride := pAxis * inner
		for o := 0; o < outer; o++ {
			copy(out[o*outStride+offset:], p.values[o*pStride:(o+1)*pStride])
		}
		offset += pStride
	}
	return newArray(parts[0].sh.DType, out, dims), nil
}

// Concat concatenates arrays along an existing axis.
func Concat(axis int, parts []Array) (Array, error) {
	if len(parts) == 0 {
		return nil, errors.Errorf("cannot concatenate zero arrays")
	}
	ref := Dims(parts[0])
	if axis < 0 || axis >= len(ref) {
		return nil, errors.Errorf("join axis %d out of bounds for rank %d", axis, len(ref))
	}
	dims := append([]int{}, ref...)
	dims[axis] = 0
	for _, p := range parts {
		pd := Dims(p)
		if len(pd) != len(ref) {
			return nil, errors.Errorf("cannot concatenate arrays of ranks %d and %d", len(ref), len(pd))
		}
		for d := range pd {
			if d != axis && pd[d] != ref[d] {
				return nil, errors.Errorf("cannot concatenate shapes %v and %v along axis %d", ref, pd, axis)
			}
		}
		if p.DType() != parts[0].DType() {
			return nil, errors.Errorf("cannot concatenate %s with %s", parts[0].DType(), p.DType())
		}
		dims[axis] += pd[axis]
	}
	switch parts[0].(type) {
	case *array[bool]:
		return concat(axis, castAll[bool](parts), dims)
	case *array[int64]:
		return concat(axis, castAll[int64](parts), dims)
	case *array[float64]:
		return concat(axis, castAll[float64](parts), dims)
	}
	return nil, errors.Errorf("cannot concatenate arrays of %s", parts[0].DType())
}

func castAll[T element](parts []Array) []*array[T] {
	out := make([]*array[T], len(parts))
	for i, p := range parts {
		out[i] = p.(*array[T])
	}
	return out
}

// Stack builds a vector out of scalar arrays.
func Stack(parts []Array) (Array, error) {
	switch parts[0].(type) {
	case *array[bool]:
		return stack[bool](parts)
	case *array[int64]:
		return stack[int64](parts)
	case *array[float64]:
		return stack[float64](parts)
	}
	return nil, errors.Errorf("cannot stack arrays of %s", parts[0].DType())
}

func stack[T element](parts []Array) (Array, error) {
	out := make([]T, len(parts))
	for i, p := range parts {
		arr, err := values[T](p)
		if err != nil {
			return nil, err
		}
		if len(arr.values) != 1 {
			return nil, errors.Errorf("cannot stack non-scalar array of shape %v", Dims(p))
		}
		out[i] = arr.values[0]
	}
	return newArray(parts[0].DType(), out, []int{len(parts)}), nil
}

// A BasicIdx is one resolved entry of a basic indexing tuple.
type BasicIdx interface {
	basicIdx()
}

// IdxSlice selects a range along one axis. The bounds follow
// Python slice semantics (nil means default, negatives count from the end).
type IdxSlice struct {
	Start, Stop, Step *int64
}

func (IdxSlice) basicIdx() {}

// IdxScalar selects a single position along one axis, dropping it.
type IdxScalar struct {
	At int64
}

func (IdxScalar) basicIdx() {}

// IdxNewAxis inserts a broadcastable axis.
type IdxNewAxis struct{}

func (IdxNewAxis) basicIdx() {}

type axisPlan struct {
	srcAxis int // -1 for a new axis
	start   int64
	step    int64
	length  int
}

// BasicIndex applies a tuple of basic indices (slices, scalars, new axes)
// to an array. Missing trailing entries are implicit full slices.
func BasicIndex(a Array, items []BasicIdx) (Array, error) {
	src := Dims(a)
	var plans []axisPlan
	base := int64(0)
	srcStrides := rowMajorStrides(src)
	srcAxis := 0
	for _, item := range items {
		switch it := item.(type) {
		case IdxNewAxis:
			plans = append(plans, axisPlan{srcAxis: -1, length: 1})
		case IdxScalar:
			if srcAxis >= len(src) {
				return nil, errors.Errorf("too many indices for array of shape %v", src)
			}
			at := it.At
			if at < 0 {
				at += int64(src[srcAxis])
			}
			if at < 0 || at >= int64(src[srcAxis]) {
				return nil, errors.Errorf("index %d out of bounds for axis %d of length %d", it.At, srcAxis, src[srcAxis])
			}
			base += at * int64(srcStrides[srcAxis])
			srcAxis++
		case IdxSlice:
			if srcAxis >= len(src) {
				return nil, errors.Errorf("too many indices for array of shape %v", src)
			}
			start, stop, step, err := CanonicalSlice(it.Start, it.Stop, it.Step, int64(src[srcAxis]))
			if err != nil {
				return nil, err
			}
			length := int64(0)
			if step > 0 && stop > start {
				length = (stop - start + step - 1) / step
			} else if step < 0 && stop < start {
				length = (start - stop - step - 1) / -step
			}
			plans = append(plans, axisPlan{srcAxis: srcAxis, start: start, step: step, length: int(length)})
			srcAxis++
		default:
			return nil, errors.Errorf("unsupported index %T", item)
		}
	}
	for ; srcAxis < len(src); srcAxis++ {
		plans = append(plans, axisPlan{srcAxis: srcAxis, step: 1, length: src[srcAxis]})
	}
	outDims := make([]int, len(plans))
	for d, p := range plans {
		outDims[d] = p.length
	}
	outStrides := rowMajorStrides(outDims)
	offsetAt := func(i int) int64 {
		rem, off := i, base
		for d, s := range outStrides {
			c := int64(rem / s)
			rem %= s
			p := plans[d]
			if p.srcAxis < 0 {
				continue
			}
			off += (p.start + c*p.step) * int64(srcStrides[p.srcAxis])
		}
		return off
	}
	size := SizeOf(outDims)
	switch arr := a.(type) {
	case *array[bool]:
		out := make([]bool, size)
		for i := range out {
			out[i] = arr.values[offsetAt(i)]
		}
		return Bools(out, outDims), nil
	case *array[int64]:
		out := make([]int64, size)
		for i := range out {
			out[i] = arr.values[offsetAt(i)]
		}
		return Int64s(out, outDims), nil
	case *array[float64]:
		out := make([]float64, size)
		for i := range out {
			out[i] = arr.values[offsetAt(i)]
		}
		return Float64s(out, outDims), nil
	}
	return nil, errors.Errorf("cannot index array of %s", a.DType())
}

// advOffsets resolves a tuple of integer index arrays against the leading
// axes of shape src. It returns the broadcast index shape, the source
// offset of each selected block and the block length.
func advOffsets(src []int, idxs []Array) (dims []int, offsets []int64, block int, err error) {
	if len(idxs) == 0 {
		return nil, nil, 0, errors.Errorf("at least one index array is required")
	}
	if len(idxs) > len(src) {
		return nil, nil, 0, errors.Errorf("too many index arrays (%d) for array of shape %v", len(idxs), src)
	}
	bcast, err := BroadcastArrays(idxs...)
	if err != nil {
		return nil, nil, 0, err
	}
	dims = Dims(bcast[0])
	flat := make([][]int64, len(bcast))
	for i, b := range bcast {
		if flat[i], err = IndexValues(b); err != nil {
			return nil, nil, 0, err
		}
	}
	srcStrides := rowMajorStrides(src)
	block = SizeOf(src[len(idxs):])
	offsets = make([]int64, SizeOf(dims))
	for p := range offsets {
		off := int64(0)
		for d := range flat {
			v := flat[d][p]
			if v < 0 {
				v += int64(src[d])
			}
			if v < 0 || v >= int64(src[d]) {
				return nil, nil, 0, errors.Errorf("index %d out of bounds for axis %d of length %d", flat[d][p], d, src[d])
			}
			off += v * int64(srcStrides[d])
		}
		offsets[p] = off
	}
	return dims, offsets, block, nil
}

func advIndex[T element](a *array[T], idxs []Array) (Array, error) {
	dims, offsets, block, err := advOffsets(Dims(a), idxs)
	if err != nil {
		return nil, err
	}
	outDims := append(append([]int{}, dims...), Dims(a)[len(idxs):]...)
	out := make([]T, SizeOf(outDims))
	for p, off := range offsets {
		copy(out[p*block:(p+1)*block], a.values[off:off+int64(block)])
	}
	return newArray(a.sh.DType, out, outDims), nil
}

// AdvIndex gathers from the leading axes of an array, one axis per index
// array. The index arrays are broadcast together; the result holds the
// broadcast index shape followed by the remaining axes of the source.
func AdvIndex(a Array, idxs []Array) (Array, error) {
	switch arr := a.(type) {
	case *array[bool]:
		return advIndex(arr, idxs)
	case *array[int64]:
		return advIndex(arr, idxs)
	case *array[float64]:
		return advIndex(arr, idxs)
	}
	return nil, errors.Errorf("cannot index array of %s", a.DType())
}

func advSet[T element](a *array[T], y Array, idxs []Array) (Array, error) {
	dims, offsets, block, err := advOffsets(Dims(a), idxs)
	if err != nil {
		return nil, err
	}
	yDims := append(append([]int{}, dims...), Dims(a)[len(idxs):]...)
	yb, err := BroadcastTo(y, yDims)
	if err != nil {
		return nil, err
	}
	ya, err := values[T](yb)
	if err != nil {
		return nil, err
	}
	out := append([]T{}, a.values...)
	for p, off := range offsets {
		copy(out[off:off+int64(block)], ya.values[p*block:(p+1)*block])
	}
	return newArray(a.sh.DType, out, Dims(a)), nil
}

// AdvSet returns a copy of an array where the blocks selected by the
// index arrays (as in AdvIndex) are replaced by the values of y.
func AdvSet(a, y Array, idxs []Array) (Array, error) {
	if a.DType() != y.DType() {
		return nil, errors.Errorf("cannot set values of %s in array of %s", y.DType(), a.DType())
	}
	switch arr := a.(type) {
	case *array[bool]:
		return advSet(arr, y, idxs)
	case *array[int64]:
		return advSet(arr, y, idxs)
	case *array[float64]:
		return advSet(arr, y, idxs)
	}
	return nil, errors.Errorf("cannot set values in array of %s", a.DType())
}

// Nonzero returns, for each axis of a boolean array, the coordinates
// of the true elements, in row-major order.
func Nonzero(a Array) ([]Array, error) {
	vals, err := BoolValues(a)
	if err != nil {
		return nil, err
	}
	dims := Dims(a)
	strides := rowMajorStrides(dims)
	coords := make([][]int64, len(dims))
	for i, v := range vals {
		if !v {
			continue
		}
		rem := i
		for d, s := range strides {
			coords[d] = append(coords[d], int64(rem/s))
			rem %= s
		}
	}
	count := 0
	if len(coords) > 0 {
		count = len(coords[0])
	}
	out := make([]Array, len(dims))
	for d := range out {
		if coords[d] == nil {
			coords[d] = []int64{}
		}
		out[d] = Int64s(coords[d], []int{count})
	}
	return out, nil
}
