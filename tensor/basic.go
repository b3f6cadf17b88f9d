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
	// MakeVectorOp stacks rank-0 tensors into a vector.
	MakeVectorOp struct{}

	// JoinOp concatenates tensors of equal rank along an existing axis.
	// The axis is the first input of the node.
	JoinOp struct{}

	// ARangeOp builds the integer range [start, stop) by step.
	ARangeOp struct{}

	// CastOp converts a tensor to another element type.
	CastOp struct {
		DT dtype.DataType
	}

	// DimShuffleOp reorders axes. Each entry of Order is a source axis,
	// or -1 to insert a broadcastable axis; missing source axes are
	// dropped and must be broadcastable.
	DimShuffleOp struct {
		Order []int
	}

	// AllocLikeOp allocates a zero-filled tensor with the shape of its
	// input and the given element type.
	AllocLikeOp struct {
		DT dtype.DataType
	}

	// BroadcastToOp broadcasts a tensor to fixed axis lengths.
	BroadcastToOp struct {
		Dims []int
	}

	// BroadcastArraysOp broadcasts all its inputs together, producing
	// one output per input.
	BroadcastArraysOp struct{}
)

var (
	_ Evaluable = MakeVectorOp{}
	_ Evaluable = JoinOp{}
	_ Evaluable = ARangeOp{}
	_ Evaluable = CastOp{}
	_ Evaluable = DimShuffleOp{}
	_ Evaluable = AllocLikeOp{}
	_ Evaluable = BroadcastToOp{}
	_ Evaluable = BroadcastArraysOp{}
)

// OpName identifies the operation.
func (MakeVectorOp) OpName() string { return "make_vector" }

// OpName identifies the operation.
func (JoinOp) OpName() string { return "join" }

// OpName identifies the operation.
func (ARangeOp) OpName() string { return "arange" }

// OpName identifies the operation.
func (CastOp) OpName() string { return "cast" }

// OpName identifies the operation.
func (DimShuffleOp) OpName() string { return "dimshuffle" }

// OpName identifies the operation.
func (AllocLikeOp) OpName() string { return "alloc_like" }

// OpName identifies the operation.
func (BroadcastToOp) OpName() string { return "broadcast_to" }

// OpName identifies the operation.
func (BroadcastArraysOp) OpName() string { return "broadcast_arrays" }

// MakeVector stacks rank-0 tensors of a common element type into a
// vector.
func MakeVector(xs ...*graph.Variable) (*graph.Variable, error) {
	if len(xs) == 0 {
		return nil, errors.Errorf("make_vector: at least one input is required")
	}
	dt := TypeOf(xs[0]).DT
	for _, x := range xs {
		xt := TypeOf(x)
		if xt.Rank() != 0 {
			return nil, errors.Errorf("make_vector: input %s is not a scalar", xt)
		}
		if xt.DT != dt {
			return nil, errors.Errorf("make_vector: mismatched data types %s and %s", dt, xt.DT)
		}
	}
	return graph.NewApply(MakeVectorOp{}, xs, NewType(dt, len(xs))).Default(), nil
}

// Join concatenates tensors along an axis given as a variable.
// Axis lengths are only inferred when the axis is constant.
func Join(axis *graph.Variable, xs ...*graph.Variable) (*graph.Variable, error) {
	if len(xs) == 0 {
		return nil, errors.Errorf("join: at least one input is required")
	}
	ref := TypeOf(xs[0])
	for _, x := range xs[1:] {
		xt := TypeOf(x)
		if xt.DT != ref.DT {
			return nil, errors.Errorf("join: mismatched data types %s and %s", ref.DT, xt.DT)
		}
		if xt.Rank() != ref.Rank() {
			return nil, errors.Errorf("join: mismatched ranks %d and %d", ref.Rank(), xt.Rank())
		}
	}
	dims := make([]Dim, ref.Rank())
	for i := range dims {
		dims[i] = Dim{Size: UnknownSize}
	}
	if axis.IsConstant() {
		a, err := kernels.ScalarInt(axis.Data)
		if err != nil {
			return nil, err
		}
		if a < 0 || a >= int64(ref.Rank()) {
			return nil, errors.Errorf("join: axis %d out of bounds for rank %d", a, ref.Rank())
		}
		for d := range dims {
			if d == int(a) {
				continue
			}
			dims[d] = ref.Dims[d]
			for _, x := range xs[1:] {
				if TypeOf(x).Dims[d].Size != dims[d].Size {
					dims[d] = Dim{Size: UnknownSize}
				}
			}
		}
		total := 0
		for _, x := range xs {
			s := TypeOf(x).Dims[a].Size
			if s == UnknownSize {
				total = UnknownSize
				break
			}
			total += s
		}
		if total != UnknownSize {
			dims[a] = NewDim(total)
		}
	}
	out := &TensorType{DT: ref.DT, Dims: dims}
	return graph.NewApply(JoinOp{}, append([]*graph.Variable{axis}, xs...), out).Default(), nil
}

// ARange returns the integer range [start, stop) by step. The length
// of the result is only inferred when all the bounds are constant.
func ARange(start, stop, step *graph.Variable) (*graph.Variable, error) {
	size := UnknownSize
	if start.IsConstant() && stop.IsConstant() && step.IsConstant() {
		sv, err := kernels.ScalarInt(start.Data)
		if err != nil {
			return nil, err
		}
		ev, err := kernels.ScalarInt(stop.Data)
		if err != nil {
			return nil, err
		}
		tv, err := kernels.ScalarInt(step.Data)
		if err != nil {
			return nil, err
		}
		r, err := kernels.Arange(sv, ev, tv)
		if err != nil {
			return nil, err
		}
		size = kernels.Dims(r)[0]
	}
	out := NewType(dtype.Int64, size)
	return graph.NewApply(ARangeOp{}, []*graph.Variable{start, stop, step}, out).Default(), nil
}

// Cast converts a tensor to another element type.
func Cast(x *graph.Variable, dt dtype.DataType) *graph.Variable {
	xt := TypeOf(x)
	if xt.DT == dt {
		return x
	}
	return unary(CastOp{DT: dt}, x, dt)
}

// DimShuffle reorders the axes of a tensor.
func DimShuffle(x *graph.Variable, order []int) (*graph.Variable, error) {
	xt := TypeOf(x)
	seen := make([]bool, xt.Rank())
	dims := make([]Dim, len(order))
	for i, o := range order {
		if o < 0 {
			dims[i] = NewDim(1)
			continue
		}
		if o >= xt.Rank() {
			return nil, errors.Errorf("dimshuffle: axis %d out of bounds for %s", o, xt)
		}
		seen[o] = true
		dims[i] = xt.Dims[o]
	}
	for o, ok := range seen {
		if !ok && !xt.Dims[o].Broadcastable {
			return nil, errors.Errorf("dimshuffle: cannot drop non-broadcastable axis %d of %s", o, xt)
		}
	}
	op := DimShuffleOp{Order: append([]int{}, order...)}
	out := &TensorType{DT: xt.DT, Dims: dims}
	return graph.NewApply(op, []*graph.Variable{x}, out).Default(), nil
}

// ExpandDims inserts a broadcastable axis at the given position.
func ExpandDims(x *graph.Variable, axis int) (*graph.Variable, error) {
	rank := TypeOf(x).Rank()
	if axis < 0 || axis > rank {
		return nil, errors.Errorf("expand_dims: axis %d out of bounds for rank %d", axis, rank)
	}
	order := make([]int, 0, rank+1)
	for d := 0; d < rank+1; d++ {
		switch {
		case d == axis:
			order = append(order, -1)
		case d < axis:
			order = append(order, d)
		default:
			order = append(order, d-1)
		}
	}
	return DimShuffle(x, order)
}

// Squeeze drops a broadcastable axis.
func Squeeze(x *graph.Variable, axis int) (*graph.Variable, error) {
	rank := TypeOf(x).Rank()
	if axis < 0 || axis >= rank {
		return nil, errors.Errorf("squeeze: axis %d out of bounds for rank %d", axis, rank)
	}
	order := make([]int, 0, rank-1)
	for d := 0; d < rank; d++ {
		if d != axis {
			order = append(order, d)
		}
	}
	return DimShuffle(x, order)
}

// ZerosLike allocates a zero-filled tensor shaped like x with the given
// element type.
func ZerosLike(x *graph.Variable, dt dtype.DataType) *graph.Variable {
	return unary(AllocLikeOp{DT: dt}, x, dt)
}

// BroadcastTo broadcasts a tensor to the given axis lengths.
func BroadcastTo(x *graph.Variable, dims []int) (*graph.Variable, error) {
	xt := TypeOf(x)
	if len(dims) < xt.Rank() {
		return nil, errors.Errorf("broadcast_to: cannot broadcast %s to rank %d", xt, len(dims))
	}
	pad := len(dims) - xt.Rank()
	for i, d := range xt.Dims {
		if d.Size != UnknownSize && d.Size != 1 && d.Size != dims[pad+i] {
			return nil, errors.Errorf("broadcast_to: cannot broadcast %s to %v", xt, dims)
		}
	}
	op := BroadcastToOp{Dims: append([]int{}, dims...)}
	return graph.NewApply(op, []*graph.Variable{x}, NewType(xt.DT, dims...)).Default(), nil
}

// BroadcastArrays broadcasts the tensors to their common shape.
func BroadcastArrays(xs ...*graph.Variable) ([]*graph.Variable, error) {
	if len(xs) == 0 {
		return nil, nil
	}
	types := make([]*TensorType, len(xs))
	for i, x := range xs {
		types[i] = TypeOf(x)
	}
	outTypes := make([]graph.Type, len(xs))
	for i, t := range types {
		out, err := BroadcastTypes(t.DT, types...)
		if err != nil {
			return nil, err
		}
		outTypes[i] = out
	}
	return graph.NewApply(BroadcastArraysOp{}, xs, outTypes...).Outputs, nil
}

// Eval computes the operation on host arrays.
func (MakeVectorOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Stack(inputs))
}

// Eval computes the operation on host arrays.
func (JoinOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	axis, err := kernels.ScalarInt(inputs[0])
	if err != nil {
		return nil, err
	}
	return one(kernels.Concat(int(axis), inputs[1:]))
}

// Eval computes the operation on host arrays.
func (ARangeOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	start, err := kernels.ScalarInt(inputs[0])
	if err != nil {
		return nil, err
	}
	stop, err := kernels.ScalarInt(inputs[1])
	if err != nil {
		return nil, err
	}
	step, err := kernels.ScalarInt(inputs[2])
	if err != nil {
		return nil, err
	}
	return one(kernels.Arange(start, stop, step))
}

// Eval computes the operation on host arrays.
func (op CastOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Cast(inputs[0], op.DT))
}

// Eval computes the operation on host arrays.
func (op DimShuffleOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.DimShuffle(inputs[0], op.Order))
}

// Eval computes the operation on host arrays.
func (op AllocLikeOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.Zeros(kernels.Dims(inputs[0]), op.DT))
}

// Eval computes the operation on host arrays.
func (op BroadcastToOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.BroadcastTo(inputs[0], op.Dims))
}

// Eval computes the operation on host arrays.
func (BroadcastArraysOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return kernels.BroadcastArrays(inputs...)
}
