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
	// Index is one entry of a symbolic indexing tuple.
	Index interface {
		index()
	}

	// Slice selects a range along one axis. Nil bounds take their
	// defaults; negative bounds count from the end of the axis.
	// Symbolic bounds are not represented: callers must resolve them
	// to literals before indexing.
	Slice struct {
		Start, Stop, Step *int64
	}

	// NewAxis inserts a broadcastable axis.
	NewAxis struct{}

	// IndexVar indexes with the value of a variable: a rank-0 integer
	// for basic indexing, or an integer/boolean array for advanced
	// indexing. Boolean arrays index by their 0/1 integer values.
	IndexVar struct {
		Var *graph.Variable
	}
)

func (Slice) index()    {}
func (NewAxis) index()  {}
func (IndexVar) index() {}

// Idx wraps a variable into an index entry.
func Idx(v *graph.Variable) IndexVar {
	return IndexVar{Var: v}
}

// At returns the index entry selecting a single literal position.
func At(i int64) IndexVar {
	return Idx(ConstInt(i))
}

// Span returns the full slice.
func Span() Slice {
	return Slice{}
}

// IsBasicIndex returns true for the index entries of basic indexing:
// slices, new axes and rank-0 integers.
func IsBasicIndex(idx Index) bool {
	switch it := idx.(type) {
	case Slice, NewAxis:
		return true
	case IndexVar:
		return TypeOf(it.Var).Rank() == 0 && TypeOf(it.Var).DT == dtype.Int64
	}
	return false
}

// ItemKind discriminates the entries of an indexing tuple as encoded
// on a subtensor operation.
type ItemKind int

const (
	// ItemSlice is a literal slice.
	ItemSlice ItemKind = iota
	// ItemNewAxis inserts a broadcastable axis.
	ItemNewAxis
	// ItemVar is an index given by the next unconsumed input variable.
	ItemVar
)

// IndexItem encodes one entry of an indexing tuple without its
// symbolic inputs: variables are referred to positionally.
type IndexItem struct {
	Kind  ItemKind
	Slice Slice
}

type (
	// SubtensorOp is basic indexing: slices, new axes and scalar
	// integer positions. Inputs: [x, scalar index variables...].
	SubtensorOp struct {
		Items []IndexItem
	}

	// AdvancedSubtensorOp is general indexing with at least one
	// array-valued index. Inputs: [x, index variables...].
	AdvancedSubtensorOp struct {
		Items []IndexItem
	}

	// AdvancedSetSubtensorOp writes y into x at the positions selected
	// by integer index arrays over the leading axes of x.
	// Inputs: [x, y, index variables...].
	AdvancedSetSubtensorOp struct{}

	// NonzeroOp returns the coordinates of the true elements of a
	// boolean tensor, one integer vector per axis.
	NonzeroOp struct{}
)

var (
	_ Evaluable = SubtensorOp{}
	_ Evaluable = AdvancedSubtensorOp{}
	_ Evaluable = AdvancedSetSubtensorOp{}
	_ Evaluable = NonzeroOp{}
)

// OpName identifies the operation.
func (SubtensorOp) OpName() string { return "subtensor" }

// OpName identifies the operation.
func (AdvancedSubtensorOp) OpName() string { return "advanced_subtensor" }

// OpName identifies the operation.
func (AdvancedSetSubtensorOp) OpName() string { return "advanced_set_subtensor" }

// OpName identifies the operation.
func (NonzeroOp) OpName() string { return "nonzero" }

// IndexableOp is implemented by the indexing operations the mixture
// matcher triggers on.
type IndexableOp interface {
	graph.Op

	// Indices rebuilds the indexing tuple from the index inputs of the
	// node (every input but the indexed tensor).
	Indices(idxInputs []*graph.Variable) []Index
}

// ItemsToIndices rebuilds an indexing tuple from its encoded items and
// the index variables consumed in order by the variable items.
func ItemsToIndices(items []IndexItem, idxInputs []*graph.Variable) []Index {
	indices := make([]Index, len(items))
	next := 0
	for i, item := range items {
		switch item.Kind {
		case ItemSlice:
			indices[i] = item.Slice
		case ItemNewAxis:
			indices[i] = NewAxis{}
		case ItemVar:
			indices[i] = Idx(idxInputs[next])
			next++
		}
	}
	return indices
}

// Indices rebuilds the indexing tuple of the node.
func (op SubtensorOp) Indices(idxInputs []*graph.Variable) []Index {
	return ItemsToIndices(op.Items, idxInputs)
}

// Indices rebuilds the indexing tuple of the node.
func (op AdvancedSubtensorOp) Indices(idxInputs []*graph.Variable) []Index {
	return ItemsToIndices(op.Items, idxInputs)
}

func sliceLength(s Slice, dim Dim) int {
	if dim.Size == UnknownSize {
		return UnknownSize
	}
	start, stop, step, err := kernels.CanonicalSlice(s.Start, s.Stop, s.Step, int64(dim.Size))
	if err != nil {
		return UnknownSize
	}
	length := int64(0)
	if step > 0 && stop > start {
		length = (stop - start + step - 1) / step
	} else if step < 0 && stop < start {
		length = (start - stop - step - 1) / -step
	}
	return int(length)
}

// indexOutType infers the type of an indexing expression following
// NumPy advanced-indexing semantics: the subspace spanned by the
// array-valued indices is moved to the front of the result when the
// advanced indices are not contiguous in the indexing tuple.
func indexOutType(xt *TensorType, indices []Index) (*TensorType, error) {
	consumed := 0
	for _, idx := range indices {
		if _, ok := idx.(NewAxis); !ok {
			consumed++
		}
	}
	if consumed > xt.Rank() {
		return nil, errors.Errorf("too many indices (%d) for %s", consumed, xt)
	}
	full := append([]Index{}, indices...)
	for d := consumed; d < xt.Rank(); d++ {
		full = append(full, Span())
	}

	// Subspace spanned by the advanced indices.
	advTypes := []*TensorType{}
	firstAdv, lastAdv := -1, -1
	for i, idx := range full {
		iv, ok := idx.(IndexVar)
		if !ok {
			continue
		}
		it := TypeOf(iv.Var)
		if it.DT != dtype.Int64 && it.DT != dtype.Bool {
			return nil, errors.Errorf("index of %s is not an integer or boolean tensor", it)
		}
		advTypes = append(advTypes, it)
		if firstAdv < 0 {
			firstAdv = i
		}
		lastAdv = i
	}
	var subspace []Dim
	if len(advTypes) > 0 {
		sub, err := BroadcastTypes(dtype.Int64, advTypes...)
		if err != nil {
			return nil, err
		}
		subspace = sub.Dims
	}
	moved := firstAdv >= 0 && lastAdv-firstAdv+1 != len(advTypes)

	// Axes produced by the basic indices, in tuple order.
	var basicDims []Dim
	subspaceAt := -1
	axis := 0
	for i, idx := range full {
		switch it := idx.(type) {
		case NewAxis:
			basicDims = append(basicDims, NewDim(1))
		case Slice:
			basicDims = append(basicDims, NewDim(sliceLength(it, xt.Dims[axis])))
			axis++
		case IndexVar:
			if i == firstAdv && !moved {
				subspaceAt = len(basicDims)
			}
			axis++
		}
	}

	var dims []Dim
	if len(advTypes) == 0 || moved {
		dims = append(append(dims, subspace...), basicDims...)
	} else {
		dims = append(dims, basicDims[:subspaceAt]...)
		dims = append(dims, subspace...)
		dims = append(dims, basicDims[subspaceAt:]...)
	}
	return &TensorType{DT: xt.DT, Dims: dims}, nil
}

func splitItems(indices []Index) (items []IndexItem, vars []*graph.Variable) {
	for _, idx := range indices {
		switch it := idx.(type) {
		case Slice:
			items = append(items, IndexItem{Kind: ItemSlice, Slice: it})
		case NewAxis:
			items = append(items, IndexItem{Kind: ItemNewAxis})
		case IndexVar:
			items = append(items, IndexItem{Kind: ItemVar})
			vars = append(vars, it.Var)
		}
	}
	return items, vars
}

// IndexOf indexes a tensor with a tuple of indices. Basic tuples
// (slices, new axes, rank-0 integers) build a subtensor node;
// tuples with array-valued indices build an advanced subtensor node.
func IndexOf(x *graph.Variable, indices ...Index) (*graph.Variable, error) {
	out, err := indexOutType(TypeOf(x), indices)
	if err != nil {
		return nil, err
	}
	items, vars := splitItems(indices)
	basic := true
	for _, idx := range indices {
		if !IsBasicIndex(idx) {
			basic = false
		}
	}
	inputs := append([]*graph.Variable{x}, vars...)
	var op graph.Op
	if basic {
		op = SubtensorOp{Items: items}
	} else {
		op = AdvancedSubtensorOp{Items: items}
	}
	return graph.NewApply(op, inputs, out).Default(), nil
}

// SetIndex writes y into x at the positions selected by the integer
// index arrays over the leading axes of x.
func SetIndex(x, y *graph.Variable, idxs ...*graph.Variable) (*graph.Variable, error) {
	xt, yt := TypeOf(x), TypeOf(y)
	if xt.DT != yt.DT {
		return nil, errors.Errorf("set_subtensor: mismatched data types %s and %s", xt.DT, yt.DT)
	}
	if len(idxs) == 0 {
		return nil, errors.Errorf("set_subtensor: at least one index is required")
	}
	inputs := append([]*graph.Variable{x, y}, idxs...)
	out := &TensorType{DT: xt.DT, Dims: append([]Dim{}, xt.Dims...)}
	return graph.NewApply(AdvancedSetSubtensorOp{}, inputs, out).Default(), nil
}

// Nonzero returns the coordinates of the true elements of a boolean
// tensor, one integer vector per axis. The lengths of the returned
// vectors are only known at run time.
func Nonzero(x *graph.Variable) ([]*graph.Variable, error) {
	xt := TypeOf(x)
	if xt.DT != dtype.Bool {
		return nil, errors.Errorf("nonzero: input has data type %s: want %s", xt.DT, dtype.Bool)
	}
	outTypes := make([]graph.Type, xt.Rank())
	for i := range outTypes {
		outTypes[i] = NewType(dtype.Int64, UnknownSize)
	}
	return graph.NewApply(NonzeroOp{}, []*graph.Variable{x}, outTypes...).Outputs, nil
}

// Eval computes the operation on host arrays.
func (op SubtensorOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	var items []kernels.BasicIdx
	next := 1
	for _, item := range op.Items {
		switch item.Kind {
		case ItemSlice:
			items = append(items, kernels.IdxSlice{Start: item.Slice.Start, Stop: item.Slice.Stop, Step: item.Slice.Step})
		case ItemNewAxis:
			items = append(items, kernels.IdxNewAxis{})
		case ItemVar:
			at, err := kernels.ScalarInt(inputs[next])
			if err != nil {
				return nil, err
			}
			next++
			items = append(items, kernels.IdxScalar{At: at})
		}
	}
	return one(kernels.BasicIndex(inputs[0], items))
}

// Eval computes the operation on host arrays. Only tuples made of
// array indices over the leading axes are supported at run time.
func (op AdvancedSubtensorOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	for _, item := range op.Items {
		if item.Kind != ItemVar {
			return nil, errors.Errorf("advanced indexing mixed with %v indices has no runtime support", item.Kind)
		}
	}
	return one(kernels.AdvIndex(inputs[0], inputs[1:]))
}

// Eval computes the operation on host arrays.
func (AdvancedSetSubtensorOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return one(kernels.AdvSet(inputs[0], inputs[1], inputs[2:]))
}

// Eval computes the operation on host arrays.
func (NonzeroOp) Eval(inputs []kernels.Array) ([]kernels.Array, error) {
	return kernels.Nonzero(inputs[0])
}
