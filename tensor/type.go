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
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/gx-org/backend/dtype"
	"github.com/Armavica/pymc/graph"
)

const (
	// UnknownSize marks an axis whose length is not statically known.
	UnknownSize = -1
)

type (
	// Dim describes one axis of a tensor type: its length when known
	// statically, and whether the axis broadcasts against longer axes.
	Dim struct {
		Size          int
		Broadcastable bool
	}

	// TensorType is the static type of a tensor variable: an element
	// data type and a shape descriptor per axis.
	TensorType struct {
		DT   dtype.DataType
		Dims []Dim
	}

	// NoneType is the type of the none constant, used where an optional
	// input (such as a join axis) is absent.
	NoneType struct{}
)

var (
	_ graph.Type = (*TensorType)(nil)
	_ graph.Type = NoneType{}
)

// NewDim returns the descriptor of an axis of the given length.
// An axis is broadcastable exactly when it is known to have length one.
func NewDim(size int) Dim {
	return Dim{Size: size, Broadcastable: size == 1}
}

// NewType returns a tensor type given an element type and axis lengths,
// where UnknownSize marks axes without a static length.
func NewType(dt dtype.DataType, sizes ...int) *TensorType {
	dims := make([]Dim, len(sizes))
	for i, s := range sizes {
		dims[i] = NewDim(s)
	}
	return &TensorType{DT: dt, Dims: dims}
}

// ScalarType returns the type of a rank-0 tensor.
func ScalarType(dt dtype.DataType) *TensorType {
	return NewType(dt)
}

// Rank of the tensor type.
func (t *TensorType) Rank() int {
	return len(t.Dims)
}

// BroadcastPattern returns the per-axis broadcast flags.
func (t *TensorType) BroadcastPattern() []bool {
	pattern := make([]bool, len(t.Dims))
	for i, d := range t.Dims {
		pattern[i] = d.Broadcastable
	}
	return pattern
}

// StaticDims returns the axis lengths when they are all known.
func (t *TensorType) StaticDims() ([]int, bool) {
	dims := make([]int, len(t.Dims))
	for i, d := range t.Dims {
		if d.Size == UnknownSize {
			return nil, false
		}
		dims[i] = d.Size
	}
	return dims, true
}

// SamePattern returns true if the other type has the same rank and
// per-axis broadcast flags.
func (t *TensorType) SamePattern(o *TensorType) bool {
	if len(t.Dims) != len(o.Dims) {
		return false
	}
	for i, d := range t.Dims {
		if d.Broadcastable != o.Dims[i].Broadcastable {
			return false
		}
	}
	return true
}

// String representation of the type.
func (t *TensorType) String() string {
	axes := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		if d.Size == UnknownSize {
			axes[i] = "?"
		} else {
			axes[i] = fmt.Sprint(d.Size)
		}
	}
	return fmt.Sprintf("%s[%s]", t.DT, strings.Join(axes, ","))
}

// String representation of the type.
func (NoneType) String() string {
	return "none"
}

// TypeOf returns the tensor type of a variable.
// It panics if the variable is not a tensor: callers are expected to
// have checked for none inputs beforehand.
func TypeOf(v *graph.Variable) *TensorType {
	t, ok := v.Type.(*TensorType)
	if !ok {
		panic(fmt.Sprintf("variable %s has type %s: not a tensor", v, v.Type))
	}
	return t
}

// IsNone returns true if the variable is the none constant.
func IsNone(v *graph.Variable) bool {
	_, ok := v.Type.(NoneType)
	return ok
}

// None is the absent-input constant.
var None = graph.NewVariable(NoneType{}, "none")

func broadcastDim(x, y Dim) (Dim, error) {
	switch {
	case x.Broadcastable:
		return y, nil
	case y.Broadcastable:
		return x, nil
	case x.Size == UnknownSize || y.Size == UnknownSize:
		return Dim{Size: UnknownSize}, nil
	case x.Size == y.Size:
		return x, nil
	}
	return Dim{}, errors.Errorf("cannot broadcast axes of lengths %d and %d", x.Size, y.Size)
}

// BroadcastTypes returns the type resulting from broadcasting tensors
// of the given types together, with the given element type.
func BroadcastTypes(dt dtype.DataType, ts ...*TensorType) (*TensorType, error) {
	rank := 0
	for _, t := range ts {
		rank = max(rank, t.Rank())
	}
	dims := make([]Dim, rank)
	for i := range dims {
		dims[i] = NewDim(1)
	}
	for _, t := range ts {
		pad := rank - t.Rank()
		for i, d := range t.Dims {
			bd, err := broadcastDim(dims[pad+i], d)
			if err != nil {
				return nil, err
			}
			dims[pad+i] = bd
		}
	}
	return &TensorType{DT: dt, Dims: dims}, nil
}
