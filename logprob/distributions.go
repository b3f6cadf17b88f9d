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

package logprob

import (
	"math"

	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/tensor"
	"github.com/Armavica/pymc/tensor/random"
)

func init() {
	RegisterDensity(random.NormalOp{}, normalDensity)
	RegisterDensity(random.DiracDeltaOp{}, diracDeltaDensity)
}

// normalDensity builds -(v-loc)²/(2·scale²) - log(scale) - log(2π)/2.
func normalDensity(a *graph.Apply, value *graph.Variable) (*graph.Variable, error) {
	loc, scale := a.Inputs[1], a.Inputs[2]
	centered, err := tensor.Sub(value, loc)
	if err != nil {
		return nil, err
	}
	z, err := tensor.Div(centered, scale)
	if err != nil {
		return nil, err
	}
	z2, err := tensor.Mul(z, z)
	if err != nil {
		return nil, err
	}
	quad, err := tensor.Mul(tensor.ConstFloat(-0.5), z2)
	if err != nil {
		return nil, err
	}
	lp, err := tensor.Sub(quad, tensor.Log(scale))
	if err != nil {
		return nil, err
	}
	return tensor.Sub(lp, tensor.ConstFloat(0.5*math.Log(2*math.Pi)))
}

// diracDeltaDensity is zero on the point of support and -inf elsewhere.
func diracDeltaDensity(a *graph.Apply, value *graph.Variable) (*graph.Variable, error) {
	point := a.Inputs[1]
	onPoint, err := tensor.Eq(value, point)
	if err != nil {
		return nil, err
	}
	return tensor.Switch(onPoint, tensor.ConstFloat(0), tensor.ConstFloat(math.Inf(-1)))
}
