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
	"github.com/Armavica/pymc/graph"
	"github.com/Armavica/pymc/tensor"
)

var (
	// EarlyMeasurableIRRewrites holds the rules that restructure graphs
	// before measurable patterns are matched, such as splitting valued
	// multi-output conditionals.
	EarlyMeasurableIRRewrites = graph.NewDB("early_measurable_ir_rewrites")

	// MeasurableIRRewrites holds the rules that replace recognizable
	// patterns with measurable operations.
	MeasurableIRRewrites = graph.NewDB("measurable_ir_rewrites")
)

func tracksSubtensors(op graph.Op) bool {
	switch op.(type) {
	case tensor.SubtensorOp, tensor.AdvancedSubtensorOp:
		return true
	}
	return false
}

func tracksSwitch(op graph.Op) bool {
	_, ok := op.(tensor.SwitchOp)
	return ok
}

func tracksIfElse(op graph.Op) bool {
	_, ok := op.(tensor.IfElseOp)
	return ok
}

func init() {
	EarlyMeasurableIRRewrites.Register(
		graph.Rule{Name: "split_valued_ifelse", Tracks: tracksIfElse, Rewrite: SplitValuedIfElse},
	)
	MeasurableIRRewrites.Register(
		graph.Rule{Name: "find_measurable_index_mixture", Tracks: tracksSubtensors, Rewrite: FindMeasurableIndexMixture},
		graph.Rule{Name: "find_measurable_switch_mixture", Tracks: tracksSwitch, Rewrite: FindMeasurableSwitch},
		graph.Rule{Name: "find_measurable_ifelse_mixture", Tracks: tracksIfElse, Rewrite: FindMeasurableIfElse},
	)
}

// measurableRewriteMaxUseRatio bounds the measurable-pattern rewriter.
const measurableRewriteMaxUseRatio = 100

// RewriteForLogProb runs the early restructuring rules and then the
// measurable-pattern rules on the graph, to bounded fixed points. It
// returns the total number of rewrites applied; zero means the graph
// was already in measurable form (the rules are idempotent).
func RewriteForLogProb(g *graph.Graph) (int, error) {
	early := graph.NewEquilibriumRewriter(EarlyMeasurableIRRewrites.Rules(), measurableRewriteMaxUseRatio)
	n, err := early.Rewrite(g)
	if err != nil {
		return n, err
	}
	main := graph.NewEquilibriumRewriter(MeasurableIRRewrites.Rules(), measurableRewriteMaxUseRatio)
	m, err := main.Rewrite(g)
	return n + m, err
}
