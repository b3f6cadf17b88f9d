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

package graph

import (
	"go.uber.org/multierr"
)

type (
	// RewriteFunc proposes replacements for one node. Returning a nil
	// (or empty) map means the rule does not apply: this is the normal
	// control path, not an error. A rule must be a pure function of the
	// node it inspects so the engine may call it in any order, any
	// number of times.
	RewriteFunc func(*Graph, *Apply) (Replacements, error)

	// Rule is a named node rewrite, triggered on the operations
	// selected by Tracks (all operations when Tracks is nil).
	Rule struct {
		Name    string
		Tracks  func(Op) bool
		Rewrite RewriteFunc
	}

	// DB is an ordered registry of rewrite rules. Registration happens
	// at process start-up; afterwards the database is only read.
	DB struct {
		name  string
		rules []Rule
	}
)

// NewDB returns a named, empty rule database.
func NewDB(name string) *DB {
	return &DB{name: name}
}

// Name of the database.
func (db *DB) Name() string {
	return db.name
}

// Register appends rules to the database.
func (db *DB) Register(rules ...Rule) {
	db.rules = append(db.rules, rules...)
}

// Rules returns the registered rules in registration order.
func (db *DB) Rules() []Rule {
	return db.rules
}

// EquilibriumRewriter applies a set of rules until none of them matches
// anywhere in the graph, or until the number of rewrites reaches
// maxUseRatio times the initial node count. The cap is the only
// safeguard against rules feeding each other forever: when it is hit,
// rewriting stops with the graph in its current (valid) state.
type EquilibriumRewriter struct {
	rules       []Rule
	maxUseRatio int
}

// NewEquilibriumRewriter returns a rewriter over the given rules.
func NewEquilibriumRewriter(rules []Rule, maxUseRatio int) *EquilibriumRewriter {
	return &EquilibriumRewriter{rules: rules, maxUseRatio: maxUseRatio}
}

// Rewrite runs the rules on the graph to a bounded fixed point.
// It returns the number of rewrites applied. Rule errors are collected
// and do not stop the other rules from running.
func (r *EquilibriumRewriter) Rewrite(g *Graph) (int, error) {
	budget := r.maxUseRatio * len(g.Toposort())
	applied := 0
	var errs error
	for applied < budget {
		changed := false
	scan:
		for _, ap := range g.Toposort() {
			for _, rule := range r.rules {
				if rule.Tracks != nil && !rule.Tracks(ap.Op) {
					continue
				}
				repl, err := rule.Rewrite(g, ap)
				if err != nil {
					errs = multierr.Append(errs, err)
					continue
				}
				if repl == nil || repl.Size() == 0 {
					continue
				}
				g.Replace(repl)
				applied++
				changed = true
				break scan
			}
		}
		if !changed {
			break
		}
	}
	return applied, errs
}
