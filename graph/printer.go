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
	"strings"

	basefmt "github.com/Armavica/pymc/base/fmt"
	"github.com/Armavica/pymc/base/stringseq"
	"github.com/Armavica/pymc/base/uname"
)

// printer assigns display names to the variables of a graph while
// rendering its nodes. Anonymous variables receive sequential names.
type printer struct {
	namer *uname.Unique
	names map[*Variable]string
}

func newPrinter() *printer {
	return &printer{namer: uname.New(), names: map[*Variable]string{}}
}

func (p *printer) nameOf(v *Variable) string {
	if s, ok := p.names[v]; ok {
		return s
	}
	var s string
	switch {
	case v.Name != "":
		s = p.namer.Name(v.Name)
	case v.IsConstant():
		s = v.Data.String()
	default:
		s = p.namer.Name("t")
	}
	p.names[v] = s
	return s
}

func (p *printer) seq(vs []*Variable) func(func(string) bool) {
	return func(yield func(string) bool) {
		for _, v := range vs {
			if !yield(p.nameOf(v)) {
				return
			}
		}
	}
}

// String renders the graph one node per line, in topological order.
func (g *Graph) String() string {
	p := newPrinter()
	var body strings.Builder
	for _, ap := range g.Toposort() {
		stringseq.Append(&body, p.seq(ap.Outputs), ", ")
		body.WriteString(" = ")
		body.WriteString(ap.Op.OpName())
		body.WriteString("(")
		stringseq.Append(&body, p.seq(ap.Inputs), ", ")
		body.WriteString(")\n")
	}
	var b strings.Builder
	b.WriteString("graph(")
	stringseq.Append(&b, p.seq(g.Outputs()), ", ")
	b.WriteString(")\n")
	b.WriteString(basefmt.Indent(body.String()))
	return b.String()
}
