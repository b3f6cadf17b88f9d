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

package ordered_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/Armavica/pymc/base/ordered"
)

func TestMapKeepsInsertionOrder(t *testing.T) {
	m := ordered.NewMap[string, int]()
	m.Store("c", 3)
	m.Store("a", 1)
	m.Store("b", 2)
	m.Store("a", 10)

	var keys []string
	var values []int
	for k, v := range m.Iter() {
		keys = append(keys, k)
		values = append(values, v)
	}
	if !cmp.Equal(keys, []string{"c", "a", "b"}) {
		t.Errorf("incorrect key order: got %v", keys)
	}
	if !cmp.Equal(values, []int{3, 10, 2}) {
		t.Errorf("incorrect values: got %v", values)
	}
	if m.Size() != 3 {
		t.Errorf("incorrect size: got %d but want 3", m.Size())
	}
	if v, ok := m.Load("a"); !ok || v != 10 {
		t.Errorf("Load(a) = %d,%v but want 10,true", v, ok)
	}
	if m.Has("d") {
		t.Error("Has(d) = true but d was never stored")
	}
}
