// Copyright 2025 Emiliano Spinella (eminwux)
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
//
// SPDX-License-Identifier: Apache-2.0

package modelhub

import (
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
)

// ProcessSet holds the pids attributed to one container during a run.
type ProcessSet struct {
	pids mapset.Set[int32]
}

func NewProcessSet(pids ...int32) ProcessSet {
	return ProcessSet{pids: mapset.NewThreadUnsafeSet(pids...)}
}

func (s *ProcessSet) Add(pids ...int32) {
	if s.pids == nil {
		s.pids = mapset.NewThreadUnsafeSet[int32]()
	}
	for _, pid := range pids {
		if pid > 0 {
			s.pids.Add(pid)
		}
	}
}

func (s *ProcessSet) Remove(pid int32) {
	if s.pids != nil {
		s.pids.Remove(pid)
	}
}

func (s *ProcessSet) Contains(pid int32) bool {
	return s.pids != nil && s.pids.Contains(pid)
}

func (s *ProcessSet) Len() int {
	if s.pids == nil {
		return 0
	}
	return s.pids.Cardinality()
}

// Union returns a new set; neither operand is modified.
func (s *ProcessSet) Union(other ProcessSet) ProcessSet {
	out := NewProcessSet()
	if s.pids != nil {
		out.pids = out.pids.Union(s.pids)
	}
	if other.pids != nil {
		out.pids = out.pids.Union(other.pids)
	}
	return out
}

// Sorted returns the pids in ascending order.
func (s *ProcessSet) Sorted() []int32 {
	if s.pids == nil {
		return nil
	}
	pids := s.pids.ToSlice()
	slices.Sort(pids)
	return pids
}
