/*
 * Copyright 2020 grant@lastweekend.com.au
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package doubles

import (
	"fmt"
	"strconv"
	"sync/atomic"
)

// An OrderingConstraint gates whether an Expectation may be invoked now.
//
// The constraints built by this package are sequence positions (see Sequence) and
// state predicates (see Expectation.When).
type OrderingConstraint interface {
	// AllowsInvocationNow must not change any state
	AllowsInvocationNow() bool

	// MarkSatisfied is called after each invocation of the constrained Expectation
	MarkSatisfied()

	String() string
}

/*
A Sequence is an ordered list of Expectations that must be invoked in the order they were added.

An expectation in a sequence can only be invoked once every expectation added before it is satisfied.
A Sequence is shared by pointer between all its expectations, which may belong to different mocks.
*/
type Sequence struct {
	name         string
	expectations []*Expectation
	// cursor is the index of the first expectation not yet known to be satisfied
	cursor int
}

// NewSequence returns an empty, named Sequence
func NewSequence(name string) *Sequence {
	return &Sequence{name: name}
}

// Name of the sequence
func (s *Sequence) Name() string {
	return s.name
}

// ConstrainAsNextInSequence appends e to the sequence and adds the matching ordering constraint to e
func (s *Sequence) ConstrainAsNextInSequence(e *Expectation) {
	index := len(s.expectations)
	s.expectations = append(s.expectations, e)
	e.AddOrderingConstraint(&sequencePosition{sequence: s, index: index})
}

// SatisfiedToIndex is true if every expectation before index is satisfied.
//
// Entries behind the cursor are checked too, as an extra invocation can leave one unsatisfied.
func (s *Sequence) SatisfiedToIndex(index int) bool {
	for i := 0; i < index; i++ {
		if !s.expectations[i].Satisfied() {
			return false
		}
	}
	return true
}

// advance moves the cursor past satisfied expectations
func (s *Sequence) advance() {
	for s.cursor < len(s.expectations) && s.expectations[s.cursor].Satisfied() {
		s.cursor++
	}
}

// Head is the next expectation to be satisfied, or nil if the sequence is complete
func (s *Sequence) Head() *Expectation {
	if s.cursor < len(s.expectations) {
		return s.expectations[s.cursor]
	}
	return nil
}

func (s *Sequence) String() string {
	return "sequence " + strconv.Quote(s.name)
}

type sequencePosition struct {
	sequence *Sequence
	index    int
}

func (p *sequencePosition) AllowsInvocationNow() bool {
	return p.sequence.SatisfiedToIndex(p.index)
}

func (p *sequencePosition) MarkSatisfied() {
	p.sequence.advance()
}

func (p *sequencePosition) String() string {
	return "in " + p.sequence.String()
}

type stateConstraint struct {
	predicate StatePredicate
}

func (c stateConstraint) AllowsInvocationNow() bool {
	return c.predicate.Active()
}

func (c stateConstraint) MarkSatisfied() {}

func (c stateConstraint) String() string {
	return fmt.Sprintf("when %v", c.predicate)
}

var sequenceCount uint64 //atomic, names anonymous sequences

// ExpectInOrder is shorthand to constrain expectations to be invoked in the given order
func ExpectInOrder(expectations ...*Expectation) *Sequence {
	seq := NewSequence(fmt.Sprintf("in order %d", atomic.AddUint64(&sequenceCount, 1)))
	for _, e := range expectations {
		seq.ConstrainAsNextInSequence(e)
	}
	return seq
}
