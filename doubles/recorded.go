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
	"sort"
	"strings"
	"sync/atomic"
)

var tick uint64 //global atomic counter to assist with verifying order of execution

// RecordedCalls represents a set of recorded invocations to be verified
type RecordedCalls interface {
	/*
		Matching returns the subset of calls whose parameters match

		The matchers are interpreted as for Expectation.With
	*/
	Matching(matchers ...interface{}) RecordedCalls

	/*
		Slice returns a subset of these calls, including call at index from, excluding call at index to (like go slice))

		If necessary use NumCalls() to reference calls from the end of the slice.
		eg to get the last 3 calls - r.Slice(r.NumCalls() -3, r.NumCalls())
	*/
	Slice(from int, to int) RecordedCalls

	// After returns the subset of these calls that were invoked after all of otherCalls
	After(otherCalls RecordedCalls) RecordedCalls

	// Expect asserts the number of calls in this set
	Expect(expect Cardinality)

	// NumCalls returns the number of calls in this set.
	// Prefer to use Expect() rather than asserting the result of NumCalls()
	NumCalls() int

	// Invocations returns the calls in this set, in the order they were made
	Invocations() []*Invocation

	calls() []*recordedCall
	nested() []string
}

type recordedCall struct {
	tick uint64 //Record the order of all calls relative to each other.
	inv  *Invocation
}

func newRecordedCall(inv *Invocation) *recordedCall {
	return &recordedCall{inv: inv, tick: atomic.AddUint64(&tick, 1)}
}

type recordedCalls struct {
	mock     *Mock
	recorded []*recordedCall
	subsets  []string
}

func (c *recordedCalls) calls() []*recordedCall {
	return c.recorded
}

func (c *recordedCalls) nested() []string {
	return c.subsets
}

func (c *recordedCalls) String() string {
	//calls after
	//  >>
	//    calls matching (x) within
	//      all calls to <<Other method>>
	//  <<
	//  within
	//    all calls to <<this method>>
	var rewinds = make([]int, 0)
	depth := 0
	sb := strings.Builder{}
	for i := 0; i < len(c.subsets); i++ {
		if c.subsets[i] == ">>" {
			rewinds = append([]int{depth}, rewinds...)
		} else if c.subsets[i] == "<<" {
			depth = rewinds[0]
			rewinds = rewinds[1:]
		} else {
			if i > 0 {
				sb.WriteRune('\n')
			}
			for d := 0; d < depth; d++ {
				sb.WriteString("  ")
			}
			sb.WriteString(c.subsets[i])
			depth++
		}
	}
	return sb.String()
}

func (c *recordedCalls) Expect(expect Cardinality) {
	t := c.mock.t
	t.Helper()
	count := c.NumCalls()
	if !expect.Satisfied(count) {
		t.Errorf("%v expected %v, %s", c, expect, Invoked(count))
	}
}

func (c *recordedCalls) Matching(matchers ...interface{}) RecordedCalls {
	c.mock.t.Helper()
	matcher, err := NewParametersMatcher(matchers...)
	if err != nil {
		c.mock.t.Fatalf("Invalid matcher for %v: %v", c, err)
		return c
	}

	var subsetCalls []*recordedCall
	for _, call := range c.recorded {
		if matcher.Matches(call.inv.Parameters) {
			subsetCalls = append(subsetCalls, call)
		}
	}
	return c.newSubset(subsetCalls, fmt.Sprintf("calls matching %s within", matcher))
}

func (c *recordedCalls) NumCalls() int {
	return len(c.recorded)
}

func (c *recordedCalls) Invocations() []*Invocation {
	invocations := make([]*Invocation, len(c.recorded))
	for i, call := range c.recorded {
		invocations[i] = call.inv
	}
	return invocations
}

func (c *recordedCalls) Slice(from int, to int) RecordedCalls {
	c.mock.t.Helper()
	l := len(c.recorded)
	var subsetCalls []*recordedCall
	var sliceDesc string
	if from < 0 || to < 0 || from > to {
		c.mock.t.Fatalf("Invalid Slice of RecordedCalls %v[%d:%d]", c, from, to)
		return c
	}
	if from > l {
		sliceDesc = fmt.Sprintf("[%d>=len():]", from)
	} else if to > l {
		sliceDesc = fmt.Sprintf("[%d:]", from)
		subsetCalls = c.recorded[from:]
	} else {
		sliceDesc = fmt.Sprintf("[%d:%d]", from, to)
		subsetCalls = c.recorded[from:to]
	}

	return c.newSubset(subsetCalls, fmt.Sprintf("calls%s of", sliceDesc))
}

//Return the calls in c that occurred after those in otherCalls
func (c *recordedCalls) After(otherCalls RecordedCalls) RecordedCalls {
	other := otherCalls.calls()

	var subsetCalls []*recordedCall

	if len(other) > 0 {
		lastTick := other[len(other)-1].tick
		if partitionIndex := sort.Search(len(c.recorded), func(i int) bool { return c.recorded[i].tick > lastTick }); partitionIndex < len(c.recorded) {
			subsetCalls = c.recorded[partitionIndex:]
		} // otherwise no matches, default empty set
	} else {
		// all our calls are considered to be after an empty set
		subsetCalls = c.recorded
	}

	nested := append([]string{"calls after", ">>"}, append(otherCalls.nested(), "<<", "within")...)
	return c.newSubset(subsetCalls, nested...)
}

func (c *recordedCalls) newSubset(calls []*recordedCall, desc ...string) *recordedCalls {
	subsets := append(desc, c.subsets...)
	return &recordedCalls{mock: c.mock, recorded: calls, subsets: subsets}
}
