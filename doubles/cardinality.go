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

import "fmt"

// Unbounded is the maximum of a Cardinality with no upper limit
const Unbounded = -1

// A Cardinality is the allowed range of invocation counts for an Expectation
type Cardinality struct {
	required int
	maximum  int
}

// NewCardinality returns a Cardinality allowing between min and max invocations.
//
// max may be Unbounded.
func NewCardinality(min int, max int) (Cardinality, error) {
	if min < 0 {
		return Cardinality{}, configurationErrorf("minimum invocations %d is negative", min)
	}
	if max != Unbounded && (max < 0 || min > max) {
		return Cardinality{}, configurationErrorf("minimum invocations %d exceeds maximum %d", min, max)
	}
	return Cardinality{required: min, maximum: max}, nil
}

func mustCardinality(min int, max int) Cardinality {
	c, err := NewCardinality(min, max)
	if err != nil {
		panic(err)
	}
	return c
}

// Exactly returns a Cardinality of exactly n invocations
func Exactly(n int) Cardinality {
	return mustCardinality(n, n)
}

// Never is shorthand for Exactly(0)
func Never() Cardinality {
	return Exactly(0)
}

// Once is shorthand for Exactly(1)
func Once() Cardinality {
	return Exactly(1)
}

// Twice is shorthand for Exactly(2)
func Twice() Cardinality {
	return Exactly(2)
}

// Thrice is shorthand for Exactly(3)
func Thrice() Cardinality {
	return Exactly(3)
}

// AtLeast returns a Cardinality of n or more invocations
func AtLeast(n int) Cardinality {
	return mustCardinality(n, Unbounded)
}

// AtMost returns a Cardinality of up to n invocations
func AtMost(n int) Cardinality {
	return mustCardinality(0, n)
}

// Between returns a Cardinality of at least min and at most max invocations
func Between(min int, max int) Cardinality {
	return mustCardinality(min, max)
}

// Required is the minimum number of invocations
func (c Cardinality) Required() int {
	return c.required
}

// Maximum is the maximum number of invocations, or Unbounded
func (c Cardinality) Maximum() int {
	return c.maximum
}

func (c Cardinality) unbounded() bool {
	return c.maximum == Unbounded
}

// Allowed is true if a further invocation is allowed after count invocations
func (c Cardinality) Allowed(count int) bool {
	return c.unbounded() || count < c.maximum
}

// NeverAllowed is true if no invocation is ever allowed
func (c Cardinality) NeverAllowed() bool {
	return c.maximum == 0
}

// Satisfied is true if count is within the range
func (c Cardinality) Satisfied(count int) bool {
	return count >= c.required && (c.unbounded() || count <= c.maximum)
}

// NeedsVerifying is false only for a pure stub that allows any number of invocations
func (c Cardinality) NeedsVerifying() bool {
	return !(c.required == 0 && c.unbounded())
}

func (c Cardinality) String() string {
	switch {
	case !c.NeedsVerifying():
		return "any number of times"
	case c.maximum == 0:
		return "never"
	case c.required == c.maximum:
		return "exactly " + times(c.required)
	case c.unbounded():
		return "at least " + times(c.required)
	case c.required == 0:
		return "at most " + times(c.maximum)
	default:
		return fmt.Sprintf("between %d and %s", c.required, times(c.maximum))
	}
}

// Anticipated describes the expectation, eg "expected exactly twice"
func (c Cardinality) Anticipated() string {
	if !c.NeedsVerifying() {
		return "allowed " + c.String()
	}
	return "expected " + c.String()
}

// Invoked describes an invocation count, eg "invoked once"
func Invoked(count int) string {
	return "invoked " + times(count)
}

func times(n int) string {
	switch n {
	case 0:
		return "never"
	case 1:
		return "once"
	case 2:
		return "twice"
	default:
		return fmt.Sprintf("%d times", n)
	}
}
