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
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// AssertionCounter is notified once for each Expectation that needs verifying when it is verified
type AssertionCounter interface {
	Increment()
}

/*
An Expectation is the contract for calls to one method: which calls match, what they do, how
many are expected and in what order.

Setup

Configure with the fluent builder methods (With, Returns, Raises, Yields, Times, InSequence, When, Then ...).
Invalid builder arguments panic with a *ConfigurationError.

Exercise

Match reports whether an Invocation may be handled by this expectation, Invoke handles it.

Verify

Verified reports whether the number of invocations is within the expected Cardinality.

An Expectation is not safe for concurrent use; Mock serialises access to its expectations.
*/
type Expectation struct {
	id              uuid.UUID
	target          interface{}
	methodName      string
	origin          string
	matcher         ParametersMatcher
	cardinality     Cardinality
	actions         ActionSequence
	constraints     []OrderingConstraint
	sideEffects     []StateTransition
	invocationCount int
}

// NewExpectation returns an Expectation for exactly one call to methodName on target, with any parameters.
//
// target is only used to describe the expectation and may be nil.
func NewExpectation(target interface{}, methodName string) *Expectation {
	return newExpectation(target, methodName, 2)
}

func newExpectation(target interface{}, methodName string, skip int) *Expectation {
	return &Expectation{
		id:          uuid.New(),
		target:      target,
		methodName:  methodName,
		origin:      callerOrigin(skip + 1),
		matcher:     AnyParameters(),
		cardinality: Exactly(1),
	}
}

func callerOrigin(skip int) string {
	if _, file, line, ok := runtime.Caller(skip); ok {
		return fmt.Sprintf("%s:%d", file, line)
	}
	return "unknown"
}

// ID uniquely identifies this Expectation
func (e *Expectation) ID() uuid.UUID {
	return e.id
}

// MethodName is the name of the expected method
func (e *Expectation) MethodName() string {
	return e.methodName
}

// Target is the object the method is expected on
func (e *Expectation) Target() interface{} {
	return e.target
}

// Origin is the file:line where the expectation was declared
func (e *Expectation) Origin() string {
	return e.origin
}

// OriginatedAt overrides Origin
func (e *Expectation) OriginatedAt(origin string) *Expectation {
	e.origin = origin
	return e
}

// Cardinality is the expected range of invocation counts
func (e *Expectation) Cardinality() Cardinality {
	return e.cardinality
}

// InvocationCount is the number of calls to Invoke so far
func (e *Expectation) InvocationCount() int {
	return e.invocationCount
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Expect sets the expected range of invocations
func (e *Expectation) Expect(c Cardinality) *Expectation {
	e.cardinality = c
	return e
}

func (e *Expectation) expectBetween(min int, max int) *Expectation {
	c, err := NewCardinality(min, max)
	must(err)
	return e.Expect(c)
}

// Times expects exactly n invocations
func (e *Expectation) Times(n int) *Expectation {
	return e.expectBetween(n, n)
}

// TimesBetween expects at least min and at most max invocations
func (e *Expectation) TimesBetween(min int, max int) *Expectation {
	return e.expectBetween(min, max)
}

// Once expects exactly one invocation
func (e *Expectation) Once() *Expectation {
	return e.Times(1)
}

// Twice expects exactly two invocations
func (e *Expectation) Twice() *Expectation {
	return e.Times(2)
}

// Thrice expects exactly three invocations
func (e *Expectation) Thrice() *Expectation {
	return e.Times(3)
}

// Never expects no invocations
func (e *Expectation) Never() *Expectation {
	return e.Times(0)
}

// AtLeast expects n or more invocations
func (e *Expectation) AtLeast(n int) *Expectation {
	return e.expectBetween(n, Unbounded)
}

// AtLeastOnce expects one or more invocations
func (e *Expectation) AtLeastOnce() *Expectation {
	return e.AtLeast(1)
}

// AtMost expects no more than n invocations
func (e *Expectation) AtMost(n int) *Expectation {
	return e.expectBetween(0, n)
}

// AtMostOnce expects no more than one invocation
func (e *Expectation) AtMostOnce() *Expectation {
	return e.AtMost(1)
}

/*
With replaces the parameters matcher. See NewParametersMatcher.

	With()                    // no parameters
	With(1, "a")              // exactly (1, "a")
	With(Anything(), Nil())   // two parameters, the second nil
	With(func(x, y, z int) bool { return x+y == z })
	With(AnyParameters())
*/
func (e *Expectation) With(matchers ...interface{}) *Expectation {
	matcher, err := NewParametersMatcher(matchers...)
	must(err)
	e.matcher = matcher
	return e
}

// Returns appends values returned by consecutive calls. The last value is repeated.
func (e *Expectation) Returns(values ...interface{}) *Expectation {
	e.actions.AppendReturn(values...)
	return e
}

// ReturnsFunc appends a call whose outcome is computed by f from the call parameters
func (e *Expectation) ReturnsFunc(f func(params ...interface{}) (interface{}, error)) *Expectation {
	e.actions.AppendReturnFunc(f)
	return e
}

// Raises appends a call that returns an error. See ActionSequence.AppendRaise
func (e *Expectation) Raises(err interface{}, message ...string) *Expectation {
	must(e.actions.AppendRaise(err, message...))
	return e
}

// Yields appends a call that calls the caller's block once with params
func (e *Expectation) Yields(params ...interface{}) *Expectation {
	e.actions.AppendYield(params)
	return e
}

// MultipleYields appends a call that calls the caller's block once for each of paramLists
func (e *Expectation) MultipleYields(paramLists ...[]interface{}) *Expectation {
	e.actions.AppendYield(paramLists...)
	return e
}

// Then separates groups of outcomes for readability, eg Returns(1, 2).Then().Raises(nil).
//
// Any states given are activated each time this expectation is invoked.
func (e *Expectation) Then(states ...StateTransition) *Expectation {
	e.actions.StartNewGroup()
	e.sideEffects = append(e.sideEffects, states...)
	return e
}

// When constrains this expectation to match only while predicate is active
func (e *Expectation) When(predicate StatePredicate) *Expectation {
	return e.AddOrderingConstraint(stateConstraint{predicate})
}

// InSequence constrains this expectation to be invoked next in each of sequences
func (e *Expectation) InSequence(sequences ...*Sequence) *Expectation {
	for _, seq := range sequences {
		seq.ConstrainAsNextInSequence(e)
	}
	return e
}

// AddOrderingConstraint adds a constraint that must allow invocation for this expectation to match
func (e *Expectation) AddOrderingConstraint(c OrderingConstraint) *Expectation {
	e.constraints = append(e.constraints, c)
	return e
}

// AddSideEffect adds a StateTransition activated on every invocation
func (e *Expectation) AddSideEffect(t StateTransition) *Expectation {
	e.sideEffects = append(e.sideEffects, t)
	return e
}

// InCorrectOrder is true if all ordering constraints allow invocation now
func (e *Expectation) InCorrectOrder() bool {
	for _, c := range e.constraints {
		if !c.AllowsInvocationNow() {
			return false
		}
	}
	return true
}

func (e *Expectation) matchesSignature(inv *Invocation) bool {
	return inv.MethodName == e.methodName && e.matcher.Matches(inv.Parameters)
}

// Match is true if inv has this method name and matching parameters, and a further
// invocation is both allowed and in the correct order. It does not change any state.
func (e *Expectation) Match(inv *Invocation) bool {
	return e.matchesSignature(inv) && e.InvocationsAllowed() && e.InCorrectOrder()
}

// InvocationsAllowed is true if the cardinality allows a further invocation
func (e *Expectation) InvocationsAllowed() bool {
	return e.cardinality.Allowed(e.invocationCount)
}

// InvocationsNeverAllowed is true if the cardinality never allows an invocation
func (e *Expectation) InvocationsNeverAllowed() bool {
	return e.cardinality.NeverAllowed()
}

// Invoke handles inv: counts it, satisfies ordering constraints, activates states then performs
// the configured outcome, which is returned.
//
// It does not check Match first.
func (e *Expectation) Invoke(inv *Invocation) (interface{}, error) {
	callIndex := e.invocationCount
	e.invocationCount++
	for _, c := range e.constraints {
		c.MarkSatisfied()
	}
	for _, s := range e.sideEffects {
		s.Activate()
	}
	return e.actions.Perform(inv, callIndex)
}

// Satisfied is true if the invocation count is within the expected range
func (e *Expectation) Satisfied() bool {
	return e.cardinality.Satisfied(e.invocationCount)
}

// Verified is true if the invocation count is within the expected range.
//
// Unless this is a stub that allows any number of invocations, counter (if not nil) is incremented.
func (e *Expectation) Verified(counter AssertionCounter) bool {
	if !e.cardinality.NeedsVerifying() {
		return true
	}
	if counter != nil {
		counter.Increment()
	}
	return e.Satisfied()
}

// Used is true if the expectation has been invoked, or never allows invocation
func (e *Expectation) Used() bool {
	return e.invocationCount > 0 || e.InvocationsNeverAllowed()
}

// MethodSignature renders the expected call, eg mock.method(1, "a")
func (e *Expectation) MethodSignature() string {
	return methodSignature(e.target, e.methodName, e.matcher.String())
}

// Describe renders the expectation with its ordering constraints, side effects and,
// when not satisfied, the expected and actual number of invocations.
//
//	mock.method(1, 2); in sequence "one"; expected exactly twice, invoked once
func (e *Expectation) Describe() string {
	parts := []string{e.MethodSignature()}
	for _, c := range e.constraints {
		parts = append(parts, c.String())
	}
	for _, s := range e.sideEffects {
		parts = append(parts, "then "+s.String())
	}
	if !e.Satisfied() {
		parts = append(parts, e.cardinality.Anticipated()+", "+Invoked(e.invocationCount))
	}
	return strings.Join(parts, "; ")
}

func (e *Expectation) String() string {
	return e.Describe()
}

// Inspect renders the expectation with its identity
func (e *Expectation) Inspect() string {
	return fmt.Sprintf("#<Expectation:%s %s >", e.id, e.Describe())
}
