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
	"errors"
	"fmt"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExpectation() *Expectation {
	return NewExpectation(nil, "expected_method")
}

func call(method string, params ...interface{}) *Invocation {
	return NewInvocation(Symbol("irrelevant"), method, params, nil)
}

func invoke(e *Expectation, block Block) (interface{}, error) {
	return e.Invoke(NewInvocation(Symbol("irrelevant"), "expected_method", nil, block))
}

type fakeConstraint struct {
	allows bool
}

func (c fakeConstraint) AllowsInvocationNow() bool { return c.allows }
func (c fakeConstraint) MarkSatisfied()            {}
func (c fakeConstraint) String() string            { return fmt.Sprintf("fake(%v)", c.allows) }

type fakeState struct {
	active bool
}

func (s *fakeState) Activate()      { s.active = true }
func (s *fakeState) Active() bool   { return s.active }
func (s *fakeState) String() string { return "fake state" }

type simpleCounter struct {
	count int
}

func (c *simpleCounter) Increment() { c.count++ }

func TestExpectation_Match(t *testing.T) {
	sumMatches := func(x, y, z int) bool { return x+y == z }

	type test struct {
		name        string
		expectation *Expectation
		invocation  *Invocation
		matches     bool
	}

	tests := []test{
		{"any parameters", newTestExpectation(), call("expected_method", 1, 2, 3), true},
		{"exactly zero parameters", newTestExpectation().With(), call("expected_method"), true},
		{"more than zero parameters", newTestExpectation().With(), call("expected_method", 1, 2, 3), false},
		{"expected values", newTestExpectation().With(1, 2, 3), call("expected_method", 1, 2, 3), true},
		{"constrained as expected", newTestExpectation().With(sumMatches), call("expected_method", 1, 2, 3), true},
		{"different method with constrained parameters", newTestExpectation().With(sumMatches), call("different_method", 1, 2, 3), false},
		{"different method with no parameters", newTestExpectation(), call("unexpected_method"), false},
		{"too few parameters", newTestExpectation().With(1, 2, 3), call("expected_method", 1, 2), false},
		{"too many parameters", newTestExpectation().With(1, 2), call("expected_method", 1, 2, 3), false},
		{"unexpected values", newTestExpectation().With(1, 2, 3), call("expected_method", 1, 0, 3), false},
		{"not constrained as expected", newTestExpectation().With(sumMatches), call("expected_method", 1, 0, 3), false},
		{"never", newTestExpectation().Never(), call("expected_method"), false},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.matches, test.expectation.Match(test.invocation))
		})
	}
}

func TestExpectation_MatchDoesNotChangeState(t *testing.T) {
	e := newTestExpectation()
	for i := 0; i < 3; i++ {
		assert.True(t, e.Match(call("expected_method")))
	}
	assert.Equal(t, 0, e.InvocationCount())
}

func TestExpectation_InvocationsAllowed(t *testing.T) {
	type test struct {
		name        string
		expectation *Expectation
		allowed     int
	}

	tests := []test{
		{"Times(1)", newTestExpectation().Times(1), 1},
		{"Times(2)", newTestExpectation().Times(2), 2},
		{"TimesBetween(2,3)", newTestExpectation().TimesBetween(2, 3), 3},
		{"AtMostOnce", newTestExpectation().AtMostOnce(), 1},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			e := test.expectation
			for i := 0; i < test.allowed; i++ {
				require.True(t, e.InvocationsAllowed(), "after %d invocations", i)
				_, _ = invoke(e, nil)
			}
			assert.False(t, e.InvocationsAllowed())
		})
	}
}

func TestExpectation_InvocationsNeverAllowed(t *testing.T) {
	e := newTestExpectation().Never()
	assert.True(t, e.InvocationsNeverAllowed())
	_, _ = invoke(e, nil)
	assert.True(t, e.InvocationsNeverAllowed())
	assert.False(t, newTestExpectation().InvocationsNeverAllowed())
}

func TestExpectation_Origin(t *testing.T) {
	_, file, line, _ := runtime.Caller(0)
	e := NewExpectation(nil, "expected_method")
	assert.Equal(t, fmt.Sprintf("%s:%d", file, line+1), e.Origin())

	assert.Equal(t, "elsewhere:1", e.OriginatedAt("elsewhere:1").Origin())
}

func TestExpectation_Yields(t *testing.T) {
	type test struct {
		name        string
		expectation *Expectation
		calls       int
		yielded     [][]interface{}
	}

	tests := []test{
		{"not", newTestExpectation(), 1, nil},
		{"no parameters", newTestExpectation().Yields(), 1, [][]interface{}{{}}},
		{"specified parameters", newTestExpectation().Yields(1, 2, 3), 1, [][]interface{}{{1, 2, 3}}},
		{"consecutive invocations", newTestExpectation().Yields(1, 2, 3).Yields(4, 5), 2, [][]interface{}{{1, 2, 3}, {4, 5}}},
		{"multiple times for single invocation", newTestExpectation().MultipleYields([]interface{}{1, 2, 3}, []interface{}{4, 5}), 1,
			[][]interface{}{{1, 2, 3}, {4, 5}}},
		{"multiple then once", newTestExpectation().MultipleYields([]interface{}{1, 2, 3}, []interface{}{4, 5}).Then().Yields(6, 7), 2,
			[][]interface{}{{1, 2, 3}, {4, 5}, {6, 7}}},
		{"last repeats", newTestExpectation().Yields(1).Yields(2), 3, [][]interface{}{{1}, {2}, {2}}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var yielded [][]interface{}
			block := func(params ...interface{}) {
				yielded = append(yielded, params)
			}
			for i := 0; i < test.calls; i++ {
				_, err := invoke(test.expectation, block)
				require.NoError(t, err)
			}
			assert.Equal(t, test.yielded, yielded)
		})
	}
}

func TestExpectation_YieldsWithoutBlock(t *testing.T) {
	tests := map[string]*Expectation{
		"Yields":         newTestExpectation().Yields(Symbol("foo")),
		"MultipleYields": newTestExpectation().MultipleYields([]interface{}{Symbol("foo")}, []interface{}{1, []int{2, 3}}),
	}
	for name, e := range tests {
		e := e
		t.Run(name, func(t *testing.T) {
			_, err := invoke(e, nil)
			var blockErr *BlockNotSuppliedError
			require.True(t, errors.As(err, &blockErr), "expected BlockNotSuppliedError, got %v", err)
			assert.Equal(t, ":irrelevant.expected_method()", blockErr.Call)
		})
	}
}

func TestExpectation_Returns(t *testing.T) {
	type test struct {
		name        string
		expectation *Expectation
		returns     []interface{}
	}

	tests := []test{
		{"nil by default", newTestExpectation(), []interface{}{nil}},
		{"nil if no value specified", newTestExpectation().Returns(), []interface{}{nil}},
		{"specified value", newTestExpectation().Returns(99), []interface{}{99}},
		{"same value multiple times", newTestExpectation().Returns(99), []interface{}{99, 99}},
		{"consecutive calls", newTestExpectation().Returns(99, 100, 101), []interface{}{99, 100, 101}},
		{"last value repeats", newTestExpectation().Returns(99, 100), []interface{}{99, 100, 100, 100}},
		{"chained", newTestExpectation().Returns(1).Returns(2), []interface{}{1, 2}},
		{"then", newTestExpectation().Returns(1).Then().Returns(2, 3), []interface{}{1, 2, 3, 3}},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			for i, expected := range test.returns {
				v, err := invoke(test.expectation, nil)
				require.NoError(t, err)
				assert.Equal(t, expected, v, "call %d", i)
			}
		})
	}
}

func TestExpectation_ReturnsValuesEvenIfModified(t *testing.T) {
	values := []interface{}{99, 100, 101}
	e := newTestExpectation().Returns(values...)
	values[0] = 0
	for _, expected := range []int{99, 100, 101} {
		v, _ := invoke(e, nil)
		assert.Equal(t, expected, v)
	}
}

func TestExpectation_ReturnsFunc(t *testing.T) {
	e := newTestExpectation().ReturnsFunc(func(params ...interface{}) (interface{}, error) {
		return len(params), nil
	})
	v, err := e.Invoke(call("expected_method", 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestExpectation_Raises(t *testing.T) {
	customError := NewErrorClass("CustomError")
	instance := errors.New("same instance")

	t.Run("runtime error", func(t *testing.T) {
		_, err := invoke(newTestExpectation().Raises(nil), nil)
		assert.True(t, errors.Is(err, RuntimeError))
	})

	t.Run("custom error class", func(t *testing.T) {
		_, err := invoke(newTestExpectation().Raises(customError), nil)
		assert.True(t, errors.Is(err, customError))
	})

	t.Run("same instance", func(t *testing.T) {
		_, err := invoke(newTestExpectation().Raises(instance), nil)
		assert.Same(t, instance, err)
	})

	t.Run("default message", func(t *testing.T) {
		_, err := invoke(newTestExpectation().Raises(customError), nil)
		assert.EqualError(t, err, customError.New("").Error())
	})

	t.Run("custom message", func(t *testing.T) {
		_, err := invoke(newTestExpectation().Raises(customError, "exception message"), nil)
		assert.EqualError(t, err, "exception message")
	})

	t.Run("message with instance", func(t *testing.T) {
		assert.Panics(t, func() { newTestExpectation().Raises(instance, "not allowed") })
	})
}

func TestExpectation_ReturnsThenRaises(t *testing.T) {
	e := newTestExpectation().Returns(1, 2).Then().Raises(nil)

	v, err := invoke(e, nil)
	assert.Equal(t, 1, v)
	assert.NoError(t, err)
	v, err = invoke(e, nil)
	assert.Equal(t, 2, v)
	assert.NoError(t, err)
	_, err = invoke(e, nil)
	assert.True(t, errors.Is(err, RuntimeError))
}

func TestExpectation_ThenStateSeparatesOutcomes(t *testing.T) {
	power := NewStateMachine("power").StartsAs("off")
	e := newTestExpectation().Returns(1).Then(power.Is("on")).Returns(2).AtLeast(0)

	assert.Equal(t, "returns 1; then returns 2", e.actions.String())

	v, _ := invoke(e, nil)
	assert.Equal(t, 1, v)
	assert.True(t, power.Is("on").Active())
	v, _ = invoke(e, nil)
	assert.Equal(t, 2, v)
}

func TestExpectation_RaisesThenReturns(t *testing.T) {
	e := newTestExpectation().Raises(nil).Then().Returns(1, 2)

	_, err := invoke(e, nil)
	assert.True(t, errors.Is(err, RuntimeError))
	v, err := invoke(e, nil)
	assert.Equal(t, 1, v)
	assert.NoError(t, err)
	v, err = invoke(e, nil)
	assert.Equal(t, 2, v)
	assert.NoError(t, err)
}

func TestExpectation_Verified(t *testing.T) {
	type test struct {
		name        string
		expectation *Expectation
		invocations int
		verified    bool
	}

	tests := []test{
		{"default invoked once", newTestExpectation(), 1, true},
		{"once invoked twice", newTestExpectation().Once(), 2, false},
		{"once not invoked", newTestExpectation().Once(), 0, false},
		{"once invoked once", newTestExpectation().Once(), 1, true},
		{"thrice invoked four times", newTestExpectation().Thrice(), 4, false},
		{"thrice invoked twice", newTestExpectation().Thrice(), 2, false},
		{"thrice invoked thrice", newTestExpectation().Thrice(), 3, true},
		{"twice invoked three times", newTestExpectation().Twice(), 3, false},
		{"twice invoked once", newTestExpectation().Twice(), 1, false},
		{"twice invoked twice", newTestExpectation().Twice(), 2, true},
		{"at least once invoked three times", newTestExpectation().AtLeastOnce(), 3, true},
		{"at least once not invoked", newTestExpectation().With(1, 2, 3).AtLeastOnce(), 0, false},
		{"times(2) invoked twice", newTestExpectation().Times(2), 2, true},
		{"times(2) invoked once", newTestExpectation().Times(2), 1, false},
		{"times(2) invoked three times", newTestExpectation().Times(2), 3, false},
		{"never not invoked", newTestExpectation().Never(), 0, true},
		{"at most twice not invoked", newTestExpectation().AtMost(2), 0, true},
		{"stub not invoked", newTestExpectation().AtLeast(0), 0, true},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			for i := 0; i < test.invocations; i++ {
				_, _ = invoke(test.expectation, nil)
			}
			assert.Equal(t, test.verified, test.expectation.Verified(nil))
			assert.Equal(t, test.verified, test.expectation.Satisfied())
		})
	}
}

func TestExpectation_DescribeUnsatisfied(t *testing.T) {
	e := newTestExpectation().With(1, 2, 3).AtLeastOnce()
	assert.False(t, e.Verified(nil))
	assert.Regexp(t, regexp.MustCompile(`(?i)expected at least once, invoked never`), e.Inspect())

	e = newTestExpectation().Times(2)
	_, _ = invoke(e, nil)
	assert.False(t, e.Verified(nil))
	assert.Regexp(t, regexp.MustCompile(`(?i)expected exactly twice, invoked once`), e.Inspect())
	assert.Equal(t, "expected_method(any parameters); expected exactly twice, invoked once", e.Describe())

	_, _ = invoke(e, nil)
	assert.Equal(t, "expected_method(any parameters)", e.Describe())
}

func TestExpectation_AssertionCounter(t *testing.T) {
	e := newTestExpectation()
	_, _ = invoke(e, nil)
	counter := &simpleCounter{}
	e.Verified(counter)
	assert.Equal(t, 1, counter.count)

	e.Verified(counter)
	assert.Equal(t, 2, counter.count)

	stubCounter := &simpleCounter{}
	NewExpectation(nil, "expected_method").AtLeast(0).Verified(stubCounter)
	assert.Equal(t, 0, stubCounter.count)
}

func TestExpectation_DescribeWithParametersAndSequences(t *testing.T) {
	mock := Symbol("mock")
	one := NewSequence("one")
	two := NewSequence("two")
	e := NewExpectation(mock, "expected_method").
		With(1, 2, map[string]bool{"a": true}, map[Symbol]bool{"b": false}, []int{1, 2, 3}).
		InSequence(one, two)

	assert.False(t, e.Verified(nil))
	assert.Contains(t, e.Inspect(),
		`:mock.expected_method(1, 2, {"a" => true}, {b: false}, [1, 2, 3]); in sequence "one"; in sequence "two"`)
}

type namedTarget string

func (n namedTarget) Inspect() string { return string(n) }

func TestExpectation_DescribeTarget(t *testing.T) {
	e := NewExpectation(namedTarget("mock"), "method_one").With(1)
	assert.Equal(t, "mock.method_one(1); expected exactly once, invoked never", e.Describe())
}

func TestExpectation_DescribeStates(t *testing.T) {
	power := NewStateMachine("power")
	e := NewExpectation(namedTarget("mock"), "switch_on").With().When(power.Is("off")).Then(power.Is("on")).AtLeast(0)
	assert.Equal(t, `mock.switch_on(); when power is "off"; then power is "on"`, e.Describe())
}

func TestExpectation_Inspect(t *testing.T) {
	e := NewExpectation(namedTarget("mock"), "method_one")
	assert.Regexp(t, regexp.MustCompile(`^#<Expectation:[0-9a-f-]{36} .* >$`), e.Inspect())
	assert.Contains(t, e.Inspect(), e.Describe())
	assert.NotEqual(t, e.ID(), NewExpectation(nil, "method_one").ID())
}

func TestExpectation_InCorrectOrder(t *testing.T) {
	e := NewExpectation(nil, "method_one")
	e.AddOrderingConstraint(fakeConstraint{true})
	e.AddOrderingConstraint(fakeConstraint{true})
	assert.True(t, e.InCorrectOrder())
	assert.True(t, e.Match(call("method_one")))

	e.AddOrderingConstraint(fakeConstraint{false})
	assert.False(t, e.InCorrectOrder())
	assert.False(t, e.Match(call("method_one")))
}

func TestExpectation_Satisfied(t *testing.T) {
	e := NewExpectation(nil, "method_one").Times(1)
	assert.False(t, e.Satisfied())
	_, _ = invoke(e, nil)
	assert.True(t, e.Satisfied())

	e = NewExpectation(nil, "method_one").AtLeast(2)
	_, _ = invoke(e, nil)
	assert.False(t, e.Satisfied())
	_, _ = invoke(e, nil)
	assert.True(t, e.Satisfied())
}

func TestExpectation_InSequenceRegistersWithEachSequence(t *testing.T) {
	one := NewSequence("one")
	two := NewSequence("two")
	e := NewExpectation(nil, "method_one")
	assert.Same(t, e, e.InSequence(one, two))
	assert.Same(t, e, one.Head())
	assert.Same(t, e, two.Head())
}

func TestExpectation_ThenChangesState(t *testing.T) {
	state := &fakeState{}
	e := NewExpectation(nil, "method_one").Then(state)
	_, _ = e.Invoke(call("method_one"))
	assert.True(t, state.Active())
}

func TestExpectation_WhenStateIsActive(t *testing.T) {
	state := &fakeState{}
	e := NewExpectation(nil, "method_one").When(state)
	assert.False(t, e.Match(call("method_one")))
	state.Activate()
	assert.True(t, e.Match(call("method_one")))
}

func TestExpectation_InvalidBuilderArguments(t *testing.T) {
	tests := map[string]func(){
		"TimesBetween(3,2)": func() { newTestExpectation().TimesBetween(3, 2) },
		"AtLeast(-1)":       func() { newTestExpectation().AtLeast(-1) },
		"With(pm, 1)":       func() { newTestExpectation().With(AnyParameters(), 1) },
		"Raises(42)":        func() { newTestExpectation().Raises(42) },
	}
	for name, f := range tests {
		f := f
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				_, isConfigErr := r.(*ConfigurationError)
				assert.True(t, isConfigErr, "expected panic with ConfigurationError, got %v", r)
			}()
			f()
		})
	}
}

func TestExpectation_Used(t *testing.T) {
	assert.False(t, newTestExpectation().AtLeast(0).Used())
	assert.True(t, newTestExpectation().Never().Used())
	e := newTestExpectation()
	_, _ = invoke(e, nil)
	assert.True(t, e.Used())
}
