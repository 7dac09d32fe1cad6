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
	"context"
	"fmt"
	"go/token"
	"reflect"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

//T is compatible with builtin testing.T
type T interface {
	Errorf(format string, args ...interface{})
	Fatalf(format string, args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
}

const tracerName = "github.com/lwoggardner/doubles"

/*
A Mock is a named test double that dispatches calls of its methods to Expectations.

Setup phase

Declare expectations with Expects (exactly once by default) or Stubs (any number of times), then configure
them further.

Exercise phase

Methods of a double type forward to Invoke. The most recently declared expectation that matches the call
handles it. A call that no expectation allows is an unexpected invocation, reported via T.Errorf and
returned as an *UnexpectedInvocationError (unless StubEverything is set and no expectation matches at all).

Verify phase

Verify (usually deferred immediately after the mock is created) reports every unsatisfied expectation via T.Errorf.

Blocks and ReturnsFunc implementations must not call back into the same Mock.
*/
type Mock struct {
	t                 T
	name              string
	id                uuid.UUID
	mutex             *sync.Mutex
	expectations      []*Expectation
	stubs             map[*Expectation]bool
	recorded          []*recordedCall
	responder         reflect.Type
	everythingStubbed bool
	trace             bool
	tracer            trace.Tracer
	config            Configuration
	counter           AssertionCounter
}

/*
NewMock creates a Mock.

configurators are used to configure tracing, policies and default behaviour for unexpected calls

	m := NewMock(t, "api", func(m *Mock) { m.EnableTrace() })
*/
func NewMock(t T, name string, configurators ...func(*Mock)) *Mock {
	m := &Mock{
		t:      t,
		name:   name,
		id:     uuid.New(),
		mutex:  &sync.Mutex{},
		stubs:  map[*Expectation]bool{},
		tracer: noop.NewTracerProvider().Tracer(tracerName),
		config: DefaultConfiguration(),
	}
	for _, c := range configurators {
		c(m)
	}
	return m
}

// EnableTrace logs all received method calls (via T.Logf)
func (m *Mock) EnableTrace() {
	m.trace = true
}

// StubEverything makes calls that match no expectation return nil instead of failing
func (m *Mock) StubEverything() {
	m.everythingStubbed = true
}

/*
RespondsLike restricts the mock to the methods of an interface.

forInterface is expected to be the nil implementation of an interface - (*Iface)(nil)

Stubbing other methods is subject to Configuration.StubbingNonExistentMethod, calling them is fatal.
*/
func (m *Mock) RespondsLike(forInterface interface{}) {
	m.t.Helper()
	respondsTo := reflect.TypeOf(forInterface)
	if respondsTo == nil || respondsTo.Kind() != reflect.Ptr || respondsTo.Elem().Kind() != reflect.Interface {
		m.t.Fatalf("Expecting '%v' to be a pointer to nil interface", forInterface)
		return
	}
	m.responder = respondsTo.Elem()
}

// SetTracer records a span for each invocation with tracer
func (m *Mock) SetTracer(tracer trace.Tracer) {
	m.tracer = tracer
}

// SetConfiguration sets the stubbing policies
func (m *Mock) SetConfiguration(c Configuration) {
	m.config = c
}

// SetAssertionCounter sets the counter incremented by Verify for each expectation that needs verifying
func (m *Mock) SetAssertionCounter(counter AssertionCounter) {
	m.counter = counter
}

// Name of the mock
func (m *Mock) Name() string {
	return m.name
}

// ID uniquely identifies this mock
func (m *Mock) ID() uuid.UUID {
	return m.id
}

// T is the test this mock reports to
func (m *Mock) T() T {
	return m.t
}

func (m *Mock) String() string {
	return m.name
}

// Inspect renders the mock as the target of its expectations
func (m *Mock) Inspect() string {
	return m.name
}

func (m *Mock) responds(methodName string) (reflect.Method, bool) {
	if m.responder == nil {
		return reflect.Method{}, true
	}
	return m.responder.MethodByName(methodName)
}

func (m *Mock) applyPolicy(policy Policy, format string, args ...interface{}) bool {
	m.t.Helper()
	switch policy {
	case Warn:
		m.t.Logf(format, args...)
	case Prevent:
		m.t.Fatalf("%v", &StubbingError{Message: fmt.Sprintf(format, args...)})
		return false
	}
	return true
}

func (m *Mock) checkStubbing(methodName string) bool {
	m.t.Helper()
	if _, found := m.responds(methodName); !found {
		if !m.applyPolicy(m.config.StubbingNonExistentMethod, "stubbing non-existent method: %v.%s", m, methodName) {
			return false
		}
	} else if !token.IsExported(methodName) {
		if !m.applyPolicy(m.config.StubbingNonPublicMethod, "stubbing non-public method: %v.%s", m, methodName) {
			return false
		}
	}
	return true
}

func (m *Mock) addExpectation(methodName string, stub bool) *Expectation {
	m.t.Helper()
	// caller of Expects/Stubs/Load
	e := newExpectation(m, methodName, 3)
	if stub {
		e.AtLeast(0)
	}
	if m.checkStubbing(methodName) {
		m.expectations = append(m.expectations, e)
		if stub {
			m.stubs[e] = true
		}
	}
	return e
}

/*
Expects adds and returns an Expectation that methodName is called exactly once, with any parameters,
returning nil.
*/
func (m *Mock) Expects(methodName string) *Expectation {
	m.t.Helper()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.addExpectation(methodName, false)
}

/*
Stubs adds and returns an Expectation that methodName is called any number of times, with any parameters,
returning nil.
*/
func (m *Mock) Stubs(methodName string) *Expectation {
	m.t.Helper()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.addExpectation(methodName, true)
}

// Expectations returns the expectations of this mock in the order they were declared
func (m *Mock) Expectations() []*Expectation {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*Expectation{}, m.expectations...)
}

// Invoke is called by double implementations to handle a call of methodName with params
func (m *Mock) Invoke(methodName string, params ...interface{}) (interface{}, error) {
	m.t.Helper()
	return m.InvokeContext(context.Background(), methodName, nil, params...)
}

// InvokeWithBlock is Invoke for a call that supplies a block for the expectation to yield to
func (m *Mock) InvokeWithBlock(methodName string, block Block, params ...interface{}) (interface{}, error) {
	m.t.Helper()
	return m.InvokeContext(context.Background(), methodName, block, params...)
}

// InvokeContext is InvokeWithBlock with a parent context for the invocation span
func (m *Mock) InvokeContext(ctx context.Context, methodName string, block Block, params ...interface{}) (interface{}, error) {
	m.t.Helper()
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, found := m.responds(methodName); !found {
		m.t.Fatalf("Unexpected call to unknown method %v.%s", m, methodName)
		return nil, &UnexpectedInvocationError{Call: methodSignature(m, methodName, "("+inspectList(params)+")")}
	}

	inv := NewInvocation(m, methodName, params, block)
	m.recorded = append(m.recorded, newRecordedCall(inv))

	_, span := m.tracer.Start(ctx, m.name+"."+methodName, trace.WithAttributes(
		attribute.String("doubles.mock", m.name),
		attribute.String("doubles.method", methodName),
		attribute.Int("doubles.parameters", len(params)),
	))
	defer span.End()

	result, err := m.dispatch(inv, span)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

func (m *Mock) dispatch(inv *Invocation, span trace.Span) (interface{}, error) {
	m.t.Helper()
	matched := m.matchAllowingInvocation(inv)
	if matched == nil {
		return m.unexpected(inv)
	}
	span.SetAttributes(attribute.String("doubles.expectation", matched.ID().String()))

	if m.trace {
		//a block can panic but we still want to trace it
		defer func() {
			if e := recover(); e != nil {
				m.t.Logf("Called %s => panic! %v", inv.ShortCallDescription(), e)
				panic(e)
			}
		}()
	}

	result, err := matched.Invoke(inv)
	if m.trace {
		m.t.Logf("Called %s", inv.CallDescription())
		if !matched.InvocationsAllowed() {
			m.t.Logf("%s completed expectations after %d calls", matched.MethodSignature(), matched.InvocationCount())
		}
	}
	return result, err
}

// matchAllowingInvocation returns the most recently declared expectation matching inv
func (m *Mock) matchAllowingInvocation(inv *Invocation) *Expectation {
	for i := len(m.expectations) - 1; i >= 0; i-- {
		if e := m.expectations[i]; e.Match(inv) {
			return e
		}
	}
	return nil
}

// matchIgnoringCardinalityAndOrder returns the most recently declared expectation for the method and parameters of inv
func (m *Mock) matchIgnoringCardinalityAndOrder(inv *Invocation) *Expectation {
	for i := len(m.expectations) - 1; i >= 0; i-- {
		if e := m.expectations[i]; e.matchesSignature(inv) {
			return e
		}
	}
	return nil
}

func (m *Mock) unexpected(inv *Invocation) (interface{}, error) {
	m.t.Helper()
	matching := m.matchIgnoringCardinalityAndOrder(inv)
	if matching == nil && m.everythingStubbed {
		inv.Returned(nil)
		if m.trace {
			m.t.Logf("Called %s (stub everything)", inv.CallDescription())
		}
		return nil, nil
	}

	err := &UnexpectedInvocationError{Call: inv.ShortCallDescription()}
	if matching != nil {
		err.OutOfOrder = !matching.InCorrectOrder()
		// counted so that verification also reports it
		_, _ = matching.Invoke(inv)
	}
	for _, e := range m.expectations {
		err.Expectations = append(err.Expectations, e.Describe())
	}
	if inv.Err() == nil {
		inv.Raised(err)
	}
	m.t.Errorf("%v", err)
	return nil, err
}

// Verify reports all unsatisfied expectations (via T.Errorf)
func (m *Mock) Verify() {
	m.t.Helper()
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for _, e := range m.expectations {
		if !e.Verified(m.counter) {
			m.t.Errorf("not all expectations were satisfied: %s (declared at %s)", e.Describe(), e.Origin())
		}
		if m.stubs[e] && !e.Used() {
			m.applyPolicy(m.config.StubbingMethodUnnecessarily, "stubbing method unnecessarily: %s (declared at %s)", e.MethodSignature(), e.Origin())
		}
	}
}

// Unverified returns the expectations whose invocation counts are not within their expected range
func (m *Mock) Unverified() []*Expectation {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var unverified []*Expectation
	for _, e := range m.expectations {
		if !e.Satisfied() {
			unverified = append(unverified, e)
		}
	}
	return unverified
}

/*
Received returns all recorded calls to methodName, whether or not they were expected,
for verification in the Verify phase.
*/
func (m *Mock) Received(methodName string) RecordedCalls {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	var calls []*recordedCall
	for _, call := range m.recorded {
		if call.inv.MethodName == methodName {
			calls = append(calls, call)
		}
	}
	return &recordedCalls{mock: m, recorded: calls, subsets: []string{fmt.Sprintf("all calls to %v.%s", m, methodName)}}
}

type Verifiable interface {
	Verify()
}

//Verify is shorthand to Verify a set of Mocks
func Verify(mocks ...Verifiable) {
	for _, m := range mocks {
		m.Verify()
	}
}
