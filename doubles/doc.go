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

/*
Package doubles is an expectation engine for mock objects.

An Expectation describes the calls of one method that a test anticipates: which parameters match, how many
invocations are expected, in what order relative to other expectations, and what each invocation does
(return a value, return an error, yield to a block). A Mock is a named collection of expectations that
dispatches calls to them and reports unexpected or missing calls through T (usually *testing.T).

Mocks and Stubs

See the canonical sources...

* http://xunitpatterns.com/Test%20Double.html

* https://martinfowler.com/articles/mocksArentStubs.html

Expects declares that a method is called exactly once, Stubs that it may be called any number of times.

 package examples

 import (
	. "github.com/lwoggardner/doubles/doubles" //Note the dot import which assists with readability
	"testing"
 )

 func Test_Mock(t *testing.T) {
	m := NewMock(t, "api")
	// Verify the expectations are met at completion
	defer m.Verify()

	m.Expects("SomeQuery").With("test").Returns("first", "second").Twice()
	m.Stubs("Ping").Returns(true)
	m.Expects("Close").Never()

	//Exercise, with a double type whose methods forward to m.Invoke...
 }

Outcomes

Returns, Raises and Yields each append to the per call behaviour of an expectation. The nth call
takes the nth outcome, and the last outcome repeats once they are exhausted.

 m.Expects("Read").Returns(1, 2).Then().Raises(io.EOF).AtLeastOnce()
 // Read() => 1, Read() => 2, Read() => io.EOF, Read() => io.EOF ...

Ordering

A Sequence requires its expectations to be invoked in the order they were added. A StateMachine gates
expectations with When, and changes state as a side effect of an invocation with Then.

 power := NewStateMachine("power").StartsAs("off")
 m.Expects("SwitchOn").When(power.Is("off")).Then(power.Is("on"))
 m.Expects("Print").When(power.Is("on"))

Spies

Received returns the calls made to a method, for assertions in the Verify phase of the test.

 m.Received("SomeQuery").Matching("test").Expect(Once())

*/
package doubles
