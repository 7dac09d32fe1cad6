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
	"reflect"
	"strings"
)

// An action produces the outcome of one call
type action interface {
	perform(inv *Invocation) (interface{}, error)
	String() string
}

type returnValue struct {
	value interface{}
}

func (r returnValue) perform(_ *Invocation) (interface{}, error) {
	return r.value, nil
}

func (r returnValue) String() string {
	return "returns " + Inspect(r.value)
}

type returnComputed struct {
	f func(params ...interface{}) (interface{}, error)
}

func (r returnComputed) perform(inv *Invocation) (interface{}, error) {
	return r.f(inv.Parameters...)
}

func (r returnComputed) String() string {
	return "returns computed value"
}

type raiseError struct {
	err     error
	factory func(string) error
	message string
	name    string
}

func (r raiseError) perform(_ *Invocation) (interface{}, error) {
	if r.err != nil {
		return nil, r.err
	}
	return nil, r.factory(r.message)
}

func (r raiseError) String() string {
	if r.err != nil {
		return "raises " + Inspect(r.err)
	}
	if r.message == "" {
		return "raises " + r.name
	}
	return fmt.Sprintf("raises %s(%q)", r.name, r.message)
}

/*
ActionSequence is the per call behaviour of an Expectation.

Results (return a value, return a computed value, raise) and yields are independent lists of steps.
Call n performs yield step n then result step n. Each list repeats its last step
once its steps are exhausted.

An ActionSequence is not safe for concurrent use.
*/
type ActionSequence struct {
	results []action
	yields  [][][]interface{}
	// groups holds the index of the first result step of each group after the first
	groups []int
}

// AppendReturn appends one result step per value
//
// Slices in values are copied.
func (s *ActionSequence) AppendReturn(values ...interface{}) {
	for _, v := range values {
		s.results = append(s.results, returnValue{captured(v)})
	}
}

// AppendReturnFunc appends a result step that computes the outcome from the call parameters
func (s *ActionSequence) AppendReturnFunc(f func(params ...interface{}) (interface{}, error)) {
	s.results = append(s.results, returnComputed{f})
}

/*
AppendRaise appends a result step that returns an error.

	err is an error          - the same instance is returned every time (message is not allowed)
	err is an ErrorClass     - a fresh instance per call with message, or the class's default message
	err is func(string) error - called per call with message
	err is nil               - as for RuntimeError
*/
func (s *ActionSequence) AppendRaise(err interface{}, message ...string) error {
	if len(message) > 1 {
		return configurationErrorf("raise expects at most one message, got %d", len(message))
	}
	msg := strings.Join(message, "")

	var step raiseError
	switch e := err.(type) {
	case nil:
		step = raiseError{factory: RuntimeError.New, message: msg, name: RuntimeError.Name()}
	case ErrorClass:
		step = raiseError{factory: e.New, message: msg, name: e.Name()}
	case error:
		if len(message) > 0 {
			return configurationErrorf("cannot apply message %q to error instance %v", msg, e)
		}
		step = raiseError{err: e}
	case func(string) error:
		step = raiseError{factory: e, message: msg, name: fmt.Sprintf("%T", e)}
	default:
		return configurationErrorf("cannot raise %v (%T)", err, err)
	}
	s.results = append(s.results, step)
	return nil
}

// AppendYield appends a yield step: one call yields once for each of paramLists, in order
func (s *ActionSequence) AppendYield(paramLists ...[]interface{}) {
	step := make([][]interface{}, len(paramLists))
	for i, params := range paramLists {
		step[i] = append([]interface{}{}, params...)
	}
	s.yields = append(s.yields, step)
}

// StartNewGroup marks that subsequent results belong to a new group
func (s *ActionSequence) StartNewGroup() {
	if len(s.results) == 0 {
		return
	}
	if n := len(s.groups); n > 0 && s.groups[n-1] == len(s.results) {
		return
	}
	s.groups = append(s.groups, len(s.results))
}

// Len is the number of result steps before the last one repeats
func (s *ActionSequence) Len() int {
	return len(s.results)
}

// Perform yields and computes the result for call number callIndex (0 based).
//
// The returned value is recorded on inv (a returned error is recorded with Raised).
func (s *ActionSequence) Perform(inv *Invocation, callIndex int) (interface{}, error) {
	if n := len(s.yields); n > 0 {
		for _, params := range s.yields[clamp(callIndex, n)] {
			if err := inv.yield(params); err != nil {
				inv.Raised(err)
				return nil, err
			}
		}
	}

	var value interface{}
	var err error
	if n := len(s.results); n > 0 {
		value, err = s.results[clamp(callIndex, n)].perform(inv)
	}
	if err != nil {
		inv.Raised(err)
		return nil, err
	}
	inv.Returned(value)
	return value, nil
}

func clamp(index int, length int) int {
	if index >= length {
		return length - 1
	}
	return index
}

func (s *ActionSequence) String() string {
	if len(s.results) == 0 && len(s.yields) == 0 {
		return ""
	}
	sb := strings.Builder{}
	group := 0
	for i, r := range s.results {
		if i > 0 {
			if group < len(s.groups) && s.groups[group] == i {
				sb.WriteString("; then ")
				group++
			} else {
				sb.WriteString(", ")
			}
		}
		sb.WriteString(r.String())
	}
	for i, y := range s.yields {
		if i > 0 || len(s.results) > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString("yields")
		for _, params := range y {
			sb.WriteString(" (" + inspectList(params) + ")")
		}
	}
	return sb.String()
}

// captured copies slices so that later changes by the caller are not seen
func captured(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice || rv.IsNil() {
		return v
	}
	c := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(c, rv)
	return c.Interface()
}
