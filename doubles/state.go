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
)

// StatePredicate gates an Expectation with When
type StatePredicate interface {
	Active() bool
	String() string
}

// StateTransition is activated as a side effect of invoking an Expectation (see Expectation.Then)
type StateTransition interface {
	Activate()
	String() string
}

// A StateMachine is a named, mutable state shared by the expectations that refer to it
type StateMachine struct {
	name    string
	current *string
}

// NewStateMachine returns a StateMachine with no current state
func NewStateMachine(name string) *StateMachine {
	return &StateMachine{name: name}
}

// StartsAs sets the initial state
func (m *StateMachine) StartsAs(state string) *StateMachine {
	m.Become(state)
	return m
}

// Become sets the current state
func (m *StateMachine) Become(state string) {
	m.current = &state
}

// Current returns the current state and whether there is one
func (m *StateMachine) Current() (string, bool) {
	if m.current == nil {
		return "", false
	}
	return *m.current, true
}

// Is returns the State, usable both as a StatePredicate and a StateTransition
func (m *StateMachine) Is(state string) *State {
	return &State{machine: m, name: state}
}

// IsNot returns a predicate that is active when the machine is not in state
func (m *StateMachine) IsNot(state string) StatePredicate {
	return notState{machine: m, name: state}
}

func (m *StateMachine) String() string {
	if m.current == nil {
		return m.name
	}
	return fmt.Sprintf("%s (currently %q)", m.name, *m.current)
}

// A State of a StateMachine
type State struct {
	machine *StateMachine
	name    string
}

// Activate makes this the current state of its machine
func (s *State) Activate() {
	s.machine.Become(s.name)
}

// Active is true if this is the current state of its machine
func (s *State) Active() bool {
	return s.machine.current != nil && *s.machine.current == s.name
}

func (s *State) String() string {
	return s.machine.name + " is " + strconv.Quote(s.name)
}

type notState struct {
	machine *StateMachine
	name    string
}

func (s notState) Active() bool {
	return s.machine.current == nil || *s.machine.current != s.name
}

func (s notState) String() string {
	return s.machine.name + " is not " + strconv.Quote(s.name)
}
