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
)

var (
	// ErrBlockNotSupplied is matched (errors.Is) by the error returned when a yielding
	// expectation is invoked without a block.
	ErrBlockNotSupplied = errors.New("no block given (yield)")

	// ErrUnexpectedInvocation is matched by errors returned for calls no expectation allows.
	ErrUnexpectedInvocation = errors.New("unexpected invocation")

	// ErrStubbing is matched by StubbingError.
	ErrStubbing = errors.New("stubbing error")
)

// ConfigurationError reports invalid arguments to an expectation builder.
//
// The fluent builder methods of Expectation panic with a *ConfigurationError.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Message
}

func configurationErrorf(format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Message: fmt.Sprintf(format, args...)}
}

// BlockNotSuppliedError is returned from Invoke when a yield fires for a call made without a block
type BlockNotSuppliedError struct {
	Call string
}

func (e *BlockNotSuppliedError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBlockNotSupplied.Error(), e.Call)
}

func (e *BlockNotSuppliedError) Unwrap() error {
	return ErrBlockNotSupplied
}

// UnexpectedInvocationError is returned by Mock.Invoke when no expectation allows the call
type UnexpectedInvocationError struct {
	Call       string
	OutOfOrder bool
	// Expectations describes every expectation of the mock at the time of the call
	Expectations []string
}

func (e *UnexpectedInvocationError) Error() string {
	msg := fmt.Sprintf("%s: %s", ErrUnexpectedInvocation.Error(), e.Call)
	if e.OutOfOrder {
		msg += " invoked out of order"
	}
	for _, desc := range e.Expectations {
		msg += "\n- " + desc
	}
	return msg
}

func (e *UnexpectedInvocationError) Unwrap() error {
	return ErrUnexpectedInvocation
}

// StubbingError reports a stub request prevented by Configuration
type StubbingError struct {
	Message string
}

func (e *StubbingError) Error() string {
	return "StubbingError: " + e.Message
}

func (e *StubbingError) Unwrap() error {
	return ErrStubbing
}

// ErrorClass creates fresh error instances for Raises.
type ErrorClass interface {
	// New returns a new error with message, or the default message if message is empty
	New(message string) error
	Name() string
	// Error returns the class name, so that errors.Is(err, class) matches instances of the class
	Error() string
}

type errorClass struct {
	name           string
	defaultMessage string
}

// ClassError is an error created by an ErrorClass
type ClassError struct {
	class   *errorClass
	message string
}

func (e *ClassError) Error() string {
	return e.message
}

// Is reports whether target is the ErrorClass that created e
func (e *ClassError) Is(target error) bool {
	if tc, isClass := target.(*errorClass); isClass {
		return tc == e.class
	}
	return false
}

// Class returns the ErrorClass that created e
func (e *ClassError) Class() ErrorClass {
	return e.class
}

func (c *errorClass) New(message string) error {
	if message == "" {
		message = c.defaultMessage
	}
	return &ClassError{class: c, message: message}
}

func (c *errorClass) Name() string {
	return c.name
}

func (c *errorClass) String() string {
	return c.name
}

func (c *errorClass) Error() string {
	return c.name
}

// NewErrorClass returns a distinct ErrorClass.
//
// The default message, used when Raises is given no message, is the class name unless defaultMessage is provided.
func NewErrorClass(name string, defaultMessage ...string) ErrorClass {
	msg := name
	if len(defaultMessage) > 0 {
		msg = defaultMessage[0]
	}
	return &errorClass{name: name, defaultMessage: msg}
}

// RuntimeError is raised by Raises() with no arguments
var RuntimeError = NewErrorClass("RuntimeError", "unhandled exception")
