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
	"strings"
)

// Block is the callback a caller may pass to a stubbed method, for expectations that yield
type Block func(params ...interface{})

// An Invocation records a single call to a stubbed method
type Invocation struct {
	Target     interface{}
	MethodName string
	Parameters []interface{}
	Block      Block

	returned    interface{}
	hasReturned bool
	raised      error
	yields      [][]interface{}
}

// NewInvocation records a call. The parameters are copied.
func NewInvocation(target interface{}, methodName string, parameters []interface{}, block Block) *Invocation {
	params := make([]interface{}, len(parameters))
	copy(params, parameters)
	return &Invocation{Target: target, MethodName: methodName, Parameters: params, Block: block}
}

// Returned records the value the call returned. It can only be called once.
func (i *Invocation) Returned(value interface{}) {
	if i.hasReturned {
		panic(fmt.Sprintf("returned value already recorded for %s", i.ShortCallDescription()))
	}
	i.returned = value
	i.hasReturned = true
}

// ReturnedValue is the value recorded by Returned, and whether one was recorded
func (i *Invocation) ReturnedValue() (interface{}, bool) {
	return i.returned, i.hasReturned
}

// Raised records an error propagated from the call
func (i *Invocation) Raised(err error) {
	i.raised = err
}

// Err is the error recorded by Raised
func (i *Invocation) Err() error {
	return i.raised
}

// Yields are the parameter lists yielded to the block, in order
func (i *Invocation) Yields() [][]interface{} {
	return i.yields
}

func (i *Invocation) yield(params []interface{}) error {
	i.yields = append(i.yields, params)
	if i.Block == nil {
		return &BlockNotSuppliedError{Call: i.ShortCallDescription()}
	}
	i.Block(params...)
	return nil
}

// ShortCallDescription renders the call without its outcome, eg mock.method(1, "a")
func (i *Invocation) ShortCallDescription() string {
	return methodSignature(i.Target, i.MethodName, "("+inspectList(i.Parameters)+")")
}

// CallDescription renders the call and its outcome, eg mock.method(1) # => 2 after yielding (3)
func (i *Invocation) CallDescription() string {
	sb := strings.Builder{}
	sb.WriteString(i.ShortCallDescription())
	if i.raised != nil {
		sb.WriteString(" # => raised ")
		sb.WriteString(Inspect(i.raised))
	} else if i.hasReturned {
		sb.WriteString(" # => ")
		sb.WriteString(Inspect(i.returned))
	}
	if len(i.yields) > 0 {
		sb.WriteString(" after yielding ")
		for n, y := range i.yields {
			if n > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString("(" + inspectList(y) + ")")
		}
	}
	return sb.String()
}

func (i *Invocation) String() string {
	return i.CallDescription()
}

func methodSignature(target interface{}, methodName string, params string) string {
	if target == nil {
		return methodName + params
	}
	return Inspect(target) + "." + methodName + params
}
