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

	"github.com/onsi/gomega/types"
)

/*
BeVerified is a gomega matcher for a *Mock (or a double embedding one) or *Expectation whose expectations
are all satisfied.

	Expect(mock).To(BeVerified())

Unlike Mock.Verify, it does not report through T and does not increment the assertion counter.
*/
func BeVerified() types.GomegaMatcher {
	return &verifiedMatcher{}
}

// unverifiable is a *Mock, or a double type embedding one
type unverifiable interface {
	Unverified() []*Expectation
}

type verifiedMatcher struct {
	unsatisfied []*Expectation
}

func (matcher *verifiedMatcher) Match(actual interface{}) (success bool, err error) {
	switch v := actual.(type) {
	case *Expectation:
		matcher.unsatisfied = nil
		if !v.Satisfied() {
			matcher.unsatisfied = []*Expectation{v}
		}
	case unverifiable:
		matcher.unsatisfied = v.Unverified()
	default:
		return false, fmt.Errorf("BeVerified matcher expects a *Mock or *Expectation, got %T", actual)
	}
	return len(matcher.unsatisfied) == 0, nil
}

func (matcher *verifiedMatcher) describeUnsatisfied() string {
	sb := strings.Builder{}
	for _, e := range matcher.unsatisfied {
		sb.WriteString("\n\t- ")
		sb.WriteString(e.Describe())
	}
	return sb.String()
}

func (matcher *verifiedMatcher) FailureMessage(actual interface{}) (message string) {
	return fmt.Sprintf("Expected %s to be verified, but not all expectations were satisfied:%s", Inspect(actual), matcher.describeUnsatisfied())
}

func (matcher *verifiedMatcher) NegatedFailureMessage(actual interface{}) (message string) {
	return fmt.Sprintf("Expected %s not to be verified, but all expectations were satisfied", Inspect(actual))
}
