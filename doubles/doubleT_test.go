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
	"regexp"
	"testing"
)

// TDouble is a double of T, for testing what a Mock reports
type TDouble struct {
	*Mock
}

// NewTDouble stubs Helper and Logf; expect Errorf and Fatalf explicitly
func NewTDouble(t *testing.T, configurators ...func(*Mock)) *TDouble {
	d := &TDouble{NewMock(t, "t", configurators...)}
	d.RespondsLike((*T)(nil))
	d.Stubs("Helper")
	d.Stubs("Logf")
	return d
}

func (t *TDouble) Errorf(format string, args ...interface{}) {
	t.Mock.T().Helper()
	_, _ = t.Invoke("Errorf", format, args)
}

func (t *TDouble) Fatalf(format string, args ...interface{}) {
	t.Mock.T().Helper()
	_, _ = t.Invoke("Fatalf", format, args)
}

func (t *TDouble) Logf(format string, args ...interface{}) {
	t.Mock.T().Helper()
	_, _ = t.Invoke("Logf", format, args)
}

func (t *TDouble) Helper() {
	_, _ = t.Invoke("Helper")
}

// printfMatcher matches the (format, args) parameters of a T method when the formatted message matches re
func printfMatcher(re string) ParametersMatcher {
	exp := regexp.MustCompile(re)
	f := func(format string, args []interface{}) bool {
		return exp.MatchString(fmt.Sprintf(format, args...))
	}
	return ParametersFunc(f, fmt.Sprintf("/%s/", re))
}
