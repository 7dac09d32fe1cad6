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
	"regexp"
	"strings"

	"github.com/onsi/gomega/types"
)

// Matcher matches a single argument.
//
// The interface is the same as gomock.Matcher, so gomock.Eq(), gomock.Any() etc can be used directly.
type Matcher interface {
	// Matches returns true if x is a match
	Matches(x interface{}) bool

	// String describes what is matched
	String() string
}

// ParametersMatcher matches the complete parameter list of an Invocation
type ParametersMatcher interface {
	Matches(params []interface{}) bool

	// String describes what is matched, including the surrounding parentheses
	String() string
}

func genericSingleArgumentMatcher(matcher interface{}) Matcher {
	switch typedMatcher := matcher.(type) {
	case Matcher:
		return typedMatcher
	case types.GomegaMatcher:
		return Satisfy(typedMatcher)
	case reflect.Type:
		return IsA(typedMatcher)
	case nil:
		return Nil()
	default:
		if reflect.TypeOf(matcher).Kind() == reflect.Func {
			return Func(matcher)
		}
		return Eql(matcher)
	}
}

/*
NewParametersMatcher builds a ParametersMatcher

An empty matchers list matches only calls with no parameters.

If the first matcher is a ParametersMatcher then it is used (more matchers is a ConfigurationError)
If the first matcher is a func then is equivalent to ParametersFunc(matchers[0],matchers[1:]...)
Otherwise each matcher is converted to a Matcher (Func, IsA, Nil or Eql) and the list is sent to Args()
*/
func NewParametersMatcher(matchers ...interface{}) (ParametersMatcher, error) {
	if len(matchers) == 0 {
		return NoParameters(), nil
	}

	if pm, isPM := matchers[0].(ParametersMatcher); isPM {
		if len(matchers) > 1 {
			return nil, configurationErrorf("%v must be the only parameters matcher, got %d", pm, len(matchers))
		}
		return pm, nil
	}

	if matchers[0] != nil && reflect.TypeOf(matchers[0]).Kind() == reflect.Func {
		if _, isMatcher := matchers[0].(Matcher); !isMatcher {
			return ParametersFunc(matchers[0], matchers[1:]...), nil
		}
	}

	matcherSlice := make([]Matcher, len(matchers))
	for i, m := range matchers {
		matcherSlice[i] = genericSingleArgumentMatcher(m)
	}
	return Args(matcherSlice...), nil
}

type anyParameters struct{}

func (anyParameters) Matches(_ []interface{}) bool { return true }
func (anyParameters) String() string              { return "(any parameters)" }

// AnyParameters matches any parameter list. It is the default for a new Expectation.
func AnyParameters() ParametersMatcher {
	return anyParameters{}
}

type argumentsMatcher struct {
	matcherList matcherList
}

func (l *argumentsMatcher) Matches(params []interface{}) bool {
	if len(params) != len(l.matcherList) {
		return false
	}
	for i, matcher := range l.matcherList {
		if !matcher.Matches(params[i]) {
			return false
		}
	}
	return true
}

func (l *argumentsMatcher) String() string {
	return "(" + l.matcherList.join() + ")"
}

// Args matches a parameter list of exactly len(matchers) parameters, one matcher per parameter
func Args(matchers ...Matcher) ParametersMatcher {
	return &argumentsMatcher{matchers}
}

// NoParameters matches an empty parameter list
func NoParameters() ParametersMatcher {
	return Args()
}

type funcMatcher struct {
	reflect.Value
	explanation string
}

func newFuncMatcher(f interface{}, explanation []interface{}) funcMatcher {
	var explainString string
	if len(explanation) == 0 {
		explainString = fmt.Sprintf("%T", f)
	} else {
		explainString = fmt.Sprint(explanation...)
	}

	fv := reflect.ValueOf(f)
	ft := fv.Type()
	if ft.Kind() != reflect.Func || ft.NumOut() != 1 || ft.Out(0).Kind() != reflect.Bool {
		panic(configurationErrorf("expected func(...) bool, have %v", ft))
	}
	return funcMatcher{fv, explainString}
}

func (f funcMatcher) String() string {
	return f.explanation
}

func (f funcMatcher) call(args []interface{}) bool {
	ft := f.Type()
	if ft.IsVariadic() {
		if len(args) < ft.NumIn()-1 {
			return false
		}
	} else if len(args) != ft.NumIn() {
		return false
	}

	inArgs := make([]reflect.Value, len(args))
	for i, arg := range args {
		var inType reflect.Type
		if ft.IsVariadic() && i >= ft.NumIn()-1 {
			inType = ft.In(ft.NumIn() - 1).Elem()
		} else {
			inType = ft.In(i)
		}
		if arg == nil {
			switch inType.Kind() {
			case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
				inArgs[i] = reflect.Zero(inType)
				continue
			default:
				return false
			}
		}
		v := reflect.ValueOf(arg)
		if !v.Type().AssignableTo(inType) {
			return false
		}
		inArgs[i] = v
	}
	return f.Call(inArgs)[0].Bool()
}

type singleFuncMatcher struct {
	funcMatcher
}

func (f singleFuncMatcher) Matches(x interface{}) bool {
	return f.call([]interface{}{x})
}

// Func returns a single argument matcher from f, a func(x T) bool
//
// An argument not assignable to T does not match.
// Optionally include an explanation that will be formatted to string to describe what is being matched
func Func(f interface{}, explanation ...interface{}) Matcher {
	return singleFuncMatcher{newFuncMatcher(f, explanation)}
}

type parametersFuncMatcher struct {
	funcMatcher
}

func (f parametersFuncMatcher) Matches(params []interface{}) bool {
	return f.call(params)
}

func (f parametersFuncMatcher) String() string {
	return "(" + f.explanation + ")"
}

// ParametersFunc returns a ParametersMatcher from f, a func(...) bool taking the whole parameter list
//
// Parameter lists of the wrong length or types do not match.
func ParametersFunc(f interface{}, explanation ...interface{}) ParametersMatcher {
	return parametersFuncMatcher{newFuncMatcher(f, explanation)}
}

type matcherList []Matcher

func (l matcherList) join() string {
	s := make([]string, len(l))
	for i, m := range l {
		s[i] = m.String()
	}
	return strings.Join(s, ", ")
}

func (l matcherList) toString(prefix string) string {
	return prefix + "(" + l.join() + ")"
}

type eqlMatcher struct {
	v interface{}
}

func (e eqlMatcher) Matches(x interface{}) bool {
	return reflect.DeepEqual(x, e.v)
}

func (e eqlMatcher) String() string {
	return Inspect(e.v)
}

// Eql matches a single argument equal to v via reflect.DeepEqual
//
// v is rendered with Inspect in diagnostics.
func Eql(v interface{}) Matcher {
	return eqlMatcher{v}
}

type anythingMatcher struct{}

func (anythingMatcher) Matches(interface{}) bool { return true }
func (anythingMatcher) String() string           { return "anything" }

// Anything matches any single argument
func Anything() Matcher {
	return anythingMatcher{}
}

type nilMatcher struct{}

func (n nilMatcher) String() string {
	return "nil"
}

func (n nilMatcher) Matches(arg interface{}) bool {
	if arg == nil {
		return true
	}

	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return v.IsNil()
	}

	return false
}

// Nil matches a single argument of any nil-able type to be nil (or equivalent)
func Nil() Matcher {
	return nilMatcher{}
}

type lenMatcher struct {
	Matcher
}

func (l lenMatcher) String() string {
	return fmt.Sprintf("Len(%v)", l.Matcher)
}

func (l lenMatcher) Matches(arg interface{}) bool {
	if arg == nil {
		return false
	}
	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Array, reflect.Chan, reflect.Map, reflect.Slice, reflect.String:
		return l.Matcher.Matches(v.Len())
	default:
		return false
	}
}

// Len matches a single argument of Array, Chan, Map, Slice or String type with length matching v
//
// v may be anything that can match an int
// eg
//   Len(0)
//   Len(func(l int) bool { return l <= 10 })
func Len(v interface{}) Matcher {
	return lenMatcher{genericSingleArgumentMatcher(v)}
}

type isAMatcher struct {
	rt reflect.Type
}

func (m isAMatcher) Matches(x interface{}) bool {
	if x == nil {
		return false
	}
	argT := reflect.TypeOf(x)
	if m.rt.Kind() == reflect.Interface {
		return argT.Implements(m.rt)
	}
	return argT.AssignableTo(m.rt)
}

func (m isAMatcher) String() string {
	return fmt.Sprintf("IsA(%v)", m.rt)
}

// IsA matches a single argument if it is AssignableTo, or Implements, the type t
//
// if t is not already a reflect.Type it will be converted with reflect.TypeOf
func IsA(t interface{}) Matcher {
	rt, isType := t.(reflect.Type)
	if !isType {
		rt = reflect.TypeOf(t)
	}
	return isAMatcher{rt}
}

type regexpMatcher struct {
	re *regexp.Regexp
}

func (m regexpMatcher) Matches(x interface{}) bool {
	switch s := x.(type) {
	case string:
		return m.re.MatchString(s)
	case fmt.Stringer:
		return m.re.MatchString(s.String())
	}
	return false
}

func (m regexpMatcher) String() string {
	return fmt.Sprintf("/%s/", m.re)
}

// RegexpMatches matches a string (or fmt.Stringer) argument against pattern
func RegexpMatches(pattern string) Matcher {
	return regexpMatcher{regexp.MustCompile(pattern)}
}

type hasEntryMatcher struct {
	key   Matcher
	value Matcher
}

func (m hasEntryMatcher) Matches(x interface{}) bool {
	if x == nil {
		return false
	}
	v := reflect.ValueOf(x)
	if v.Kind() != reflect.Map {
		return false
	}
	iter := v.MapRange()
	for iter.Next() {
		if m.key.Matches(iter.Key().Interface()) && m.value.Matches(iter.Value().Interface()) {
			return true
		}
	}
	return false
}

func (m hasEntryMatcher) String() string {
	if _, anyValue := m.value.(anythingMatcher); anyValue {
		return fmt.Sprintf("HasKey(%v)", m.key)
	}
	return fmt.Sprintf("HasEntry(%v => %v)", m.key, m.value)
}

// HasKey matches a map argument with a key matching key
func HasKey(key interface{}) Matcher {
	return hasEntryMatcher{genericSingleArgumentMatcher(key), Anything()}
}

// HasEntry matches a map argument with an entry matching key and value
func HasEntry(key interface{}, value interface{}) Matcher {
	return hasEntryMatcher{genericSingleArgumentMatcher(key), genericSingleArgumentMatcher(value)}
}

type sliceMatcher struct {
	matcherList
}

// Slice returns a Matcher for a Slice or Array argument whose leading elements match matchers
func Slice(matchers ...Matcher) Matcher {
	return &sliceMatcher{matchers}
}

func (sm *sliceMatcher) String() string {
	return "[" + sm.join() + "]"
}

func (sm *sliceMatcher) Matches(arg interface{}) bool {
	if arg == nil {
		return false
	}
	v := reflect.ValueOf(arg)
	switch v.Kind() {
	case reflect.Array, reflect.Slice:
		if v.Len() < len(sm.matcherList) {
			return false
		}
		for i := 0; i < len(sm.matcherList); i++ {
			if !sm.matcherList[i].Matches(v.Index(i).Interface()) {
				return false
			}
		}
		//remaining elements are not constrained
		return true

	default:
		return false
	}
}

type andMatcher struct {
	matcherList
}

func (a andMatcher) Matches(arg interface{}) bool {
	for _, m := range a.matcherList {
		if !m.Matches(arg) {
			return false
		}
	}
	return true
}

func (a andMatcher) String() string {
	return a.toString("All")
}

// All matches if all the matchers match (returns true for no matchers)
func All(matchers ...Matcher) Matcher {
	return andMatcher{matchers}
}

type orMatcher struct {
	matcherList
}

func (a orMatcher) Matches(arg interface{}) bool {
	for _, m := range a.matcherList {
		if m.Matches(arg) {
			return true
		}
	}
	return false
}

func (a orMatcher) String() string {
	return a.toString("Any")
}

// Any matches if any one of the matchers match (returns false for no matchers)
func Any(matchers ...Matcher) Matcher {
	return orMatcher{matchers}
}

type notMatcher struct {
	Matcher
}

func (nm notMatcher) String() string {
	return fmt.Sprintf("Not(%v)", nm.Matcher)
}

func (nm notMatcher) Matches(arg interface{}) bool {
	return !nm.Matcher.Matches(arg)
}

// Not negates matcher
func Not(matcher Matcher) Matcher {
	return notMatcher{matcher}
}

type gomegaMatcher struct {
	types.GomegaMatcher
}

func (g gomegaMatcher) Matches(x interface{}) bool {
	success, err := g.Match(x)
	return err == nil && success
}

func (g gomegaMatcher) String() string {
	return fmt.Sprintf("Satisfy(%T)", g.GomegaMatcher)
}

// Satisfy adapts a gomega matcher to match a single argument. A gomega error is treated as no match.
//
// Gomega matchers passed directly to With() are adapted automatically.
func Satisfy(matcher types.GomegaMatcher) Matcher {
	return gomegaMatcher{matcher}
}
