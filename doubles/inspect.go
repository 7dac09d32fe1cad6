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
	"sort"
	"strconv"
	"strings"
)

// Inspector is implemented by values that render themselves in diagnostics
type Inspector interface {
	Inspect() string
}

// Symbol is a name rather than text. It renders as :name, or name: as a map key.
type Symbol string

func (s Symbol) Inspect() string {
	return ":" + string(s)
}

// Inspect renders v for failure messages, reproducing container literal syntax.
//
// A pointer, slice or map that refers back to itself renders as &..., [...] or {...}.
func Inspect(v interface{}) string {
	sb := &strings.Builder{}
	i := &inspection{sb: sb, visiting: map[reference]bool{}}
	i.inspect(v)
	return sb.String()
}

func inspectList(values []interface{}) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = Inspect(v)
	}
	return strings.Join(parts, ", ")
}

// reference identifies a container being rendered. A struct and its first field share an address.
type reference struct {
	addr uintptr
	typ  reflect.Type
}

type inspection struct {
	sb       *strings.Builder
	visiting map[reference]bool
}

// enter is false if rv is already being rendered
func (i *inspection) enter(rv reflect.Value) (reference, bool) {
	ref := reference{addr: rv.Pointer(), typ: rv.Type()}
	if i.visiting[ref] {
		return ref, false
	}
	i.visiting[ref] = true
	return ref, true
}

func (i *inspection) leave(ref reference) {
	delete(i.visiting, ref)
}

func (i *inspection) inspect(v interface{}) {
	sb := i.sb
	switch tv := v.(type) {
	case nil:
		sb.WriteString("nil")
		return
	case Inspector:
		sb.WriteString(tv.Inspect())
		return
	case string:
		sb.WriteString(strconv.Quote(tv))
		return
	case error:
		sb.WriteString(fmt.Sprintf("%T(%q)", tv, tv.Error()))
		return
	case fmt.Stringer:
		sb.WriteString(tv.String())
		return
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			sb.WriteString("nil")
			return
		}
		ref, ok := i.enter(rv)
		if !ok {
			sb.WriteString("[...]")
			return
		}
		defer i.leave(ref)
		i.inspectElements(rv)
	case reflect.Array:
		i.inspectElements(rv)
	case reflect.Map:
		if rv.IsNil() {
			sb.WriteString("nil")
			return
		}
		ref, ok := i.enter(rv)
		if !ok {
			sb.WriteString("{...}")
			return
		}
		defer i.leave(ref)
		i.inspectMap(rv)
	case reflect.Ptr:
		if rv.IsNil() {
			sb.WriteString("nil")
			return
		}
		ref, ok := i.enter(rv)
		if !ok {
			sb.WriteString("&...")
			return
		}
		defer i.leave(ref)
		sb.WriteRune('&')
		i.inspect(rv.Elem().Interface())
	case reflect.Struct:
		i.inspectStruct(rv)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		if rv.IsNil() {
			sb.WriteString("nil")
		} else {
			sb.WriteString(fmt.Sprintf("%T", v))
		}
	default:
		sb.WriteString(fmt.Sprint(v))
	}
}

func (i *inspection) inspectElements(rv reflect.Value) {
	i.sb.WriteRune('[')
	for n := 0; n < rv.Len(); n++ {
		if n > 0 {
			i.sb.WriteString(", ")
		}
		i.inspect(rv.Index(n).Interface())
	}
	i.sb.WriteRune(']')
}

// render inspects v into its own string, sharing the containers being rendered
func (i *inspection) render(v interface{}) string {
	outer := i.sb
	i.sb = &strings.Builder{}
	defer func() { i.sb = outer }()
	i.inspect(v)
	return i.sb.String()
}

func (i *inspection) inspectMap(rv reflect.Value) {
	type entry struct {
		key   string
		value string
	}
	entries := make([]entry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		k := iter.Key().Interface()
		e := entry{value: i.render(iter.Value().Interface())}
		if sym, isSym := k.(Symbol); isSym {
			e.key = string(sym) + ": "
		} else {
			e.key = i.render(k) + " => "
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].key < entries[b].key })

	sb := i.sb
	sb.WriteRune('{')
	for n, e := range entries {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.key)
		sb.WriteString(e.value)
	}
	sb.WriteRune('}')
}

func (i *inspection) inspectStruct(rv reflect.Value) {
	rt := rv.Type()
	sb := i.sb
	sb.WriteString(rt.String())
	sb.WriteRune('{')
	written := 0
	for n := 0; n < rt.NumField(); n++ {
		f := rt.Field(n)
		if f.PkgPath != "" {
			continue //unexported
		}
		if written > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteString(": ")
		i.inspect(rv.Field(n).Interface())
		written++
	}
	sb.WriteRune('}')
}
