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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

type fixture struct {
	Expectations []fixtureExpectation `yaml:"expectations"`
}

// fixtureLines locates each expectation in the document
type fixtureLines struct {
	Expectations []yaml.Node `yaml:"expectations"`
}

type fixtureExpectation struct {
	Method     string          `yaml:"method"`
	Stub       bool            `yaml:"stub"`
	With       []interface{}   `yaml:"with"`
	Returns    []interface{}   `yaml:"returns"`
	Raises     *string         `yaml:"raises"`
	Yields     [][]interface{} `yaml:"yields"`
	Times      *int            `yaml:"times"`
	AtLeast    *int            `yaml:"at_least"`
	AtMost     *int            `yaml:"at_most"`
	Never      bool            `yaml:"never"`
	InSequence []string        `yaml:"in_sequence"`
}

func (f *fixtureExpectation) cardinality() (*Cardinality, error) {
	if f.Never {
		if f.Times != nil || f.AtLeast != nil || f.AtMost != nil {
			return nil, configurationErrorf("never cannot be combined with times, at_least or at_most")
		}
		c := Never()
		return &c, nil
	}
	if f.Times != nil {
		if f.AtLeast != nil || f.AtMost != nil {
			return nil, configurationErrorf("times cannot be combined with at_least or at_most")
		}
		c, err := NewCardinality(*f.Times, *f.Times)
		return &c, err
	}
	if f.AtLeast == nil && f.AtMost == nil {
		return nil, nil
	}
	min, max := 0, Unbounded
	if f.AtLeast != nil {
		min = *f.AtLeast
	}
	if f.AtMost != nil {
		max = *f.AtMost
	}
	c, err := NewCardinality(min, max)
	return &c, err
}

func (f *fixtureExpectation) sequences(available []*Sequence) ([]*Sequence, error) {
	var found []*Sequence
	for _, name := range f.InSequence {
		var seq *Sequence
		for _, s := range available {
			if s.Name() == name {
				seq = s
				break
			}
		}
		if seq == nil {
			return nil, configurationErrorf("unknown sequence %q", name)
		}
		found = append(found, seq)
	}
	return found, nil
}

/*
Load declares expectations from a YAML fixture, in order.

	expectations:
	  - method: Get
	    with: ["config"]
	    returns: ["a", "b"]
	    times: 2
	    in_sequence: [startup]
	  - method: Close
	    stub: true
	    raises: "already closed"

with is the exact parameter list (omit it to match any parameters), returns and yields are consecutive
outcomes as for Expectation.Returns and Expectation.MultipleYields, raises returns a RuntimeError with the
given message. in_sequence names sequences from the sequences argument.

Each expectation originates at its line in the fixture. Nothing is declared if the fixture is invalid.
*/
func (m *Mock) Load(r io.Reader, sequences ...*Sequence) ([]*Expectation, error) {
	m.t.Helper()
	return m.load("fixture", r, sequences)
}

// LoadFile is Load from the named file
func (m *Mock) LoadFile(path string, sequences ...*Sequence) ([]*Expectation, error) {
	m.t.Helper()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return m.load(path, f, sequences)
}

type pendingExpectation struct {
	origin      string
	declared    fixtureExpectation
	cardinality *Cardinality
	matcher     ParametersMatcher
	sequences   []*Sequence
}

func (m *Mock) load(source string, r io.Reader, sequences []*Sequence) ([]*Expectation, error) {
	m.t.Helper()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	var doc fixture
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", source, err)
	}
	var lines fixtureLines
	if err := yaml.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("%s: %w", source, err)
	}

	pending := make([]pendingExpectation, 0, len(doc.Expectations))
	for i, declared := range doc.Expectations {
		p := pendingExpectation{origin: fmt.Sprintf("%s:%d", source, lines.Expectations[i].Line), declared: declared}
		if err := p.resolve(sequences); err != nil {
			return nil, fmt.Errorf("%s: %w", p.origin, err)
		}
		pending = append(pending, p)
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()
	loaded := make([]*Expectation, 0, len(pending))
	for _, p := range pending {
		e := m.addExpectation(p.declared.Method, p.declared.Stub).OriginatedAt(p.origin)
		p.apply(e)
		loaded = append(loaded, e)
	}
	return loaded, nil
}

func (p *pendingExpectation) resolve(sequences []*Sequence) error {
	var err error
	if p.declared.Method == "" {
		return configurationErrorf("method is required")
	}
	if p.declared.Raises != nil && len(p.declared.Returns) > 0 {
		return configurationErrorf("returns cannot be combined with raises")
	}
	if p.cardinality, err = p.declared.cardinality(); err != nil {
		return err
	}
	if p.declared.With != nil {
		if p.matcher, err = NewParametersMatcher(p.declared.With...); err != nil {
			return err
		}
	}
	p.sequences, err = p.declared.sequences(sequences)
	return err
}

func (p *pendingExpectation) apply(e *Expectation) {
	if p.matcher != nil {
		e.With(p.matcher)
	}
	if p.cardinality != nil {
		e.Expect(*p.cardinality)
	}
	if len(p.declared.Returns) > 0 {
		e.Returns(p.declared.Returns...)
	}
	if p.declared.Raises != nil {
		e.Raises(nil, *p.declared.Raises)
	}
	if len(p.declared.Yields) > 0 {
		e.MultipleYields(p.declared.Yields...)
	}
	e.InSequence(p.sequences...)
}
