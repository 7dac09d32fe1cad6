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

	"gopkg.in/yaml.v3"
)

// Policy decides what happens when a Mock is asked to stub something questionable
type Policy int

const (
	// Allow silently
	Allow Policy = iota
	// Warn via T.Logf
	Warn
	// Prevent fails the test fatally with a StubbingError
	Prevent
)

var policyNames = map[Policy]string{Allow: "allow", Warn: "warn", Prevent: "prevent"}

func (p Policy) String() string {
	if name, found := policyNames[p]; found {
		return name
	}
	return fmt.Sprintf("Policy(%d)", int(p))
}

// ParsePolicy parses "allow", "warn" or "prevent"
func ParsePolicy(s string) (Policy, error) {
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return Allow, configurationErrorf("unknown policy %q, expected allow, warn or prevent", s)
}

func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePolicy(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = parsed
	return nil
}

func (p Policy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

// Configuration holds the stubbing policies of a Mock
type Configuration struct {
	// StubbingNonPublicMethod applies to method names that are not exported identifiers
	StubbingNonPublicMethod Policy `yaml:"stubbing_non_public_method"`

	// StubbingNonExistentMethod applies to methods missing from the interface given to RespondsLike
	StubbingNonExistentMethod Policy `yaml:"stubbing_non_existent_method"`

	// StubbingMethodUnnecessarily applies, on Verify, to stubs that were never invoked
	StubbingMethodUnnecessarily Policy `yaml:"stubbing_method_unnecessarily"`
}

// DefaultConfiguration allows everything except stubbing methods that do not exist
func DefaultConfiguration() Configuration {
	return Configuration{
		StubbingNonPublicMethod:     Allow,
		StubbingNonExistentMethod:   Prevent,
		StubbingMethodUnnecessarily: Allow,
	}
}

/*
ParseConfiguration reads a Configuration from YAML, starting from DefaultConfiguration

	stubbing_non_public_method: warn
	stubbing_method_unnecessarily: prevent
*/
func ParseConfiguration(data []byte) (Configuration, error) {
	c := DefaultConfiguration()
	if err := yaml.Unmarshal(data, &c); err != nil {
		return DefaultConfiguration(), err
	}
	return c, nil
}
