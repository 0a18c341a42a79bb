// Copyright The Flowcheck Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"regexp"

	"github.com/taintkit/flowcheck/analysis/modelquery"
)

// TargetIdentifier identifies a modelable by its package, type and
// method components, the structured alternative to writing a single
// fully-qualified-name regex by hand. An empty component matches
// anything; a non-empty one is compiled as a regex fragment, mirroring
// the config file convention that string specifications are regexes
// when they compile as one.
type TargetIdentifier struct {
	Package string `yaml:"package"`
	Type    string `yaml:"type"`
	Method  string `yaml:"method"`
}

func wildcard(s string) string {
	if s == "" {
		return ".*"
	}
	return s
}

// Pattern compiles ti into the anchored regex a fully qualified name
// of the form "package.type.method" is matched against.
func (ti TargetIdentifier) Pattern() (*regexp.Regexp, error) {
	expr := "^" + wildcard(ti.Package) + `\.` + wildcard(ti.Type) + `\.` + wildcard(ti.Method) + "$"
	return regexp.Compile(expr)
}

// ToNameConstraint builds the modelquery.NameConstraint ti matches as,
// suitable for FullyQualifiedName.
func (ti TargetIdentifier) ToNameConstraint() (modelquery.NameConstraint, error) {
	p, err := ti.Pattern()
	if err != nil {
		return modelquery.NameConstraint{}, err
	}
	return modelquery.MatchesName(p), nil
}
