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

const (
	// DefaultMaxAlarms is the value Options.MaxAlarms takes when the rule
	// file leaves it at zero. No stage of the issue pipeline reads
	// MaxAlarms: every issue is reported, however many share a rule code.
	DefaultMaxAlarms = 1000

	// DefaultReportsDir is the value Options.ReportsDir takes when the
	// rule file leaves it unset. Nothing writes reports there; the check
	// command prints its issues to standard output.
	DefaultReportsDir = "."

	// DefaultFixpointMaxIterations mirrors sanitize.maxIterations, the
	// iteration cap a loaded rule file cannot override. Neither loading
	// nor validation of a rule file reads it.
	DefaultFixpointMaxIterations = 64
)
