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

// Package flowerrors defines the engine's closed error taxonomy: JsonError,
// ConfigError, IncompatibleMergeItem and VerificationError. Each is a
// distinct exported type so callers can dispatch with errors.As instead of
// string-matching a wrapped message.
package flowerrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// JsonError reports malformed build-system output. Fatal; propagated to
// the host bridge.
type JsonError struct {
	Msg   string
	cause error
}

// NewJsonError wraps cause, if any, in a JsonError carrying msg.
func NewJsonError(msg string, cause error) *JsonError {
	return &JsonError{Msg: msg, cause: cause}
}

func (e *JsonError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("malformed build output: %s: %v", e.Msg, e.cause)
	}
	return fmt.Sprintf("malformed build output: %s", e.Msg)
}

// Unwrap lets errors.Is/As see through to the underlying cause.
func (e *JsonError) Unwrap() error { return e.cause }

// ConfigErrorKind discriminates the three fatal configuration mistakes
// spec.md §7 enumerates.
type ConfigErrorKind int

const (
	// ConfigErrorUnknownRuleCode means an issue handle references a rule
	// code with no matching rule in the loaded rule set.
	ConfigErrorUnknownRuleCode ConfigErrorKind = iota
	// ConfigErrorReadFromCacheTop means a read-from-cache query's
	// constraint evaluated to CandidateTargetsFromCache.Top at the top
	// level, which the verifier should have rejected upstream.
	ConfigErrorReadFromCacheTop
	// ConfigErrorWriteToCacheShape means a write-to-cache query carries a
	// models clause entry that is not itself a WriteToCache production.
	ConfigErrorWriteToCacheShape
)

func (k ConfigErrorKind) String() string {
	switch k {
	case ConfigErrorUnknownRuleCode:
		return "unknown rule code"
	case ConfigErrorReadFromCacheTop:
		return "read-from-cache query resolved to Top"
	case ConfigErrorWriteToCacheShape:
		return "write-to-cache query has a non-WriteToCache model"
	default:
		return "config error"
	}
}

// ConfigError is fatal; it aborts the query or rule phase it was raised
// from.
type ConfigError struct {
	Kind    ConfigErrorKind
	Detail  string
	wrapped error
}

// NewConfigError builds a ConfigError of the given kind.
func NewConfigError(kind ConfigErrorKind, detail string) *ConfigError {
	return &ConfigError{Kind: kind, Detail: detail}
}

// WrapConfigError wraps err as the cause of a ConfigError of the given
// kind, using github.com/pkg/errors so the original error's stack trace
// (when present) survives for diagnostics while errors.As still finds the
// ConfigError type.
func WrapConfigError(kind ConfigErrorKind, detail string, err error) *ConfigError {
	return &ConfigError{Kind: kind, Detail: detail, wrapped: errors.Wrap(err, detail)}
}

func (e *ConfigError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind.String(), e.Detail)
}

// Unwrap exposes the pkg/errors-wrapped cause, if any.
func (e *ConfigError) Unwrap() error {
	if e.wrapped != nil {
		return errors.Cause(e.wrapped)
	}
	return nil
}

// IncompatibleMergeItem reports that two build maps assigned the same
// artifact key to different sources. Non-fatal: the offending target is
// dropped and analysis continues.
type IncompatibleMergeItem struct {
	Key   string
	Left  string
	Right string
}

func (e *IncompatibleMergeItem) Error() string {
	return fmt.Sprintf("incompatible merge for %q: %q vs %q", e.Key, e.Left, e.Right)
}

// VerificationErrorKind distinguishes the three post-execution audit
// findings a query's expected/unexpected models clauses can raise.
type VerificationErrorKind int

const (
	// VerificationErrorExpected means a model listed in expected_models
	// was not produced.
	VerificationErrorExpected VerificationErrorKind = iota
	// VerificationErrorUnexpected means a model listed in
	// unexpected_models was produced anyway.
	VerificationErrorUnexpected
	// VerificationErrorNoOutput means a query configured to require
	// output produced none.
	VerificationErrorNoOutput
)

func (k VerificationErrorKind) String() string {
	switch k {
	case VerificationErrorExpected:
		return "expected model not produced"
	case VerificationErrorUnexpected:
		return "unexpected model produced"
	case VerificationErrorNoOutput:
		return "query produced no output"
	default:
		return "verification error"
	}
}

// VerificationError is accumulated into the returned error list; it does
// not abort the query phase.
type VerificationError struct {
	Kind       VerificationErrorKind
	QueryName  string
	ModelsName string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("query %q: %s: %s", e.QueryName, e.Kind.String(), e.ModelsName)
}
