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

/*
Package config loads the yaml rule file that drives a run: the rules
the ruleengine applies and the queries the model-query executor runs
against a codebase's modelables.

Use [Load](filename) to load a [RuleFile] from a specific filename.

Use [SetGlobalConfig](filename) to set filename as the global config,
and then [LoadGlobal]() to load it.

A rule file's top-level fields are the ones on [RuleFile]: the ambient
[Options], a list of [RuleSpec] and a list of [QuerySpec]. For example:

	log-level: 3
	workers: 4

	rules:
	  - code: 1
	    name: sql-injection
	    sources:
	      - name: HttpParam
	    sinks:
	      - name: SqlQuery
	    message: "tainted value from {$sources} flows into {$sinks}"

	queries:
	  - name: find-handlers
	    find: function
	    where:
	      any-decorator:
	        name: route
	    models:
	      - all-parameters:
	          productions:
	            - taint:
	                name: HttpParam

# Identifying code elements

Where a query's where clause needs to match a function, method or
attribute by its fully qualified name, [TargetIdentifier] offers a
structured package/type/method alternative to writing the regex by
hand; an empty component matches anything.

RuleFile.Build compiles every NameSpec, pattern and class constraint in
the file once, so a malformed regex or an empty constraint variant is
reported as a single ConfigError at load time rather than surfacing
later as a panic deep in query evaluation.
*/
package config
