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

// Package check runs the query executor and rule engine over host-bridge
// JSON and reports issues.
package check

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/taintkit/flowcheck/analysis/bridge"
	"github.com/taintkit/flowcheck/analysis/cache"
	"github.com/taintkit/flowcheck/analysis/config"
	"github.com/taintkit/flowcheck/analysis/issue"
	"github.com/taintkit/flowcheck/analysis/modelquery"
	"github.com/taintkit/flowcheck/analysis/ruleengine"
	"github.com/taintkit/flowcheck/analysis/scheduler"
	"github.com/taintkit/flowcheck/cmd/flowcheck/tools"
	"github.com/taintkit/flowcheck/internal/formatutil"
	"github.com/taintkit/flowcheck/internal/funcutil"
)

const usage = ` Evaluate model queries and rules against host-bridge JSON.
Usage:
  flowcheck check [options] -definitions <file.json> [-targets <file.json>]
Examples:
  % flowcheck check -config rules.yaml -definitions flows.json -targets targets.json
`

// Flags represents the parsed flags for the check sub-command.
type Flags struct {
	tools.CommonFlags
	definitionsPath string
	targetsPath     string
	coveragePath    string
	pathFilter      string
}

// NewFlags returns the parsed flags for the check sub-command with args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("check")
	definitionsPath := flags.FlagSet.String("definitions", "", "JSON file of per-definition candidate flows")
	targetsPath := flags.FlagSet.String("targets", "", "JSON file of modelable targets")
	coveragePath := flags.FlagSet.String("coverage", "", "write a coverage profile to this path")
	pathFilter := flags.FlagSet.String("coverage-path-filter", "", "only record coverage for files containing this substring")
	tools.SetUsage(flags.FlagSet, usage)
	if err := flags.FlagSet.Parse(args); err != nil {
		return Flags{}, fmt.Errorf("failed to parse command check with args %v: %w", args, err)
	}

	return Flags{
		CommonFlags: tools.CommonFlags{
			FlagSet:    flags.FlagSet,
			ConfigPath: *flags.ConfigPath,
			Verbose:    *flags.Verbose,
		},
		definitionsPath: *definitionsPath,
		targetsPath:     *targetsPath,
		coveragePath:    *coveragePath,
		pathFilter:      *pathFilter,
	}, nil
}

// Run loads flags.ConfigPath's rule file, evaluates any model queries
// against flags.targetsPath's targets, runs the rule engine over
// flags.definitionsPath's candidate flows, and prints the resulting
// issues as JSON.
func Run(flags Flags) error {
	logger := log.New(os.Stdout, "", log.Flags())

	rf, err := tools.LoadConfig(flags.ConfigPath)
	if err != nil {
		return err
	}
	if flags.Verbose {
		rf.LogLevel = int(config.DebugLevel)
	}
	logs := config.NewLogGroup(rf)

	rules, queries, err := rf.Build()
	if err != nil {
		return fmt.Errorf("could not build rule file: %w", err)
	}
	byCode := ruleengine.ByCode(rules)

	logger.Printf(formatutil.Faint("Flowcheck - evaluating %d rule(s), %d quer(ies)"), len(rules), len(queries))

	annotations, err := runQueries(rf, queries, flags.targetsPath, logs)
	if err != nil {
		return err
	}
	logs.Infof("model queries produced %d annotation(s)", len(annotations))

	if flags.definitionsPath == "" {
		return printAnnotations(annotations)
	}

	defs, err := loadDefinitions(flags.definitionsPath)
	if err != nil {
		return err
	}

	start := time.Now()
	coverage := map[string]bool{}
	var allIssues []issue.Issue
	for _, d := range defs {
		table, define := d.Table()
		issues, err := ruleengine.GenerateIssues(table, rules, rf.LineageAnalysis, define)
		if err != nil {
			return fmt.Errorf("could not generate issues for %s: %w", define.Callable, err)
		}
		if err := ruleengine.ValidateHandles(issues, byCode); err != nil {
			return err
		}
		allIssues = append(allIssues, issues...)
		ruleengine.RecordCoverage(table, flags.pathFilter, coverage)
	}
	duration := time.Since(start)

	logs.Infof(strings.Repeat("*", 80))
	logs.Infof("Analysis took %3.4f s", duration.Seconds())
	if len(allIssues) == 0 {
		logger.Printf("RESULT:\n\t\t%s", formatutil.Green("No issues detected"))
	} else {
		logger.Printf("RESULT:\n\t\t%s", formatutil.Red(fmt.Sprintf("%d issue(s) detected", len(allIssues))))
	}

	if flags.coveragePath != "" {
		f, err := os.Create(flags.coveragePath)
		if err != nil {
			return fmt.Errorf("could not create coverage file: %w", err)
		}
		defer f.Close()
		ruleengine.WriteCoverage(coverage, f)
	}

	return printIssues(allIssues, rules)
}

func loadDefinitions(path string) ([]bridge.DefinitionSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open definitions file: %w", err)
	}
	defer f.Close()
	return bridge.DecodeDefinitions(f)
}

// runQueries partitions queries into write/read/regular phases per
// spec.md's scheduling design, running write-to-cache queries in
// dependency order before the cache is frozen for the read and regular
// phases. Write and read queries run one after another on the calling
// goroutine; only the regular phase is spread across rf.Workers shards.
func runQueries(rf *config.RuleFile, queries []modelquery.Query, targetsPath string, logs *config.LogGroup) ([]modelquery.AnnotationResult, error) {
	if targetsPath == "" {
		return nil, nil
	}
	f, err := os.Open(targetsPath)
	if err != nil {
		return nil, fmt.Errorf("could not open targets file: %w", err)
	}
	defer f.Close()
	targets, hierarchy, err := bridge.DecodeTargets(f)
	if err != nil {
		return nil, err
	}
	for _, cycle := range hierarchy.Cycles() {
		logs.Warnf("class hierarchy has a cyclic extends chain: %v", cycle)
	}

	var writes, reads, regular []modelquery.Query
	for _, q := range queries {
		switch q.Phase() {
		case modelquery.PhaseWrite:
			writes = append(writes, q)
		case modelquery.PhaseRead:
			reads = append(reads, q)
		default:
			regular = append(regular, q)
		}
	}
	ordered, ok := scheduler.TopoOrder(writes)
	if !ok {
		logs.Warnf("write-to-cache queries have a circular dependency; running them in file order")
		ordered = writes
	}

	rwc := cache.New()
	var annotations []modelquery.AnnotationResult
	for _, q := range ordered {
		for _, t := range targets {
			anns, err := modelquery.Evaluate(q, t, modelquery.Env{Hierarchy: hierarchy, Captures: modelquery.NewNameCaptures(), Cache: rwc}, rwc)
			if err != nil {
				return nil, fmt.Errorf("query %s failed on target %s: %w", q.Name, t.Name, err)
			}
			annotations = append(annotations, anns...)
		}
	}
	logs.Debugf("cache populated with kinds: %v", rwc.Kinds())

	for _, q := range reads {
		candidates, err := modelquery.CandidatesFromCache(rwc, q, targets)
		if err != nil {
			return nil, err
		}
		for _, t := range candidates {
			anns, err := modelquery.Evaluate(q, t, modelquery.Env{Hierarchy: hierarchy, Captures: modelquery.NewNameCaptures(), Cache: rwc}, nil)
			if err != nil {
				return nil, fmt.Errorf("query %s failed on target %s: %w", q.Name, t.Name, err)
			}
			annotations = append(annotations, anns...)
		}
	}

	policy := scheduler.Policy{Workers: rf.Workers}
	annotations = append(annotations, scheduler.MapReduce(
		policy,
		nil,
		func(t modelquery.Target) []modelquery.AnnotationResult {
			var out []modelquery.AnnotationResult
			for _, q := range regular {
				anns, err := modelquery.Evaluate(q, t, modelquery.Env{Hierarchy: hierarchy, Captures: modelquery.NewNameCaptures(), Cache: rwc}, nil)
				if err != nil {
					continue
				}
				out = append(out, anns...)
			}
			return out
		},
		func(acc []modelquery.AnnotationResult, out []modelquery.AnnotationResult) []modelquery.AnnotationResult {
			return append(acc, out...)
		},
		targets,
	)...)

	return annotations, nil
}

func printAnnotations(anns []modelquery.AnnotationResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(anns)
}

func printIssues(issues []issue.Issue, rules []ruleengine.Rule) error {
	byCode := ruleengine.ByCode(rules)
	messages := funcutil.Map(issues, func(i issue.Issue) issue.JSON {
		return issue.ToJSON(i, ruleengine.RenderMessage(byCode[i.Handle.Code]))
	})
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(messages)
}
