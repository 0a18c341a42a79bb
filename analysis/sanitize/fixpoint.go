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

// Package sanitize implements the sanitizer fixpoint: mutual refinement
// of a flow's source and sink kind sets until stable.
package sanitize

import "github.com/taintkit/flowcheck/analysis/domain"

// maxIterations bounds the loop; each step only shrinks finite kind sets,
// so a fixpoint is reached in at most O(|kinds|) iterations, and this
// module's kind sets never approach this bound in practice.
const maxIterations = 64

type state struct {
	sanitizedSources domain.KindNameSet
	sanitizedSinks   domain.KindNameSet
	singleBaseSource *domain.Kind
	singleBaseSink   *domain.Kind
}

func (s state) equal(other state) bool {
	return kindNameSetEqual(s.sanitizedSources, other.sanitizedSources) &&
		kindNameSetEqual(s.sanitizedSinks, other.sanitizedSinks) &&
		optionalKindEqual(s.singleBaseSource, other.singleBaseSource) &&
		optionalKindEqual(s.singleBaseSink, other.singleBaseSink)
}

func kindNameSetEqual(a, b domain.KindNameSet) bool {
	if len(a) != len(b) {
		return false
	}
	for name := range a {
		if !b.Contains(name) {
			return false
		}
	}
	return true
}

func optionalKindEqual(a, b *domain.Kind) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Key() == b.Key()
}

// Apply iterates the four quantities (sanitized_sources, sanitized_sinks,
// single_base_source, single_base_sink) to a fixpoint, re-filtering the
// flow's trees at every step, per spec.md §4.C.
func Apply(f domain.Flow) domain.Flow {
	prev := state{}
	for i := 0; i < maxIterations; i++ {
		sourceKinds := f.Source.KindsPresent()
		sinkKinds := f.Sink.KindsPresent()

		sanitizedSinks := intersectSinkNames(sourceKinds)
		newSink := f.Sink.SanitizeTaintKinds(sanitizedSinks)

		sanitizedSources := intersectSourceNames(sinkKinds)
		newSource := f.Source.SanitizeTaintKinds(sanitizedSources)

		singleSource := uniqueBase(sourceKinds)
		if singleSource != nil {
			newSink = newSink.SanitizeTaintKinds(sanitizesSourceNamed(singleSource.Name, collectKinds(newSink)))
		}

		singleSink := uniqueBase(sinkKinds)
		if singleSink != nil {
			newSource = newSource.SanitizeTaintKinds(sanitizesSinkNamed(singleSink.Name, collectKinds(newSource)))
		}

		cur := state{
			sanitizedSources: sanitizedSources,
			sanitizedSinks:   sanitizedSinks,
			singleBaseSource: singleSource,
			singleBaseSink:   singleSink,
		}
		f = domain.Flow{Source: newSource, Sink: newSink}
		if cur.equal(prev) {
			break
		}
		prev = cur
	}
	return f
}

// intersectSinkNames computes the intersection, over every kind in ks, of
// the sink names it sanitizes. An empty input defaults to the empty set
// (no sink kind is sanitized), matching spec.md's "only a missing value
// defaults to the empty set when the fixpoint is read out".
func intersectSinkNames(ks []domain.Kind) domain.KindNameSet {
	var acc domain.KindNameSet
	for _, k := range ks {
		s := domain.NewKindNameSet(k.ExtractSanitizeTransforms().Sinks...)
		if acc == nil {
			acc = s
		} else {
			acc = acc.Intersect(s)
		}
	}
	if acc == nil {
		return domain.KindNameSet{}
	}
	return acc
}

// intersectSourceNames is the symmetric computation over sink kinds.
func intersectSourceNames(ks []domain.Kind) domain.KindNameSet {
	var acc domain.KindNameSet
	for _, k := range ks {
		s := domain.NewKindNameSet(k.ExtractSanitizeTransforms().Sources...)
		if acc == nil {
			acc = s
		} else {
			acc = acc.Intersect(s)
		}
	}
	if acc == nil {
		return domain.KindNameSet{}
	}
	return acc
}

// uniqueBase returns the single base kind shared by every kind in ks, or
// nil if ks is empty or its bases disagree.
func uniqueBase(ks []domain.Kind) *domain.Kind {
	if len(ks) == 0 {
		return nil
	}
	base := ks[0].Base()
	for _, k := range ks[1:] {
		if !k.Base().Equal(base) {
			return nil
		}
	}
	return &base
}

func collectKinds(t *domain.Tree) []domain.Kind {
	return t.KindsPresent()
}

// sanitizesSourceNamed returns the names of the sink kinds in ks that
// carry a sanitize-transform declaring they sanitize the source kind
// named sourceName.
func sanitizesSourceNamed(sourceName string, ks []domain.Kind) domain.KindNameSet {
	out := domain.KindNameSet{}
	for _, k := range ks {
		if domain.NewKindNameSet(k.ExtractSanitizeTransforms().Sources...).Contains(sourceName) {
			out[k.Name] = struct{}{}
		}
	}
	return out
}

// sanitizesSinkNamed is the symmetric computation over source kinds.
func sanitizesSinkNamed(sinkName string, ks []domain.Kind) domain.KindNameSet {
	out := domain.KindNameSet{}
	for _, k := range ks {
		if domain.NewKindNameSet(k.ExtractSanitizeTransforms().Sinks...).Contains(sinkName) {
			out[k.Name] = struct{}{}
		}
	}
	return out
}
