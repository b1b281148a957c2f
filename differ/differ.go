// Package differ classifies every resource identity seen on either side
// of a scan and computes attribute-level diffs where both sides exist.
package differ

import (
	"reflect"
	"sort"

	"github.com/drifthound/drifthound/index"
	"github.com/drifthound/drifthound/types"
)

// Diff walks the sorted union of identities from both indexes and
// classifies each one. Identity equality is at the resource granularity:
// a provider-side list that became N sibling resources yields N
// independent entries, never one collapsed entry.
func Diff(live, declared *index.Index) []types.DriftEntry {
	union := index.Union(live, declared)
	entries := make([]types.DriftEntry, 0, len(union))

	for _, identity := range union {
		liveRecord, onLive := live.Lookup(identity)
		declaredRecord, onDeclared := declared.Lookup(identity)

		entry := types.DriftEntry{Identity: identity}
		switch {
		case onLive && !onDeclared:
			entry.Classification = types.ClassificationUnmanaged
		case !onLive && onDeclared:
			entry.Classification = types.ClassificationMissing
		default:
			diffs := diffAttributes(liveRecord, declaredRecord)
			if len(diffs) == 0 {
				entry.Classification = types.ClassificationCovered
			} else {
				entry.Classification = types.ClassificationDrifted
				entry.AttributeDiffs = diffs
			}
		}
		entries = append(entries, entry)
	}

	return entries
}

// diffAttributes computes the symmetric difference of two flattened
// attribute maps, ordered by path.
func diffAttributes(live, declared types.ResourceRecord) []types.AttributeDiff {
	paths := make(map[string]bool, len(live.Attributes)+len(declared.Attributes))
	for path := range live.Attributes {
		paths[path] = true
	}
	for path := range declared.Attributes {
		paths[path] = true
	}

	sorted := make([]string, 0, len(paths))
	for path := range paths {
		sorted = append(sorted, path)
	}
	sort.Strings(sorted)

	var diffs []types.AttributeDiff
	for _, path := range sorted {
		liveValue, onLive := live.Attributes[path]
		declaredValue, onDeclared := declared.Attributes[path]
		if onLive && onDeclared && reflect.DeepEqual(liveValue, declaredValue) {
			continue
		}
		diffs = append(diffs, types.AttributeDiff{
			Path:     path,
			Live:     liveValue,
			Declared: declaredValue,
		})
	}
	return diffs
}
