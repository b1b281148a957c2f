// Package normalizer converts provider-native and state-native resource
// shapes into canonical comparable records. Raw shapes do not leak past
// this boundary.
package normalizer

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"

	"github.com/drifthound/drifthound/types"
)

// NormalizationError means a raw resource could not be turned into a
// comparable record. The resource is skipped; the scan continues.
type NormalizationError struct {
	ResourceType string
	Reason       string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("cannot normalize %s resource: %s", e.ResourceType, e.Reason)
}

// computedAttrs are provider-computed attributes that never appear in
// declared state. Comparing them would report false drift on every
// covered resource.
var computedAttrs = map[string]bool{
	"arn":           true,
	"owner_id":      true,
	"creation_date": true,
	"create_time":   true,
	"unique_id":     true,
	"primary":       true,
}

// Options configure normalization behavior.
type Options struct {
	// IncludeComputed keeps provider-computed attributes in the record
	// instead of omitting them. Default is to omit.
	IncludeComputed bool
}

// Normalizer is a pure transform; it holds no mutable state.
type Normalizer struct {
	opts Options
}

// New creates a normalizer
func New(opts Options) *Normalizer {
	return &Normalizer{opts: opts}
}

// Normalize converts one raw resource into its canonical record.
// The raw attribute "id" becomes the identity and is not part of the
// comparable attribute set.
func (n *Normalizer) Normalize(raw types.RawResource, origin types.Origin) (types.ResourceRecord, error) {
	if raw.Type == "" {
		return types.ResourceRecord{}, &NormalizationError{ResourceType: "unknown", Reason: "missing resource type"}
	}
	id, ok := raw.Attrs["id"].(string)
	if !ok || id == "" {
		return types.ResourceRecord{}, &NormalizationError{ResourceType: raw.Type, Reason: "missing id attribute"}
	}

	flat := make(map[string]any)
	for _, key := range sortedKeys(raw.Attrs) {
		if key == "id" {
			continue
		}
		if !n.opts.IncludeComputed && computedAttrs[key] {
			continue
		}
		flatten(key, raw.Attrs[key], flat)
	}

	return types.ResourceRecord{
		Identity:   types.ResourceIdentity{Type: raw.Type, ID: id},
		Attributes: flat,
		Origin:     origin,
	}, nil
}

// flatten walks a nested value and writes leaf paths into out.
// List elements are reordered by a stable key first, so semantically
// equal but differently-ordered lists flatten to identical paths.
func flatten(prefix string, v any, out map[string]any) {
	switch val := v.(type) {
	case map[string]any:
		for _, key := range sortedKeys(val) {
			flatten(prefix+"."+key, val[key], out)
		}
	case []any:
		for i, elem := range sortListElements(val) {
			flatten(fmt.Sprintf("%s[%d]", prefix, i), elem, out)
		}
	default:
		out[prefix] = canonicalValue(val)
	}
}

// sortListElements returns a copy of the list ordered by each element's
// canonical flattened form. Empty lists flatten to nothing, so an empty
// list and an absent attribute compare equal.
func sortListElements(list []any) []any {
	sorted := make([]any, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return elementSortKey(sorted[i]) < elementSortKey(sorted[j])
	})
	return sorted
}

// elementSortKey flattens one element in isolation and joins its leaves
// into a deterministic ordering key.
func elementSortKey(elem any) string {
	leaves := make(map[string]any)
	flatten("", elem, leaves)

	parts := make([]string, 0, len(leaves))
	for _, path := range sortedKeys(leaves) {
		parts = append(parts, fmt.Sprintf("%s=%v", path, leaves[path]))
	}
	return strings.Join(parts, "|")
}

// canonicalValue coerces equivalent encodings into one comparable form:
// all numbers widen to float64, CIDR and IP strings take their masked
// canonical text form.
func canonicalValue(v any) any {
	switch val := v.(type) {
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case int64:
		return float64(val)
	case float32:
		return float64(val)
	case float64, bool, nil:
		return val
	case string:
		return canonicalString(val)
	default:
		return fmt.Sprintf("%v", val)
	}
}

func canonicalString(s string) string {
	trimmed := strings.TrimSpace(s)
	if prefix, err := netip.ParsePrefix(trimmed); err == nil {
		return prefix.Masked().String()
	}
	if addr, err := netip.ParseAddr(trimmed); err == nil {
		return addr.String()
	}
	return trimmed
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
