// Package index holds per-origin lookup structures over normalized
// resource records: a map for O(1) identity lookup and a btree for
// ordered iteration.
package index

import (
	"fmt"

	"github.com/google/btree"

	"github.com/drifthound/drifthound/types"
)

// DuplicateResourceError signals the same identity appearing twice in
// one origin. That is malformed collaborator input, not drift, and it
// is fatal to the scan.
type DuplicateResourceError struct {
	Identity types.ResourceIdentity
	Origin   types.Origin
}

func (e *DuplicateResourceError) Error() string {
	return fmt.Sprintf("duplicate %s resource %s", e.Origin, e.Identity)
}

// Index is an immutable lookup structure over one origin's records.
type Index struct {
	origin types.Origin
	byKey  map[string]types.ResourceRecord
	order  *btree.BTreeG[types.ResourceIdentity]
}

// Build indexes a record set. Every identity appears at most once.
func Build(origin types.Origin, records []types.ResourceRecord) (*Index, error) {
	ix := &Index{
		origin: origin,
		byKey:  make(map[string]types.ResourceRecord, len(records)),
		order: btree.NewG[types.ResourceIdentity](16, func(a, b types.ResourceIdentity) bool {
			return a.Less(b)
		}),
	}

	for _, record := range records {
		key := record.Identity.Key()
		if _, exists := ix.byKey[key]; exists {
			return nil, &DuplicateResourceError{Identity: record.Identity, Origin: origin}
		}
		ix.byKey[key] = record
		ix.order.ReplaceOrInsert(record.Identity)
	}

	return ix, nil
}

// Origin returns which side this index was built from.
func (ix *Index) Origin() types.Origin {
	return ix.origin
}

// Lookup returns the record for an identity, if present.
func (ix *Index) Lookup(identity types.ResourceIdentity) (types.ResourceRecord, bool) {
	record, ok := ix.byKey[identity.Key()]
	return record, ok
}

// Len returns the number of indexed identities.
func (ix *Index) Len() int {
	return len(ix.byKey)
}

// Ascend visits identities in (type, id) order until fn returns false.
func (ix *Index) Ascend(fn func(types.ResourceIdentity) bool) {
	ix.order.Ascend(func(identity types.ResourceIdentity) bool {
		return fn(identity)
	})
}

// Union merges the identities of two indexes into one sorted slice.
// The result order does not depend on input or completion order, which
// keeps diff output reproducible.
func Union(a, b *Index) []types.ResourceIdentity {
	seen := make(map[string]bool, a.Len()+b.Len())
	merged := btree.NewG[types.ResourceIdentity](16, func(x, y types.ResourceIdentity) bool {
		return x.Less(y)
	})

	collect := func(ix *Index) {
		ix.Ascend(func(identity types.ResourceIdentity) bool {
			if !seen[identity.Key()] {
				seen[identity.Key()] = true
				merged.ReplaceOrInsert(identity)
			}
			return true
		})
	}
	collect(a)
	collect(b)

	union := make([]types.ResourceIdentity, 0, merged.Len())
	merged.Ascend(func(identity types.ResourceIdentity) bool {
		union = append(union, identity)
		return true
	})
	return union
}
