// Package state defines the IaC collaborator contract: something that
// can list declared resources from a persisted state snapshot.
package state

import (
	"context"
	"fmt"

	"github.com/drifthound/drifthound/types"
)

// Reader lists declared resources from a state snapshot.
type Reader interface {
	// ListDeclared returns raw declared-resource representations.
	ListDeclared(ctx context.Context) ([]types.RawResource, error)
}

// StateParseError means the snapshot could not be read or decoded.
// Fatal: no partial diff is possible without a declared baseline.
type StateParseError struct {
	Path   string
	Reason string
	Err    error
}

func (e *StateParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot parse state %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("cannot parse state %s: %s", e.Path, e.Reason)
}

func (e *StateParseError) Unwrap() error {
	return e.Err
}
