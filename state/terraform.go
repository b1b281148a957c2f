package state

import (
	"context"
	"os"

	"github.com/tidwall/gjson"

	"github.com/drifthound/drifthound/types"
)

// TerraformReader reads declared resources from a Terraform state
// snapshot (version 4 JSON layout).
type TerraformReader struct {
	path string
}

// NewTerraformReader creates a reader for a state file path
func NewTerraformReader(path string) *TerraformReader {
	return &TerraformReader{path: path}
}

// ListDeclared parses the snapshot and returns every managed-mode
// resource instance. Data sources are read-only views, not declarations,
// and are skipped.
func (r *TerraformReader) ListDeclared(ctx context.Context) ([]types.RawResource, error) {
	data, err := os.ReadFile(r.path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, &StateParseError{Path: r.path, Reason: "cannot read snapshot", Err: err}
	}

	if !gjson.ValidBytes(data) {
		return nil, &StateParseError{Path: r.path, Reason: "snapshot is not valid JSON"}
	}

	doc := gjson.ParseBytes(data)
	if !doc.Get("version").Exists() {
		return nil, &StateParseError{Path: r.path, Reason: "snapshot has no version field"}
	}

	var resources []types.RawResource
	var parseErr error

	doc.Get("resources").ForEach(func(_, resource gjson.Result) bool {
		if resource.Get("mode").String() != "managed" {
			return true
		}

		resourceType := resource.Get("type").String()
		if resourceType == "" {
			parseErr = &StateParseError{Path: r.path, Reason: "managed resource without a type"}
			return false
		}

		resource.Get("instances").ForEach(func(_, instance gjson.Result) bool {
			attrs, ok := instance.Get("attributes").Value().(map[string]any)
			if !ok {
				parseErr = &StateParseError{Path: r.path, Reason: "resource instance without attributes"}
				return false
			}
			resources = append(resources, types.RawResource{
				Type:  resourceType,
				Attrs: attrs,
			})
			return true
		})

		return parseErr == nil
	})

	if parseErr != nil {
		return nil, parseErr
	}
	return resources, nil
}
