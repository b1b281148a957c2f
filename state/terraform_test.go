package state

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const snapshotFixture = `{
  "version": 4,
  "terraform_version": "1.7.0",
  "resources": [
    {
      "mode": "managed",
      "type": "aws_security_group",
      "name": "db",
      "provider": "provider[\"registry.terraform.io/hashicorp/aws\"]",
      "instances": [
        {
          "attributes": {
            "id": "sg-1",
            "name": "db",
            "vpc_id": "vpc-1",
            "ingress": [
              {
                "from_port": 5432,
                "to_port": 5432,
                "protocol": "tcp",
                "cidr_blocks": ["10.0.0.0/8"]
              }
            ]
          }
        }
      ]
    },
    {
      "mode": "data",
      "type": "aws_ami",
      "name": "ubuntu",
      "instances": [
        {"attributes": {"id": "ami-1"}}
      ]
    }
  ]
}`

func writeSnapshot(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "terraform.tfstate")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestListDeclared(t *testing.T) {
	reader := NewTerraformReader(writeSnapshot(t, snapshotFixture))

	resources, err := reader.ListDeclared(context.Background())
	if err != nil {
		t.Fatalf("ListDeclared() error = %v", err)
	}

	if len(resources) != 1 {
		t.Fatalf("got %d resources, want 1 (data sources are not declarations)", len(resources))
	}

	resource := resources[0]
	if resource.Type != "aws_security_group" {
		t.Errorf("Type = %q", resource.Type)
	}
	if resource.Attrs["id"] != "sg-1" {
		t.Errorf("id = %v", resource.Attrs["id"])
	}

	ingress, ok := resource.Attrs["ingress"].([]any)
	if !ok || len(ingress) != 1 {
		t.Fatalf("ingress = %#v", resource.Attrs["ingress"])
	}
	block, ok := ingress[0].(map[string]any)
	if !ok {
		t.Fatalf("ingress block = %#v", ingress[0])
	}
	if block["from_port"] != float64(5432) {
		t.Errorf("from_port = %v", block["from_port"])
	}
}

func TestListDeclaredErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "invalid JSON", content: `{"version": 4,`},
		{name: "no version field", content: `{"resources": []}`},
		{name: "managed resource without type", content: `{"version": 4, "resources": [{"mode": "managed", "instances": []}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewTerraformReader(writeSnapshot(t, tt.content))

			_, err := reader.ListDeclared(context.Background())
			var parseErr *StateParseError
			if !errors.As(err, &parseErr) {
				t.Fatalf("want StateParseError, got %v", err)
			}
		})
	}
}

func TestListDeclaredMissingFile(t *testing.T) {
	reader := NewTerraformReader(filepath.Join(t.TempDir(), "nope.tfstate"))

	_, err := reader.ListDeclared(context.Background())
	var parseErr *StateParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("want StateParseError, got %v", err)
	}
}

func TestListDeclaredEmptyState(t *testing.T) {
	reader := NewTerraformReader(writeSnapshot(t, `{"version": 4, "resources": []}`))

	resources, err := reader.ListDeclared(context.Background())
	if err != nil {
		t.Fatalf("empty state is valid: %v", err)
	}
	if len(resources) != 0 {
		t.Errorf("resources = %v", resources)
	}
}
