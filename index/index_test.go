package index

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/drifthound/drifthound/types"
)

func record(resourceType, id string) types.ResourceRecord {
	return types.ResourceRecord{
		Identity:   types.ResourceIdentity{Type: resourceType, ID: id},
		Attributes: map[string]any{"name": id},
		Origin:     types.OriginLive,
	}
}

func TestBuildAndLookup(t *testing.T) {
	ix, err := Build(types.OriginLive, []types.ResourceRecord{
		record("aws_security_group", "sg-1"),
		record("aws_instance", "i-1"),
	})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if ix.Len() != 2 {
		t.Errorf("Len() = %d", ix.Len())
	}

	got, ok := ix.Lookup(types.ResourceIdentity{Type: "aws_security_group", ID: "sg-1"})
	if !ok {
		t.Fatal("sg-1 should be indexed")
	}
	if got.Identity.ID != "sg-1" {
		t.Errorf("Lookup returned %v", got.Identity)
	}

	if _, ok := ix.Lookup(types.ResourceIdentity{Type: "aws_security_group", ID: "sg-404"}); ok {
		t.Error("absent identity should not resolve")
	}
}

func TestBuildRejectsDuplicates(t *testing.T) {
	_, err := Build(types.OriginDeclared, []types.ResourceRecord{
		record("aws_security_group", "sg-1"),
		record("aws_security_group", "sg-1"),
	})

	var dupErr *DuplicateResourceError
	if !errors.As(err, &dupErr) {
		t.Fatalf("want DuplicateResourceError, got %v", err)
	}
	if dupErr.Origin != types.OriginDeclared {
		t.Errorf("Origin = %v", dupErr.Origin)
	}
	if dupErr.Identity.ID != "sg-1" {
		t.Errorf("Identity = %v", dupErr.Identity)
	}
}

func TestAscendIsSorted(t *testing.T) {
	records := []types.ResourceRecord{
		record("aws_security_group", "sg-2"),
		record("aws_instance", "i-1"),
		record("aws_security_group", "sg-1"),
	}
	rand.Shuffle(len(records), func(i, j int) { records[i], records[j] = records[j], records[i] })

	ix, err := Build(types.OriginLive, records)
	if err != nil {
		t.Fatal(err)
	}

	var visited []string
	ix.Ascend(func(identity types.ResourceIdentity) bool {
		visited = append(visited, identity.Key())
		return true
	})

	want := []string{"aws_instance:i-1", "aws_security_group:sg-1", "aws_security_group:sg-2"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v", visited)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %q, want %q", i, visited[i], want[i])
		}
	}
}

func TestUnionIsSortedAndDeduplicated(t *testing.T) {
	live, err := Build(types.OriginLive, []types.ResourceRecord{
		record("aws_security_group", "sg-1"),
		record("aws_security_group_rule", "sgrule-1"),
	})
	if err != nil {
		t.Fatal(err)
	}
	declared, err := Build(types.OriginDeclared, []types.ResourceRecord{
		record("aws_security_group", "sg-1"),
		record("aws_instance", "i-1"),
	})
	if err != nil {
		t.Fatal(err)
	}

	union := Union(live, declared)

	want := []string{"aws_instance:i-1", "aws_security_group:sg-1", "aws_security_group_rule:sgrule-1"}
	if len(union) != len(want) {
		t.Fatalf("union = %v", union)
	}
	for i, identity := range union {
		if identity.Key() != want[i] {
			t.Errorf("union[%d] = %q, want %q", i, identity.Key(), want[i])
		}
	}
}
