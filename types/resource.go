package types

// Origin says which side of the comparison a record was observed on.
type Origin string

const (
	// OriginLive marks records enumerated from the cloud provider.
	OriginLive Origin = "live"
	// OriginDeclared marks records read from the IaC state snapshot.
	OriginDeclared Origin = "declared"
)

// ResourceIdentity uniquely identifies a cloud resource within a scan.
// Immutable once observed.
type ResourceIdentity struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Key returns the map key form of the identity.
func (ri ResourceIdentity) Key() string {
	return ri.Type + ":" + ri.ID
}

// Less orders identities by (type, id) for deterministic output.
func (ri ResourceIdentity) Less(than ResourceIdentity) bool {
	if ri.Type != than.Type {
		return ri.Type < than.Type
	}
	return ri.ID < than.ID
}

func (ri ResourceIdentity) String() string {
	return ri.Key()
}

// RawResource is a provider- or state-native resource representation,
// exactly as a collaborator returned it. Raw shapes never travel past
// the normalizer.
type RawResource struct {
	Type  string         `json:"type"`
	Attrs map[string]any `json:"attrs"`
}

// ResourceRecord is the canonical comparable form of a resource:
// flattened attribute paths (ingress[0].cidr_blocks[0] style) mapped to
// canonical values.
type ResourceRecord struct {
	Identity   ResourceIdentity `json:"identity"`
	Attributes map[string]any   `json:"attributes"`
	Origin     Origin           `json:"origin"`
}
