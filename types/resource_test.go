package types

import "testing"

func TestResourceIdentityKey(t *testing.T) {
	identity := ResourceIdentity{Type: "aws_security_group", ID: "sg-1"}
	if got := identity.Key(); got != "aws_security_group:sg-1" {
		t.Errorf("Key() = %q", got)
	}
}

func TestResourceIdentityLess(t *testing.T) {
	tests := []struct {
		name string
		a, b ResourceIdentity
		want bool
	}{
		{
			name: "type orders first",
			a:    ResourceIdentity{Type: "aws_instance", ID: "z"},
			b:    ResourceIdentity{Type: "aws_security_group", ID: "a"},
			want: true,
		},
		{
			name: "id breaks type ties",
			a:    ResourceIdentity{Type: "aws_security_group", ID: "sg-1"},
			b:    ResourceIdentity{Type: "aws_security_group", ID: "sg-2"},
			want: true,
		},
		{
			name: "equal identities",
			a:    ResourceIdentity{Type: "aws_security_group", ID: "sg-1"},
			b:    ResourceIdentity{Type: "aws_security_group", ID: "sg-1"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.want {
				t.Errorf("Less() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScanReportHasDrift(t *testing.T) {
	clean := ScanReport{CoveredCount: 3, MissingCount: 1}
	if clean.HasDrift() {
		t.Error("missing resources alone should not count as drift")
	}

	drifted := ScanReport{CoveredCount: 3, DriftedCount: 1}
	if !drifted.HasDrift() {
		t.Error("drifted resources should count as drift")
	}

	unmanaged := ScanReport{CoveredCount: 3, UnmanagedCount: 1}
	if !unmanaged.HasDrift() {
		t.Error("unmanaged resources should count as drift")
	}
}

func TestScanReportDisplayCoverage(t *testing.T) {
	r := ScanReport{CoveragePercent: 66.666}
	if got := r.DisplayCoverage(); got != 67 {
		t.Errorf("DisplayCoverage() = %d, want 67", got)
	}

	r = ScanReport{CoveragePercent: 33.333}
	if got := r.DisplayCoverage(); got != 33 {
		t.Errorf("DisplayCoverage() = %d, want 33", got)
	}
}
