package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/drifthound/drifthound/types"
)

type stubProvider struct {
	region string
}

func (p *stubProvider) ListResources(ctx context.Context, resourceType string) ([]types.RawResource, error) {
	return nil, nil
}
func (p *stubProvider) Name() string            { return "stub" }
func (p *stubProvider) Region() string          { return p.region }
func (p *stubProvider) ResourceTypes() []string { return []string{"stub_thing"} }

func TestProviderRegistry(t *testing.T) {
	RegisterProvider("stub", func(ctx context.Context, config ProviderConfig) (ResourceLister, error) {
		return &stubProvider{region: config.Region}, nil
	})

	provider, err := GetProvider(context.Background(), "stub", ProviderConfig{Region: "eu-west-1"})
	if err != nil {
		t.Fatalf("GetProvider() error = %v", err)
	}
	if provider.Region() != "eu-west-1" {
		t.Errorf("Region() = %q", provider.Region())
	}

	if _, err := GetProvider(context.Background(), "no-such", ProviderConfig{}); err == nil {
		t.Error("unknown provider should error")
	}

	found := false
	for _, name := range ListProviders() {
		if name == "stub" {
			found = true
		}
	}
	if !found {
		t.Error("registered provider missing from ListProviders()")
	}
}

func TestProviderErrorRetryable(t *testing.T) {
	tests := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{ErrRateLimited, true},
		{ErrTransient, true},
		{ErrUnauthorized, false},
		{ErrNotFound, false},
	}

	for _, tt := range tests {
		err := &ProviderError{Kind: tt.kind, ResourceType: "aws_security_group", Err: errors.New("boom")}
		if err.Retryable() != tt.retryable {
			t.Errorf("%s: Retryable() = %v", tt.kind, err.Retryable())
		}
	}
}

func TestProviderErrorUnwrap(t *testing.T) {
	cause := errors.New("throttled")
	err := &ProviderError{Kind: ErrRateLimited, ResourceType: "aws_instance", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("ProviderError should unwrap to its cause")
	}
}
