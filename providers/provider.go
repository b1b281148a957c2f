// Package providers defines the cloud collaborator contract: something
// that can enumerate live resources of one type as raw representations.
package providers

import (
	"context"
	"fmt"

	"github.com/drifthound/drifthound/types"
)

// ResourceLister enumerates live resources of one type.
type ResourceLister interface {
	// ListResources returns raw resource representations for one
	// resource type. Raw shapes are normalized downstream.
	ListResources(ctx context.Context, resourceType string) ([]types.RawResource, error)

	// Name returns the provider name.
	Name() string
	// Region returns the provider region.
	Region() string
	// ResourceTypes returns every resource type this provider can list.
	ResourceTypes() []string
}

// ErrorKind classifies provider failures for retry decisions.
type ErrorKind string

const (
	ErrRateLimited  ErrorKind = "rate_limited"
	ErrUnauthorized ErrorKind = "unauthorized"
	ErrNotFound     ErrorKind = "not_found"
	ErrTransient    ErrorKind = "transient"
)

// ProviderError wraps an enumeration failure with its kind.
type ProviderError struct {
	Kind         ErrorKind
	ResourceType string
	Err          error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error (%s) listing %s: %v", e.Kind, e.ResourceType, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failure is worth another attempt.
// Unauthorized and not-found never heal on retry.
func (e *ProviderError) Retryable() bool {
	return e.Kind == ErrRateLimited || e.Kind == ErrTransient
}

// ProviderConfig holds provider configuration
type ProviderConfig struct {
	Region string
}

// ProviderFactory creates a provider instance
type ProviderFactory func(ctx context.Context, config ProviderConfig) (ResourceLister, error)

// Registry of available providers
var providerFactories = make(map[string]ProviderFactory)

// RegisterProvider registers a new provider factory
func RegisterProvider(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// GetProvider creates a provider instance by name
func GetProvider(ctx context.Context, name string, config ProviderConfig) (ResourceLister, error) {
	factory, exists := providerFactories[name]
	if !exists {
		return nil, fmt.Errorf("provider %s not found", name)
	}
	return factory(ctx, config)
}

// ListProviders returns available provider names
func ListProviders() []string {
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	return names
}
