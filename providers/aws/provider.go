// Package aws implements the provider collaborator against the EC2 API.
// Raw attribute names mirror the Terraform schema so live and declared
// resources normalize onto the same attribute paths.
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/drifthound/drifthound/providers"
	"github.com/drifthound/drifthound/types"
)

const (
	TypeSecurityGroup     = "aws_security_group"
	TypeSecurityGroupRule = "aws_security_group_rule"
	TypeInstance          = "aws_instance"
)

// EC2API is the slice of the EC2 client this provider uses.
type EC2API interface {
	DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error)
	DescribeSecurityGroupRules(ctx context.Context, params *ec2.DescribeSecurityGroupRulesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupRulesOutput, error)
	DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

func init() {
	providers.RegisterProvider("aws", NewProviderFactory)
}

// NewProviderFactory builds an AWS provider from the default credential chain
func NewProviderFactory(ctx context.Context, cfg providers.ProviderConfig) (providers.ResourceLister, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewProvider(ec2.NewFromConfig(awsCfg), cfg.Region), nil
}

// Provider lists EC2-family resources as raw records.
type Provider struct {
	client EC2API
	region string
}

// NewProvider creates a provider on an existing client
func NewProvider(client EC2API, region string) *Provider {
	return &Provider{client: client, region: region}
}

// Name returns the provider name
func (p *Provider) Name() string {
	return "aws"
}

// Region returns the configured region
func (p *Provider) Region() string {
	return p.region
}

// ResourceTypes returns the resource types this provider can enumerate
func (p *Provider) ResourceTypes() []string {
	return []string{TypeSecurityGroup, TypeSecurityGroupRule, TypeInstance}
}

// ListResources enumerates one resource type
func (p *Provider) ListResources(ctx context.Context, resourceType string) ([]types.RawResource, error) {
	switch resourceType {
	case TypeSecurityGroup:
		return p.listSecurityGroups(ctx)
	case TypeSecurityGroupRule:
		return p.listSecurityGroupRules(ctx)
	case TypeInstance:
		return p.listInstances(ctx)
	default:
		return nil, &providers.ProviderError{
			Kind:         providers.ErrNotFound,
			ResourceType: resourceType,
			Err:          fmt.Errorf("unsupported resource type"),
		}
	}
}
