package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drifthound/drifthound/providers"
)

type fakeEC2 struct {
	groups    []ec2types.SecurityGroup
	rules     []ec2types.SecurityGroupRule
	instances []ec2types.Instance
	err       error
}

func (f *fakeEC2) DescribeSecurityGroups(ctx context.Context, params *ec2.DescribeSecurityGroupsInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupsOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ec2.DescribeSecurityGroupsOutput{SecurityGroups: f.groups}, nil
}

func (f *fakeEC2) DescribeSecurityGroupRules(ctx context.Context, params *ec2.DescribeSecurityGroupRulesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeSecurityGroupRulesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ec2.DescribeSecurityGroupRulesOutput{SecurityGroupRules: f.rules}, nil
}

func (f *fakeEC2) DescribeInstances(ctx context.Context, params *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &ec2.DescribeInstancesOutput{
		Reservations: []ec2types.Reservation{{Instances: f.instances}},
	}, nil
}

func TestListSecurityGroups(t *testing.T) {
	client := &fakeEC2{
		groups: []ec2types.SecurityGroup{
			{
				GroupId:     aws.String("sg-1"),
				GroupName:   aws.String("db"),
				Description: aws.String("postgres access"),
				VpcId:       aws.String("vpc-1"),
				IpPermissions: []ec2types.IpPermission{
					{
						FromPort:   aws.Int32(5432),
						ToPort:     aws.Int32(5432),
						IpProtocol: aws.String("tcp"),
						IpRanges:   []ec2types.IpRange{{CidrIp: aws.String("10.0.0.0/8")}},
					},
				},
				Tags: []ec2types.Tag{{Key: aws.String("Team"), Value: aws.String("data")}},
			},
		},
	}
	provider := NewProvider(client, "us-east-1")

	resources, err := provider.ListResources(context.Background(), TypeSecurityGroup)
	require.NoError(t, err)
	require.Len(t, resources, 1)

	attrs := resources[0].Attrs
	assert.Equal(t, "sg-1", attrs["id"])
	assert.Equal(t, "db", attrs["name"])
	assert.Equal(t, "vpc-1", attrs["vpc_id"])

	ingress, ok := attrs["ingress"].([]any)
	require.True(t, ok)
	require.Len(t, ingress, 1)
	block := ingress[0].(map[string]any)
	assert.Equal(t, 5432, block["from_port"])
	assert.Equal(t, []any{"10.0.0.0/8"}, block["cidr_blocks"])

	tags := attrs["tags"].(map[string]any)
	assert.Equal(t, "data", tags["Team"])
}

func TestListSecurityGroupRules(t *testing.T) {
	client := &fakeEC2{
		rules: []ec2types.SecurityGroupRule{
			{
				SecurityGroupRuleId: aws.String("sgrule-1"),
				GroupId:             aws.String("sg-1"),
				IsEgress:            aws.Bool(false),
				IpProtocol:          aws.String("tcp"),
				FromPort:            aws.Int32(5432),
				ToPort:              aws.Int32(5432),
				CidrIpv4:            aws.String("96.202.220.106/32"),
			},
		},
	}
	provider := NewProvider(client, "us-east-1")

	resources, err := provider.ListResources(context.Background(), TypeSecurityGroupRule)
	require.NoError(t, err)
	require.Len(t, resources, 1)

	attrs := resources[0].Attrs
	assert.Equal(t, "sgrule-1", attrs["id"])
	assert.Equal(t, "sg-1", attrs["security_group_id"])
	assert.Equal(t, "ingress", attrs["type"])
	assert.Equal(t, []any{"96.202.220.106/32"}, attrs["cidr_blocks"])
}

func TestListInstancesSkipsTerminated(t *testing.T) {
	client := &fakeEC2{
		instances: []ec2types.Instance{
			{
				InstanceId:   aws.String("i-1"),
				ImageId:      aws.String("ami-1"),
				InstanceType: ec2types.InstanceTypeT3Micro,
				State:        &ec2types.InstanceState{Name: ec2types.InstanceStateNameRunning},
			},
			{
				InstanceId: aws.String("i-gone"),
				State:      &ec2types.InstanceState{Name: ec2types.InstanceStateNameTerminated},
			},
		},
	}
	provider := NewProvider(client, "us-east-1")

	resources, err := provider.ListResources(context.Background(), TypeInstance)
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "i-1", resources[0].Attrs["id"])
	assert.Equal(t, "t3.micro", resources[0].Attrs["instance_type"])
}

func TestUnsupportedResourceType(t *testing.T) {
	provider := NewProvider(&fakeEC2{}, "us-east-1")

	_, err := provider.ListResources(context.Background(), "aws_rds_cluster")
	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.ErrNotFound, provErr.Kind)
}

func TestAPIErrorMapping(t *testing.T) {
	tests := []struct {
		code string
		kind providers.ErrorKind
	}{
		{"Throttling", providers.ErrRateLimited},
		{"RequestLimitExceeded", providers.ErrRateLimited},
		{"UnauthorizedOperation", providers.ErrUnauthorized},
		{"InvalidGroup.NotFound", providers.ErrNotFound},
		{"InternalError", providers.ErrTransient},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			client := &fakeEC2{err: &smithy.GenericAPIError{Code: tt.code, Message: "boom"}}
			provider := NewProvider(client, "us-east-1")

			_, err := provider.ListResources(context.Background(), TypeSecurityGroup)
			var provErr *providers.ProviderError
			require.ErrorAs(t, err, &provErr)
			assert.Equal(t, tt.kind, provErr.Kind)
		})
	}
}

func TestNonAPIErrorIsTransient(t *testing.T) {
	client := &fakeEC2{err: errors.New("connection reset")}
	provider := NewProvider(client, "us-east-1")

	_, err := provider.ListResources(context.Background(), TypeInstance)
	var provErr *providers.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, providers.ErrTransient, provErr.Kind)
	assert.True(t, provErr.Retryable())
}
