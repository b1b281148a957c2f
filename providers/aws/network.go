package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/drifthound/drifthound/types"
)

// listSecurityGroups enumerates security groups with their inline rule blocks
func (p *Provider) listSecurityGroups(ctx context.Context) ([]types.RawResource, error) {
	var resources []types.RawResource

	input := &ec2.DescribeSecurityGroupsInput{}
	for {
		output, err := p.client.DescribeSecurityGroups(ctx, input)
		if err != nil {
			return nil, wrapAPIError(TypeSecurityGroup, err)
		}

		for _, group := range output.SecurityGroups {
			resources = append(resources, processSecurityGroup(group))
		}

		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	return resources, nil
}

// processSecurityGroup converts one security group into its raw form
func processSecurityGroup(group ec2types.SecurityGroup) types.RawResource {
	return types.RawResource{
		Type: TypeSecurityGroup,
		Attrs: map[string]any{
			"id":          aws.ToString(group.GroupId),
			"name":        aws.ToString(group.GroupName),
			"description": aws.ToString(group.Description),
			"vpc_id":      aws.ToString(group.VpcId),
			"owner_id":    aws.ToString(group.OwnerId),
			"ingress":     processPermissions(group.IpPermissions),
			"egress":      processPermissions(group.IpPermissionsEgress),
			"tags":        convertTags(group.Tags),
		},
	}
}

// processPermissions converts IP permissions into inline rule blocks
func processPermissions(permissions []ec2types.IpPermission) []any {
	blocks := make([]any, 0, len(permissions))
	for _, permission := range permissions {
		cidrs := make([]any, 0, len(permission.IpRanges))
		for _, ipRange := range permission.IpRanges {
			cidrs = append(cidrs, aws.ToString(ipRange.CidrIp))
		}

		block := map[string]any{
			"protocol":    aws.ToString(permission.IpProtocol),
			"cidr_blocks": cidrs,
		}
		if permission.FromPort != nil {
			block["from_port"] = int(aws.ToInt32(permission.FromPort))
		}
		if permission.ToPort != nil {
			block["to_port"] = int(aws.ToInt32(permission.ToPort))
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// listSecurityGroupRules enumerates standalone security group rules.
// Each rule is its own resource with its own identity. Rules that feed
// a group's inline blocks still appear here independently; collapsing
// them would hide exactly the blind spot a drift scan exists to catch.
func (p *Provider) listSecurityGroupRules(ctx context.Context) ([]types.RawResource, error) {
	var resources []types.RawResource

	input := &ec2.DescribeSecurityGroupRulesInput{}
	for {
		output, err := p.client.DescribeSecurityGroupRules(ctx, input)
		if err != nil {
			return nil, wrapAPIError(TypeSecurityGroupRule, err)
		}

		for _, rule := range output.SecurityGroupRules {
			resources = append(resources, processSecurityGroupRule(rule))
		}

		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	return resources, nil
}

// processSecurityGroupRule converts one standalone rule into its raw form
func processSecurityGroupRule(rule ec2types.SecurityGroupRule) types.RawResource {
	direction := "ingress"
	if aws.ToBool(rule.IsEgress) {
		direction = "egress"
	}

	attrs := map[string]any{
		"id":                aws.ToString(rule.SecurityGroupRuleId),
		"security_group_id": aws.ToString(rule.GroupId),
		"type":              direction,
		"protocol":          aws.ToString(rule.IpProtocol),
	}
	if rule.FromPort != nil {
		attrs["from_port"] = int(aws.ToInt32(rule.FromPort))
	}
	if rule.ToPort != nil {
		attrs["to_port"] = int(aws.ToInt32(rule.ToPort))
	}
	if rule.CidrIpv4 != nil {
		attrs["cidr_blocks"] = []any{aws.ToString(rule.CidrIpv4)}
	}
	if rule.Description != nil {
		attrs["description"] = aws.ToString(rule.Description)
	}

	return types.RawResource{Type: TypeSecurityGroupRule, Attrs: attrs}
}

// convertTags converts EC2 tags to a raw attribute map
func convertTags(tags []ec2types.Tag) map[string]any {
	converted := make(map[string]any, len(tags))
	for _, tag := range tags {
		converted[aws.ToString(tag.Key)] = aws.ToString(tag.Value)
	}
	return converted
}
