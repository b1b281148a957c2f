package aws

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"

	"github.com/drifthound/drifthound/types"
)

// listInstances enumerates EC2 instances, skipping terminated ones
func (p *Provider) listInstances(ctx context.Context) ([]types.RawResource, error) {
	var resources []types.RawResource

	input := &ec2.DescribeInstancesInput{}
	for {
		output, err := p.client.DescribeInstances(ctx, input)
		if err != nil {
			return nil, wrapAPIError(TypeInstance, err)
		}

		for _, reservation := range output.Reservations {
			for _, instance := range reservation.Instances {
				if instance.State != nil && instance.State.Name == ec2types.InstanceStateNameTerminated {
					continue
				}
				resources = append(resources, processInstance(instance))
			}
		}

		if output.NextToken == nil {
			break
		}
		input.NextToken = output.NextToken
	}

	return resources, nil
}

// processInstance converts one instance into its raw form
func processInstance(instance ec2types.Instance) types.RawResource {
	attrs := map[string]any{
		"id":            aws.ToString(instance.InstanceId),
		"ami":           aws.ToString(instance.ImageId),
		"instance_type": string(instance.InstanceType),
		"subnet_id":     aws.ToString(instance.SubnetId),
		"tags":          convertTags(instance.Tags),
	}

	groupIDs := make([]any, 0, len(instance.SecurityGroups))
	for _, group := range instance.SecurityGroups {
		groupIDs = append(groupIDs, aws.ToString(group.GroupId))
	}
	attrs["vpc_security_group_ids"] = groupIDs

	return types.RawResource{Type: TypeInstance, Attrs: attrs}
}
