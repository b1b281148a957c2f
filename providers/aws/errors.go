package aws

import (
	"errors"
	"strings"

	"github.com/aws/smithy-go"

	"github.com/drifthound/drifthound/providers"
)

// wrapAPIError maps an EC2 API failure onto the provider error taxonomy.
// Unknown API errors count as transient so the caller retries them.
func wrapAPIError(resourceType string, err error) error {
	kind := providers.ErrTransient

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch code := apiErr.ErrorCode(); {
		case code == "Throttling" || code == "ThrottlingException" || code == "RequestLimitExceeded":
			kind = providers.ErrRateLimited
		case code == "UnauthorizedOperation" || code == "AuthFailure" || code == "AccessDenied":
			kind = providers.ErrUnauthorized
		case strings.HasSuffix(code, ".NotFound"):
			kind = providers.ErrNotFound
		}
	}

	return &providers.ProviderError{
		Kind:         kind,
		ResourceType: resourceType,
		Err:          err,
	}
}
