package arm

import (
	"context"
	"errors"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
)

// tokenLifetime is assumed for tokens whose expiry is unknown. The SDK
// refreshes shortly before expiry, so a static token is handed out again.
const tokenLifetime = time.Hour

// StaticToken is an azcore.TokenCredential for an access token acquired
// outside this tool, for example with `az account get-access-token`.
type StaticToken struct {
	Token     string
	ExpiresOn time.Time
}

var _ azcore.TokenCredential = StaticToken{}

// GetToken returns the configured token for every scope.
func (s StaticToken) GetToken(ctx context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	if s.Token == "" {
		return azcore.AccessToken{}, errors.New("no access token configured")
	}
	expires := s.ExpiresOn
	if expires.IsZero() {
		expires = time.Now().Add(tokenLifetime)
	}
	return azcore.AccessToken{Token: s.Token, ExpiresOn: expires}, nil
}
