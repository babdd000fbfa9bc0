package arm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	azarm "github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/cosmos/armcosmos/v2"
)

// Capabilities are the helpers every account-scoped service needs.
type Capabilities interface {
	CreateClient(subscriptionID string) (*armcosmos.MongoDBResourcesClient, error)
	ResolveResourceID(ctx context.Context, id ResourceID) (ResourceID, error)
	ParseResourceID(s string) (ResourceID, error)
}

// Base implements Capabilities for one credential and set of client options.
type Base struct {
	Credential azcore.TokenCredential
	Options    *azarm.ClientOptions
}

var _ Capabilities = Base{}

// NewBase authenticates with token. A non-empty endpoint replaces the
// public cloud Resource Manager endpoint.
func NewBase(token, endpoint string) Base {
	b := Base{Credential: StaticToken{Token: token}}
	if endpoint != "" {
		b.Options = &azarm.ClientOptions{
			ClientOptions: policy.ClientOptions{Cloud: CloudFor(endpoint)},
		}
	}
	return b
}

// CloudFor returns the public cloud configuration with Resource Manager at
// endpoint.
func CloudFor(endpoint string) cloud.Configuration {
	public := cloud.AzurePublic.Services[cloud.ResourceManager]
	return cloud.Configuration{
		ActiveDirectoryAuthorityHost: cloud.AzurePublic.ActiveDirectoryAuthorityHost,
		Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
			cloud.ResourceManager: {Audience: public.Audience, Endpoint: endpoint},
		},
	}
}

// CreateClient returns a MongoDB resources client for subscriptionID.
func (b Base) CreateClient(subscriptionID string) (*armcosmos.MongoDBResourcesClient, error) {
	c, err := armcosmos.NewMongoDBResourcesClient(subscriptionID, b.Credential, b.Options)
	if err != nil {
		return nil, fmt.Errorf("creating MongoDB resources client: %w", err)
	}
	return c, nil
}

// ParseResourceID is ParseResourceID bound to Base.
func (Base) ParseResourceID(s string) (ResourceID, error) {
	return ParseResourceID(s)
}

// ResolveResourceID fills in the resource group of id by listing the
// subscription's Cosmos DB accounts. Complete IDs are returned unchanged.
func (b Base) ResolveResourceID(ctx context.Context, id ResourceID) (ResourceID, error) {
	if id.ResourceGroup != "" {
		return id, nil
	}
	if id.SubscriptionID == "" || id.AccountName == "" {
		return ResourceID{}, fmt.Errorf("resolving account: subscription and account name are required: %w", ErrInvalidResourceID)
	}

	accounts, err := armcosmos.NewDatabaseAccountsClient(id.SubscriptionID, b.Credential, b.Options)
	if err != nil {
		return ResourceID{}, fmt.Errorf("creating accounts client: %w", err)
	}

	pager := accounts.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return ResourceID{}, fmt.Errorf("listing accounts: %w", err)
		}
		for _, acct := range page.Value {
			if acct == nil || acct.Name == nil || acct.ID == nil {
				continue
			}
			if strings.EqualFold(*acct.Name, id.AccountName) {
				return ParseResourceID(*acct.ID)
			}
		}
	}
	return ResourceID{}, fmt.Errorf("account %s not found in subscription %s", id.AccountName, id.SubscriptionID)
}

// IsNotFound reports whether err is a Resource Manager 404 response.
func IsNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}
