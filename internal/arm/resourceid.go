package arm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidResourceID is returned for strings that are not account resource IDs.
var ErrInvalidResourceID = errors.New("invalid Azure resource ID")

// ProviderDocumentDB is the resource provider of Cosmos DB accounts.
const ProviderDocumentDB = "Microsoft.DocumentDB"

const accountType = "databaseAccounts"

// ResourceID identifies a Cosmos DB account:
//
//	/subscriptions/{sub}/resourceGroups/{rg}/providers/Microsoft.DocumentDB/databaseAccounts/{name}
type ResourceID struct {
	SubscriptionID string
	ResourceGroup  string
	AccountName    string
}

// ParseResourceID extracts the account from an ARM resource ID. Segment
// names are matched case-insensitively and child resources are ignored.
func ParseResourceID(s string) (ResourceID, error) {
	parts := strings.Split(strings.Trim(strings.TrimSpace(s), "/"), "/")

	var id ResourceID
	var provider, resourceType string
	for i := 0; i+1 < len(parts); i += 2 {
		key, value := parts[i], parts[i+1]
		switch {
		case strings.EqualFold(key, "subscriptions"):
			id.SubscriptionID = value
		case strings.EqualFold(key, "resourceGroups"):
			id.ResourceGroup = value
		case strings.EqualFold(key, "providers"):
			provider = value
			if i+3 < len(parts) {
				resourceType, id.AccountName = parts[i+2], parts[i+3]
			}
			i += 2
		}
		if id.AccountName != "" {
			break
		}
	}

	switch {
	case id.SubscriptionID == "" || id.ResourceGroup == "" || id.AccountName == "":
		return ResourceID{}, fmt.Errorf("%q: %w", s, ErrInvalidResourceID)
	case !strings.EqualFold(provider, ProviderDocumentDB) || !strings.EqualFold(resourceType, accountType):
		return ResourceID{}, fmt.Errorf("%q is a %s/%s, not a Cosmos DB account: %w", s, provider, resourceType, ErrInvalidResourceID)
	}
	return id, nil
}

func (id ResourceID) String() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s/%s",
		id.SubscriptionID, id.ResourceGroup, ProviderDocumentDB, accountType, id.AccountName)
}
