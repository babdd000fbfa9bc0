package config

import (
	"fmt"
	"os"

	"github.com/walkerscm/cosmosctl/internal/arm"
)

// ARMConfig locates the account for management operations.
type ARMConfig struct {
	Account  arm.ResourceID
	Token    string
	Endpoint string
}

// LoadARMConfig reads the account from AZURE_RESOURCE_ID, or from
// AZURE_SUBSCRIPTION_ID, AZURE_RESOURCE_GROUP (optional) and
// COSMOS_ACCOUNT_NAME. AZURE_ACCESS_TOKEN is required; ARM_ENDPOINT overrides
// the public cloud endpoint. The .env file at envPath is loaded first.
func LoadARMConfig(envPath string) (*ARMConfig, error) {
	if err := loadEnv(envPath); err != nil {
		return nil, err
	}

	cfg := &ARMConfig{
		Token:    os.Getenv("AZURE_ACCESS_TOKEN"),
		Endpoint: os.Getenv("ARM_ENDPOINT"),
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("missing required env var: AZURE_ACCESS_TOKEN")
	}

	if raw := os.Getenv("AZURE_RESOURCE_ID"); raw != "" {
		id, err := arm.ParseResourceID(raw)
		if err != nil {
			return nil, fmt.Errorf("AZURE_RESOURCE_ID: %w", err)
		}
		cfg.Account = id
		return cfg, nil
	}

	cfg.Account = arm.ResourceID{
		SubscriptionID: os.Getenv("AZURE_SUBSCRIPTION_ID"),
		ResourceGroup:  os.Getenv("AZURE_RESOURCE_GROUP"),
		AccountName:    os.Getenv("COSMOS_ACCOUNT_NAME"),
	}
	if cfg.Account.SubscriptionID == "" || cfg.Account.AccountName == "" {
		return nil, fmt.Errorf("missing required env vars: AZURE_RESOURCE_ID or AZURE_SUBSCRIPTION_ID, COSMOS_ACCOUNT_NAME")
	}
	return cfg, nil
}

// Capabilities returns the ARM helpers bound to this config.
func (c *ARMConfig) Capabilities() arm.Base {
	return arm.NewBase(c.Token, c.Endpoint)
}
