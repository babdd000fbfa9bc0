package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/walkerscm/cosmosctl/internal/connstr"
)

// ErrNoConnectionString is returned when the configured authentication type
// cannot be expressed as a connection string.
var ErrNoConnectionString = errors.New("no connection string for this authentication type")

// ConnectionConfig holds the target account, either as a complete connection
// string or as the split fields the string is built from.
type ConnectionConfig struct {
	ConnectionString string
	Options          connstr.Options
}

// LoadConnectionConfig reads the .env file at envPath (a missing file is not
// an error) and returns the target from COSMOS_CONNECTION_STRING, or from
// COSMOS_SERVER, COSMOS_USERNAME, COSMOS_PASSWORD, COSMOS_DATABASE,
// COSMOS_OPTIONS, COSMOS_SRV and COSMOS_AUTH_TYPE.
func LoadConnectionConfig(envPath string) (*ConnectionConfig, error) {
	if err := loadEnv(envPath); err != nil {
		return nil, err
	}

	if cs := os.Getenv("COSMOS_CONNECTION_STRING"); cs != "" {
		opts, err := connstr.Parse(cs)
		if err != nil {
			return nil, fmt.Errorf("COSMOS_CONNECTION_STRING: %w", err)
		}
		return &ConnectionConfig{ConnectionString: cs, Options: opts}, nil
	}

	server := os.Getenv("COSMOS_SERVER")
	if server == "" {
		return nil, fmt.Errorf("missing required env vars: COSMOS_CONNECTION_STRING or COSMOS_SERVER")
	}

	user := os.Getenv("COSMOS_USERNAME")
	authType := connstr.Integrated
	if user != "" {
		authType = connstr.SQLLogin
	}
	if raw := os.Getenv("COSMOS_AUTH_TYPE"); raw != "" {
		var err error
		if authType, err = connstr.ParseAuthType(raw); err != nil {
			return nil, fmt.Errorf("COSMOS_AUTH_TYPE: %w", err)
		}
	}
	if authType == connstr.SQLLogin && (user == "" || os.Getenv("COSMOS_PASSWORD") == "") {
		return nil, fmt.Errorf("missing required env vars for SqlLogin: COSMOS_USERNAME, COSMOS_PASSWORD")
	}

	srv := false
	if raw := os.Getenv("COSMOS_SRV"); raw != "" {
		var err error
		if srv, err = strconv.ParseBool(raw); err != nil {
			return nil, fmt.Errorf("COSMOS_SRV: %w", err)
		}
	}

	opts := connstr.Options{
		Server:             server,
		User:               user,
		Password:           os.Getenv("COSMOS_PASSWORD"),
		AuthenticationType: authType,
		Search:             os.Getenv("COSMOS_OPTIONS"),
		IsServer:           srv,
	}
	if db := os.Getenv("COSMOS_DATABASE"); db != "" {
		opts.Pathname = "/" + db
	}

	return &ConnectionConfig{Options: opts}, nil
}

// loadEnv loads envPath into the process environment without overriding
// variables that are already set. A missing file is ignored.
func loadEnv(envPath string) error {
	if envPath == "" {
		return nil
	}
	if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", envPath, err)
	}
	return nil
}

// URI returns the connection string handed to the driver. A configured
// string is used as is; split fields go through connstr.Build.
func (c *ConnectionConfig) URI() (string, error) {
	if c.ConnectionString != "" {
		return c.ConnectionString, nil
	}
	cs, ok := connstr.Build(c.Options)
	if !ok {
		return "", fmt.Errorf("%s: %w", c.Options.AuthenticationType, ErrNoConnectionString)
	}
	return cs, nil
}
