package connstr

import (
	"fmt"
	"strings"
)

// AuthType selects how credentials are carried by a connection.
type AuthType string

const (
	// Integrated connections carry no credentials in the string.
	Integrated AuthType = "Integrated"
	// SQLLogin connections carry a user and password in the userinfo.
	SQLLogin AuthType = "SqlLogin"
	// AzureMFA connections acquire tokens elsewhere and have no string form.
	AzureMFA AuthType = "AzureMFA"
)

// ParseAuthType maps a user-supplied name onto an AuthType. Matching is
// case-insensitive and accepts the short aliases shown in --help.
func ParseAuthType(s string) (AuthType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "integrated", "none", "":
		return Integrated, nil
	case "sqllogin", "login", "password":
		return SQLLogin, nil
	case "azuremfa", "mfa":
		return AzureMFA, nil
	}
	return "", fmt.Errorf("unknown authentication type %q (want Integrated, SqlLogin or AzureMFA)", s)
}

// Options is the structured form of a connection string.
type Options struct {
	Server             string   `json:"server" yaml:"server"`
	User               string   `json:"user" yaml:"user"`
	Password           string   `json:"password" yaml:"password"`
	AuthenticationType AuthType `json:"authenticationType" yaml:"authenticationType"`
	Pathname           string   `json:"pathname" yaml:"pathname"`
	Search             string   `json:"search" yaml:"search"`
	IsServer           bool     `json:"isServer" yaml:"isServer"`
}

// Hosts returns the individual host[:port] entries of Server in order.
func (o Options) Hosts() []string {
	if o.Server == "" {
		return nil
	}
	return strings.Split(o.Server, ",")
}

// Database returns the database named by the path, or "" for the default.
func (o Options) Database() string {
	return strings.TrimPrefix(o.Pathname, "/")
}

// Redacted returns a copy safe for display and logging.
func (o Options) Redacted() Options {
	if o.Password != "" {
		o.Password = "****"
	}
	return o
}
