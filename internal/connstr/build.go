package connstr

import (
	"net/url"
	"strings"
)

const managedHostSuffix = ".cosmos.azure.com"

// Defaults forced onto Azure Cosmos DB for MongoDB accounts.
const (
	DefaultMaxIdleTimeMS = "120000"
	managedReplicaSet    = "globaldb"
)

// Build renders opts as a connection string. The second result is false
// when no string can represent opts, which is the case for AzureMFA.
//
// When the last host is under cosmos.azure.com the query is completed with
// the parameters Cosmos DB requires: ssl, replicaSet, retrywrites,
// maxIdleTimeMS (an existing value is kept) and appName.
func Build(opts Options) (string, bool) {
	if opts.AuthenticationType == AzureMFA {
		return "", false
	}

	var b strings.Builder
	if opts.IsServer {
		b.WriteString(schemeSRV)
	} else {
		b.WriteString(schemeStandard)
	}
	b.WriteString("://")

	if opts.AuthenticationType == SQLLogin {
		if ui := userinfo(opts.User, opts.Password); ui != "" {
			b.WriteString(ui)
			b.WriteByte('@')
		}
	}

	b.WriteString(opts.Server)

	if opts.Pathname != "" {
		if !strings.HasPrefix(opts.Pathname, "/") {
			b.WriteByte('/')
		}
		b.WriteString(opts.Pathname)
	}

	query := strings.TrimPrefix(opts.Search, "?")
	if IsManagedHost(opts.Server) {
		query = augmentManaged(query, opts.User)
	}
	if query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}

	return b.String(), true
}

// IsManagedHost reports whether the last host of server belongs to Azure
// Cosmos DB, with or without a port.
func IsManagedHost(server string) bool {
	host := server
	for {
		i := strings.LastIndexByte(host, ':')
		if i < 0 || !allDigits(host[i+1:]) {
			break
		}
		host = host[:i]
	}
	return strings.HasSuffix(host, managedHostSuffix)
}

// augmentManaged applies the Cosmos DB parameters to a raw query and returns
// it form-encoded.
func augmentManaged(query, user string) string {
	ps := parseParams(query)
	ps = ps.set("ssl", "true")
	ps = ps.set("replicaSet", managedReplicaSet)
	ps = ps.set("retrywrites", "false")
	idle, ok := ps.get("maxIdleTimeMS")
	if !ok || idle == "" {
		idle = DefaultMaxIdleTimeMS
	}
	ps = ps.set("maxIdleTimeMS", idle)
	ps = ps.set("appName", "@"+user+"@")
	return ps.encode()
}

func userinfo(user, password string) string {
	switch {
	case user == "" && password == "":
		return ""
	case password == "":
		return url.User(user).String()
	default:
		return url.UserPassword(user, password).String()
	}
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
