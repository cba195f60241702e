package config

import "time"

type Config interface {
	EnvConfig
	CredentialConfig
	CheckConfig
}

type EnvConfig interface {
	GetAppName() string
	GetLogLevel() string
}

// CredentialConfig exposes the three values the identity provider needs to issue a token.
type CredentialConfig interface {
	GetTenantID() string
	GetClientID() string
	GetClientSecret() string
}

type CheckConfig interface {
	GetAuthorityHost() string
	GetScopes() []string
	GetTimeout() time.Duration
}

type mainConfig struct {
	EnvVars
}

// New reads configuration from the process environment.
func New() Config {
	return mainConfig{EnvVars: EnvVars{}}
}

// NewWithLookup reads configuration through lookup instead of the process environment.
func NewWithLookup(lookup func(string) string) Config {
	return mainConfig{EnvVars: EnvVars{lookup: lookup}}
}
