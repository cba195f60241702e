package config

import (
	"os"
	"strings"
	"time"

	"github.com/jrsteele09/go-credcheck/oauthmodel"
	"github.com/rs/zerolog/log"
)

const (
	tenantIDEnvVar      = "AZURE_TENANT_ID"
	clientIDEnvVar      = "AZURE_CLIENT_ID"
	clientSecretEnvVar  = "AZURE_CLIENT_SECRET"
	authorityHostEnvVar = "CREDCHECK_AUTHORITY_HOST"
	scopeEnvVar         = "CREDCHECK_SCOPE"
	timeoutEnvVar       = "CREDCHECK_TIMEOUT"
	appNameVar          = "APP_NAME"
	logLevelVar         = "LOG_LEVEL"

	defaultTimeout = 30 * time.Second
)

type EnvVars struct {
	lookup func(string) string
}

var _ EnvConfig = EnvVars{}
var _ CredentialConfig = EnvVars{}
var _ CheckConfig = EnvVars{}

func (e EnvVars) GetTenantID() string {
	return e.get(tenantIDEnvVar, "")
}

func (e EnvVars) GetClientID() string {
	return e.get(clientIDEnvVar, "")
}

func (e EnvVars) GetClientSecret() string {
	return e.get(clientSecretEnvVar, "")
}

func (e EnvVars) GetAuthorityHost() string {
	return strings.TrimRight(e.get(authorityHostEnvVar, oauthmodel.DefaultAuthorityHost), "/")
}

// GetScopes splits CREDCHECK_SCOPE on whitespace, falling back to the Microsoft Graph default scope.
func (e EnvVars) GetScopes() []string {
	scopes := strings.Fields(e.get(scopeEnvVar, ""))
	if len(scopes) == 0 {
		return []string{oauthmodel.GraphDefaultScope}
	}
	return scopes
}

// GetTimeout returns the request timeout. Zero disables it, an unparseable or negative value falls back to the default.
func (e EnvVars) GetTimeout() time.Duration {
	raw := e.get(timeoutEnvVar, "")
	if raw == "" {
		return defaultTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Warn().Str("env", timeoutEnvVar).Str("value", raw).Msg("Ignoring invalid timeout, using default")
		return defaultTimeout
	}
	return d
}

func (e EnvVars) GetAppName() string {
	return e.get(appNameVar, "credcheck")
}

func (e EnvVars) GetLogLevel() string {
	return e.get(logLevelVar, "info")
}

func (e EnvVars) get(envVar, defaultValue string) string {
	if e.lookup == nil {
		return GetEnv(envVar, defaultValue)
	}
	if value := e.lookup(envVar); value != "" {
		return value
	}
	return defaultValue
}

// TokenRequest assembles the credential request from the configured values.
func TokenRequest(c Config) oauthmodel.TokenRequest {
	return oauthmodel.TokenRequest{
		TenantID:     c.GetTenantID(),
		ClientID:     c.GetClientID(),
		ClientSecret: c.GetClientSecret(),
		Scopes:       c.GetScopes(),
	}
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
