package oauthmodel

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jrsteele09/go-credcheck/internal/errors"
)

const (
	// ClientCredentialsGrant allows machine-to-machine authentication.
	// Token request includes: client_id, client_secret, scope
	// Returns: access_token (no refresh_token or id_token)
	ClientCredentialsGrant = "client_credentials"

	// GraphDefaultScope requests every application permission granted to the client on Microsoft Graph.
	GraphDefaultScope = "https://graph.microsoft.com/.default"

	// DefaultAuthorityHost is the Microsoft identity platform for the public cloud.
	DefaultAuthorityHost = "https://login.microsoftonline.com"

	secretMask    = '*'
	secretNotSet  = "<not set>"
	tokenPathTmpl = "%s/%s/oauth2/v2.0/token"
	issuerTmpl    = "%s/%s/v2.0"
)

// TokenRequest holds the credentials for a single client credentials token request.
// Values are read once at start and never modified.
type TokenRequest struct {
	// TenantID identifies the directory the client is registered in.
	// Example: "72f988bf-86f1-41af-91ab-2d7cd011db47" or "contoso.onmicrosoft.com"
	TenantID string

	// ClientID is the application (client) ID of the app registration.
	ClientID string

	// ClientSecret is the secret credential of the confidential client.
	// Security: Never log or expose this value, use MaskSecret
	ClientSecret string

	// Scopes the access token is requested for, sent space separated.
	// Example: ["https://graph.microsoft.com/.default"]
	Scopes []string
}

// Validate reports every missing value, not just the first. Values are only checked for presence.
func (r TokenRequest) Validate() error {
	var errs []error
	if r.TenantID == "" {
		errs = append(errs, ErrMissingTenantID)
	}
	if r.ClientID == "" {
		errs = append(errs, ErrMissingClientID)
	}
	if r.ClientSecret == "" {
		errs = append(errs, ErrMissingClientSecret)
	}
	if len(r.Scopes) == 0 {
		errs = append(errs, ErrMissingScope)
	}
	return errors.Join(errs...)
}

// TokenURL renders the v2.0 token endpoint for the tenant under authorityHost.
func (r TokenRequest) TokenURL(authorityHost string) string {
	return fmt.Sprintf(tokenPathTmpl, strings.TrimRight(authorityHost, "/"), url.PathEscape(r.TenantID))
}

// Issuer renders the v2.0 issuer for the tenant, the base of its OpenID discovery document.
func (r TokenRequest) Issuer(authorityHost string) string {
	return fmt.Sprintf(issuerTmpl, strings.TrimRight(authorityHost, "/"), url.PathEscape(r.TenantID))
}

// Scope joins the scopes the way the token endpoint expects them.
func (r TokenRequest) Scope() string {
	return strings.Join(r.Scopes, " ")
}

func (r TokenRequest) String() string {
	return fmt.Sprintf("tenant=%s client=%s secret=%s scope=%s", r.TenantID, r.ClientID, MaskSecret(r.ClientSecret), r.Scope())
}

// MaskSecret replaces every character of secret with '*', or returns "<not set>" when it is empty.
func MaskSecret(secret string) string {
	if secret == "" {
		return secretNotSet
	}
	return strings.Repeat(string(secretMask), len([]rune(secret)))
}
