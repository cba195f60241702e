package checker

import (
	"context"
	"fmt"
	"net/http"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-credcheck/internal/errors"
	"github.com/jrsteele09/go-credcheck/oauthmodel"
)

// errDiscoverySkipped is returned when the tenant is not a GUID, since the issuer in the
// discovery document is always the tenant GUID and could not be matched.
var errDiscoverySkipped = errors.New("discovery requires the tenant to be a GUID")

// discoverTokenURL resolves the tenant's token endpoint from its OpenID discovery document.
func discoverTokenURL(ctx context.Context, client *http.Client, req oauthmodel.TokenRequest, authorityHost string) (string, error) {
	if _, err := uuid.Parse(req.TenantID); err != nil {
		return "", errDiscoverySkipped
	}

	provider, err := oidc.NewProvider(oidc.ClientContext(ctx, client), req.Issuer(authorityHost))
	if err != nil {
		return "", fmt.Errorf("%w: tenant %s: %w", errors.ErrDiscovery, req.TenantID, err)
	}

	tokenURL := provider.Endpoint().TokenURL
	if tokenURL == "" {
		return "", errors.Wrapf(errors.ErrDiscovery, "tenant %s: discovery document has no token_endpoint", req.TenantID)
	}
	return tokenURL, nil
}
