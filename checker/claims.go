package checker

import (
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-credcheck/internal/errors"
	"github.com/jrsteele09/go-credcheck/internal/utils"
)

// TokenClaims is the subset of access token claims useful when diagnosing permissions.
// The values come from an unverified token and are informational only.
type TokenClaims struct {
	Audience  []string
	Issuer    string
	TenantID  string
	AppID     string
	Roles     []string
	ExpiresAt *time.Time
}

// ParseClaims decodes a JWT access token without verifying its signature.
// Tokens that are not JWTs return an error.
func ParseClaims(rawToken string) (*TokenClaims, error) {
	if strings.Count(rawToken, ".") != 2 {
		return nil, errors.New("access token is not a JWT")
	}

	token, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse access token")
	}

	claims, ok := token.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	tc := &TokenClaims{}
	if aud, err := claims.GetAudience(); err == nil {
		tc.Audience = aud
	}
	tc.Issuer, _ = claims.GetIssuer()
	tc.TenantID, _ = claims["tid"].(string)

	// v1 tokens carry appid, v2 tokens carry azp
	tc.AppID, _ = claims["appid"].(string)
	if tc.AppID == "" {
		tc.AppID, _ = claims["azp"].(string)
	}

	if claimRoles, ok := claims["roles"].([]any); ok {
		tc.Roles = utils.ToStringSlice(claimRoles)
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		tc.ExpiresAt = utils.Ptr(exp.Time)
	}

	return tc, nil
}
