package checker

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jrsteele09/go-credcheck/internal/utils"
	"github.com/jrsteele09/go-credcheck/oauthmodel"
)

// Reporter writes human readable status lines for a credential check.
// A nil Reporter discards everything.
type Reporter struct {
	out         io.Writer
	colour      bool
	fingerprint bool
}

// NewReporter creates a Reporter writing to out.
// colour enables ANSI colours, fingerprint adds a short digest of the client secret.
func NewReporter(out io.Writer, colour, fingerprint bool) *Reporter {
	return &Reporter{out: out, colour: colour, fingerprint: fingerprint}
}

// Config prints the configuration with the secret masked.
func (r *Reporter) Config(req oauthmodel.TokenRequest, authorityHost string) {
	if r == nil {
		return
	}
	r.line(Cyan, "Checking client credentials")
	r.field("Tenant ID", valueOrNotSet(req.TenantID))
	r.field("Client ID", valueOrNotSet(req.ClientID))
	r.field("Client secret", oauthmodel.MaskSecret(req.ClientSecret))
	if r.fingerprint && req.ClientSecret != "" {
		r.field("Secret fingerprint", Fingerprint(req.ClientSecret))
	}
	r.field("Grant type", oauthmodel.ClientCredentialsGrant)
	r.field("Scope", req.Scope())
	r.field("Authority", authorityHost)
	fmt.Fprintln(r.out)
}

// Result prints the outcome of a check.
func (r *Reporter) Result(res Result) {
	if r == nil {
		return
	}

	switch res.Outcome {
	case OutcomeSuccess:
		r.line(outcomeColors[res.Outcome], "Authentication succeeded")
		r.field("Token endpoint", res.TokenURL)
		r.field("Token type", res.TokenType)
		r.field("Token length", fmt.Sprintf("%d characters", res.TokenLength))
		r.field("Expires in", fmt.Sprintf("%d seconds", res.ExpiresIn))
		r.claims(res.Claims)
	case OutcomeConfigError:
		r.line(outcomeColors[res.Outcome], "Configuration error, no request was sent")
		for _, msg := range strings.Split(res.Err.Error(), "\n") {
			r.field("Problem", msg)
		}
	case OutcomeRejected:
		r.line(outcomeColors[res.Outcome], "Authentication failed")
		r.field("Token endpoint", res.TokenURL)
		r.field("Status", fmt.Sprintf("%d", res.StatusCode))
		if res.ErrorCode != "" {
			r.field("Error", res.ErrorCode)
		}
		if res.ErrorDescription != "" {
			r.field("Description", res.ErrorDescription)
		}
		r.field("Response", res.Body)
	case OutcomeTransportError:
		r.line(outcomeColors[res.Outcome], "Authentication failed, request did not complete")
		if res.TokenURL != "" {
			r.field("Token endpoint", res.TokenURL)
		}
		r.field("Fault", errString(res.Err))
	}

	if res.RequestID != "" {
		r.field("Request ID", res.RequestID)
	}
	r.field("Elapsed", res.Duration.Round(time.Millisecond).String())
}

func (r *Reporter) claims(c *TokenClaims) {
	if c == nil {
		return
	}
	r.field("Audience", strings.Join(c.Audience, ", "))
	r.field("Issuer", c.Issuer)
	r.field("Token tenant", c.TenantID)
	r.field("App ID", c.AppID)
	if len(c.Roles) == 0 {
		r.field("Roles", "none, check the app's API permissions and admin consent")
	} else {
		r.field("Roles", strings.Join(c.Roles, ", "))
	}
	if c.ExpiresAt != nil {
		r.field("Token expiry", utils.Value(c.ExpiresAt).UTC().Format(time.RFC3339))
	}
}

func (r *Reporter) line(colour, msg string) {
	if r.colour {
		fmt.Fprintf(r.out, "%s%s%s\n", colour, msg, ResetColor)
		return
	}
	fmt.Fprintln(r.out, msg)
}

func (r *Reporter) field(name, value string) {
	if r.colour {
		fmt.Fprintf(r.out, "  %s%-18s%s %s\n", Gray, name+":", ResetColor, value)
		return
	}
	fmt.Fprintf(r.out, "  %-18s %s\n", name+":", value)
}

func valueOrNotSet(v string) string {
	if v == "" {
		return "<not set>"
	}
	return v
}

func errString(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}
