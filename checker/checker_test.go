package checker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-credcheck/checker"
	"github.com/jrsteele09/go-credcheck/internal/errors"
	"github.com/jrsteele09/go-credcheck/oauthmodel"
	"github.com/stretchr/testify/require"
)

const (
	testTenant = "contoso"
	tokenPath  = "/contoso/oauth2/v2.0/token"
)

// stubIDP is a fake identity provider that records every request it receives.
type stubIDP struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
}

type recordedRequest struct {
	method string
	path   string
	form   url.Values
	header http.Header
}

func newStubIDP(t *testing.T, handler http.HandlerFunc) *stubIDP {
	t.Helper()
	s := &stubIDP{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		s.mu.Lock()
		s.requests = append(s.requests, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			form:   r.PostForm,
			header: r.Header.Clone(),
		})
		s.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *stubIDP) recorded() []recordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedRequest(nil), s.requests...)
}

func jsonResponse(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}

func validRequest() oauthmodel.TokenRequest {
	return oauthmodel.TokenRequest{
		TenantID:     testTenant,
		ClientID:     "11111111-2222-3333-4444-555555555555",
		ClientSecret: "s3cr3t-value",
		Scopes:       []string{oauthmodel.GraphDefaultScope},
	}
}

func TestChecker_MissingConfiguration(t *testing.T) {
	idp := newStubIDP(t, jsonResponse(http.StatusOK, `{"access_token":"abc","expires_in":3600}`))

	t.Run("all values unset", func(t *testing.T) {
		req := oauthmodel.TokenRequest{Scopes: []string{oauthmodel.GraphDefaultScope}}
		res := checker.New(req, checker.WithAuthorityHost(idp.URL)).Run(context.Background())

		require.False(t, res.OK())
		require.Equal(t, checker.OutcomeConfigError, res.Outcome)
		require.ErrorIs(t, res.Err, errors.ErrMissingConfig)
		require.ErrorIs(t, res.Err, oauthmodel.ErrMissingTenantID)
		require.ErrorIs(t, res.Err, oauthmodel.ErrMissingClientID)
		require.ErrorIs(t, res.Err, oauthmodel.ErrMissingClientSecret)
		require.Empty(t, idp.recorded(), "no request may be sent without configuration")
	})

	t.Run("secret only missing", func(t *testing.T) {
		req := validRequest()
		req.ClientSecret = ""
		res := checker.New(req, checker.WithAuthorityHost(idp.URL)).Run(context.Background())

		require.Equal(t, checker.OutcomeConfigError, res.Outcome)
		require.ErrorIs(t, res.Err, oauthmodel.ErrMissingClientSecret)
		require.NotErrorIs(t, res.Err, oauthmodel.ErrMissingTenantID)
		require.Empty(t, idp.recorded())
	})
}

func TestChecker_Success(t *testing.T) {
	idp := newStubIDP(t, jsonResponse(http.StatusOK, `{"access_token":"abc","token_type":"Bearer","expires_in":3600}`))

	res := checker.New(validRequest(), checker.WithAuthorityHost(idp.URL)).Run(context.Background())

	require.True(t, res.OK())
	require.Equal(t, checker.OutcomeSuccess, res.Outcome)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, 3, res.TokenLength)
	require.Equal(t, int64(3600), res.ExpiresIn)
	require.Equal(t, "Bearer", res.TokenType)
	require.Equal(t, idp.URL+tokenPath, res.TokenURL)
	require.NoError(t, res.Err)
	require.Nil(t, res.Claims, "claims are only decoded when enabled")
}

func TestChecker_RequestShape(t *testing.T) {
	idp := newStubIDP(t, jsonResponse(http.StatusOK, `{"access_token":"abc","expires_in":3600}`))
	req := validRequest()

	res := checker.New(req, checker.WithAuthorityHost(idp.URL)).Run(context.Background())
	require.True(t, res.OK())

	recorded := idp.recorded()
	require.Len(t, recorded, 1, "exactly one request is sent")
	got := recorded[0]

	require.Equal(t, http.MethodPost, got.method)
	require.Equal(t, tokenPath, got.path)
	require.Equal(t, "application/x-www-form-urlencoded", got.header.Get("Content-Type"))
	require.Empty(t, got.header.Get("Authorization"), "credentials are sent in the body")
	require.Equal(t, "client_credentials", got.form.Get("grant_type"))
	require.Equal(t, req.ClientID, got.form.Get("client_id"))
	require.Equal(t, req.ClientSecret, got.form.Get("client_secret"))
	require.Equal(t, "https://graph.microsoft.com/.default", got.form.Get("scope"))

	requestID := got.header.Get("client-request-id")
	_, err := uuid.Parse(requestID)
	require.NoError(t, err)
	require.Equal(t, requestID, res.RequestID)
}

func TestChecker_Rejected(t *testing.T) {
	t.Run("invalid client", func(t *testing.T) {
		idp := newStubIDP(t, jsonResponse(http.StatusUnauthorized, `{"error":"invalid_client"}`))

		res := checker.New(validRequest(), checker.WithAuthorityHost(idp.URL)).Run(context.Background())

		require.False(t, res.OK())
		require.Equal(t, checker.OutcomeRejected, res.Outcome)
		require.Equal(t, http.StatusUnauthorized, res.StatusCode)
		require.Equal(t, `{"error":"invalid_client"}`, res.Body)
		require.Equal(t, "invalid_client", res.ErrorCode)
		require.ErrorIs(t, res.Err, errors.ErrTokenRejected)
		require.Len(t, idp.recorded(), 1, "rejections are not retried")
	})

	t.Run("error description surfaced", func(t *testing.T) {
		body := `{"error":"invalid_scope","error_description":"AADSTS1002012: The provided value for scope is not valid."}`
		idp := newStubIDP(t, jsonResponse(http.StatusBadRequest, body))

		res := checker.New(validRequest(), checker.WithAuthorityHost(idp.URL)).Run(context.Background())

		require.Equal(t, checker.OutcomeRejected, res.Outcome)
		require.Equal(t, http.StatusBadRequest, res.StatusCode)
		require.Equal(t, "invalid_scope", res.ErrorCode)
		require.Contains(t, res.ErrorDescription, "AADSTS1002012")
		require.Equal(t, body, res.Body)
	})

	t.Run("non 200 success status", func(t *testing.T) {
		for _, status := range []int{http.StatusCreated, http.StatusAccepted} {
			body := `{"access_token":"abc","expires_in":3600}`
			idp := newStubIDP(t, jsonResponse(status, body))
			var out bytes.Buffer

			res := checker.New(validRequest(),
				checker.WithAuthorityHost(idp.URL),
				checker.WithReporter(checker.NewReporter(&out, false, false)),
			).Run(context.Background())

			require.False(t, res.OK())
			require.Equal(t, checker.OutcomeRejected, res.Outcome)
			require.Equal(t, status, res.StatusCode)
			require.Equal(t, body, res.Body)
			require.ErrorIs(t, res.Err, errors.ErrUnexpectedStatus)
			require.Contains(t, out.String(), "Response:")
			require.Contains(t, out.String(), body)
		}
	})
}

func TestChecker_TransportFaults(t *testing.T) {
	t.Run("connection refused", func(t *testing.T) {
		idp := httptest.NewServer(http.NotFoundHandler())
		authority := idp.URL
		idp.Close()

		var res checker.Result
		require.NotPanics(t, func() {
			res = checker.New(validRequest(), checker.WithAuthorityHost(authority)).Run(context.Background())
		})

		require.False(t, res.OK())
		require.Equal(t, checker.OutcomeTransportError, res.Outcome)
		require.ErrorIs(t, res.Err, errors.ErrTransport)
		require.NotEmpty(t, res.Err.Error())
	})

	t.Run("timeout", func(t *testing.T) {
		idp := newStubIDP(t, func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		})

		res := checker.New(validRequest(),
			checker.WithAuthorityHost(idp.URL),
			checker.WithTimeout(50*time.Millisecond),
		).Run(context.Background())

		require.Equal(t, checker.OutcomeTransportError, res.Outcome)
		require.ErrorIs(t, res.Err, context.DeadlineExceeded)
	})

	t.Run("malformed body", func(t *testing.T) {
		idp := newStubIDP(t, jsonResponse(http.StatusOK, `{"access_token":`))

		res := checker.New(validRequest(), checker.WithAuthorityHost(idp.URL)).Run(context.Background())

		require.Equal(t, checker.OutcomeTransportError, res.Outcome)
		require.ErrorIs(t, res.Err, errors.ErrTransport)
	})

	t.Run("missing access token", func(t *testing.T) {
		idp := newStubIDP(t, jsonResponse(http.StatusOK, `{"expires_in":3600}`))

		res := checker.New(validRequest(), checker.WithAuthorityHost(idp.URL)).Run(context.Background())

		require.Equal(t, checker.OutcomeTransportError, res.Outcome)
	})
}

func TestChecker_Idempotent(t *testing.T) {
	for name, handler := range map[string]http.HandlerFunc{
		"success":  jsonResponse(http.StatusOK, `{"access_token":"abc","expires_in":3600}`),
		"rejected": jsonResponse(http.StatusUnauthorized, `{"error":"invalid_client"}`),
	} {
		t.Run(name, func(t *testing.T) {
			idp := newStubIDP(t, handler)
			c := checker.New(validRequest(), checker.WithAuthorityHost(idp.URL))

			first := c.Run(context.Background())
			second := c.Run(context.Background())

			require.Equal(t, first.OK(), second.OK())
			require.Equal(t, first.Outcome, second.Outcome)
			require.Equal(t, first.StatusCode, second.StatusCode)
			require.Equal(t, first.Body, second.Body)
			require.Equal(t, first.TokenLength, second.TokenLength)
			require.Equal(t, first.ExpiresIn, second.ExpiresIn)
			require.NotEqual(t, first.RequestID, second.RequestID, "each run is a fresh request")
			require.Len(t, idp.recorded(), 2, "tokens are never cached")
		})
	}
}

func TestChecker_Discovery(t *testing.T) {
	tenantGUID := "72f988bf-86f1-41af-91ab-2d7cd011db47"
	var idp *stubIDP
	idp = newStubIDP(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/" + tenantGUID + "/v2.0/.well-known/openid-configuration":
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"issuer":                                idp.URL + "/" + tenantGUID + "/v2.0",
				"authorization_endpoint":                idp.URL + "/" + tenantGUID + "/oauth2/v2.0/authorize",
				"token_endpoint":                        idp.URL + "/discovered/token",
				"jwks_uri":                              idp.URL + "/" + tenantGUID + "/discovery/v2.0/keys",
				"id_token_signing_alg_values_supported": []string{"RS256"},
			})
		case "/discovered/token":
			jsonResponse(http.StatusOK, `{"access_token":"abcdef","expires_in":3599}`)(w, r)
		default:
			jsonResponse(http.StatusBadRequest, `{"error":"invalid_tenant"}`)(w, r)
		}
	})

	t.Run("resolves token endpoint", func(t *testing.T) {
		req := validRequest()
		req.TenantID = tenantGUID

		res := checker.New(req, checker.WithAuthorityHost(idp.URL), checker.WithDiscovery(true)).Run(context.Background())

		require.True(t, res.OK(), "unexpected error: %v", res.Err)
		require.Equal(t, idp.URL+"/discovered/token", res.TokenURL)
		require.Equal(t, 6, res.TokenLength)
		require.Equal(t, int64(3599), res.ExpiresIn)
	})

	t.Run("unknown tenant", func(t *testing.T) {
		req := validRequest()
		req.TenantID = "00000000-0000-0000-0000-000000000000"

		res := checker.New(req, checker.WithAuthorityHost(idp.URL), checker.WithDiscovery(true)).Run(context.Background())

		require.False(t, res.OK())
		require.Equal(t, checker.OutcomeTransportError, res.Outcome)
		require.ErrorIs(t, res.Err, errors.ErrDiscovery)
	})

	t.Run("skipped for domain tenant", func(t *testing.T) {
		domainIDP := newStubIDP(t, jsonResponse(http.StatusOK, `{"access_token":"abc","expires_in":3600}`))

		res := checker.New(validRequest(), checker.WithAuthorityHost(domainIDP.URL), checker.WithDiscovery(true)).Run(context.Background())

		require.True(t, res.OK())
		recorded := domainIDP.recorded()
		require.Len(t, recorded, 1)
		require.Equal(t, tokenPath, recorded[0].path)
	})
}

func TestChecker_Claims(t *testing.T) {
	accessToken := signedTestToken(t, map[string]any{
		"aud":   "https://graph.microsoft.com",
		"iss":   "https://sts.windows.net/72f988bf-86f1-41af-91ab-2d7cd011db47/",
		"tid":   "72f988bf-86f1-41af-91ab-2d7cd011db47",
		"appid": "11111111-2222-3333-4444-555555555555",
		"roles": []string{"User.Read.All"},
		"exp":   time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC).Unix(),
	})
	body, err := json.Marshal(map[string]any{"access_token": accessToken, "token_type": "Bearer", "expires_in": 3599})
	require.NoError(t, err)
	idp := newStubIDP(t, jsonResponse(http.StatusOK, string(body)))

	res := checker.New(validRequest(), checker.WithAuthorityHost(idp.URL), checker.WithClaims(true)).Run(context.Background())

	require.True(t, res.OK())
	require.Equal(t, len(accessToken), res.TokenLength)
	require.NotNil(t, res.Claims)
	require.Equal(t, []string{"https://graph.microsoft.com"}, res.Claims.Audience)
	require.Equal(t, []string{"User.Read.All"}, res.Claims.Roles)
	require.Equal(t, "11111111-2222-3333-4444-555555555555", res.Claims.AppID)
}

func TestOutcome_String(t *testing.T) {
	require.Equal(t, "success", checker.OutcomeSuccess.String())
	require.Equal(t, "configuration error", checker.OutcomeConfigError.String())
	require.Equal(t, "transport error", checker.OutcomeTransportError.String())
	require.Equal(t, "rejected", checker.OutcomeRejected.String())
	require.Equal(t, "unknown", checker.Outcome(42).String())
}
