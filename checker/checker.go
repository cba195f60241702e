// Package checker runs a one-shot OAuth 2.0 client credentials check against the
// Microsoft identity platform and reports whether the credentials were accepted.
package checker

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jrsteele09/go-credcheck/internal/errors"
	"github.com/jrsteele09/go-credcheck/oauthmodel"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Checker validates a set of client credentials by requesting a single access token.
// It holds no token state, so every Run performs a fresh request.
type Checker struct {
	request       oauthmodel.TokenRequest
	authorityHost string
	timeout       time.Duration
	discovery     bool
	decodeClaims  bool
	transport     http.RoundTripper
	logger        zerolog.Logger
	reporter      *Reporter
}

// New creates a Checker for req. The request is copied and not read again from the environment.
func New(req oauthmodel.TokenRequest, opts ...Option) *Checker {
	req.Scopes = append([]string(nil), req.Scopes...)
	c := &Checker{
		request:       req,
		authorityHost: oauthmodel.DefaultAuthorityHost,
		logger:        zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run performs the check. It never panics and never returns an error, every failure is
// described by the Result.
func (c *Checker) Run(ctx context.Context) (result Result) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Interface("panic", r).Msg("Recovered from panic during credential check")
			result = Result{
				Outcome: OutcomeTransportError,
				Err:     fmt.Errorf("%w: panic: %v", errors.ErrTransport, r),
			}
		}
		result.Duration = time.Since(start)
		c.reporter.Result(result)
	}()

	c.reporter.Config(c.request, c.authorityHost)

	if err := c.request.Validate(); err != nil {
		c.logger.Error().Err(err).Msg("Credential check aborted, configuration incomplete")
		return Result{Outcome: OutcomeConfigError, Err: err}
	}

	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	transport := newRecordingTransport(c.transport)
	client := &http.Client{Transport: transport}

	result = c.requestToken(ctx, client, transport)
	result.RequestID = transport.requestID

	c.logger.Debug().
		Str("outcome", result.Outcome.String()).
		Int("status", result.StatusCode).
		Str("request_id", result.RequestID).
		Dur("elapsed", time.Since(start)).
		Msg("Credential check finished")
	return result
}

func (c *Checker) requestToken(ctx context.Context, client *http.Client, transport *recordingTransport) Result {
	tokenURL, err := c.resolveTokenURL(ctx, client)
	if err != nil {
		c.logger.Err(err).Msg("OpenID discovery failed")
		return Result{Outcome: OutcomeTransportError, TokenURL: tokenURL, Err: err}
	}

	conf := &clientcredentials.Config{
		ClientID:     c.request.ClientID,
		ClientSecret: c.request.ClientSecret,
		TokenURL:     tokenURL,
		Scopes:       c.request.Scopes,
		// Entra ID expects the credentials in the form body, and a fixed style avoids a second attempt
		AuthStyle: oauth2.AuthStyleInParams,
	}

	c.logger.Debug().
		Str("token_url", tokenURL).
		Str("grant_type", oauthmodel.ClientCredentialsGrant).
		Str("client_id", c.request.ClientID).
		Str("scope", c.request.Scope()).
		Str("request_id", transport.requestID).
		Msg("Requesting token")

	token, err := conf.Token(context.WithValue(ctx, oauth2.HTTPClient, client))
	if err != nil {
		return c.failure(tokenURL, err)
	}

	if transport.statusCode != http.StatusOK {
		return Result{
			Outcome:    OutcomeRejected,
			TokenURL:   tokenURL,
			StatusCode: transport.statusCode,
			Body:       string(transport.body),
			Err:        errors.Wrapf(errors.ErrUnexpectedStatus, "status %d", transport.statusCode),
		}
	}

	result := Result{
		Outcome:     OutcomeSuccess,
		TokenURL:    tokenURL,
		StatusCode:  transport.statusCode,
		TokenLength: len(token.AccessToken),
		TokenType:   token.TokenType,
		ExpiresIn:   expiresIn(token),
	}

	if c.decodeClaims {
		claims, err := ParseClaims(token.AccessToken)
		if err != nil {
			c.logger.Debug().Err(err).Msg("Access token claims unavailable")
		} else {
			result.Claims = claims
		}
	}

	c.logger.Info().Int("token_length", result.TokenLength).Int64("expires_in", result.ExpiresIn).Msg("Token issued")
	return result
}

func (c *Checker) resolveTokenURL(ctx context.Context, client *http.Client) (string, error) {
	tokenURL := c.request.TokenURL(c.authorityHost)
	if !c.discovery {
		return tokenURL, nil
	}

	discovered, err := discoverTokenURL(ctx, client, c.request, c.authorityHost)
	switch {
	case errors.Is(err, errDiscoverySkipped):
		c.logger.Warn().Str("tenant_id", c.request.TenantID).Msg("Skipping discovery, tenant is not a GUID")
		return tokenURL, nil
	case err != nil:
		return tokenURL, err
	}
	c.logger.Debug().Str("token_url", discovered).Msg("Discovered token endpoint")
	return discovered, nil
}

// failure maps an error from the token exchange onto a Result.
func (c *Checker) failure(tokenURL string, err error) Result {
	var rErr *oauth2.RetrieveError
	if errors.As(err, &rErr) {
		result := Result{
			Outcome:          OutcomeRejected,
			TokenURL:         tokenURL,
			Body:             string(rErr.Body),
			ErrorCode:        rErr.ErrorCode,
			ErrorDescription: rErr.ErrorDescription,
			Err:              fmt.Errorf("%w: %w", errors.ErrTokenRejected, err),
		}
		if rErr.Response != nil {
			result.StatusCode = rErr.Response.StatusCode
		}
		c.logger.Error().Int("status", result.StatusCode).Str("error_code", result.ErrorCode).Msg("Token request rejected")
		return result
	}

	c.logger.Err(err).Str("token_url", tokenURL).Msg("Token request failed")
	return Result{
		Outcome:  OutcomeTransportError,
		TokenURL: tokenURL,
		Err:      fmt.Errorf("%w: %w", errors.ErrTransport, err),
	}
}

// expiresIn prefers the parsed expires_in and falls back to the raw response field.
func expiresIn(token *oauth2.Token) int64 {
	if token.ExpiresIn > 0 {
		return token.ExpiresIn
	}
	switch v := token.Extra("expires_in").(type) {
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}
