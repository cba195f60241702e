package oauthmodel

import (
	"fmt"

	"github.com/jrsteele09/go-credcheck/internal/errors"
)

var (
	ErrMissingTenantID     = fmt.Errorf("%w: tenant id (%s)", errors.ErrMissingConfig, "AZURE_TENANT_ID")
	ErrMissingClientID     = fmt.Errorf("%w: client id (%s)", errors.ErrMissingConfig, "AZURE_CLIENT_ID")
	ErrMissingClientSecret = fmt.Errorf("%w: client secret (%s)", errors.ErrMissingConfig, "AZURE_CLIENT_SECRET")
	ErrMissingScope        = fmt.Errorf("%w: at least one scope is required", errors.ErrInvalidConfig)
)
