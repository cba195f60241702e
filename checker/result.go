package checker

import (
	"time"
)

// Outcome classifies how a credential check ended.
type Outcome int

const (
	// OutcomeSuccess means the token endpoint answered 200 with a parseable token.
	OutcomeSuccess Outcome = iota
	// OutcomeConfigError means a required value was missing, no request was sent.
	OutcomeConfigError
	// OutcomeTransportError covers DNS, TLS, connection, timeout and malformed response faults.
	OutcomeTransportError
	// OutcomeRejected means the token endpoint answered with a non-success status.
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeConfigError:
		return "configuration error"
	case OutcomeTransportError:
		return "transport error"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Result is the outcome of a single Run. Only the fields relevant to the Outcome are populated.
type Result struct {
	Outcome   Outcome
	TokenURL  string
	RequestID string
	Duration  time.Duration

	// Success
	TokenLength int
	TokenType   string
	ExpiresIn   int64
	Claims      *TokenClaims

	// Rejected
	StatusCode       int
	Body             string
	ErrorCode        string
	ErrorDescription string

	// Config, transport and rejected
	Err error
}

// OK reports whether the credentials were accepted.
func (r Result) OK() bool {
	return r.Outcome == OutcomeSuccess
}
