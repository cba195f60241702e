package checker

import (
	"bytes"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// clientRequestIDHeader correlates a request with the identity provider's sign-in logs.
const clientRequestIDHeader = "client-request-id"

// recordingTransport stamps each request with a client-request-id and remembers the last response
// status and body. A new one is created for every Run so nothing is shared between checks.
type recordingTransport struct {
	base       http.RoundTripper
	requestID  string
	statusCode int
	body       []byte
}

func newRecordingTransport(base http.RoundTripper) *recordingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &recordingTransport{
		base:      base,
		requestID: uuid.New().String(),
	}
}

func (t *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// RoundTrippers must not modify the caller's request
	clone := req.Clone(req.Context())
	clone.Header.Set(clientRequestIDHeader, t.requestID)
	clone.Header.Set("return-client-request-id", "true")

	resp, err := t.base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, err
	}
	t.statusCode = resp.StatusCode
	t.body = body
	resp.Body = io.NopCloser(bytes.NewReader(body))
	return resp, nil
}
