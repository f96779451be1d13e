package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/anonto42/nano-midea/client/internal/errs"
)

// Request is one GraphQL operation on the wire.
type Request struct {
	OperationName string    `json:"operationName"`
	Query         string    `json:"query"`
	Variables     Variables `json:"variables,omitempty"`
	// Token is sent as a bearer credential when non-empty.
	Token string `json:"-"`
}

// GraphQLError is one entry of a response's errors list.
type GraphQLError struct {
	Message    string         `json:"message"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// Code returns extensions.code, if any.
func (e GraphQLError) Code() string {
	code, _ := e.Extensions["code"].(string)
	return code
}

// Response is the decoded {data, errors} envelope.
type Response struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []GraphQLError             `json:"errors,omitempty"`
}

// Transport delivers requests to the remote API. Implementations return
// NetworkError, AuthError or ServerError for failures they can classify.
type Transport interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// HTTPTransport posts requests as JSON to a single GraphQL endpoint.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
}

// NewHTTPTransport creates a transport for endpoint. A nil client gets a
// default one with timeout.
func NewHTTPTransport(endpoint string, client *http.Client, timeout time.Duration) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPTransport{endpoint: endpoint, client: client}
}

func (t *HTTPTransport) Do(ctx context.Context, r Request) (*Response, error) {
	op := r.OperationName
	body, err := json.Marshal(r)
	if err != nil {
		return nil, errs.Server(op, "failed to encode request: "+err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, errs.Network(op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, errs.Network(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Network(op, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, errs.Auth(op, fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(raw)))
	case resp.StatusCode >= 300:
		var env Response
		if json.Unmarshal(raw, &env) == nil && len(env.Errors) > 0 {
			return &env, nil
		}
		return nil, errs.Server(op, fmt.Sprintf("status %d", resp.StatusCode))
	}

	var env Response
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errs.Server(op, "malformed response: "+err.Error())
	}
	return &env, nil
}
