package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/devilmonastery/shopfeed/internal/api"
)

// OutgoingRequest is one logical call. It is replayable: the body is kept as
// bytes so the pipeline can resubmit it after a refresh.
type OutgoingRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Retried is set once by the RefreshCoordinator before the resubmit
	Retried bool

	// Unauthenticated skips credential attachment (sign-in, sign-up, verify-email)
	Unauthenticated bool

	// access value attached by the interceptor, "" if none
	sentAccess string
}

// NewOutgoingRequest creates a request with an empty header map
func NewOutgoingRequest(method, url string, body []byte) *OutgoingRequest {
	return &OutgoingRequest{
		Method: method,
		URL:    url,
		Header: make(http.Header),
		Body:   body,
	}
}

// Authenticated reports whether the request carries an Authorization header
func (r *OutgoingRequest) Authenticated() bool {
	return r.Header.Get("Authorization") != ""
}

func (r *OutgoingRequest) build(ctx context.Context) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, body)
	if err != nil {
		return nil, err
	}

	req.Header = r.Header.Clone()
	return req, nil
}

// Response is the result of a call that reached the server
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// Err is the classified failure for non-2xx responses
	Err *Error
}

// OK reports a 2xx status
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response payload into v. Bodies wrapped in a
// {"data": ...} envelope are unwrapped first.
func (r *Response) Decode(v any) error {
	if len(r.Body) == 0 {
		return errors.New("decode response: empty body")
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(r.Body, &env); err == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		return json.Unmarshal(env.Data, v)
	}
	return json.Unmarshal(r.Body, v)
}

// ErrorBody parses the server error body
func (r *Response) ErrorBody() api.ErrorBody {
	return api.DecodeError(r.Body)
}
