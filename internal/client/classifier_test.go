package client

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func errorResponse(status int, code string) *Response {
	body := fmt.Sprintf(`{"statusCode":%d,"code":%q,"message":"x"}`, status, code)
	if code == "" {
		body = fmt.Sprintf(`{"statusCode":%d,"message":"x"}`, status)
	}
	return &Response{StatusCode: status, Body: []byte(body)}
}

func TestClassify(t *testing.T) {
	authed := func(retried bool) *OutgoingRequest {
		req := NewOutgoingRequest(http.MethodGet, "http://api.test/posts", nil)
		req.Header.Set("Authorization", "Bearer A1")
		req.Retried = retried
		return req
	}
	anonymous := NewOutgoingRequest(http.MethodGet, "http://api.test/posts", nil)

	tests := []struct {
		name    string
		req     *OutgoingRequest
		resp    *Response
		err     error
		want    Category
		wantNil bool
	}{
		{name: "success", req: authed(false), resp: &Response{StatusCode: 200}, wantNil: true},
		{name: "no response", req: authed(false), err: errors.New("connection refused"), want: CategoryTransientNetwork},
		{name: "expired code", req: authed(false), resp: errorResponse(401, "ACCESS_TOKEN_EXPIRED"), want: CategorySessionExpired},
		{name: "bare 401", req: authed(false), resp: errorResponse(401, ""), want: CategorySessionExpired},
		{name: "expired after retry", req: authed(true), resp: errorResponse(401, "ACCESS_TOKEN_EXPIRED"), want: CategoryOther},
		{name: "401 without credential", req: anonymous, resp: errorResponse(401, ""), want: CategoryOther},
		{name: "401 other code", req: authed(false), resp: errorResponse(401, "INVALID_CREDENTIALS"), want: CategoryOther},
		{name: "forbidden", req: authed(false), resp: errorResponse(403, ""), want: CategoryOther},
		{name: "server error", req: authed(false), resp: errorResponse(500, ""), want: CategoryOther},
		{name: "non-json body", req: authed(false), resp: &Response{StatusCode: 502, Body: []byte("<html>")}, want: CategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classifier{}.Classify(tt.req, tt.resp, tt.err)
			if tt.wantNil {
				if got != nil {
					t.Errorf("Classify() = %v, want nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("Classify() = nil, want error")
			}
			if got.Category != tt.want {
				t.Errorf("Classify() category = %v, want %v", got.Category, tt.want)
			}
		})
	}
}

func TestClassifyRefresh(t *testing.T) {
	tests := []struct {
		name string
		resp *Response
		err  error
		want Reason
	}{
		{"not found", errorResponse(404, "REFRESH_TOKEN_NOT_FOUND"), nil, ReasonNotFound},
		{"invalid", errorResponse(401, "REFRESH_TOKEN_INVALID"), nil, ReasonInvalidOrExpired},
		{"bare 401", errorResponse(401, ""), nil, ReasonInvalidOrExpired},
		{"user missing", errorResponse(404, "REFRESH_TOKEN_USER_NOT_FOUND"), nil, ReasonUserMissing},
		{"mismatch", errorResponse(409, "REFRESH_TOKEN_MISMATCH"), nil, ReasonMismatch},
		{"failed", errorResponse(400, "REFRESH_TOKEN_FAILED"), nil, ReasonUnknown},
		{"server error", errorResponse(500, ""), nil, ReasonUnknown},
		{"timeout", nil, errors.New("context deadline exceeded"), ReasonUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classifier{}.ClassifyRefresh(tt.resp, tt.err)
			if got == nil {
				t.Fatal("ClassifyRefresh() = nil, want rejection")
			}
			if got.Category != CategoryRefreshRejected {
				t.Errorf("category = %v, want %v", got.Category, CategoryRefreshRejected)
			}
			if got.Reason != tt.want {
				t.Errorf("reason = %v, want %v", got.Reason, tt.want)
			}
		})
	}

	if got := (Classifier{}).ClassifyRefresh(&Response{StatusCode: 200}, nil); got != nil {
		t.Errorf("ClassifyRefresh(200) = %v, want nil", got)
	}
}

func TestErrorIs(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := fmt.Errorf("load feed: %w", &Error{Category: CategoryTransientNetwork, Err: cause})

	if !errors.Is(err, ErrTransientNetwork) {
		t.Error("expected ErrTransientNetwork to match")
	}
	if errors.Is(err, ErrSessionExpired) {
		t.Error("unexpected ErrSessionExpired match")
	}
	if !errors.Is(err, cause) {
		t.Error("expected error to unwrap to its cause")
	}

	rej := rejected(ReasonMismatch, 409, "REFRESH_TOKEN_MISMATCH", nil)
	if got, want := rej.Error(), "session terminated: refresh rejected (mismatch): status 409 REFRESH_TOKEN_MISMATCH"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if ReasonOf(err) != ReasonNone {
		t.Error("ReasonOf non-rejection should be ReasonNone")
	}
}

func TestResponseDecode(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}

	enveloped := &Response{StatusCode: 200, Body: []byte(`{"data":{"name":"a"}}`)}
	if err := enveloped.Decode(&v); err != nil || v.Name != "a" {
		t.Errorf("Decode(envelope) = %q, %v", v.Name, err)
	}

	bare := &Response{StatusCode: 200, Body: []byte(`{"name":"b"}`)}
	if err := bare.Decode(&v); err != nil || v.Name != "b" {
		t.Errorf("Decode(bare) = %q, %v", v.Name, err)
	}

	var list []int
	arr := &Response{StatusCode: 200, Body: []byte(`[1,2,3]`)}
	if err := arr.Decode(&list); err != nil || len(list) != 3 {
		t.Errorf("Decode(array) = %v, %v", list, err)
	}

	if err := (&Response{StatusCode: 204}).Decode(&v); err == nil {
		t.Error("Decode(empty) should fail")
	}
}
