package client

import (
	"net/http"

	"github.com/devilmonastery/shopfeed/internal/api"
)

// Classifier maps failed calls onto error categories
type Classifier struct{}

// Classify returns nil for a 2xx response. err is the transport error when no
// response was received.
func (Classifier) Classify(req *OutgoingRequest, resp *Response, err error) *Error {
	if err != nil || resp == nil {
		return &Error{Category: CategoryTransientNetwork, Err: err}
	}
	if resp.OK() {
		return nil
	}

	body := resp.ErrorBody()
	e := &Error{
		Category: CategoryOther,
		Status:   resp.StatusCode,
		Code:     body.Code,
		Message:  body.Message,
	}

	// Expiry on a request that was already retried is not recoverable
	if ExpiryShaped(e) && req.Authenticated() && !req.Retried {
		e.Category = CategorySessionExpired
	}
	return e
}

// ClassifyRefresh classifies the refresh endpoint's answer. Every failure is a
// rejection; nil means the server returned 2xx.
func (Classifier) ClassifyRefresh(resp *Response, err error) *Error {
	if err != nil || resp == nil {
		return rejected(ReasonUnknown, 0, "", err)
	}
	if resp.OK() {
		return nil
	}

	body := resp.ErrorBody()
	e := rejected(refreshReason(resp.StatusCode, body.Code), resp.StatusCode, body.Code, nil)
	e.Message = body.Message
	return e
}

func refreshReason(status int, code string) Reason {
	switch code {
	case api.CodeRefreshTokenNotFound:
		return ReasonNotFound
	case api.CodeRefreshTokenInvalid:
		return ReasonInvalidOrExpired
	case api.CodeRefreshTokenUserNotFound:
		return ReasonUserMissing
	case api.CodeRefreshTokenMismatch:
		return ReasonMismatch
	case api.CodeRefreshTokenFailed:
		return ReasonUnknown
	}

	// Bare 401 from the refresh endpoint means the refresh token itself was refused
	if status == http.StatusUnauthorized && code == "" {
		return ReasonInvalidOrExpired
	}
	return ReasonUnknown
}

// ExpiryShaped reports whether e looks like an expired access credential,
// regardless of whether it was classified as recoverable.
func ExpiryShaped(e *Error) bool {
	if e == nil || e.Status != http.StatusUnauthorized {
		return false
	}
	return e.Code == "" || e.Code == api.CodeAccessTokenExpired
}
