package client

import (
	"errors"
	"fmt"
)

// Category is the outcome class of a failed call
type Category int

const (
	// CategoryOther is any domain-level failure, passed through unchanged
	CategoryOther Category = iota
	// CategoryTransientNetwork means no response was received
	CategoryTransientNetwork
	// CategorySessionExpired means the access credential was rejected and a refresh may help
	CategorySessionExpired
	// CategoryRefreshRejected means the session could not be recovered and was terminated
	CategoryRefreshRejected
)

func (c Category) String() string {
	switch c {
	case CategoryTransientNetwork:
		return "transient_network"
	case CategorySessionExpired:
		return "session_expired"
	case CategoryRefreshRejected:
		return "refresh_rejected"
	default:
		return "other"
	}
}

// Reason explains a CategoryRefreshRejected failure
type Reason int

const (
	ReasonNone Reason = iota
	ReasonNotFound
	ReasonInvalidOrExpired
	ReasonUserMissing
	ReasonMismatch
	ReasonUnknown
	// ReasonMissing means no refresh credential was stored, so no call was made
	ReasonMissing
)

func (r Reason) String() string {
	switch r {
	case ReasonNotFound:
		return "not_found"
	case ReasonInvalidOrExpired:
		return "invalid_or_expired"
	case ReasonUserMissing:
		return "user_missing"
	case ReasonMismatch:
		return "mismatch"
	case ReasonUnknown:
		return "unknown"
	case ReasonMissing:
		return "missing"
	default:
		return ""
	}
}

// Sentinels for errors.Is against *Error categories
var (
	ErrTransientNetwork = errors.New("transient network failure")
	ErrSessionExpired   = errors.New("session expired")
	ErrRefreshRejected  = errors.New("refresh rejected")
	ErrOther            = errors.New("request failed")
)

// Error is the normalized failure of a pipeline call.
type Error struct {
	Category Category
	Reason   Reason // set for CategoryRefreshRejected
	Status   int    // HTTP status, 0 when no response was received
	Code     string // server error code from the error body, if any
	Message  string // server message from the error body, if any
	Err      error  // underlying cause (network error, decode error)
}

func (e *Error) Error() string {
	var msg string
	switch e.Category {
	case CategoryTransientNetwork:
		msg = "network error"
	case CategorySessionExpired:
		msg = "session expired"
	case CategoryRefreshRejected:
		msg = fmt.Sprintf("session terminated: refresh rejected (%s)", e.Reason)
	default:
		msg = "request failed"
	}

	if e.Status != 0 {
		msg += fmt.Sprintf(": status %d", e.Status)
	}
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the category sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrTransientNetwork:
		return e.Category == CategoryTransientNetwork
	case ErrSessionExpired:
		return e.Category == CategorySessionExpired
	case ErrRefreshRejected:
		return e.Category == CategoryRefreshRejected
	case ErrOther:
		return e.Category == CategoryOther
	}
	return false
}

// rejected builds a terminal refresh failure
func rejected(reason Reason, status int, code string, cause error) *Error {
	return &Error{
		Category: CategoryRefreshRejected,
		Reason:   reason,
		Status:   status,
		Code:     code,
		Err:      cause,
	}
}

// ReasonOf returns the rejection reason carried by err, or ReasonNone
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) && e.Category == CategoryRefreshRejected {
		return e.Reason
	}
	return ReasonNone
}
