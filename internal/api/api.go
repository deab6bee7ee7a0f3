// Package api holds the HTTP wire contract shared by the session pipeline and
// the development backend: paths, error codes and JSON bodies.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Endpoint paths
const (
	PathSignUp       = "/users/sign-up"
	PathSignIn       = "/users/sign-in"
	PathVerifyEmail  = "/users/verify-email"
	PathRefreshToken = "/users/refresh-token"
	PathMe           = "/users/me"
	PathPosts        = "/posts"
	PathHealth       = "/health"
	PathMetrics      = "/metrics"
)

// Error codes carried in ErrorBody.Code
const (
	// CodeAccessTokenExpired is returned with 401 by any authenticated endpoint
	CodeAccessTokenExpired = "ACCESS_TOKEN_EXPIRED"

	// Refresh endpoint rejections
	CodeRefreshTokenNotFound     = "REFRESH_TOKEN_NOT_FOUND"
	CodeRefreshTokenInvalid      = "REFRESH_TOKEN_INVALID"
	CodeRefreshTokenUserNotFound = "REFRESH_TOKEN_USER_NOT_FOUND"
	CodeRefreshTokenMismatch     = "REFRESH_TOKEN_MISMATCH"
	CodeRefreshTokenFailed       = "REFRESH_TOKEN_FAILED"

	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeEmailNotVerified   = "EMAIL_NOT_VERIFIED"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeValidation         = "VALIDATION_FAILED"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
)

// ErrorBody is the JSON body of every non-2xx response
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// DecodeError parses an error body. Unparseable bodies yield a zero ErrorBody.
// The message may be a string or a list of validation messages.
func DecodeError(body []byte) ErrorBody {
	var raw struct {
		StatusCode int             `json:"statusCode"`
		Code       string          `json:"code"`
		Message    json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return ErrorBody{}
	}

	out := ErrorBody{StatusCode: raw.StatusCode, Code: raw.Code}
	if len(raw.Message) == 0 {
		return out
	}

	var msg string
	if err := json.Unmarshal(raw.Message, &msg); err == nil {
		out.Message = msg
		return out
	}
	var msgs []string
	if err := json.Unmarshal(raw.Message, &msgs); err == nil {
		out.Message = strings.Join(msgs, "; ")
	}
	return out
}

// Envelope wraps every successful response body
type Envelope struct {
	Data any `json:"data"`
}

// TokenPair is the credential pair issued on sign-in and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Complete reports whether both halves are present
func (p TokenPair) Complete() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// User is the public view of an account
type User struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Verified bool   `json:"verified"`
}

// SignUpRequest is the body of PathSignUp
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInRequest is the body of PathSignIn
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyEmailRequest is the body of PathVerifyEmail
type VerifyEmailRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// AuthResponse is returned by sign-in and sign-up
type AuthResponse struct {
	TokenPair
	StoreID string `json:"storeId,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// Post is a feed entry
type Post struct {
	ID        string   `json:"id"`
	AuthorID  string   `json:"authorId"`
	Author    string   `json:"author"`
	Body      string   `json:"body"`
	Tags      []string `json:"tags"`
	CreatedAt string   `json:"createdAt"`
}

// CreatePostRequest is the body of POST PathPosts
type CreatePostRequest struct {
	Body string `json:"body"`
}

// Product is an item listed by a store
type Product struct {
	ID      string `json:"id"`
	StoreID string `json:"storeId"`
	Name    string `json:"name"`
	Price   int64  `json:"price"` // minor units
}

// WriteData writes v inside an Envelope
func WriteData(w http.ResponseWriter, status int, v any) {
	writeJSON(w, status, Envelope{Data: v})
}

// WriteError writes an ErrorBody
func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorBody{StatusCode: status, Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
