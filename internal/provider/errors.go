package provider

import (
	"errors"
	"fmt"
)

// ErrInvalidToken marks credential failures: the access token is
// expired, revoked or malformed and the user must re-authorize. The
// orchestrator maps it to the TOKEN_EXPIRED state and never retries it.
var ErrInvalidToken = errors.New("provider: invalid or expired access token")

// credential error codes the provider is known to send.
var credentialErrorCodes = map[string]bool{
	"INVALID_ACCESS_TOKEN": true,
	"ITEM_LOGIN_REQUIRED":  true,
	"INVALID_TOKEN":        true,
}

// APIError is a structured provider failure.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider: %s (%s, HTTP %d)", e.Message, e.Code, e.StatusCode)
}

// Unwrap lets errors.Is(err, ErrInvalidToken) classify credential
// failures without inspecting codes at every call site.
func (e *APIError) Unwrap() error {
	if credentialErrorCodes[e.Code] || e.StatusCode == 401 {
		return ErrInvalidToken
	}
	return nil
}
