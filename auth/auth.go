// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidPassword    = errors.New("invalid admin password")
	ErrInvalidCancelToken = errors.New("invalid cancellation token")
)

// NewID returns a random UUID string for a new row.
func NewID() string {
	return uuid.NewString()
}

// CheckAdminPassword validates the shared admin password in constant
// time. The password gates every operator action; it is configuration,
// not per-resource.
func CheckAdminPassword(provided, expected string) error {
	if expected == "" || !hmac.Equal([]byte(provided), []byte(expected)) {
		return ErrInvalidPassword
	}
	return nil
}

// GenerateCancelToken creates an HMAC token tying a cancellation link
// to one signup. Deterministic and verifiable, so the link in a
// confirmation email stays valid without storing anything.
func GenerateCancelToken(signupID, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte("cancel:" + signupID))
	sum := h.Sum(nil)
	// URL-safe base64 without padding for cleaner links
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateCancelToken checks a cancellation token against its signup.
func ValidateCancelToken(signupID, token, secret string) error {
	expected := GenerateCancelToken(signupID, secret)
	if !hmac.Equal([]byte(token), []byte(expected)) {
		return ErrInvalidCancelToken
	}
	return nil
}
