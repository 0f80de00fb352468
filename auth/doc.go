// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Admin Password

The host-only endpoints are gated by a single shared password,
compared in constant time:

	err := auth.CheckAdminPassword(provided, cfg.AdminPassword)

# Cancellation Tokens

Cancellation links in confirmation emails carry an HMAC-SHA256 token:

	token := auth.GenerateCancelToken(signupID, secret)
	err := auth.ValidateCancelToken(signupID, token, secret)

The token is URL-safe base64 encoded without padding. Since it's
deterministic, validation needs no token storage: anyone holding the
link can cancel that one signup and nothing else.

# ID Generation

Database records use random UUIDs:

	id := auth.NewID()
*/
package auth
