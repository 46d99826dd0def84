// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth protects the organizer account.

# Passwords

Passwords are hashed with Argon2id and stored in the PHC string format,
so the parameters travel with the hash:

	hash, err := auth.HashPassword(password)   // ErrWeakPassword if too short
	err = auth.VerifyPassword(password, hash)  // ErrInvalidPassword on mismatch

# Login Throttling

Throttle keeps a token bucket per client key:

	t := auth.NewThrottle(5, 5) // 5 per minute, burst of 5
	if !t.Allow(ip) {
		// 429
	}
	t.Reset(ip) // after a successful login

Sweep drops buckets that have refilled completely; the server calls it on
the session sweep interval so the key set stays bounded.
*/
package auth
