// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package session tracks each device's lock state and organizer login.

A session starts Unlocked. Choosing polls fires EventBeginVoting and
locks it; while Locked every screen except voting and logout redirects
to /vote. Logging in or out unlocks.

	sess := session.FromContext(r.Context())
	if to := sess.State().Redirect(session.ScreenResults); to != "" {
		http.Redirect(w, r, to, http.StatusSeeOther)
	}
*/
package session
