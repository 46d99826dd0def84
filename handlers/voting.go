// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/booth/election"
	"github.com/danielhkuo/booth/middleware"
	"github.com/danielhkuo/booth/models"
	"github.com/danielhkuo/booth/session"
)

type VotingHandler struct {
	store  *election.Store
	ledger *election.Ledger
}

func NewVotingHandler(store *election.Store, ledger *election.Ledger) *VotingHandler {
	return &VotingHandler{store: store, ledger: ledger}
}

// GetVote handles GET /vote
// Only polls selected for this round are returned, without tallies.
func (h *VotingHandler) GetVote(w http.ResponseWriter, r *http.Request) {
	e, err := h.store.Election()
	if err != nil {
		writeError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e.Ballot())
}

// SubmitBallot handles POST /vote
func (h *VotingHandler) SubmitBallot(w http.ResponseWriter, r *http.Request) {
	sess, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req models.SubmitBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.ledger.CastBallot(r.Context(), req.Votes); err != nil {
		writeError(w, err)
		return
	}

	if _, err := sess.Fire(session.EventBallotCast); err != nil {
		slog.Warn("ballot cast outside voting", "session", sess.ID, "error", err)
	}

	middleware.JSONResponse(w, http.StatusOK, models.SubmitBallotResponse{
		Counted: len(req.Votes),
		Message: "Ballot recorded",
	})
}
