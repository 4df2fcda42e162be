package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/forum/backend/internal/models"
	"github.com/emilythestrangee/forum/backend/internal/voting"
)

// VoteHandler serves the vote endpoints for every target kind.
type VoteHandler struct {
	ledger *voting.Ledger
}

func NewVoteHandler(ledger *voting.Ledger) *VoteHandler {
	return &VoteHandler{ledger: ledger}
}

// Cast returns the handler for POST .../:param/vote on the given kind.
func (h *VoteHandler) Cast(kind models.TargetKind, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, param)
		if !ok {
			return
		}
		voterID, ok := currentUser(c)
		if !ok {
			return
		}

		var input models.VoteRequest
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Vote type must be -1 or 1"})
			return
		}

		votable, err := h.ledger.CastVote(c.Request.Context(), kind, targetID, voterID, input.Value())
		if err != nil {
			writeVoteError(c, kind, err)
			return
		}
		c.JSON(http.StatusOK, votable)
	}
}

// Current returns the handler reporting the caller's vote; vote_type is 0 when none.
func (h *VoteHandler) Current(kind models.TargetKind, param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		targetID, ok := paramID(c, param)
		if !ok {
			return
		}
		voterID, ok := currentUser(c)
		if !ok {
			return
		}

		vote, err := h.ledger.CurrentVote(c.Request.Context(), kind, targetID, voterID)
		if err != nil {
			writeVoteError(c, kind, err)
			return
		}
		voteType := 0
		if vote != nil {
			voteType = int(vote.VoteType)
		}
		c.JSON(http.StatusOK, gin.H{"kind": kind, "target_id": targetID, "vote_type": voteType})
	}
}

func writeVoteError(c *gin.Context, kind models.TargetKind, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, voting.ErrInvalidVote):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote type must be -1 or 1"})
	case errors.Is(err, voting.ErrNotFound):
		if kind == models.TargetComment {
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
	}
}
