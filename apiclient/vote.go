package apiclient

import (
	"context"

	"github.com/civixvote/console/types"
)

// castVoteRequest is the provisional vote registration payload.
type castVoteRequest struct {
	ElectionID  string `json:"election_id"`
	CandidateID string `json:"candidate_id"`
}

// castVoteReply carries the backend-assigned identifier of a provisional
// vote, needed later for the OTP confirmation.
type castVoteReply struct {
	VoteID string `json:"vote_id"`
}

type confirmVoteRequest struct {
	OTPCode string `json:"otp_code"`
}

// VoterStatus checks whether the current voter (scoped by the bearer token)
// has already voted in the election, and if so, with which nullification
// status.
func (c *HTTPclient) VoterStatus(ctx context.Context, electionID string) (*types.VoterStatus, error) {
	status := &types.VoterStatus{}
	if err := c.Call(ctx, HTTPGET, nil, status, "elections", electionID, "vote"); err != nil {
		return nil, err
	}
	return status, nil
}

// CastVote registers a provisional vote for the candidate and returns the
// voteID assigned by the backend. The vote does not count until it is
// confirmed with the out-of-band code, see ConfirmVote.
func (c *HTTPclient) CastVote(ctx context.Context, electionID, candidateID string) (string, error) {
	reply := &castVoteReply{}
	err := c.Call(ctx, HTTPPOST, &castVoteRequest{
		ElectionID:  electionID,
		CandidateID: candidateID,
	}, reply, "votes")
	if err != nil {
		return "", err
	}
	votesCast.Inc()
	return reply.VoteID, nil
}

// ConfirmVote exchanges (voteID, code) for the final on-chain commitment of
// the vote. On success the returned receipt carries the transaction hash and
// the vote is immutable.
func (c *HTTPclient) ConfirmVote(ctx context.Context, voteID, code string) (*types.VoteReceipt, error) {
	receipt := &types.VoteReceipt{}
	err := c.Call(ctx, HTTPPOST, &confirmVoteRequest{OTPCode: code}, receipt, "votes", voteID, "confirm")
	if err != nil {
		return nil, err
	}
	votesConfirmed.Inc()
	return receipt, nil
}

// ResendOTP re-triggers the out-of-band delivery of the confirmation code
// for a provisional vote. It is idempotent and does not invalidate the
// existing voteID.
func (c *HTTPclient) ResendOTP(ctx context.Context, voteID string) error {
	return c.Call(ctx, HTTPPOST, nil, nil, "votes", voteID, "otp")
}
