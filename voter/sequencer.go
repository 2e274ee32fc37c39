// Package voter drives a single voter's two-phase ballot submission: a
// provisional vote registered with the backend, followed by an out-of-band
// code confirmation that commits the vote on-chain.
//
// A Sequencer instance is scoped to one voter's attempt on one election and
// is discarded once the attempt succeeds, is canceled or the session ends.
// No state survives across instances.
package voter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/civixvote/console/apiclient"
	"github.com/civixvote/console/election"
	"github.com/civixvote/console/types"
)

// Phase is the current step of the vote submission protocol.
type Phase string

const (
	PhaseIdle              Phase = "idle"
	PhaseCandidateSelected Phase = "candidate_selected"
	PhaseConfirmingIntent  Phase = "confirming_intent"
	PhaseAwaitingOTP       Phase = "awaiting_otp"
	PhaseConfirmed         Phase = "confirmed"
)

// Failure taxonomy surfaced to the caller. None of these are retried
// internally; all require explicit user action to proceed. Backend errors
// that do not map to any of them pass through verbatim.
var (
	ErrVotingNotOpen    = errors.New("voting is not open for this election")
	ErrAlreadyVoted     = errors.New("voter has already cast a vote in this election")
	ErrInvalidSelection = errors.New("invalid election or candidate selection")
	ErrOTPInvalid       = errors.New("confirmation code is not valid")
	ErrOTPExpired       = errors.New("confirmation code has expired")
	ErrRequestInFlight  = errors.New("another request is still in flight")
	ErrCannotCancel     = errors.New("a provisional vote has been recorded, the attempt can no longer be canceled")
	ErrBadPhase         = errors.New("operation not allowed in the current phase")
)

// API is the backend surface the sequencer depends on, satisfied by
// *apiclient.HTTPclient.
type API interface {
	VoterStatus(ctx context.Context, electionID string) (*types.VoterStatus, error)
	CastVote(ctx context.Context, electionID, candidateID string) (string, error)
	ConfirmVote(ctx context.Context, voteID, code string) (*types.VoteReceipt, error)
	ResendOTP(ctx context.Context, voteID string) error
}

// Sequencer is the per-attempt state machine:
//
//	idle -> candidate_selected -> confirming_intent -> awaiting_otp -> confirmed
//
// Failed transitions fall back to candidate_selected (provisional cast) or
// stay in awaiting_otp (confirmation), never silently retry. At most one
// backend call is outstanding at a time; a second call while one is in
// flight fails with ErrRequestInFlight.
type Sequencer struct {
	api      API
	election *types.Election
	now      func() time.Time

	mu          sync.Mutex
	inFlight    bool
	phase       Phase
	candidateID string
	voteID      string
	receipt     *types.VoteReceipt
}

// New creates a sequencer for one voter's attempt on the given election.
func New(api API, e *types.Election) *Sequencer {
	return &Sequencer{
		api:      api,
		election: e,
		now:      time.Now,
		phase:    PhaseIdle,
	}
}

// Phase returns the current protocol phase.
func (s *Sequencer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CandidateID returns the currently selected candidate, if any.
func (s *Sequencer) CandidateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidateID
}

// VoteID returns the backend-assigned provisional vote identifier, empty
// until a provisional cast succeeds.
func (s *Sequencer) VoteID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voteID
}

// Receipt returns the confirmed vote receipt, nil until the confirmation
// succeeds.
func (s *Sequencer) Receipt() *types.VoteReceipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.receipt
}

// Election returns the election record this attempt is scoped to.
func (s *Sequencer) Election() *types.Election {
	return s.election
}

// SelectCandidate records the voter's choice and moves to
// candidate_selected. It is only valid while the election's derived status
// is active; otherwise it fails with ErrVotingNotOpen before any network
// call is made. Selecting again before a provisional vote exists discards
// the previous choice. The voter's eligibility is checked against the
// backend: an existing vote blocks the selection unless it has been
// nullified, in which case the voter counts as not having voted.
func (s *Sequencer) SelectCandidate(ctx context.Context, candidateID string) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	switch s.phase {
	case PhaseIdle, PhaseCandidateSelected, PhaseConfirmingIntent:
	default:
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBadPhase, s.phase)
	}
	if !election.VotingOpen(s.election, s.now()) {
		s.mu.Unlock()
		return fmt.Errorf("%w: status is %s", ErrVotingNotOpen, election.Resolve(s.election, s.now()))
	}
	if candidateID == "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: no candidate selected", ErrInvalidSelection)
	}
	electionID := s.election.ID
	s.inFlight = true
	s.mu.Unlock()

	status, err := s.api.VoterStatus(ctx, electionID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return translate(err)
	}
	if !status.Eligible() {
		return ErrAlreadyVoted
	}
	s.phase = PhaseCandidateSelected
	s.candidateID = candidateID
	s.voteID = ""
	return nil
}

// RequestConfirmation moves to confirming_intent. It is a pure UI gate, no
// backend call is involved.
func (s *Sequencer) RequestConfirmation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseCandidateSelected {
		return fmt.Errorf("%w: %s", ErrBadPhase, s.phase)
	}
	s.phase = PhaseConfirmingIntent
	return nil
}

// SubmitProvisionalVote registers the vote with the backend and moves to
// awaiting_otp, storing the backend-assigned voteID. On failure the attempt
// falls back to candidate_selected and is not retried. A reply that arrives
// after ctx has been canceled is discarded: the attempt stays in
// candidate_selected and no voteID is kept.
func (s *Sequencer) SubmitProvisionalVote(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if s.phase != PhaseConfirmingIntent {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBadPhase, s.phase)
	}
	if !election.VotingOpen(s.election, s.now()) {
		s.mu.Unlock()
		return fmt.Errorf("%w: status is %s", ErrVotingNotOpen, election.Resolve(s.election, s.now()))
	}
	electionID, candidateID := s.election.ID, s.candidateID
	s.inFlight = true
	s.mu.Unlock()

	voteID, err := s.api.CastVote(ctx, electionID, candidateID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		s.phase = PhaseCandidateSelected
		return translate(err)
	}
	if ctx.Err() != nil {
		// The voter walked away before the reply landed.
		s.phase = PhaseCandidateSelected
		return ctx.Err()
	}
	s.voteID = voteID
	s.phase = PhaseAwaitingOTP
	return nil
}

// ConfirmWithOTP exchanges the out-of-band code for the final on-chain
// commitment of the vote. On success the attempt is confirmed and the vote
// is immutable. A wrong or expired code keeps the attempt in awaiting_otp
// with the voteID untouched, so the voter can retype the code or ask for a
// resend.
func (s *Sequencer) ConfirmWithOTP(ctx context.Context, code string) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if s.phase != PhaseAwaitingOTP {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBadPhase, s.phase)
	}
	if code == "" {
		s.mu.Unlock()
		return fmt.Errorf("%w: empty code", ErrOTPInvalid)
	}
	voteID := s.voteID
	s.inFlight = true
	s.mu.Unlock()

	receipt, err := s.api.ConfirmVote(ctx, voteID, code)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	if err != nil {
		return translate(err)
	}
	s.receipt = receipt
	s.phase = PhaseConfirmed
	return nil
}

// ResendOTP re-triggers the out-of-band code delivery. It is always allowed
// while awaiting the code, never changes the phase and never invalidates
// the existing voteID.
func (s *Sequencer) ResendOTP(ctx context.Context) error {
	s.mu.Lock()
	if s.inFlight {
		s.mu.Unlock()
		return ErrRequestInFlight
	}
	if s.phase != PhaseAwaitingOTP {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrBadPhase, s.phase)
	}
	voteID := s.voteID
	s.inFlight = true
	s.mu.Unlock()

	err := s.api.ResendOTP(ctx, voteID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
	return translate(err)
}

// Cancel abandons the attempt and returns to idle. It is only permitted
// before a provisional vote exists: once the backend has recorded the vote,
// the attempt can only move forward through the confirmation.
func (s *Sequencer) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.phase {
	case PhaseIdle:
		return nil
	case PhaseCandidateSelected, PhaseConfirmingIntent:
		s.phase = PhaseIdle
		s.candidateID = ""
		return nil
	default:
		return ErrCannotCancel
	}
}

// translate maps normalized backend errors into the sequencer's failure
// taxonomy, keeping the backend-supplied message. Anything unknown passes
// through verbatim.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, apiclient.ErrAlreadyVoted):
		return fmt.Errorf("%w: %s", ErrAlreadyVoted, err)
	case errors.Is(err, apiclient.ErrElectionNotFound),
		errors.Is(err, apiclient.ErrCandidateNotFound):
		return fmt.Errorf("%w: %s", ErrInvalidSelection, err)
	case errors.Is(err, apiclient.ErrVotingClosed):
		return fmt.Errorf("%w: %s", ErrVotingNotOpen, err)
	case errors.Is(err, apiclient.ErrOTPInvalid):
		return fmt.Errorf("%w: %s", ErrOTPInvalid, err)
	case errors.Is(err, apiclient.ErrOTPExpired):
		return fmt.Errorf("%w: %s", ErrOTPExpired, err)
	default:
		return err
	}
}
