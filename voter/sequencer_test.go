package voter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/civixvote/console/apiclient"
	"github.com/civixvote/console/types"
)

var (
	electionStart = time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC)
	electionEnd   = time.Date(2025, 4, 30, 23, 59, 59, 0, time.UTC)
	duringWindow  = time.Date(2025, 4, 20, 12, 0, 0, 0, time.UTC)
	afterWindow   = time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)
)

type fakeAPI struct {
	calls   int32
	status  func(electionID string) (*types.VoterStatus, error)
	cast    func(electionID, candidateID string) (string, error)
	confirm func(voteID, code string) (*types.VoteReceipt, error)
	resend  func(voteID string) error
}

func (f *fakeAPI) VoterStatus(_ context.Context, electionID string) (*types.VoterStatus, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.status == nil {
		return &types.VoterStatus{}, nil
	}
	return f.status(electionID)
}

func (f *fakeAPI) CastVote(_ context.Context, electionID, candidateID string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.cast == nil {
		return "vote-1", nil
	}
	return f.cast(electionID, candidateID)
}

func (f *fakeAPI) ConfirmVote(_ context.Context, voteID, code string) (*types.VoteReceipt, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.confirm == nil {
		return &types.VoteReceipt{VoteID: voteID, Confirmed: true}, nil
	}
	return f.confirm(voteID, code)
}

func (f *fakeAPI) ResendOTP(_ context.Context, voteID string) error {
	atomic.AddInt32(&f.calls, 1)
	if f.resend == nil {
		return nil
	}
	return f.resend(voteID)
}

func activeElection() *types.Election {
	return &types.Election{
		ID:              "e1",
		Title:           "Board 2025",
		StartDate:       types.NewUTCTime(electionStart),
		EndDate:         types.NewUTCTime(electionEnd),
		Active:          true,
		ContractAddress: "0x326C977E6efc84E512bB9C30f76E30c160eD06FB",
	}
}

func newSequencer(api API, e *types.Election, now time.Time) *Sequencer {
	s := New(api, e)
	s.now = func() time.Time { return now }
	return s
}

func TestHappyPath(t *testing.T) {
	api := &fakeAPI{}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.Phase(), qt.Equals, PhaseIdle)
	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseCandidateSelected)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseConfirmingIntent)
	qt.Assert(t, s.SubmitProvisionalVote(ctx), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseAwaitingOTP)
	qt.Assert(t, s.VoteID(), qt.Equals, "vote-1")
	qt.Assert(t, s.ConfirmWithOTP(ctx, "123456"), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseConfirmed)
	qt.Assert(t, s.Receipt().Confirmed, qt.IsTrue)
}

func TestSelectCandidateVotingNotOpen(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(e *types.Election)
		now      time.Time
	}{
		{"window over", func(e *types.Election) {}, afterWindow},
		{"not deployed", func(e *types.Election) { e.ContractAddress = "" }, duringWindow},
		{"not approved", func(e *types.Election) { e.Active = false }, duringWindow},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			api := &fakeAPI{}
			e := activeElection()
			test.mutate(e)
			s := newSequencer(api, e, test.now)

			err := s.SelectCandidate(context.Background(), "c1")
			qt.Assert(t, errors.Is(err, ErrVotingNotOpen), qt.IsTrue)
			qt.Assert(t, s.Phase(), qt.Equals, PhaseIdle)
			// The gate fires before any backend call.
			qt.Assert(t, atomic.LoadInt32(&api.calls), qt.Equals, int32(0))
		})
	}
}

func TestSubmitClosedWindowIssuesNoNetworkCall(t *testing.T) {
	api := &fakeAPI{}
	e := activeElection()
	s := newSequencer(api, e, duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	calls := atomic.LoadInt32(&api.calls)

	// The window closes between the selection and the submission.
	s.now = func() time.Time { return afterWindow }
	err := s.SubmitProvisionalVote(ctx)
	qt.Assert(t, errors.Is(err, ErrVotingNotOpen), qt.IsTrue)
	qt.Assert(t, atomic.LoadInt32(&api.calls), qt.Equals, calls)
}

func TestAlreadyVoted(t *testing.T) {
	api := &fakeAPI{
		status: func(string) (*types.VoterStatus, error) {
			return &types.VoterStatus{
				HasVoted: true,
				Vote:     &types.VoteReceipt{VoteID: "old", Nullification: types.NullificationValid},
			}, nil
		},
	}
	s := newSequencer(api, activeElection(), duringWindow)

	err := s.SelectCandidate(context.Background(), "c1")
	qt.Assert(t, errors.Is(err, ErrAlreadyVoted), qt.IsTrue)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseIdle)
}

func TestNullifiedVoteAllowsRevote(t *testing.T) {
	// A nullified previous vote counts as not having voted: the voter may
	// re-enter the flow from idle.
	api := &fakeAPI{
		status: func(string) (*types.VoterStatus, error) {
			return &types.VoterStatus{
				HasVoted: true,
				Vote:     &types.VoteReceipt{VoteID: "old", Nullification: types.NullificationNullified},
			}, nil
		},
	}
	s := newSequencer(api, activeElection(), duringWindow)

	qt.Assert(t, s.SelectCandidate(context.Background(), "c1"), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseCandidateSelected)
}

func TestReselectionDiscardsPendingAttempt(t *testing.T) {
	api := &fakeAPI{}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	qt.Assert(t, s.SelectCandidate(ctx, "c2"), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseCandidateSelected)
	qt.Assert(t, s.CandidateID(), qt.Equals, "c2")
}

func TestCancel(t *testing.T) {
	api := &fakeAPI{}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.Cancel(), qt.IsNil) // idle, nothing to do

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.Cancel(), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseIdle)
	qt.Assert(t, s.CandidateID(), qt.Equals, "")

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	qt.Assert(t, s.SubmitProvisionalVote(ctx), qt.IsNil)
	// Once the backend holds a provisional vote the attempt cannot be
	// abandoned.
	qt.Assert(t, errors.Is(s.Cancel(), ErrCannotCancel), qt.IsTrue)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseAwaitingOTP)
}

func TestProvisionalCastFailureReturnsToSelection(t *testing.T) {
	api := &fakeAPI{
		cast: func(string, string) (string, error) {
			return "", apiclient.ErrAlreadyVoted
		},
	}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	err := s.SubmitProvisionalVote(ctx)
	qt.Assert(t, errors.Is(err, ErrAlreadyVoted), qt.IsTrue)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseCandidateSelected)
	qt.Assert(t, s.VoteID(), qt.Equals, "")
}

func TestWrongOTPKeepsVoteID(t *testing.T) {
	api := &fakeAPI{
		confirm: func(string, string) (*types.VoteReceipt, error) {
			return nil, apiclient.ErrOTPInvalid
		},
	}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	qt.Assert(t, s.SubmitProvisionalVote(ctx), qt.IsNil)

	err := s.ConfirmWithOTP(ctx, "000000")
	qt.Assert(t, errors.Is(err, ErrOTPInvalid), qt.IsTrue)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseAwaitingOTP)
	qt.Assert(t, s.VoteID(), qt.Equals, "vote-1")

	// An expired code behaves the same, with its own taxonomy entry.
	api.confirm = func(string, string) (*types.VoteReceipt, error) {
		return nil, apiclient.ErrOTPExpired
	}
	err = s.ConfirmWithOTP(ctx, "000000")
	qt.Assert(t, errors.Is(err, ErrOTPExpired), qt.IsTrue)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseAwaitingOTP)
}

func TestResendOTP(t *testing.T) {
	api := &fakeAPI{}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	// Not allowed before a provisional vote exists.
	qt.Assert(t, errors.Is(s.ResendOTP(ctx), ErrBadPhase), qt.IsTrue)

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	qt.Assert(t, s.SubmitProvisionalVote(ctx), qt.IsNil)

	qt.Assert(t, s.ResendOTP(ctx), qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseAwaitingOTP)
	qt.Assert(t, s.VoteID(), qt.Equals, "vote-1")

	// A failed resend reports the error without changing phase.
	api.resend = func(string) error { return apiclient.ErrVoteNotFound }
	qt.Assert(t, s.ResendOTP(ctx), qt.IsNotNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseAwaitingOTP)
}

func TestInFlightGuard(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	api := &fakeAPI{
		cast: func(string, string) (string, error) {
			close(started)
			<-block
			return "vote-1", nil
		},
	}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)

	done := make(chan error, 1)
	go func() { done <- s.SubmitProvisionalVote(ctx) }()
	<-started

	qt.Assert(t, errors.Is(s.SubmitProvisionalVote(ctx), ErrRequestInFlight), qt.IsTrue)
	qt.Assert(t, errors.Is(s.SelectCandidate(ctx, "c2"), ErrRequestInFlight), qt.IsTrue)

	close(block)
	qt.Assert(t, <-done, qt.IsNil)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseAwaitingOTP)
}

func TestLateReplyAfterCancelIsDiscarded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{
		cast: func(string, string) (string, error) {
			// The voter navigates away while the request is in
			// flight; the reply still arrives.
			cancel()
			return "vote-1", nil
		},
	}
	s := newSequencer(api, activeElection(), duringWindow)

	qt.Assert(t, s.SelectCandidate(context.Background(), "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)

	err := s.SubmitProvisionalVote(ctx)
	qt.Assert(t, errors.Is(err, context.Canceled), qt.IsTrue)
	qt.Assert(t, s.Phase(), qt.Equals, PhaseCandidateSelected)
	qt.Assert(t, s.VoteID(), qt.Equals, "")
}

func TestEmptyOTPDetectedBeforeNetwork(t *testing.T) {
	api := &fakeAPI{}
	s := newSequencer(api, activeElection(), duringWindow)
	ctx := context.Background()

	qt.Assert(t, s.SelectCandidate(ctx, "c1"), qt.IsNil)
	qt.Assert(t, s.RequestConfirmation(), qt.IsNil)
	qt.Assert(t, s.SubmitProvisionalVote(ctx), qt.IsNil)
	calls := atomic.LoadInt32(&api.calls)

	err := s.ConfirmWithOTP(ctx, "")
	qt.Assert(t, errors.Is(err, ErrOTPInvalid), qt.IsTrue)
	qt.Assert(t, atomic.LoadInt32(&api.calls), qt.Equals, calls)
}
