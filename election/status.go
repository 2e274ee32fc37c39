// Package election derives the lifecycle status of an election from its
// stored attributes and the current time. The backend never persists a
// status: every screen recomputes it on demand, so two renders at different
// instants may legitimately disagree.
package election

import (
	"time"

	"github.com/civixvote/console/types"
)

// Status is the authoritative lifecycle state of an election.
type Status string

const (
	// StatusDraft means the election has not started and is not yet
	// approved to go live.
	StatusDraft Status = "draft"
	// StatusUpcoming means the election is approved but its start date is
	// still in the future.
	StatusUpcoming Status = "upcoming"
	// StatusPendingDeployment means the election is inside its time window
	// and approved, but its contract is not on-chain yet. Voting is not
	// allowed in this state even though the window is open.
	StatusPendingDeployment Status = "pending_deployment"
	// StatusActive means votes can be cast right now.
	StatusActive Status = "active"
	// StatusInactive means the election is inside its time window but the
	// administrator has not approved it (or has withdrawn approval).
	StatusInactive Status = "inactive"
	// StatusCompleted means the end date has passed.
	StatusCompleted Status = "completed"
	// StatusInvalidDates means the record's dates are missing, unparsable
	// or inverted. Displayed as a warning, never as a hard error.
	StatusInvalidDates Status = "invalid_dates"
)

// Resolve computes the status of an election at the given instant.
//
// The checks are ordered and the first match wins: date sanity, then
// time-window membership, then the active flag and deployment state. The
// ordering matters: a time-eligible election that is not deployed must report
// pending_deployment, never fall through to completed or upcoming.
//
// All comparisons are done on absolute instants in UTC. The viewer's local
// timezone must never influence the result, since the authoritative time
// source (server and chain) and the viewer's locale can disagree.
//
// Both window bounds are inclusive: at the exact start_date or end_date
// instant the election is still considered inside its window. The inclusive
// end bound is a deliberate product contract, not an accident; changing it
// to a strict inequality changes observable behavior at the boundary.
func Resolve(e *types.Election, now time.Time) Status {
	if !e.StartDate.IsSet() || !e.EndDate.IsSet() {
		return StatusInvalidDates
	}
	start := e.StartDate.UTC()
	end := e.EndDate.UTC()
	if start.After(end) {
		return StatusInvalidDates
	}
	now = now.UTC()

	if now.Before(start) {
		if e.Active {
			return StatusUpcoming
		}
		return StatusDraft
	}
	if !now.After(end) { // start <= now <= end
		switch {
		case e.Active && e.Deployed():
			return StatusActive
		case e.Active:
			return StatusPendingDeployment
		default:
			return StatusInactive
		}
	}
	return StatusCompleted
}

// VotingOpen reports whether votes can be cast for the election right now.
func VotingOpen(e *types.Election, now time.Time) bool {
	return Resolve(e, now) == StatusActive
}

// Label returns the human-readable form of the status, as shown by the
// console screens.
func (s Status) Label() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusUpcoming:
		return "Upcoming"
	case StatusPendingDeployment:
		return "Pending deployment"
	case StatusActive:
		return "Active"
	case StatusInactive:
		return "Inactive"
	case StatusCompleted:
		return "Completed"
	case StatusInvalidDates:
		return "Invalid dates"
	}
	return string(s)
}
