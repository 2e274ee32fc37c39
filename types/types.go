package types

// NullificationStatus is the administrative state of a confirmed vote.
// A nullified vote no longer counts towards the tally and makes its voter
// eligible to vote again.
type NullificationStatus string

const (
	NullificationNone      NullificationStatus = ""
	NullificationValid     NullificationStatus = "valid"
	NullificationNullified NullificationStatus = "nullified"
)

// Election is an election record as stored by the backend. Status is not a
// field on purpose: it is derived from the dates, the active flag and the
// deployment state at display time (see the election package).
type Election struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	StartDate       UTCTime `json:"start_date"`
	EndDate         UTCTime `json:"end_date"`
	Active          bool    `json:"is_active"`
	ContractAddress string  `json:"contract_address,omitempty"`
	VotesCount      uint64  `json:"votes_count"`
	CreatedAt       UTCTime `json:"created_at,omitempty"`
}

// Deployed reports whether the election's smart contract is on-chain. The
// backend only fills contract_address once deployment succeeds, so presence
// is the contract; whether the value is a canonical EVM address is a display
// concern, not a lifecycle one.
func (e *Election) Deployed() bool {
	return e.ContractAddress != ""
}

// Candidate is one entry of an election's fixed candidate set.
type Candidate struct {
	ID         string `json:"id"`
	ElectionID string `json:"election_id"`
	Name       string `json:"name"`
	Party      string `json:"party,omitempty"`
	VotesCount uint64 `json:"votes_count"`
}

// VoteReceipt describes the current voter's vote in an election, as reported
// by the backend. TxHash is only present once the vote is committed on-chain.
type VoteReceipt struct {
	VoteID        string              `json:"vote_id"`
	ElectionID    string              `json:"election_id"`
	CandidateID   string              `json:"candidate_id"`
	Confirmed     bool                `json:"confirmed"`
	TxHash        HexBytes            `json:"tx_hash,omitempty"`
	Nullification NullificationStatus `json:"nullification_status,omitempty"`
}

// VoterStatus is the reply to the has-this-voter-already-voted lookup.
type VoterStatus struct {
	HasVoted bool         `json:"has_voted"`
	Vote     *VoteReceipt `json:"vote,omitempty"`
}

// Eligible reports whether the voter may (re-)enter the voting flow. A
// nullified previous vote deliberately counts as not having voted.
func (s *VoterStatus) Eligible() bool {
	if !s.HasVoted || s.Vote == nil {
		return true
	}
	return s.Vote.Nullification == NullificationNullified
}

// CandidateResult is one row of an election's tally.
type CandidateResult struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Votes       uint64 `json:"votes"`
}

// ElectionResults is the per-candidate tally of an election.
type ElectionResults struct {
	ElectionID string            `json:"election_id"`
	Candidates []CandidateResult `json:"candidates"`
	TotalVotes uint64            `json:"total_votes"`
}
