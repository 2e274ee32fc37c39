package types

// PaginationParams allows the client to request a specific page, and how many
// items per page.
type PaginationParams struct {
	Page  int `json:"page,omitempty"`
	Limit int `json:"limit,omitempty"`
}

// ElectionParams allows the client to filter and sort the election list.
type ElectionParams struct {
	PaginationParams
	Search   string `json:"search,omitempty"`
	Active   *bool  `json:"is_active,omitempty"`
	SortBy   string `json:"sort_by,omitempty"`
	SortDesc bool   `json:"sort_desc,omitempty"`
}

// Pagination contains all the values needed for the UI to easily organize the
// returned data.
type Pagination struct {
	TotalItems   uint64  `json:"total_items"`
	PreviousPage *uint64 `json:"previous_page"`
	CurrentPage  uint64  `json:"current_page"`
	NextPage     *uint64 `json:"next_page"`
	LastPage     uint64  `json:"last_page"`
}

// ElectionsList is used to return a paginated election list to the client.
type ElectionsList struct {
	Elections  []*Election `json:"elections"`
	Pagination *Pagination `json:"pagination"`
}

// CandidatesList is used to return an election's candidate set.
type CandidatesList struct {
	Candidates []*Candidate `json:"candidates"`
}
