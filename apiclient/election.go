package apiclient

import (
	"context"
	"net/url"
	"strconv"

	"github.com/civixvote/console/types"
)

// Elections fetches a page of the election list. params may be nil, which
// requests the first page with the backend's default page size. The fetched
// records are added to the election cache.
func (c *HTTPclient) Elections(ctx context.Context, params *types.ElectionParams) (*types.ElectionsList, error) {
	query := url.Values{}
	if params != nil {
		if params.Page > 0 {
			query.Set("page", strconv.Itoa(params.Page))
		}
		if params.Limit > 0 {
			query.Set("limit", strconv.Itoa(params.Limit))
		}
		if params.Search != "" {
			query.Set("search", params.Search)
		}
		if params.Active != nil {
			query.Set("is_active", strconv.FormatBool(*params.Active))
		}
		if params.SortBy != "" {
			query.Set("sort_by", params.SortBy)
			query.Set("sort_desc", strconv.FormatBool(params.SortDesc))
		}
	}
	list := &types.ElectionsList{}
	if err := c.call(ctx, HTTPGET, query, nil, list, "elections"); err != nil {
		return nil, err
	}
	for _, e := range list.Elections {
		c.elections.Add(e.ID, e)
	}
	return list, nil
}

// Election fetches a single election record. Records are served from the
// cache when present; use RefreshElections to force re-fetching. Statuses are
// never cached since they are derived, not stored.
func (c *HTTPclient) Election(ctx context.Context, electionID string) (*types.Election, error) {
	if cached, ok := c.elections.Get(electionID); ok {
		return cached.(*types.Election), nil
	}
	e := &types.Election{}
	if err := c.Call(ctx, HTTPGET, nil, e, "elections", electionID); err != nil {
		return nil, err
	}
	c.elections.Add(e.ID, e)
	return e, nil
}

// RefreshElections drops the election record cache. The next fetch returns
// fresh records, which is what the console's "refresh statuses" action
// relies on.
func (c *HTTPclient) RefreshElections() {
	c.elections.Purge()
}

// Candidates fetches the candidate set of an election.
func (c *HTTPclient) Candidates(ctx context.Context, electionID string) ([]*types.Candidate, error) {
	list := &types.CandidatesList{}
	if err := c.Call(ctx, HTTPGET, nil, list, "elections", electionID, "candidates"); err != nil {
		return nil, err
	}
	return list.Candidates, nil
}

// Results fetches the per-candidate tally of an election.
func (c *HTTPclient) Results(ctx context.Context, electionID string) (*types.ElectionResults, error) {
	results := &types.ElectionResults{}
	if err := c.Call(ctx, HTTPGET, nil, results, "elections", electionID, "results"); err != nil {
		return nil, err
	}
	return results, nil
}
