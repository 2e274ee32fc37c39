package apiclient

import (
	"context"

	"github.com/civixvote/console/types"
)

type setActiveRequest struct {
	Active bool `json:"is_active"`
}

// SetElectionActive flips the administrator "approved to go live" flag. The
// flag is independent of the election's time window; see the election
// package for how both combine into a status.
func (c *HTTPclient) SetElectionActive(ctx context.Context, electionID string, active bool) (*types.Election, error) {
	e := &types.Election{}
	err := c.Call(ctx, HTTPPATCH, &setActiveRequest{Active: active}, e, "elections", electionID)
	if err != nil {
		return nil, err
	}
	c.elections.Add(e.ID, e)
	return e, nil
}

// DeployElection asks the backend to deploy the election's smart contract.
// The returned record carries the on-chain contract address once deployment
// succeeds.
func (c *HTTPclient) DeployElection(ctx context.Context, electionID string) (*types.Election, error) {
	e := &types.Election{}
	err := c.Call(ctx, HTTPPOST, nil, e, "elections", electionID, "deploy")
	if err != nil {
		return nil, err
	}
	c.elections.Add(e.ID, e)
	return e, nil
}

// DeleteElection removes an election that never went live.
func (c *HTTPclient) DeleteElection(ctx context.Context, electionID string) error {
	if err := c.Call(ctx, HTTPDELETE, nil, nil, "elections", electionID); err != nil {
		return err
	}
	c.elections.Remove(electionID)
	return nil
}
