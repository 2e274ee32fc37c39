package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/civixvote/console/election"
	"github.com/civixvote/console/types"
)

var (
	listPage   int
	listLimit  int
	listSearch string
	listActive string
	listSortBy string
	listDesc   bool
)

func init() {
	electionsListCmd.Flags().IntVar(&listPage, "page", 0, "page number to fetch")
	electionsListCmd.Flags().IntVar(&listLimit, "limit", 0, "items per page")
	electionsListCmd.Flags().StringVar(&listSearch, "search", "", "filter by title substring")
	electionsListCmd.Flags().StringVar(&listActive, "active", "", "filter by admin flag (true/false)")
	electionsListCmd.Flags().StringVar(&listSortBy, "sort", "", "sort field (e.g. start_date)")
	electionsListCmd.Flags().BoolVar(&listDesc, "desc", false, "sort descending")
}

var electionsCmd = &cobra.Command{
	Use:   "elections",
	Short: "List and administer elections",
}

// statusColor maps each derived status to the color the console renders it
// with.
func statusColor(s election.Status) *color.Color {
	switch s {
	case election.StatusActive:
		return color.New(color.FgGreen, color.Bold)
	case election.StatusUpcoming:
		return color.New(color.FgCyan)
	case election.StatusPendingDeployment:
		return color.New(color.FgYellow)
	case election.StatusInactive:
		return color.New(color.FgMagenta)
	case election.StatusCompleted:
		return color.New(color.FgBlue)
	case election.StatusInvalidDates:
		return color.New(color.FgRed)
	}
	return color.New(color.FgWhite)
}

func fmtDate(u types.UTCTime) string {
	if !u.IsSet() {
		return "-"
	}
	return u.UTC().Format("2006-01-02 15:04")
}

var electionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List elections with their derived status",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		params := &types.ElectionParams{
			PaginationParams: types.PaginationParams{Page: listPage, Limit: listLimit},
			Search:           listSearch,
			SortBy:           listSortBy,
			SortDesc:         listDesc,
		}
		switch listActive {
		case "":
		case "true", "false":
			active := listActive == "true"
			params.Active = &active
		default:
			return fmt.Errorf("--active must be true or false")
		}
		list, err := c.Elections(cmd.Context(), params)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tSTART (UTC)\tEND (UTC)\tVOTES\tSTATUS")
		for _, e := range list.Elections {
			status := election.Resolve(e, now)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
				e.ID, e.Title, fmtDate(e.StartDate), fmtDate(e.EndDate),
				e.VotesCount, statusColor(status).Sprint(status.Label()))
		}
		w.Flush()
		if p := list.Pagination; p != nil {
			fmt.Printf("page %d of %d (%d elections)\n", p.CurrentPage, p.LastPage, p.TotalItems)
		}
		return nil
	},
}

var electionsInfoCmd = &cobra.Command{
	Use:   "info <electionID>",
	Short: "Show an election record, its derived status and candidate set",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		e, err := c.Election(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		status := election.Resolve(e, time.Now().UTC())
		fmt.Printf("Title:    %s\n", e.Title)
		if e.Description != "" {
			fmt.Printf("About:    %s\n", e.Description)
		}
		fmt.Printf("Status:   %s\n", statusColor(status).Sprint(status.Label()))
		fmt.Printf("Window:   %s -> %s (UTC)\n", fmtDate(e.StartDate), fmtDate(e.EndDate))
		fmt.Printf("Approved: %v\n", e.Active)
		if e.Deployed() {
			fmt.Printf("Contract: %s\n", e.ContractAddress)
			if !common.IsHexAddress(e.ContractAddress) {
				fmt.Printf("          %s\n", color.New(color.FgYellow).Sprint("(not a canonical EVM address)"))
			}
		} else {
			fmt.Printf("Contract: not deployed\n")
		}
		fmt.Printf("Votes:    %d\n", e.VotesCount)

		candidates, err := c.Candidates(cmd.Context(), e.ID)
		if err != nil {
			return err
		}
		fmt.Printf("Candidates:\n")
		for _, cand := range candidates {
			if cand.Party != "" {
				fmt.Printf("  %s  %s (%s)\n", cand.ID, cand.Name, cand.Party)
				continue
			}
			fmt.Printf("  %s  %s\n", cand.ID, cand.Name)
		}
		return nil
	},
}

var electionsActivateCmd = &cobra.Command{
	Use:   "activate <electionID>",
	Short: "Approve an election to go live",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setActive(cmd, args[0], true) },
}

var electionsDeactivateCmd = &cobra.Command{
	Use:   "deactivate <electionID>",
	Short: "Withdraw an election's approval",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setActive(cmd, args[0], false) },
}

func setActive(cmd *cobra.Command, electionID string, active bool) error {
	c, err := newClient()
	if err != nil {
		return err
	}
	e, err := c.SetElectionActive(cmd.Context(), electionID, active)
	if err != nil {
		return err
	}
	status := election.Resolve(e, time.Now().UTC())
	fmt.Printf("%s: approved=%v, status is now %s\n",
		e.ID, e.Active, statusColor(status).Sprint(status.Label()))
	return nil
}

var electionsDeployCmd = &cobra.Command{
	Use:   "deploy <electionID>",
	Short: "Deploy the election's smart contract on-chain",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		e, err := c.DeployElection(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s: contract deployed at %s\n", e.ID, e.ContractAddress)
		return nil
	},
}

var electionsDeleteCmd = &cobra.Command{
	Use:   "delete <electionID>",
	Short: "Delete an election that never went live",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.DeleteElection(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("%s: deleted\n", args[0])
		return nil
	},
}
