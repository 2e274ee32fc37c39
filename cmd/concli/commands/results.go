package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var resultsCmd = &cobra.Command{
	Use:   "results <electionID>",
	Short: "Show the per-candidate tally of an election",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		results, err := c.Results(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "CANDIDATE\tVOTES\tSHARE")
		for _, r := range results.Candidates {
			share := 0.0
			if results.TotalVotes > 0 {
				share = float64(r.Votes) / float64(results.TotalVotes) * 100
			}
			fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", r.Name, r.Votes, share)
		}
		w.Flush()
		fmt.Printf("total votes: %d\n", results.TotalVotes)
		return nil
	},
}
