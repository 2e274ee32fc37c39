package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	ui "github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/civixvote/console/election"
	"github.com/civixvote/console/log"
	"github.com/civixvote/console/voter"
)

const (
	otpEnterStr  = "Enter confirmation code"
	otpResendStr = "Resend the code"
	otpLeaveStr  = "Leave the vote unconfirmed"
)

var voteCmd = &cobra.Command{
	Use:   "vote <electionID>",
	Short: "Cast a vote: pick a candidate, confirm, then enter the emailed code",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		e, err := c.Election(ctx, args[0])
		if err != nil {
			return err
		}
		if status := election.Resolve(e, time.Now().UTC()); status != election.StatusActive {
			return fmt.Errorf("voting is not open for %q: status is %s", e.Title, status.Label())
		}
		candidates, err := c.Candidates(ctx, e.ID)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return fmt.Errorf("election %q has no candidates", e.Title)
		}

		items := make([]string, len(candidates))
		for i, cand := range candidates {
			items[i] = cand.Name
			if cand.Party != "" {
				items[i] = fmt.Sprintf("%s (%s)", cand.Name, cand.Party)
			}
		}
		choice, _, err := (&ui.Select{
			Label:    e.Title,
			Items:    items,
			Size:     10,
			HideHelp: true,
		}).Run()
		if err != nil {
			return err
		}
		candidate := candidates[choice]

		seq := voter.New(c, e)
		if err := seq.SelectCandidate(ctx, candidate.ID); err != nil {
			return err
		}
		if err := seq.RequestConfirmation(); err != nil {
			return err
		}

		if _, err := (&ui.Prompt{
			Label:     fmt.Sprintf("Cast your vote for %s", candidate.Name),
			IsConfirm: true,
		}).Run(); err != nil {
			if err := seq.Cancel(); err != nil {
				log.Warnf("could not cancel the attempt: %v", err)
			}
			fmt.Println("vote canceled")
			return nil
		}
		if err := seq.SubmitProvisionalVote(ctx); err != nil {
			return err
		}
		fmt.Println("Provisional vote recorded. A confirmation code has been sent to your email.")

		for {
			_, action, err := (&ui.Select{
				Label:    "Confirm your vote",
				Items:    []string{otpEnterStr, otpResendStr, otpLeaveStr},
				HideHelp: true,
			}).Run()
			if err != nil {
				return err
			}
			switch action {
			case otpLeaveStr:
				// A provisional vote cannot be abandoned; it simply
				// stays unconfirmed until the code expires.
				return fmt.Errorf("vote left unconfirmed")
			case otpResendStr:
				if err := seq.ResendOTP(ctx); err != nil {
					fmt.Printf("resend failed: %v\n", err)
					continue
				}
				fmt.Println("a new code is on its way")
			case otpEnterStr:
				code, err := (&ui.Prompt{Label: "Confirmation code"}).Run()
				if err != nil {
					return err
				}
				err = seq.ConfirmWithOTP(ctx, code)
				if err == nil {
					receipt := seq.Receipt()
					fmt.Printf("%s tx %s\n",
						color.New(color.FgGreen, color.Bold).Sprint("Vote confirmed on-chain."),
						receipt.TxHash.String())
					return nil
				}
				if errors.Is(err, voter.ErrOTPInvalid) || errors.Is(err, voter.ErrOTPExpired) {
					fmt.Printf("%v\n", err)
					continue
				}
				return err
			}
		}
	},
}
