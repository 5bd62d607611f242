package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"lead_automation_backend/internal/bootstrap"
	"lead_automation_backend/internal/leads/qualification"
	"lead_automation_backend/internal/webhook"

	"github.com/spf13/cobra"
)

var qualifyCmd = &cobra.Command{
	Use:   "qualify [lead-id]",
	Short: "Qualify one lead, or every New lead with --all",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runQualify,
}

var callCmd = &cobra.Command{
	Use:   "call <lead-id>",
	Short: "Request a call for a qualified lead",
	Args:  cobra.ExactArgs(1),
	RunE:  runCall,
}

var eventCmd = &cobra.Command{
	Use:   "event <lead-id> <kind>",
	Short: "Feed a call provider event into the pipeline",
	Long: `Feed a call provider event into the pipeline, as if the provider had
delivered it to the webhook. Known kinds:

  ` + strings.Join(eventKindNames(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: runEvent,
}

var proposalCmd = &cobra.Command{
	Use:   "proposal <lead-id>",
	Short: "Draft and send a proposal for a lead",
	Args:  cobra.ExactArgs(1),
	RunE:  runProposal,
}

func init() {
	qualifyCmd.Flags().Bool("all", false, "Qualify every lead still in New")
	eventCmd.Flags().String("transcript", "", "Call transcript for completion events")
}

func eventKindNames() []string {
	kinds := webhook.EventKinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, string(k))
	}
	return names
}

func runQualify(cmd *cobra.Command, args []string) error {
	all, err := cmd.Flags().GetBool("all")
	if err != nil {
		return err
	}
	if all == (len(args) == 1) {
		return errors.New("pass exactly one of <lead-id> or --all")
	}

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		svc := c.LeadsModule.QualificationService()
		out := cmd.OutOrStdout()
		if !all {
			outcome, err := svc.Qualify(ctx, args[0])
			if err != nil {
				return err
			}
			printOutcome(out, outcome)
			return nil
		}

		outcomes, failures, err := svc.QualifyAll(ctx)
		if err != nil {
			return err
		}
		for _, o := range outcomes {
			printOutcome(out, o)
		}
		for _, f := range failures {
			fmt.Fprintf(out, "%s: failed: %v\n", f.LeadID, f.Err)
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d lead(s) could not be qualified", len(failures))
		}
		return nil
	})
}

func printOutcome(w io.Writer, o qualification.Outcome) {
	switch {
	case o.AlreadyQualified:
		fmt.Fprintf(w, "%s: already %s\n", o.Lead.ID, o.Lead.Status)
	case o.Result.Qualified:
		fmt.Fprintf(w, "%s: qualified (budget %.2f >= %.2f)\n", o.Lead.ID, o.Result.Budget, o.Result.Threshold)
	default:
		fmt.Fprintf(w, "%s: unqualified (budget %.2f < %.2f)\n", o.Lead.ID, o.Result.Budget, o.Result.Threshold)
	}
	if o.CallRequest != nil {
		fmt.Fprintf(w, "  call request: %s\n", o.CallRequest.Name)
	}
}

func runCall(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		d, err := c.LeadsModule.QualificationService().DispatchCall(ctx, args[0])
		if err != nil {
			return err
		}
		if d.Dispatched {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: call requested (%s)\n", d.Lead.ID, d.Lead.CallRequestID)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "%s: call already requested (%s)\n", d.Lead.ID, d.Lead.CallRequestID)
		}
		return nil
	})
}

func runEvent(cmd *cobra.Command, args []string) error {
	transcript, err := cmd.Flags().GetString("transcript")
	if err != nil {
		return err
	}
	ev := webhook.CallEvent{LeadID: args[0], Kind: args[1], Transcript: transcript}

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		outcome, err := c.Webhook.Process(ctx, ev)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s\n", outcome.Lead.ID, outcome.Lead.Status)
		if outcome.FollowUpEmail != nil {
			fmt.Fprintf(out, "  follow-up email: %s\n", outcome.FollowUpEmail.Name)
		}
		if outcome.Proposal != nil {
			fmt.Fprintf(out, "  proposal: %s\n", outcome.Proposal)
		}
		return nil
	})
}

func runProposal(cmd *cobra.Command, args []string) error {
	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		sent, lead, err := c.Proposals.SendManual(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n  email: %s\n", lead.ID, sent, sent.EmailHandle.Name)
		return nil
	})
}
