package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"lead_automation_backend/internal/bootstrap"
	"lead_automation_backend/internal/leads/transport"

	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add or update a single lead",
	Args:  cobra.NoArgs,
	RunE:  runAdd,
}

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import leads from a CSV file",
	Long: `Import leads from a CSV file whose header is exactly:

  Name, Email, Company, UseCase, Budget, Phone

Invalid rows are reported and skipped; the rest of the file is imported.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List leads in insertion order",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	addCmd.Flags().String("name", "", "Lead name (required)")
	addCmd.Flags().String("email", "", "Lead email, also its identity (required)")
	addCmd.Flags().String("company", "", "Company name")
	addCmd.Flags().String("use-case", "", "What the lead wants to automate")
	addCmd.Flags().Float64("budget", 0, "Budget in dollars")
	addCmd.Flags().String("phone", "", "Phone number")
	_ = addCmd.MarkFlagRequired("name")
	_ = addCmd.MarkFlagRequired("email")
}

func runAdd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	var req transport.CreateLeadRequest
	req.Name, _ = flags.GetString("name")
	req.Email, _ = flags.GetString("email")
	req.Company, _ = flags.GetString("company")
	req.UseCase, _ = flags.GetString("use-case")
	req.Budget, _ = flags.GetFloat64("budget")
	req.Phone, _ = flags.GetString("phone")

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		resp, err := c.LeadsModule.ManagementService().Add(ctx, req)
		if err != nil {
			return err
		}
		verb := "updated"
		if resp.Created {
			verb = "added"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, resp.Lead.ID, resp.Lead.Status)
		return nil
	})
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		result, err := c.LeadsModule.ManagementService().ImportCSV(ctx, f)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "added %d (updated %d), rejected %d\n", result.Added, result.Updated, len(result.Rejected))
		for _, r := range result.Rejected {
			fmt.Fprintf(out, "  row %d (line %d): %s\n", r.Row, r.Line, r.Reason)
		}
		return nil
	})
}

func runList(cmd *cobra.Command, _ []string) error {
	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		list, err := c.LeadsModule.ManagementService().List(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCOMPANY\tBUDGET\tSTATUS")
		for _, l := range list.Items {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%s\n", l.ID, l.Name, l.Company, l.Budget, l.Status)
		}
		return w.Flush()
	})
}
