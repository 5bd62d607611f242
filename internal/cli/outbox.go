package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"lead_automation_backend/internal/bootstrap"
	"lead_automation_backend/internal/outbox"

	"github.com/spf13/cobra"
)

var outboxCmd = &cobra.Command{
	Use:   "outbox <kind> [name]",
	Short: "List or print outbox artifacts",
	Long: `List the artifacts of one kind, or print a single artifact by name.
Kinds: emails, call_requests, proposals, notifications.

The notifications kind always prints the notification log.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runOutbox,
}

func runOutbox(cmd *cobra.Command, args []string) error {
	kind, err := outbox.ParseKind(args[0])
	if err != nil {
		return err
	}

	return withContainer(cmd, func(ctx context.Context, c *bootstrap.Container) error {
		out := cmd.OutOrStdout()
		if kind == outbox.KindNotification {
			data, err := c.Sink.ReadNotifications(ctx)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		if len(args) == 2 {
			data, err := c.Sink.Read(ctx, kind, args[1])
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		}

		handles, err := c.Sink.List(ctx, kind)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tSIZE\tLOCATION")
		for _, h := range handles {
			fmt.Fprintf(w, "%s\t%d\t%s\n", h.Name, h.Size, h.Location)
		}
		return w.Flush()
	})
}
