package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dupeguard/internal/ipc"
)

func newPendingCommand(ctx *commandContext) *cobra.Command {
	pendingCmd := &cobra.Command{
		Use:   "pending",
		Short: "Inspect and resolve blocked duplicates",
	}

	pendingCmd.AddCommand(newPendingListCommand(ctx))
	pendingCmd.AddCommand(newPendingAllowCommand(ctx))

	return pendingCmd
}

func newPendingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List blocked duplicates awaiting a decision",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PendingList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Items) == 0 {
					fmt.Fprintln(stdout, "No blocked duplicates")
					return nil
				}
				rows := make([][]string, 0, len(resp.Items))
				for _, item := range resp.Items {
					rows = append(rows, []string{
						item.OriginalID,
						item.DisplayName,
						item.MatchBasis,
						item.BlockedAt.Local().Format(time.DateTime),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Matched By", "Blocked"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				fmt.Fprintln(stdout, "Use `dupeguard pending allow <id>` to let one through")
				return nil
			})
		},
	}
}

func newPendingAllowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "allow <id>",
		Short: "Let a blocked duplicate proceed anyway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PendingAllow(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Replaying %s from %s\n",
					resp.Item.DisplayName, resp.Item.SourceLocation)
				return nil
			})
		},
	}
}
