package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"dupeguard/internal/ipc"
)

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	recordsCmd := &cobra.Command{
		Use:   "records",
		Short: "Manage the tracked file collection",
	}

	recordsCmd.AddCommand(newRecordsListCommand(ctx))
	recordsCmd.AddCommand(newRecordsRemoveCommand(ctx))
	recordsCmd.AddCommand(newRecordsClearCommand(ctx))
	recordsCmd.AddCommand(newRecordsExportCommand(ctx))

	return recordsCmd
}

func newRecordsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tracked records in registration order",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordList()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Records) == 0 {
					fmt.Fprintln(stdout, "No tracked records")
					return nil
				}
				rows := make([][]string, 0, len(resp.Records))
				for _, record := range resp.Records {
					rows = append(rows, []string{
						record.ID,
						record.DisplayName,
						formatSize(record.Size),
						shortFingerprint(record.Fingerprint),
						record.RegisteredAt.Local().Format(time.DateTime),
					})
				}
				table := renderTable(
					[]string{"ID", "Name", "Size", "Fingerprint", "Registered"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
				)
				fmt.Fprintln(stdout, table)
				fmt.Fprintf(stdout, "%d tracked record(s)\n", len(resp.Records))
				return nil
			})
		},
	}
}

func newRecordsRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove one tracked record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordRemove(strings.TrimSpace(args[0]))
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if !resp.Removed {
					fmt.Fprintln(stdout, "No record with that id")
					return nil
				}
				fmt.Fprintf(stdout, "Record removed, %d remaining\n", resp.TrackedCount)
				return nil
			})
		},
	}
}

func newRecordsClearCommand(ctx *commandContext) *cobra.Command {
	var confirmed bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every tracked record",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirmed {
				return fmt.Errorf("refusing to clear the collection without --yes")
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordClear()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", resp.Removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&confirmed, "yes", false, "Confirm clearing the entire collection")
	return cmd
}

func newRecordsExportCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export tracked records as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.RecordExport()
				if err != nil {
					return err
				}
				if strings.TrimSpace(outputPath) == "" {
					fmt.Fprint(cmd.OutOrStdout(), resp.CSV)
					return nil
				}
				if err := os.WriteFile(outputPath, []byte(resp.CSV), 0o644); err != nil {
					return fmt.Errorf("write export: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote export to %s\n", outputPath)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write CSV to a file instead of stdout")
	return cmd
}

func formatSize(size int64) string {
	if size <= 0 {
		return "unknown"
	}
	const unit = 1024
	if size < unit {
		return strconv.FormatInt(size, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}

func shortFingerprint(fingerprint string) string {
	fingerprint = strings.TrimSpace(fingerprint)
	if fingerprint == "" {
		return "-"
	}
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
