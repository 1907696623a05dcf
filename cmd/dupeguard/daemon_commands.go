package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"dupeguard/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the engine event sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Start()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Started {
					fmt.Fprintln(stdout, "Engine started")
					return nil
				}
				fmt.Fprintln(stdout, resp.Message)
				return nil
			})
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the engine event sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if _, err := client.Stop(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Engine stopped")
				return nil
			})
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and engine status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				renderStatus(cmd, resp)
				return nil
			})
		},
	}

	return []*cobra.Command{startCmd, stopCmd, statusCmd}
}

func renderStatus(cmd *cobra.Command, resp *ipc.StatusResponse) {
	stdout := cmd.OutOrStdout()
	colorize := shouldColorize(stdout)

	for _, line := range renderSectionHeader("Daemon", colorize) {
		fmt.Fprintln(stdout, line)
	}
	runningKind := statusError
	runningDetail := "stopped"
	if resp.Running {
		runningKind = statusOK
		runningDetail = fmt.Sprintf("pid %d", resp.PID)
	}
	fmt.Fprintln(stdout, renderStatusLine("Engine", runningKind, runningDetail, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, resp.SocketPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Database", statusInfo, resp.DBPath, colorize))
	fmt.Fprintln(stdout, renderStatusLine("Watch", statusInfo, watchDetail(resp), colorize))
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Checks", colorize) {
		fmt.Fprintln(stdout, line)
	}
	if len(resp.Checks) == 0 {
		fmt.Fprintln(stdout, "No checks ran")
	}
	for _, check := range resp.Checks {
		kind := statusOK
		if !check.Passed {
			kind = statusWarn
		}
		fmt.Fprintln(stdout, renderStatusLine(check.Name, kind, check.Detail, colorize))
	}
	fmt.Fprintln(stdout)

	for _, line := range renderSectionHeader("Engine Counters", colorize) {
		fmt.Fprintln(stdout, line)
	}
	rows := [][]string{
		{"Tracked records", strconv.Itoa(resp.TrackedCount)},
		{"Active acquisitions", strconv.Itoa(resp.ActiveAcquisitions)},
		{"Pending overrides", strconv.Itoa(resp.PendingOverrides)},
		{"Armed overrides", strconv.Itoa(resp.ArmedOverrides)},
	}
	fmt.Fprintln(stdout, renderTable([]string{"Counter", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
}

func watchDetail(resp *ipc.StatusResponse) string {
	if !resp.WatchEnabled {
		return "disabled"
	}
	return fmt.Sprintf("enabled (%s)", resp.WatchDirectory)
}
