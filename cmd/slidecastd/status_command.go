package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"slidecast/internal/api"
	"slidecast/internal/deps"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, workflow, and dependency health",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var status api.DaemonStatus
			if err := ctx.getJSON(cmd.Context(), "/api/daemon/status", &status); err != nil {
				// Without a reachable daemon the dependency checks still run
				// locally so the operator learns what is missing.
				printSection(out, "Daemon", colorize)
				fmt.Fprintln(out, renderStatusLine("Running", statusError, err.Error(), colorize))
				fmt.Fprintln(out)
				return printLocalDependencies(ctx, out, colorize)
			}

			printSection(out, "Daemon", colorize)
			fmt.Fprintln(out, renderStatusLine("Running", okKind(status.Running), "", colorize))
			fmt.Fprintln(out, renderStatusLine("Version", statusInfo, status.Version, colorize))
			fmt.Fprintln(out, renderStatusLine("PID", statusInfo, fmt.Sprintf("%d", status.PID), colorize))
			fmt.Fprintln(out, renderStatusLine("Database", statusInfo, status.DBPath, colorize))
			fmt.Fprintln(out, renderStatusLine("Lock file", statusInfo, status.LockFilePath, colorize))
			fmt.Fprintln(out)

			printSection(out, "Workflow", colorize)
			fmt.Fprintln(out, renderStatusLine("Running", okKind(status.Workflow.Running), "", colorize))
			fmt.Fprintln(out, renderStatusLine("Active jobs", statusInfo, fmt.Sprintf("%d", status.Workflow.ActiveJobs), colorize))
			if status.Workflow.LastError != "" {
				fmt.Fprintln(out, renderStatusLine("Last error", statusWarn, status.Workflow.LastError, colorize))
			}
			if summary := sessionStatsSummary(status.Workflow.SessionStats); summary != "" {
				fmt.Fprintln(out, renderStatusLine("Sessions", statusInfo, summary, colorize))
			}
			for _, health := range status.Workflow.StageHealth {
				fmt.Fprintln(out, renderStatusLine(formatLabel(health.Name)+" stage", readyKind(health.Ready), health.Detail, colorize))
			}
			fmt.Fprintln(out)

			printSection(out, "Dependencies", colorize)
			for _, dep := range status.Dependencies {
				printDependencyLine(out, dep.Name, dep.Available, dep.Detail, dep.Solution, colorize)
			}
			return nil
		},
	}
}

func printLocalDependencies(ctx *commandContext, out io.Writer, colorize bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	printSection(out, "Dependencies", colorize)
	for _, dep := range deps.Check(cfg) {
		printDependencyLine(out, dep.Name, dep.Available, dep.Detail, dep.Solution, colorize)
	}
	return nil
}

func printDependencyLine(out io.Writer, name string, available bool, detail, solution string, colorize bool) {
	message := detail
	if !available && solution != "" {
		if message != "" {
			message += "; "
		}
		message += solution
	}
	fmt.Fprintln(out, renderStatusLine(formatLabel(name), readyKind(available), message, colorize))
}

func printSection(out io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
}

func sessionStatsSummary(stats map[string]int) string {
	if len(stats) == 0 {
		return ""
	}
	keys := make([]string, 0, len(stats))
	for key := range stats {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%d %s", stats[key], key))
	}
	return strings.Join(parts, ", ")
}

func okKind(value bool) statusKind {
	if value {
		return statusOK
	}
	return statusError
}

func readyKind(value bool) statusKind {
	if value {
		return statusOK
	}
	return statusWarn
}
