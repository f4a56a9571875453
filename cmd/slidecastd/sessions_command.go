package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"slidecast/internal/api"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var statusFilters []string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List sessions known to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			for _, status := range statusFilters {
				query.Add("status", status)
			}
			path := "/api/sessions"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var resp api.SessionListResponse
			if err := ctx.getJSON(cmd.Context(), path, &resp); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(resp)
			}

			if len(resp.Sessions) == 0 {
				fmt.Fprintln(out, "No sessions")
				return nil
			}

			headers := []string{"SESSION", "STATUS", "STAGE", "PROGRESS", "IMAGES", "UPDATED", "VIDEO"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
			rows := make([][]string, 0, len(resp.Sessions))
			for _, sess := range resp.Sessions {
				rows = append(rows, []string{
					sess.SessionID,
					formatLabel(sess.Status),
					formatLabel(sess.Stage),
					fmt.Sprintf("%.0f%%", sess.Progress),
					fmt.Sprintf("%d", sess.AssetCount),
					relativeTime(sess.UpdatedAt),
					videoName(sess.VideoFile),
				})
			}
			fmt.Fprintln(out, renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&statusFilters, "status", nil, "Only show sessions with the given status (repeatable)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the raw JSON listing")
	return cmd
}

func relativeTime(value string) string {
	if value == "" {
		return ""
	}
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return humanize.Time(parsed)
}

func videoName(videoFile string) string {
	if videoFile == "" {
		return ""
	}
	return filepath.Base(videoFile)
}
