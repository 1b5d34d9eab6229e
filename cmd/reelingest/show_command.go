package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"reelingest/internal/apiclient"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Display a single ingestion job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := ctx.client().Job(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, apiclient.ErrNotFound) {
					return fmt.Errorf("job %s not found", args[0])
				}
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(job)
			}

			rows := [][]string{
				{"Job", job.JobID},
				{"Source", job.SourceURL},
				{"Platform", job.Platform},
				{"Status", job.Status},
				{"Title", job.Title},
				{"Author", job.Author},
			}
			if len(job.Hashtags) > 0 {
				rows = append(rows, []string{"Hashtags", strings.Join(job.Hashtags, " ")})
			}
			if job.PlaybackURL != "" {
				rows = append(rows,
					[]string{"Playback", job.PlaybackURL},
					[]string{"Direct", job.DirectURL},
					[]string{"Thumbnail", job.ThumbnailURL},
				)
			}
			rows = append(rows, []string{"Transcription", job.Transcription})
			if job.VisualContext != "" {
				rows = append(rows, []string{"Visual context", truncate(job.VisualContext, 72)})
			}
			if job.Error != "" {
				rows = append(rows, []string{"Error", job.Error})
			}
			fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))

			if job.Transcript != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "Transcript:")
				fmt.Fprintln(out, job.Transcript)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the job as JSON")
	return cmd
}

func newRecordsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "records",
		Short: "List videos published to the CDN",
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := ctx.client().Records(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(jobs) == 0 {
				fmt.Fprintln(out, "No published records")
				return nil
			}

			rows := make([][]string, 0, len(jobs))
			for _, job := range jobs {
				title := job.Title
				if title == "" {
					title = job.SourceURL
				}
				rows = append(rows, []string{
					job.JobID,
					truncate(title, 48),
					job.Platform,
					job.Status,
					job.PlaybackURL,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Job", "Title", "Platform", "Status", "Playback"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	if limit <= 3 {
		return value[:limit]
	}
	return value[:limit-3] + "..."
}
