package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelingest/internal/apiclient"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var interest string
	var collectionID string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Submit a video URL for ingestion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := ctx.client()
			resp, err := client.Submit(cmd.Context(), apiclient.SubmitRequest{
				SourceURL:    strings.TrimSpace(args[0]),
				Interest:     interest,
				CollectionID: collectionID,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Accepted job %s\n", resp.JobID)
			if !wait {
				return nil
			}
			return waitForJob(cmd, client, resp.JobID)
		},
	}

	cmd.Flags().StringVar(&interest, "interest", "", "Interest tag to store with the record")
	cmd.Flags().StringVar(&collectionID, "collection", "", "Collection identifier to store with the record")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job reaches a terminal state")
	return cmd
}

func waitForJob(cmd *cobra.Command, client *apiclient.Client, jobID string) error {
	out := cmd.OutOrStdout()
	lastStatus := ""
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		job, err := client.Job(cmd.Context(), jobID)
		if err != nil {
			return err
		}
		if job.Status != lastStatus {
			fmt.Fprintf(out, "  %s\n", job.Status)
			lastStatus = job.Status
		}
		switch job.Status {
		case "completed":
			fmt.Fprintf(out, "Playback: %s\n", job.PlaybackURL)
			return nil
		case "failed":
			return fmt.Errorf("job failed: %s", job.Error)
		}

		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-ticker.C:
		}
	}
}
