package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelingest/internal/records"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the ingestion queue",
	}

	queueCmd.AddCommand(newQueueStatusCommand(ctx))
	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))

	return queueCmd
}

func (c *commandContext) withStore(fn func(*records.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	store, err := records.Open(cfg)
	if err != nil {
		return fmt.Errorf("open record store: %w", err)
	}
	defer store.Close()
	return fn(store)
}

func newQueueStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show record counts per lifecycle state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *records.Store) error {
				summary, err := store.Health(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if summary.Total == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}
				rows := [][]string{
					{"pending", strconv.Itoa(summary.Pending)},
					{"processing", strconv.Itoa(summary.Processing)},
					{"completed", strconv.Itoa(summary.Completed)},
					{"failed", strconv.Itoa(summary.Failed)},
					{"total", strconv.Itoa(summary.Total)},
				}
				fmt.Fprintln(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var listStatuses []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued records",
		RunE: func(cmd *cobra.Command, args []string) error {
			var statuses []records.Status
			for _, raw := range listStatuses {
				status, ok := records.ParseStatus(raw)
				if !ok {
					return fmt.Errorf("unknown status %q", raw)
				}
				statuses = append(statuses, status)
			}

			return ctx.withStore(func(store *records.Store) error {
				items, err := store.List(cmd.Context(), statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "Queue is empty")
					return nil
				}

				rows := make([][]string, 0, len(items))
				for _, rec := range items {
					title := rec.Title
					if title == "" {
						title = rec.SourceURL
					}
					rows = append(rows, []string{
						strconv.FormatInt(rec.ID, 10),
						rec.JobID,
						truncate(title, 40),
						rec.Platform,
						string(rec.Status),
						rec.CreatedAt.Local().Format(time.DateTime),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Job", "Title", "Platform", "Status", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&listStatuses, "status", nil, "Filter by status (repeatable)")
	return cmd
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry [id...]",
		Short: "Retry failed records (all failed records when no ids given)",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
				if err != nil {
					return fmt.Errorf("invalid record id %q", arg)
				}
				ids = append(ids, id)
			}

			return ctx.withStore(func(store *records.Store) error {
				count, err := store.RetryFailed(cmd.Context(), ids...)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Requeued %d record(s)\n", count)
				return nil
			})
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove completed and failed records",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *records.Store) error {
				count, err := store.Clear(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d record(s)\n", count)
				return nil
			})
		},
	}
}
