package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	ansiReset = "\x1b[0m"
	ansiRed   = "\x1b[31m"
	ansiGreen = "\x1b[32m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon, stage, and queue status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := ctx.client().Status(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			fmt.Fprintf(out, "Daemon: %s\n", renderReadiness(status.Running, "running", "stopped", colorize))

			for _, s := range status.Stages {
				line := renderReadiness(s.Ready, "ready", "not ready", colorize)
				if s.Detail != "" {
					line += " (" + s.Detail + ")"
				}
				fmt.Fprintf(out, "  %-14s %s\n", s.Name+":", line)
			}

			rows := [][]string{
				{"pending", strconv.Itoa(status.Queue.Pending)},
				{"processing", strconv.Itoa(status.Queue.Processing)},
				{"completed", strconv.Itoa(status.Queue.Completed)},
				{"failed", strconv.Itoa(status.Queue.Failed)},
				{"total", strconv.Itoa(status.Queue.Total)},
			}
			fmt.Fprintln(out, renderTable([]string{"Queue", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}

func renderReadiness(ok bool, okLabel, badLabel string, colorize bool) string {
	if ok {
		if colorize {
			return ansiGreen + okLabel + ansiReset
		}
		return okLabel
	}
	if colorize {
		return ansiRed + badLabel + ansiReset
	}
	return badLabel
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
