package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"bigsis-chat/internal/pkg/logger"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	logsLevel  string
	logsLimit  int
	logsOffset int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show recent log entries, newest first",
	RunE:  runLogs,
}

func init() {
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Only show this level (debug, info, warn, error)")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 20, "Maximum number of entries")
	logsCmd.Flags().IntVar(&logsOffset, "offset", 0, "Entries to skip")
}

func runLogs(cmd *cobra.Command, args []string) error {
	var reader logger.LogReader = logger.NewIsolatedLogger(cfg.App.LogFilePath, false)

	entries, err := reader.GetLogs(strings.ToUpper(logsLevel), logsLimit, logsOffset)
	if err != nil {
		return fmt.Errorf("read logs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintf(out, "No log entries in %s\n", cfg.App.LogFilePath)
		return nil
	}
	for _, e := range entries {
		levelColor(e.Level).Fprintf(out, "%-5s ", e.Level)
		fmt.Fprintf(out, "%s [%s] %s", e.Timestamp, e.Module, e.Message)
		if len(e.Details) > 0 {
			details, _ := json.Marshal(e.Details)
			color.New(color.FgHiBlack).Fprintf(out, " %s", details)
		}
		fmt.Fprintln(out)
	}
	return nil
}

func levelColor(level string) *color.Color {
	switch level {
	case "ERROR":
		return color.New(color.FgRed)
	case "WARN":
		return color.New(color.FgYellow)
	case "DEBUG":
		return color.New(color.FgHiBlack)
	default:
		return color.New(color.FgCyan)
	}
}
