package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/audit"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	logLimit     int
	logReverse   bool
	logFile      string
	logOperation string
	logSince     string
	logUntil     string
	logJSON      bool
)

func init() {
	logCmd.Flags().IntVarP(&logLimit, "number", "n", 0, "limit number of entries shown")
	logCmd.Flags().BoolVar(&logReverse, "reverse", false, "show most recent entries first")
	logCmd.Flags().StringVar(&logFile, "file", "", "only show entries about this document")
	logCmd.Flags().StringVar(&logOperation, "operation", "", "filter by operation (comma-separated, e.g. edit,export)")
	logCmd.Flags().StringVar(&logSince, "since", "", "show entries on or after date (YYYY-MM-DD)")
	logCmd.Flags().StringVar(&logUntil, "until", "", "show entries on or before date (YYYY-MM-DD)")
	logCmd.Flags().BoolVar(&logJSON, "json", false, "output as JSON array")
}

func resetLogCommandState() {
	logLimit = 0
	logReverse = false
	logFile = ""
	logOperation = ""
	logSince = ""
	logUntil = ""
	logJSON = false
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "View the audit log",
	Long: `Displays the local audit log of sopsmith operations.

Every open, edit, import, export, create and key change is recorded with
the document path and the secret paths involved. Secret values are never
logged.

Examples:
  sopsmith log                         # View full log
  sopsmith log -n 10 --reverse         # Last 10 entries, most recent first
  sopsmith log --file secrets.json     # Entries about one document
  sopsmith log --operation edit,export # Filter by operation
  sopsmith log --since 2026-01-01      # Filter by date
  sopsmith log --json                  # JSON output`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting log command")

		result, err := workflows.Log(context.Background(), workflows.LogOptions{
			Limit:      logLimit,
			Reverse:    logReverse,
			File:       logFile,
			Operations: logOperation,
			Since:      logSince,
			Until:      logUntil,
		})
		if err != nil {
			return report(err)
		}
		Logger.Debugf("Parsed %d entries from %s", result.Total, audit.LogPath())

		if len(result.Entries) == 0 {
			if result.Total == 0 {
				fmt.Println("No audit log entries found.")
			} else {
				fmt.Println("No audit log entries found matching the filters.")
			}
			return nil
		}

		if logJSON {
			data, err := json.MarshalIndent(result.Entries, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal entries to JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		for _, e := range result.Entries {
			fmt.Printf("%-19s  %-12s  %-13s  %s\n", workflows.FormatDateTime(e.Timestamp), e.User, e.Operation, workflows.FormatDetails(e))
		}
		return nil
	},
}
