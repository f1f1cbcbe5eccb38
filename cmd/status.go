package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	statusJSONOutput bool
	statusPatterns   []string
)

func init() {
	statusCmd.Flags().StringVar(&keyFileFlag, "key-file", "", "age key file to match recipients against")
	statusCmd.Flags().BoolVar(&statusJSONOutput, "json", false, "output in JSON format")
	statusCmd.Flags().StringSliceVarP(&statusPatterns, "pattern", "p", nil, "glob of files to inspect, ** matches directories (repeatable)")
}

func resetStatusCommandState() {
	statusJSONOutput = false
	statusPatterns = nil
}

var statusCmd = &cobra.Command{
	Use:   "status [dir]",
	Short: "Show the sops documents in a directory tree",
	Long: `Scans a directory tree for sops documents and reports whether you can open
them.

Each file has one of three statuses:
  - ready:       encrypted, and one of your keys is a recipient
  - no_key:      encrypted, but none of your keys is a recipient
  - unencrypted: a .sops.yaml rule covers the file but it is not encrypted

Files that are neither encrypted nor covered by a rule are not listed.
Use --json for machine-readable output.

Examples:
  sopsmith status
  sopsmith status services --pattern '**/*.env'
  sopsmith status --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting status command")

		root := "."
		if len(args) == 1 {
			root = args[0]
		}

		tools, _, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		result, err := workflows.Status(context.Background(), workflows.StatusOptions{
			Root:     root,
			Patterns: statusPatterns,
			Tools:    tools,
		})
		if err != nil {
			if statusJSONOutput {
				fmt.Printf("{\"error\": %s}\n", strconv.Quote(err.Error()))
				return &reportedError{err: err}
			}
			return report(err)
		}
		Logger.Debugf("Found %d files below %s", len(result.Files), result.Root)

		if statusJSONOutput {
			return outputStatusJSON(result)
		}
		printStatusTable(result)
		return nil
	},
}

// outputStatusJSON outputs the result as JSON.
func outputStatusJSON(result *workflows.StatusResult) error {
	if result.Files == nil {
		result.Files = []workflows.FileStatusInfo{}
	}
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// printStatusTable prints a formatted table of file statuses.
func printStatusTable(result *workflows.StatusResult) {
	fmt.Printf("Directory: %s\n", ui.Path.Sprint(result.Root))
	fmt.Println()

	if len(result.Files) == 0 {
		fmt.Println(ui.Success.Sprint("✓") + " No sops documents found.")
		return
	}

	rows := [][]string{{"FILE", "FORMAT", "STATUS", "KEYS"}}
	for _, file := range result.Files {
		keys := "-"
		if len(file.Keys) > 0 {
			keys = strings.Join(file.Keys, ", ")
		}
		rows = append(rows, []string{file.Path, file.Format.String(), string(file.Status), keys})
	}

	fmt.Print(ui.Columns(rows, func(col int, cell string) string {
		if col != 2 {
			return cell
		}
		switch workflows.FileStatus(cell) {
		case workflows.StatusReady:
			return ui.Success.Sprint(cell)
		case workflows.StatusNoKey:
			return ui.Warning.Sprint(cell)
		case workflows.StatusUnencrypted:
			return ui.Error.Sprint(cell)
		default:
			return cell
		}
	}))

	fmt.Println()
	fmt.Println("Summary:")
	if result.Summary.Ready > 0 {
		fmt.Printf("  %d file(s) ready\n", result.Summary.Ready)
	}
	if result.Summary.NoKey > 0 {
		fmt.Printf("  %d file(s) not encrypted for any of your keys (run '%s' for details)\n",
			result.Summary.NoKey, ui.Code.Sprint("sopsmith keys match <file>"))
	}
	if result.Summary.Unencrypted > 0 {
		fmt.Printf("  %d file(s) not encrypted (run '%s' to secure)\n",
			result.Summary.Unencrypted, ui.Code.Sprint("sops --encrypt -i <file>"))
	}
}
