package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/store"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/utils"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	setFromStdin       bool
	unsetIgnoreMissing bool
)

func init() {
	setCmd.Flags().AddFlagSet(documentFlags())
	setCmd.Flags().BoolVar(&setFromStdin, "stdin", false, "read the value from stdin")

	unsetCmd.Flags().AddFlagSet(documentFlags())
	unsetCmd.Flags().BoolVar(&unsetIgnoreMissing, "ignore-missing", false, "do not fail when a path does not exist")
}

func resetSetCommandState() {
	setFromStdin = false
	unsetIgnoreMissing = false
}

var setCmd = &cobra.Command{
	Use:   "set <file> <path> [value]",
	Short: "Add or change one secret",
	Long: `Sets the value at a flattened path and re-encrypts the document.

An existing path keeps its position, a new path is appended. The value is
typed when written back: true/false become booleans, numbers become
numbers, null becomes null and anything else a string. Wrap a value in
quotes to force a string.

When no value is given it is read from stdin with --stdin, or prompted
for without echo.

The file is backed up while sops runs and restored if encryption fails.

Examples:
  sopsmith set secrets.json database.password
  sopsmith set .env API_TOKEN abc123
  echo -n "$TOKEN" | sopsmith set config.yaml api.token --stdin
  sopsmith set secrets.json port '"8080"'`,
	Args: cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting set command")

		value, err := readSetValue(args)
		if err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		spinner, cleanup := startSpinner("Encrypting...", verbose)
		defer cleanup()

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Edit(context.Background(), workflows.EditOptions{
			Open:      openOptions(path, tools),
			Set:       []transcode.Entry{{Path: args[1], Value: value}},
			Operation: "set",
		})
		if err != nil {
			return fail(spinner, err)
		}

		switch {
		case result.Added > 0:
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Added " + ui.Key.Sprint(args[1]) + " to " + ui.Path.Sprint(path)
		case result.Updated > 0:
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Updated " + ui.Key.Sprint(args[1]) + " in " + ui.Path.Sprint(path)
		default:
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " " + ui.Key.Sprint(args[1]) + " already has this value, nothing to save"
		}
		spinner.FinalMSG += saveWarnings(result.Save)
		return nil
	},
}

var unsetCmd = &cobra.Command{
	Use:   "unset <file> <path>...",
	Short: "Remove secrets from a document",
	Long: `Removes one or more flattened paths and re-encrypts the document.

Examples:
  sopsmith unset secrets.json database.password
  sopsmith unset .env OLD_TOKEN LEGACY_KEY --ignore-missing`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting unset command")
		spinner, cleanup := startSpinner("Encrypting...", verbose)
		defer cleanup()

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Edit(context.Background(), workflows.EditOptions{
			Open:          openOptions(path, tools),
			Unset:         args[1:],
			IgnoreMissing: unsetIgnoreMissing,
			Operation:     "unset",
		})
		if err != nil {
			return fail(spinner, err)
		}

		if result.Removed == 0 {
			spinner.FinalMSG = ui.Info.Sprint("ℹ") + " Nothing to remove from " + ui.Path.Sprint(path)
			return nil
		}
		spinner.FinalMSG = fmt.Sprintf("%s Removed %d %s from %s", ui.Success.Sprint("✓"), result.Removed,
			plural(result.Removed, "entry", "entries"), ui.Path.Sprint(path))
		spinner.FinalMSG += saveWarnings(result.Save)
		return nil
	},
}

// readSetValue returns the value argument, stdin or a hidden prompt.
func readSetValue(args []string) (string, error) {
	switch {
	case len(args) == 3 && setFromStdin:
		return "", fmt.Errorf("give the value as an argument or with --stdin, not both")
	case len(args) == 3:
		return args[2], nil
	case setFromStdin:
		return utils.ReadStdinValue()
	case utils.IsTerminal():
		return utils.ReadSecret(fmt.Sprintf("Value for %s: ", args[1]))
	default:
		return "", fmt.Errorf("no value given (pass it as an argument, use --stdin, or run in a terminal)")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// saveWarnings describes the non-fatal issues of a successful save.
func saveWarnings(result *store.SaveResult) string {
	if result == nil {
		return ""
	}
	var lines []string
	if result.RefreshErr != nil {
		lines = append(lines, ui.Warning.Sprint("⚠")+" Saved, but could not re-read which fields are encrypted: "+result.RefreshErr.Error())
	}
	if len(result.RemovedTemp) > 0 {
		Logger.Infof("Removed leftover sops files: %s", strings.Join(result.RemovedTemp, ", "))
	}
	if len(lines) == 0 {
		return ""
	}
	return "\n" + strings.Join(lines, "\n")
}
