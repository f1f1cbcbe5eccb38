package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	importFrom    string
	importReplace bool
	importExpand  bool
	importDryRun  bool
)

func init() {
	importCmd.Flags().AddFlagSet(documentFlags())
	importCmd.Flags().StringVar(&importFrom, "from", "", "source format: json, yaml, dotenv or ini (default: from the source file name)")
	importCmd.Flags().BoolVar(&importReplace, "replace", false, "replace every entry instead of merging")
	importCmd.Flags().BoolVar(&importExpand, "expand", false, "expand ${VAR} references in dotenv sources")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "show what would change without saving")
}

func resetImportCommandState() {
	importFrom = ""
	importReplace = false
	importExpand = false
	importDryRun = false
}

var importCmd = &cobra.Command{
	Use:   "import <file> <source>",
	Short: "Copy plaintext secrets into an encrypted document",
	Long: `Reads a plaintext dotenv, INI, JSON or YAML file and writes its entries into
an encrypted document.

By default entries are merged: existing paths are updated in place and new
paths are appended. With --replace the document ends up holding exactly the
source entries.

Dotenv sources are read the way sopsmith exports them. Use --expand to
resolve ${VAR} references instead; keys are then imported in sorted order.

Examples:
  sopsmith import secrets.json .env.local
  sopsmith import .env exported.env --replace
  sopsmith import config.yaml plain.yaml --dry-run`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting import command")
		spinner, cleanup := startSpinner("Importing...", verbose)
		defer cleanup()

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return fail(spinner, err)
		}

		result, err := workflows.Import(context.Background(), workflows.ImportOptions{
			Open:         openOptions(path, tools),
			Source:       args[1],
			SourceFormat: importFrom,
			Replace:      importReplace,
			Expand:       importExpand,
			DryRun:       importDryRun,
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = formatImportResult(path, result, importDryRun)
		return nil
	},
}

func formatImportResult(path string, result *workflows.ImportResult, dryRun bool) string {
	changes := len(result.Added) + len(result.Updated) + len(result.Removed)
	if changes == 0 {
		return ui.Info.Sprint("ℹ") + " " + ui.Path.Sprint(path) + " already holds these entries, nothing to import"
	}

	var b strings.Builder
	if dryRun {
		b.WriteString(ui.Info.Sprint("ℹ") + " Dry run, " + ui.Path.Sprint(path) + " was not changed\n")
	} else {
		b.WriteString(ui.Success.Sprint("✓") + " Imported into " + ui.Path.Sprint(path) + "\n")
	}

	section := func(label string, paths []string) {
		if len(paths) == 0 {
			return
		}
		fmt.Fprintf(&b, "\n%s (%d):\n", label, len(paths))
		for _, p := range paths {
			b.WriteString("  " + ui.Key.Sprint(p) + "\n")
		}
	}
	section("Added", result.Added)
	section("Updated", result.Updated)
	section("Removed", result.Removed)

	if result.Save != nil {
		b.WriteString(saveWarnings(result.Save))
	}
	return b.String()
}
