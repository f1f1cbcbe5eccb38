package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	exportOutputPath string
	exportTo         string
	exportForce      bool
)

func init() {
	exportCmd.Flags().AddFlagSet(documentFlags())
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "", "write the plaintext to this file (mode 0600) instead of stdout")
	exportCmd.Flags().StringVar(&exportTo, "to", "", "output format: json, yaml, dotenv or ini (default: the document's format)")
	exportCmd.Flags().BoolVarP(&exportForce, "force", "f", false, "overwrite an existing output file")
}

// resetExportCommandState resets the export command's global state for testing.
func resetExportCommandState() {
	exportOutputPath = ""
	exportTo = ""
	exportForce = false
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write a decrypted copy of a document",
	Long: `Decrypts a sops document and writes it as plaintext, optionally in another
format.

Dotenv and INI output quote values that need it, so an exported file can be
imported back unchanged. JSON and YAML output are rebuilt from the flattened
entries.

The plaintext is written to stdout unless -o/--output is given. Output files
are created with mode 0600 and never overwritten without --force.

Examples:
  sopsmith export secrets.json --to dotenv > .env.local
  sopsmith export config.yaml -o config.plain.yaml
  sopsmith export .env --to json -o env.json --force`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting export command")

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return report(err)
		}

		opts := workflows.ExportOptions{
			Open:       openOptions(path, tools),
			Format:     exportTo,
			OutputPath: exportOutputPath,
			Force:      exportForce,
		}

		// Plaintext on stdout must not be mixed with spinner output.
		if exportOutputPath == "" {
			if _, err := workflows.Export(context.Background(), opts); err != nil {
				return report(err)
			}
			return nil
		}

		spinner, cleanup := startSpinner("Exporting...", verbose)
		defer cleanup()

		result, err := workflows.Export(context.Background(), opts)
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = fmt.Sprintf("%s Exported %d %s from %s to %s (%s)\n%s The file holds plaintext secrets, delete it when done",
			ui.Success.Sprint("✓"), result.Entries, plural(result.Entries, "entry", "entries"),
			ui.Path.Sprint(path), ui.Path.Sprint(result.OutputPath), result.Format,
			ui.Warning.Sprint("⚠"))
		return nil
	},
}
