package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/sops"
	"github.com/PolarWolf314/sopsmith/internal/transcode"
	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	createFormat   string
	createDir      string
	createFavorite bool
)

func init() {
	createCmd.Flags().AddFlagSet(keyFlags())
	createCmd.Flags().StringVar(&createFormat, "format", "json", "document format: json, yaml, dotenv or ini")
	createCmd.Flags().StringVar(&createDir, "dir", ".", "directory to create the document in")
	createCmd.Flags().BoolVar(&createFavorite, "favorite", false, "add the new document to your favorites")
}

func resetCreateCommandState() {
	createFormat = "json"
	createDir = "."
	createFavorite = false
}

var createCmd = &cobra.Command{
	Use:   "create [name]",
	Short: "Create a new encrypted document",
	Long: `Creates a new sops document holding one example entry and encrypts it with
the creation rules of the nearest .sops.yaml.

The name defaults to "secrets" and gets the extension of the format unless
it already has it or starts with a dot, so "create .env --format dotenv"
creates .env.

Examples:
  sopsmith create
  sopsmith create api --format yaml
  sopsmith create .env --format dotenv --dir services/api`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting create command")
		spinner, cleanup := startSpinner("Creating document...", verbose)
		defer cleanup()

		format, err := transcode.ParseFormat(createFormat)
		if err != nil {
			return fail(spinner, err)
		}
		var name string
		if len(args) == 1 {
			name = args[0]
		}

		dir, err := filepath.Abs(createDir)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to resolve %s: %v", createDir, err)
		}
		manifestDir, err := sops.FindManifestDir(dir)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to look for %s: %v", sops.ManifestName, err)
		}
		if manifestDir == "" {
			return fail(spinner, fmt.Errorf("%w: in %s or any parent directory", kerrors.ErrManifestNotFound, dir))
		}
		Logger.Debugf("Using %s", filepath.Join(manifestDir, sops.ManifestName))

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		result, err := workflows.Create(context.Background(), workflows.CreateOptions{
			Dir:    dir,
			Name:   name,
			Format: format,
			Tools:  tools,
		})
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Created " + ui.Path.Sprint(result.Path) + " (" + result.Format.String() + ")"

		if createFavorite && config.AddFavorite(result.Path) {
			if err := saveFavorites(config); err != nil {
				return Logger.ErrorfAndReturn("failed to save favorites: %v", err)
			}
			spinner.FinalMSG += "\n" + ui.Success.Sprint("✓") + " Added to favorites"
		}

		spinner.FinalMSG += "\n" + ui.Info.Sprint("→") + " Run " +
			ui.Code.Sprintf("sopsmith set %s <path> <value>", result.Path) + " to add your secrets"
		return nil
	},
}
