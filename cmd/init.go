package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/transcode"
	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	initFileName       string
	initKeyIndexes     []int
	initPublicKeys     []string
	initEncryptedRegex string
)

func init() {
	initCmd.Flags().StringVar(&keyFileFlag, "key-file", "", "age key file to select keys from")
	initCmd.Flags().StringVar(&initFileName, "file", "secrets.json", "document name the creation rule applies to")
	initCmd.Flags().IntSliceVar(&initKeyIndexes, "key-index", nil, "encrypt for the n-th key of the key file (repeatable, 1-based)")
	initCmd.Flags().StringSliceVar(&initPublicKeys, "public-key", nil, "encrypt for this age public key (repeatable)")
	initCmd.Flags().StringVar(&initEncryptedRegex, "encrypted-regex", "", "only encrypt keys matching this regex (default: the configured manifest.encrypted_regex)")
}

func resetInitCommandState() {
	initFileName = "secrets.json"
	initKeyIndexes = nil
	initPublicKeys = nil
	initEncryptedRegex = ""
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a .sops.yaml for a directory",
	Long: `Writes a .sops.yaml with one creation rule so sops knows whom to encrypt
new documents for.

Recipients are picked from your key file with --key-index, or given
directly with --public-key for teammates. Only keys matching the encrypted
regex are encrypted; other keys stay readable.

An existing .sops.yaml is never overwritten.

Examples:
  sopsmith init --key-index 1
  sopsmith init services/api --file .env --key-index 1 --public-key age1...
  sopsmith keys list   # to find key indexes`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting init command")
		spinner, cleanup := startSpinner("Writing .sops.yaml...", verbose)
		defer cleanup()

		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		regex := initEncryptedRegex
		if regex == "" {
			regex = config.Manifest.EncryptedRegex
		}

		result, err := workflows.InitManifest(context.Background(), workflows.InitOptions{
			Dir:            dir,
			FileName:       initFileName,
			KeyIndexes:     initKeyIndexes,
			PublicKeys:     initPublicKeys,
			EncryptedRegex: regex,
			Tools:          tools,
		})
		if err != nil {
			return fail(spinner, err)
		}

		var b strings.Builder
		b.WriteString(ui.Success.Sprint("✓") + " Created " + ui.Path.Sprint(result.Path) + " for " + ui.Path.Sprint(initFileName))
		b.WriteString("\n\nRecipients:\n")
		for _, r := range result.Recipients {
			b.WriteString("  " + ui.Recipient.Sprint(r) + "\n")
		}
		b.WriteString("\n" + ui.Info.Sprint("→") + " Run " + ui.Code.Sprintf("sopsmith create %s --format %s", initFileName, transcode.DetectFormat(initFileName)) + " to create the document")
		spinner.FinalMSG = b.String()
		return nil
	},
}
