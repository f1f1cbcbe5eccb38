package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	keysComment string
	keysYes     bool
)

func init() {
	KeysCmd.PersistentFlags().StringVar(&keyFileFlag, "key-file", "", "age key file (default: $SOPS_AGE_KEY_FILE, the configured key_file, or ~/.config/sops/age/keys.txt)")

	keysGenerateCmd.Flags().StringVarP(&keysComment, "comment", "c", "", "label stored above the key")
	keysDeleteCmd.Flags().BoolVarP(&keysYes, "yes", "y", false, "skip the confirmation prompt")

	KeysCmd.AddCommand(keysListCmd)
	KeysCmd.AddCommand(keysGenerateCmd)
	KeysCmd.AddCommand(keysDeleteCmd)
	KeysCmd.AddCommand(keysMatchCmd)
}

func resetKeysCommandState() {
	keysComment = ""
	keysYes = false
}

// KeysCmd groups the age key file commands.
var KeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage your age keys",
	Long: `Lists, generates and deletes the age keys in your key file, and shows which
of them can open a document.

Keys are numbered from 1 in file order. Use the number with --key-index.`,
}

var keysListCmd = &cobra.Command{
	Use:   "list [query]",
	Short: "List the keys of the key file",
	Long: `Lists the keys of the key file with their comment and public key. The
private keys are never printed.

A query filters by comment or public key, ignoring case.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys list command")

		tools, _, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		var query string
		if len(args) == 1 {
			query = args[0]
		}

		infos, err := workflows.ListKeys(context.Background(), workflows.ListKeysOptions{Query: query, Tools: tools})
		if err != nil {
			return report(err)
		}

		fmt.Printf("Key file: %s\n\n", ui.Path.Sprint(tools.KeyFile))
		if len(infos) == 0 {
			if query != "" {
				fmt.Println("No keys match " + ui.Highlight.Sprint(query) + ".")
			} else {
				fmt.Println("No keys found.")
				fmt.Println(ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("sopsmith keys generate") + " to create one")
			}
			return nil
		}
		fmt.Print(renderKeys(infos, 0))
		return nil
	},
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new age key",
	Long: `Generates a new X25519 age key and appends it to the key file, creating the
file with mode 0600 if needed.

Examples:
  sopsmith keys generate --comment "work laptop"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys generate command")
		spinner, cleanup := startSpinner("Generating key...", verbose)
		defer cleanup()

		tools, _, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		info, err := workflows.GenerateKey(context.Background(), keysComment, tools)
		if err != nil {
			return fail(spinner, err)
		}

		spinner.FinalMSG = fmt.Sprintf("%s Generated key #%d in %s\n\nPublic key: %s\n%s Share the public key with whoever manages your .sops.yaml",
			ui.Success.Sprint("✓"), info.Index, ui.Path.Sprint(tools.KeyFile),
			ui.Recipient.Sprint(info.PublicKey), ui.Info.Sprint("→"))
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <n>",
	Short: "Delete a key from the key file",
	Long: `Removes the n-th key, and the comment lines above it, from the key file.

Documents encrypted only for this key can no longer be opened. You are asked
to confirm unless --yes is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys delete command")

		index, err := strconv.Atoi(args[0])
		if err != nil {
			return Logger.ErrorfAndReturn("invalid key number %q", args[0])
		}

		tools, _, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}

		if !keysYes {
			fmt.Printf("This will permanently delete key #%d from %s.\n", index, tools.KeyFile)
			fmt.Println("Documents encrypted only for this key cannot be recovered.")
			fmt.Println()
			if !confirmAction("Do you want to continue?") {
				fmt.Println("Aborted.")
				return nil
			}
		}

		spinner, cleanup := startSpinner("Deleting key...", verbose)
		defer cleanup()

		info, err := workflows.DeleteKey(context.Background(), index, tools)
		if err != nil {
			return fail(spinner, err)
		}

		label := ui.Recipient.Sprint(info.PublicKey)
		if info.Comment != "" {
			label = ui.Highlight.Sprint(info.Comment) + " " + ui.Muted.Sprint(info.PublicKey)
		}
		spinner.FinalMSG = fmt.Sprintf("%s Deleted key #%d %s", ui.Success.Sprint("✓"), info.Index, label)
		return nil
	},
}

var keysMatchCmd = &cobra.Command{
	Use:   "match <file>",
	Short: "Show which of your keys can open a document",
	Long: `Lists the age recipients of a sops document and marks the local keys among
them. The key marked with * is the one used when no --key-index is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting keys match command")

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return report(err)
		}

		result, err := workflows.MatchKeys(context.Background(), path, tools)
		if err != nil {
			return report(err)
		}

		fmt.Printf("Recipients of %s:\n", ui.Path.Sprint(path))
		if len(result.Recipients) == 0 {
			fmt.Println("  " + ui.Muted.Sprint("none"))
		}
		for _, r := range result.Recipients {
			fmt.Println("  " + r)
		}
		fmt.Println()

		if len(result.Keys) == 0 {
			fmt.Println(ui.Warning.Sprint("⚠") + " None of your keys is a recipient of this document.")
			return nil
		}
		fmt.Println("Your keys that can open it:")
		fmt.Print(renderKeys(result.Keys, result.AutoDetected))
		return nil
	},
}

// renderKeys prints keys as a table. The key with index marked, if any,
// gets a * in front of its number.
func renderKeys(infos []workflows.KeyInfo, marked int) string {
	rows := [][]string{{"#", "COMMENT", "PUBLIC KEY"}}
	for _, info := range infos {
		n := strconv.Itoa(info.Index)
		if info.Index == marked {
			n = "*" + n
		}
		pub := info.PublicKey
		if info.Err != nil {
			pub = "unknown: " + info.Err.Error()
		}
		rows = append(rows, []string{n, info.Comment, pub})
	}
	return ui.Columns(rows, func(col int, cell string) string {
		if col == 2 && strings.HasPrefix(cell, "unknown: ") {
			return ui.Error.Sprint(cell)
		}
		return cell
	})
}
