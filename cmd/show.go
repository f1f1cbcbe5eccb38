package cmd

import (
	"context"
	"encoding/json"
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
	showReveal bool
	showSearch string
	showRegex  bool
	showJSON   bool
)

func init() {
	showCmd.Flags().AddFlagSet(documentFlags())
	showCmd.Flags().BoolVarP(&showReveal, "reveal", "r", false, "print values instead of masking them")
	showCmd.Flags().StringVarP(&showSearch, "search", "s", "", "only show entries whose path or value contains this text")
	showCmd.Flags().BoolVar(&showRegex, "regex", false, "treat --search as a regular expression")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "output entries as a JSON array")
}

func resetShowCommandState() {
	showReveal = false
	showSearch = ""
	showRegex = false
	showJSON = false
}

// shownEntry is one row of show output.
type shownEntry struct {
	Path      string `json:"path"`
	Value     string `json:"value"`
	Encrypted bool   `json:"encrypted"`
}

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "List the secrets of an encrypted document",
	Long: `Decrypts a sops document and lists its entries as flattened paths.

Values are masked unless --reveal is given. Nested JSON and YAML keys are
joined with dots and array elements are shown as path[i]. The last column
tells whether sops encrypts the value or stores it in plain text.

The key is picked from the document's recipients unless --key or
--key-index is given. Use @n instead of a file to open the n-th favorite.

Examples:
  sopsmith show secrets.json
  sopsmith show .env --reveal
  sopsmith show config.yaml --search database
  sopsmith show @1 --json --reveal`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting show command")
		spinner, cleanup := startSpinner("Decrypting...", verbose)
		defer cleanup()

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return fail(spinner, err)
		}
		Logger.Debugf("Document: %s", path)

		session, opened, err := workflows.OpenSession(context.Background(), openOptions(path, tools))
		if err != nil {
			return fail(spinner, err)
		}
		if opened.KeyLabel != "" {
			Logger.Infof("Decrypted with key %s", opened.KeyLabel)
		}

		indexes, err := matchingEntries(session, showSearch, showRegex)
		if err != nil {
			return fail(spinner, err)
		}

		entries := session.Entries()
		rows := make([]shownEntry, 0, len(indexes))
		for _, i := range indexes {
			e := entries[i]
			value := e.Value
			if !showReveal {
				value = ui.Mask(value)
			}
			rows = append(rows, shownEntry{Path: e.Path, Value: value, Encrypted: session.IsEncrypted(e.Path)})
		}

		if showJSON {
			data, err := json.MarshalIndent(rows, "", "  ")
			if err != nil {
				return Logger.ErrorfAndReturn("failed to encode entries: %v", err)
			}
			spinner.FinalMSG = string(data)
			return nil
		}

		spinner.FinalMSG = renderEntries(path, session.Format(), rows, len(entries))
		return nil
	},
}

// matchingEntries returns the indexes of the entries matching query, or
// every index when query is empty.
func matchingEntries(session *store.Session, query string, regex bool) ([]int, error) {
	if query == "" {
		all := make([]int, session.Len())
		for i := range all {
			all[i] = i
		}
		return all, nil
	}
	return session.Search(query, regex)
}

func renderEntries(path string, format transcode.Format, rows []shownEntry, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s (%s, %d entries)\n", ui.Success.Sprint("✓"), ui.Path.Sprint(path), format, total)

	if len(rows) == 0 {
		b.WriteString("\nNo matching entries.")
		return b.String()
	}

	table := [][]string{{"PATH", "VALUE", "ENCRYPTED"}}
	for _, r := range rows {
		encrypted := "yes"
		if !r.Encrypted {
			encrypted = "no"
		}
		table = append(table, []string{r.Path, r.Value, encrypted})
	}

	b.WriteString("\n")
	b.WriteString(ui.Columns(table, func(col int, cell string) string {
		switch {
		case col == 0 && cell != "PATH":
			return ui.Key.Sprint(cell)
		case col == 2 && cell == "no":
			return ui.Warning.Sprint(cell)
		default:
			return cell
		}
	}))

	if !showReveal && utils.IsStdoutTerminal() {
		b.WriteString("\n" + ui.Info.Sprint("→") + " Use " + ui.Flag.Sprint("--reveal") + " to print the values")
	}
	return b.String()
}
