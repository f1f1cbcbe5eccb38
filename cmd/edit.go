package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/store"
	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

// Replaced by tests.
var (
	editInput io.Reader         = os.Stdin
	editClock func() time.Time = time.Now
)

func init() {
	editCmd.Flags().AddFlagSet(documentFlags())
}

const editHelp = `Commands:
  list [query]          list paths, optionally those containing query
  grep <regex>          list paths or values matching a regular expression
  get <path>            print a value
  set <path> <value>    add or change a value (the rest of the line)
  mv <path> <new path>  rename a path, keeping its position and value
  rm <path>             remove a path
  save                  encrypt and write the document
  quit                  leave, refusing when there are unsaved changes
  quit!                 leave and discard unsaved changes
  help                  show this help`

var editCmd = &cobra.Command{
	Use:   "edit <file>",
	Short: "Edit a document interactively",
	Long: `Opens a sops document in an interactive session. Changes are kept in
memory until you type "save", which encrypts the whole document once.

The session locks itself after auto_lock_minutes without input (15 by
default, 0 disables it) and discards unsaved changes.

` + editHelp,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting edit command")

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return report(err)
		}

		session, opened, err := workflows.OpenSession(context.Background(), openOptions(path, tools),
			store.WithAutoLock(config.AutoLock()), store.WithClock(editClock))
		if err != nil {
			return report(err)
		}

		fmt.Printf("%s Opened %s (%s, %d entries)", ui.Success.Sprint("✓"), ui.Path.Sprint(path), session.Format(), session.Len())
		if opened.KeyLabel != "" {
			fmt.Printf(" with key %s", opened.KeyLabel)
		}
		fmt.Println()
		fmt.Println(ui.Info.Sprint("→") + " Type " + ui.Code.Sprint("help") + " for commands")

		return runEditLoop(session, editInput)
	},
}

// editShell holds the state of one interactive session.
type editShell struct {
	session *store.Session
	changed []string
}

func runEditLoop(session *store.Session, in io.Reader) error {
	shell := &editShell{session: session}
	scanner := bufio.NewScanner(in)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			if session.Modified() {
				Logger.WarnfAlways("Input closed, unsaved changes to %s were discarded", session.Path())
			}
			return scanner.Err()
		}

		if session.ShouldAutoLock() {
			path := session.Path()
			session.Lock()
			fmt.Println(ui.Warning.Sprint("⚠") + " Session locked after inactivity, unsaved changes to " +
				ui.Path.Sprint(path) + " were discarded")
			return nil
		}
		session.Touch()

		done, err := shell.run(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Println(formatError(err))
		}
		if done {
			return nil
		}
	}
}

// run executes one command line. It reports true when the session ends.
func (sh *editShell) run(line string) (bool, error) {
	if line == "" {
		return false, nil
	}
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)
	s := sh.session

	switch name {
	case "help", "?":
		fmt.Println(editHelp)

	case "list", "ls":
		indexes, err := matchingEntries(s, rest, false)
		if err != nil {
			return false, err
		}
		sh.list(indexes)

	case "grep":
		indexes, err := matchingEntries(s, rest, true)
		if err != nil {
			return false, err
		}
		sh.list(indexes)

	case "get":
		i, err := sh.find(rest)
		if err != nil {
			return false, err
		}
		fmt.Println(s.Entries()[i].Value)

	case "set":
		path, value, _ := strings.Cut(rest, " ")
		if path == "" {
			return false, fmt.Errorf("%w: usage: set <path> <value>", kerrors.ErrInvalidPath)
		}
		if err := s.Set(path, value); err != nil {
			return false, err
		}
		sh.changed = append(sh.changed, path)

	case "mv":
		from, to, _ := strings.Cut(rest, " ")
		to = strings.TrimSpace(to)
		if to == "" {
			return false, fmt.Errorf("%w: usage: mv <path> <new path>", kerrors.ErrInvalidPath)
		}
		i, err := sh.find(from)
		if err != nil {
			return false, err
		}
		if err := s.Edit(i, to, s.Entries()[i].Value); err != nil {
			return false, err
		}
		sh.changed = append(sh.changed, from, to)

	case "rm":
		i, err := sh.find(rest)
		if err != nil {
			return false, err
		}
		if err := s.Delete(i); err != nil {
			return false, err
		}
		sh.changed = append(sh.changed, rest)

	case "save":
		if !s.Modified() {
			fmt.Println(ui.Info.Sprint("ℹ") + " Nothing to save")
			return false, nil
		}
		result, err := workflows.Save(context.Background(), s, "edit", sh.changed)
		if err != nil {
			return false, err
		}
		sh.changed = nil
		fmt.Println(ui.Success.Sprint("✓") + " Saved " + ui.Path.Sprint(result.Path) + saveWarnings(result))

	case "quit", "exit":
		if s.Modified() {
			fmt.Println(ui.Warning.Sprint("⚠") + " There are unsaved changes. Type " + ui.Code.Sprint("save") +
				" first, or " + ui.Code.Sprint("quit!") + " to discard them")
			return false, nil
		}
		return true, nil

	case "quit!", "exit!":
		s.Lock()
		return true, nil

	default:
		fmt.Println(ui.Error.Sprint("✗") + " Unknown command " + ui.Highlight.Sprint(name) + ", type " + ui.Code.Sprint("help"))
	}
	return false, nil
}

func (sh *editShell) find(path string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("%w: no path given", kerrors.ErrInvalidPath)
	}
	i, ok := sh.session.Find(path)
	if !ok {
		return 0, fmt.Errorf("%w: %s", kerrors.ErrEntryNotFound, path)
	}
	return i, nil
}

func (sh *editShell) list(indexes []int) {
	if len(indexes) == 0 {
		fmt.Println("No matching entries.")
		return
	}
	entries := sh.session.Entries()
	rows := make([][]string, 0, len(indexes))
	for _, i := range indexes {
		mark := ""
		if !sh.session.IsEncrypted(entries[i].Path) {
			mark = "plain"
		}
		rows = append(rows, []string{entries[i].Path, ui.Mask(entries[i].Value), mark})
	}
	fmt.Print(ui.Columns(rows, func(col int, cell string) string {
		switch col {
		case 0:
			return ui.Key.Sprint(cell)
		case 2:
			return ui.Warning.Sprint(cell)
		default:
			return cell
		}
	}))
}
