package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	kerrors "github.com/PolarWolf314/sopsmith/internal/errors"
	"github.com/PolarWolf314/sopsmith/internal/ui"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

func init() {
	getCmd.Flags().AddFlagSet(documentFlags())
}

var getCmd = &cobra.Command{
	Use:   "get <file> <path>",
	Short: "Print one decrypted value",
	Long: `Decrypts a sops document and prints the value stored at a flattened path.

The value is printed as-is followed by a newline, so it can be captured by
scripts:

  DB_PASSWORD=$(sopsmith get secrets.yaml database.password)`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		Logger.Infof("Starting get command")

		tools, config, err := loadTools()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load configuration: %v", err)
		}
		path, err := resolveDocument(args[0], config)
		if err != nil {
			return report(err)
		}

		session, _, err := workflows.OpenSession(context.Background(), openOptions(path, tools))
		if err != nil {
			return report(err)
		}

		i, ok := session.Find(args[1])
		if !ok {
			return report(fmt.Errorf("%w: %s", kerrors.ErrEntryNotFound, args[1]))
		}
		fmt.Println(session.Entries()[i].Value)
		return nil
	},
}

// report prints err to stderr for commands without a spinner.
func report(err error) error {
	if isUnexpectedError(err) {
		return Logger.ErrorfAndReturn("%v", err)
	}
	Logger.Debugf("%v", err)
	fmt.Fprint(os.Stderr, ui.EnsureNewline(formatError(err)))
	return &reportedError{err: err}
}
