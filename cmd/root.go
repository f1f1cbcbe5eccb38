package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/PolarWolf314/sopsmith/internal/configs"
	logger "github.com/PolarWolf314/sopsmith/internal/logging"
	"github.com/PolarWolf314/sopsmith/internal/workflows"
)

var (
	verbose bool
	debug   bool
	Logger  logger.Logger

	keyFileFlag  string
	keyFlag      string
	keyIndexFlag int
	formatFlag   string
)

// newTools builds the workflow collaborators. Tests replace it with fakes.
var newTools = func(config *configs.Config, keyFile string) workflows.Tools {
	return workflows.NewTools(config, keyFile, Logger)
}

// commands lists every top-level command in help order.
func commands() []*cobra.Command {
	return []*cobra.Command{
		showCmd,
		getCmd,
		setCmd,
		unsetCmd,
		editCmd,
		exportCmd,
		importCmd,
		createCmd,
		initCmd,
		statusCmd,
		KeysCmd,
		FavoritesCmd,
		logCmd,
	}
}

// Register installs the global flags and every command on root.
func Register(root *cobra.Command) {
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")

	// Failures are printed by the commands themselves.
	root.SilenceErrors = true
	root.SilenceUsage = true

	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		Logger = logger.Logger{
			Verbose: verbose,
			Debug:   debug,
		}
		Logger.Debugf("Initializing %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
	}

	root.AddCommand(commands()...)
}

// keyFlags returns the flags that select an age key. Each call returns a
// new set bound to the shared variables, so several commands can carry it.
func keyFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("key", pflag.ContinueOnError)
	fs.StringVar(&keyFileFlag, "key-file", "", "age key file (default: $SOPS_AGE_KEY_FILE, the configured key_file, or ~/.config/sops/age/keys.txt)")
	fs.StringVar(&keyFlag, "key", "", "age private key to use instead of the key file")
	fs.IntVar(&keyIndexFlag, "key-index", 0, "use the n-th key of the key file (1-based, default: detect from recipients)")
	return fs
}

// documentFlags returns keyFlags plus the document format override.
func documentFlags() *pflag.FlagSet {
	fs := keyFlags()
	fs.StringVar(&formatFlag, "format", "", "document format: json, yaml, dotenv or ini (default: from the file name)")
	return fs
}

// loadTools reads the user configuration and builds the workflow tools.
func loadTools() (workflows.Tools, *configs.Config, error) {
	config, err := configs.LoadConfig()
	if err != nil {
		return workflows.Tools{}, nil, err
	}
	return newTools(config, keyFileFlag), config, nil
}

// openOptions builds the open workflow options for path from the shared
// flags.
func openOptions(path string, tools workflows.Tools) workflows.OpenOptions {
	return workflows.OpenOptions{
		Path:     path,
		Format:   formatFlag,
		Key:      keyFlag,
		KeyIndex: keyIndexFlag,
		Tools:    tools,
	}
}

// Helper functions for testing

// ResetGlobalState resets all global variables to their default values for testing.
func ResetGlobalState() {
	verbose = false
	debug = false
	keyFileFlag = ""
	keyFlag = ""
	keyIndexFlag = 0
	formatFlag = ""
	resetShowCommandState()
	resetSetCommandState()
	resetExportCommandState()
	resetImportCommandState()
	resetCreateCommandState()
	resetInitCommandState()
	resetStatusCommandState()
	resetKeysCommandState()
	resetLogCommandState()
	resetCobraFlagState()
}

// resetCobraFlagState clears the Changed marks left by earlier executions.
func resetCobraFlagState() {
	var visit func(c *cobra.Command)
	visit = func(c *cobra.Command) {
		c.Flags().VisitAll(func(flag *pflag.Flag) {
			flag.Changed = false
		})
		for _, sub := range c.Commands() {
			visit(sub)
		}
	}
	for _, c := range commands() {
		visit(c)
	}
}

// SetVerbose sets the verbose flag for testing.
func SetVerbose(v bool) {
	verbose = v
}

// SetDebug sets the debug flag for testing.
func SetDebug(d bool) {
	debug = d
}

// SetLogger sets the logger for testing.
func SetLogger(l logger.Logger) {
	Logger = l
}
