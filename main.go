package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/sopsmith/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "sopsmith",
	Short: "sopsmith - view and edit sops-encrypted secret documents.",
	Long: `sopsmith opens sops documents encrypted with age, lets you read and change
individual secrets by their flattened path, and writes them back encrypted.

Supported formats: JSON, YAML, dotenv and INI.

Usage:
  sopsmith <command> [flags]

Getting started:
  sopsmith keys generate --comment "laptop"   create an age key
  sopsmith init --key-index 1                 write a .sops.yaml
  sopsmith create                             create secrets.json
  sopsmith set secrets.json db.password       add a secret
  sopsmith show secrets.json                  list the secrets

sopsmith runs the sops binary for every encryption and decryption.

Run 'sopsmith help <command>' for more details on a specific command.
`,
}

func init() {
	cmd.Register(rootCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !cmd.IsReported(err) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
