package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"matchmaking-workers/internal/common/logger"
)

const app = "match-cli"

// Actual version can be specified in build command.
var version = "unknown"

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           app,
		Short:         "match-cli scores hackathon users and teams from JSON fixtures",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().Bool("compact", false, "print JSON on a single line")

	rootCmd.AddCommand(
		newUserToTeamsCmd(),
		newTeamToUsersCmd(),
		newSkillsCmd(),
		newRadarCmd(),
		newReindexCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute executes the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version)
		},
	}
}

func cliLogger(cmd *cobra.Command) logger.Logger {
	level := "warn"
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = "debug"
	}
	return logger.NewStructured(level, "console")
}

// readInput decodes the --input file, or stdin when it is "-".
func readInput(cmd *cobra.Command, dst interface{}) error {
	path, _ := cmd.Flags().GetString("input")
	var r io.Reader
	switch path {
	case "":
		return fmt.Errorf("--input is required")
	case "-":
		r = cmd.InOrStdin()
	default:
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(dst); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if compact, _ := cmd.Flags().GetBool("compact"); !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
