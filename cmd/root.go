package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/PauloFerreira25/velostream/cmd/db"
	"github.com/PauloFerreira25/velostream/cmd/util"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "velostream",
		Short: "VelocyStream database driver tooling",
		Long: fmt.Sprintf(`velostream (v%s)

Command line tooling for the velostream driver: a Go client for document
databases speaking the VelocyStream binary protocol.`, Version),
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of velostream",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("velostream v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(db.DatabaseCommands)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "log-level"
	RootCmd.PersistentFlags().String(key, "warn", util.WrapString("log level of the driver (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
