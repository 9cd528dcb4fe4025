package db

import (
	"github.com/spf13/cobra"

	"github.com/PauloFerreira25/velostream/cmd/util"
	"github.com/PauloFerreira25/velostream/driver/client"
)

var (
	communication client.Communication

	// DatabaseCommands represents the database command group
	DatabaseCommands = &cobra.Command{
		Use:               "db",
		Short:             "Issue requests against a configured deployment",
		PersistentPreRunE: setupClient,
		PersistentPostRun: teardownClient,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common driver flags to the db command
	util.SetupDriverFlags(DatabaseCommands)

	// Add subcommands
	DatabaseCommands.AddCommand(serverVersionCmd)
	DatabaseCommands.AddCommand(endpointsCmd)
	DatabaseCommands.AddCommand(benchCmd)
}

// setupClient creates and initializes the driver façade
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	if err := util.InitLogging(); err != nil {
		return err
	}

	config, err := util.GetCommunicationConfig()
	if err != nil {
		return err
	}

	communication, err = client.New(config)
	if err != nil {
		return err
	}

	return communication.Initialize(cmd.Context())
}

// teardownClient closes the driver façade
func teardownClient(*cobra.Command, []string) {
	if communication != nil {
		_ = communication.Close()
	}
}
