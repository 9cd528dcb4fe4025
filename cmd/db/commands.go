package db

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PauloFerreira25/velostream/driver/codec"
	"github.com/PauloFerreira25/velostream/driver/common"
)

var (
	serverVersionCmd = &cobra.Command{
		Use:   "server-version",
		Short: "Query the server version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := common.NewRequest("_system", common.RequestTypeGet, "/_api/version")
			if err != nil {
				return err
			}

			resp, err := communication.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			if !resp.IsSuccess() {
				return fmt.Errorf("server answered with code %d", resp.ResponseCode)
			}

			version, err := codec.ExtractVersionString(resp.Body)
			if err != nil {
				return err
			}
			fmt.Printf("server version: %s\n", version)
			return nil
		},
	}

	endpointsCmd = &cobra.Command{
		Use:   "endpoints",
		Short: "Query the cluster endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := common.NewRequest("_system", common.RequestTypeGet, "/_api/cluster/endpoints")
			if err != nil {
				return err
			}

			resp, err := communication.Execute(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Printf("response code: %d (%d body bytes)\n", resp.ResponseCode, len(resp.Body))
			return nil
		},
	}
)
