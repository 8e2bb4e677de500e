package main

import (
	"github.com/spf13/cobra"
)

func newTableCommand(ctx *commandContext) *cobra.Command {
	tableCmd := &cobra.Command{
		Use:   "table",
		Short: "Manage the backing table",
	}

	tableCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the table if needed and wait until it is active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureStore(cmd.Context())
			if err != nil {
				return err
			}
			state, err := s.Initiate(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]string{
				"table": s.TableName(),
				"state": string(state),
			})
		},
	})

	tableCmd.AddCommand(&cobra.Command{
		Use:   "backup",
		Short: "Request an on-demand backup named after today's date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureStore(cmd.Context())
			if err != nil {
				return err
			}
			name, err := s.Backup(cmd.Context())
			if err != nil {
				return err
			}
			return writeJSON(cmd, map[string]string{
				"table":  s.TableName(),
				"backup": name,
			})
		},
	})

	return tableCmd
}
