package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	return newRootCommandWith(dynamoClient)
}

func newRootCommandWith(newClient clientFactory) *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag, newClient)

	rootCmd := &cobra.Command{
		Use:           "podroomctl",
		Short:         "Administer a podroom table",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newTableCommand(ctx))
	rootCmd.AddCommand(newRoomsCommand(ctx))
	rootCmd.AddCommand(newImportCommand(ctx))

	return rootCmd
}
