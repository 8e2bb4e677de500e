package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jacentio/podroom/store"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Import Room trees from a JSON array, taking a backup first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rooms, err := readRooms(args[0])
			if err != nil {
				return err
			}
			s, err := ctx.writableStore(cmd.Context())
			if err != nil {
				return err
			}
			report, err := s.Import(cmd.Context(), rooms)
			if err != nil {
				return err
			}
			return writeJSON(cmd, report)
		},
	}
}

func readRooms(path string) ([]store.Room, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read import file: %w", err)
	}
	var rooms []store.Room
	if err := json.Unmarshal(data, &rooms); err != nil {
		return nil, fmt.Errorf("parse import file: %w", err)
	}
	return rooms, nil
}
