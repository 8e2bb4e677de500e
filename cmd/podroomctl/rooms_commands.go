package main

import (
	"github.com/spf13/cobra"

	"github.com/jacentio/podroom/store"
)

func newRoomsCommand(ctx *commandContext) *cobra.Command {
	roomsCmd := &cobra.Command{
		Use:   "rooms",
		Short: "Inspect and create Rooms",
	}

	roomsCmd.AddCommand(newRoomsListCommand(ctx))

	roomsCmd.AddCommand(&cobra.Command{
		Use:   "get UID",
		Short: "Show a Room without its playlists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.ensureStore(cmd.Context())
			if err != nil {
				return err
			}
			room, err := s.GetRoom(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, room)
		},
	})

	roomsCmd.AddCommand(newRoomsTreeCommand(ctx))

	roomsCmd.AddCommand(newRoomsCreateCommand(ctx))

	return roomsCmd
}

func newRoomsListCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List Rooms, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asTable, err := wantsTable(cmd, format)
			if err != nil {
				return err
			}
			s, err := ctx.ensureStore(cmd.Context())
			if err != nil {
				return err
			}
			rooms, err := s.GetRooms(cmd.Context())
			if err != nil {
				return err
			}
			if asTable {
				return writeRoomsTable(cmd, rooms)
			}
			if rooms == nil {
				rooms = []store.Room{}
			}
			return writeJSON(cmd, rooms)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

func newRoomsTreeCommand(ctx *commandContext) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "tree UID",
		Short: "Show a Room with its playlists and episodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asTable, err := wantsTable(cmd, format)
			if err != nil {
				return err
			}
			s, err := ctx.ensureStore(cmd.Context())
			if err != nil {
				return err
			}
			room, err := s.GetRoomWithNested(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asTable {
				return writeTreeTable(cmd, room)
			}
			return writeJSON(cmd, room)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}

func newRoomsCreateCommand(ctx *commandContext) *cobra.Command {
	var title, uid string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty Room",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ctx.writableStore(cmd.Context())
			if err != nil {
				return err
			}
			room, err := s.CreateRoom(cmd.Context(), store.Room{UID: uid, Title: title})
			if err != nil {
				return err
			}
			return writeJSON(cmd, room)
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Room title")
	cmd.Flags().StringVar(&uid, "uid", "", "Room uid (generated when empty)")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}
