package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jacentio/podroom/store"
)

func renderTable(headers []string, rows [][]string) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func writeRoomsTable(cmd *cobra.Command, rooms []store.Room) error {
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		rows = append(rows, []string{r.UID, r.Title, formatTime(r.CreatedOn)})
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"UID", "Title", "Created"}, rows))
	return err
}

// writeTreeTable flattens a Room tree into one row per Playlist and Episode.
func writeTreeTable(cmd *cobra.Command, room store.Room) error {
	var rows [][]string
	for _, p := range room.Playlists {
		rows = append(rows, []string{p.UID, "", p.Title, "", formatTime(p.CreatedOn)})
		for _, e := range p.Episodes {
			rows = append(rows, []string{p.UID, e.UID, e.Title, string(e.Status), formatTime(e.CreatedOn)})
		}
	}
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s  %s\n", room.UID, room.Title); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, renderTable([]string{"Playlist", "Episode", "Title", "Status", "Created"}, rows))
	return err
}
