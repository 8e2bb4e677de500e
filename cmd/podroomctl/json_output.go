package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

const (
	outputAuto  = "auto"
	outputJSON  = "json"
	outputTable = "table"
)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// wantsTable resolves the --output flag. auto picks a table only when stdout
// is a terminal.
func wantsTable(cmd *cobra.Command, format string) (bool, error) {
	switch format {
	case outputJSON:
		return false, nil
	case outputTable:
		return true, nil
	case outputAuto, "":
		f, ok := cmd.OutOrStdout().(*os.File)
		return ok && isatty.IsTerminal(f.Fd()), nil
	default:
		return false, fmt.Errorf("unknown output format %q (want auto, json or table)", format)
	}
}

func addOutputFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "output", "o", outputAuto, "Output format: auto, json or table")
}
