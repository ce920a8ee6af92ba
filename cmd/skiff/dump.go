package main

import (
	"github.com/spf13/cobra"

	"skiff/internal/inspect"
	"skiff/internal/snapshot"
)

var dumpCmd = &cobra.Command{
	Use:   "dump [image]",
	Short: "List every object in a heap snapshot",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveImagePath(args)
		if err != nil {
			return err
		}
		img, err := snapshot.Load(path)
		if err != nil {
			return err
		}
		return inspect.Dump(cmd.OutOrStdout(), img, inspect.DumpOptions{Color: colorEnabled(cmd)})
	},
}
