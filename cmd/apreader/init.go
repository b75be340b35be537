package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apreader/client/pkg/config"
)

const defaultConfigPath = "apreader.yaml"

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented default config file",
		Args:  cobra.MaximumNArgs(1),
		// the file may not exist yet, so skip loading it
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := defaultConfigPath
			if p, _ := cmd.Flags().GetString("config"); p != "" {
				path = p
			}
			if len(args) == 1 {
				path = args[0]
			}

			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")

	return cmd
}
