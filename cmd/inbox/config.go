package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/inbox/internal/model"
)

func newConfigCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileExists(f.configPath) && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", f.configPath)
			}
			if err := model.SaveConfig(f.configPath, model.DefaultAppConfig()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", f.configPath)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), f.configPath)
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}
