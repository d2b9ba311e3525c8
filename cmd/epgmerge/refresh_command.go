package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"epgmerge/internal/config"
	"epgmerge/internal/workflow"
)

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	var urlFlag string
	var pathFlag string

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Fetch a single plain-XML guide and atomically replace the local copy",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			runCfg := *cfg
			if cmd.Flags().Changed("url") {
				runCfg.Refresh.URL = urlFlag
			}
			if cmd.Flags().Changed("path") {
				expanded, err := config.ExpandPath(pathFlag)
				if err != nil {
					return err
				}
				runCfg.Refresh.Path = expanded
			}

			runner, err := workflow.NewRunner(&runCfg, logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			if err := runner.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", runCfg.Refresh.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&urlFlag, "url", "", "Document URL to fetch")
	cmd.Flags().StringVar(&pathFlag, "path", "", "Destination file path")
	return cmd
}
