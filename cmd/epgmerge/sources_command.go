package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSourcesCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "sources",
		Short: "List the configured source feeds in merge order",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := ctx.ensure()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(cfg.Sources.URLs))
			for i, url := range cfg.Sources.URLs {
				rows = append(rows, []string{strconv.Itoa(i + 1), url})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"#", "URL"}, rows))
			fmt.Fprintf(out, "Timeout: %ds  Output: %s (%s)\n",
				cfg.Sources.Timeout, cfg.Output.Path, cfg.Output.Mode)
			return nil
		},
	}
}
