package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"epgmerge/internal/config"
	"epgmerge/internal/sink"
	"epgmerge/internal/workflow"
)

type mergeFlags struct {
	output    string
	timeout   int
	overwrite bool
	gzipOnly  bool
	atomic    bool
}

func newMergeCommand(ctx *commandContext) *cobra.Command {
	var flags mergeFlags

	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Download every configured feed and merge into one document",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensure()
			if err != nil {
				return err
			}
			runCfg := *cfg
			applyMergeFlags(&runCfg, cmd, flags)

			runner, err := workflow.NewRunner(&runCfg, logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			stats, err := runner.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			outputPath, err := config.ExpandPath(runCfg.Output.Path)
			if err != nil {
				return err
			}
			target := sink.ResolveTarget(outputPath)
			if runCfg.Output.Mode == config.OutputModeBoth {
				fmt.Fprintf(out, "Wrote merged XML to: %s\n", target.XMLPath)
			}
			fmt.Fprintf(out, "Wrote gzip to: %s\n", target.GzPath)
			fmt.Fprintf(out, "Merged %d of %d sources (%d channels, %d duplicates dropped, %d programmes)\n",
				stats.Parsed, stats.Payloads, stats.Channels, stats.DuplicateChannels, stats.Programmes)
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output merged XML path")
	cmd.Flags().IntVar(&flags.timeout, "timeout", 0, "Network timeout in seconds")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Overwrite output if it exists")
	cmd.Flags().BoolVar(&flags.gzipOnly, "gzip-only", false, "Write only the gzipped stream")
	cmd.Flags().BoolVar(&flags.atomic, "atomic", false, "Stage output through temp files and rename into place")
	return cmd
}

// applyMergeFlags layers explicitly set command flags over the loaded config.
func applyMergeFlags(cfg *config.Config, cmd *cobra.Command, flags mergeFlags) {
	if cmd.Flags().Changed("output") {
		cfg.Output.Path = flags.output
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Sources.Timeout = flags.timeout
	}
	if cmd.Flags().Changed("overwrite") {
		cfg.Output.Overwrite = flags.overwrite
	}
	if cmd.Flags().Changed("gzip-only") && flags.gzipOnly {
		cfg.Output.Mode = config.OutputModeGzip
	}
	if cmd.Flags().Changed("atomic") {
		cfg.Output.Atomic = flags.atomic
	}
	// The command surface always deduplicates channels.
	cfg.Output.DedupeChannels = true
}
