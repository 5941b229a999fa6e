package server

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwantia/mediaindex/internal/agent"
	"github.com/mwantia/mediaindex/internal/config"
	"github.com/mwantia/mediaindex/pkg/index"
	"github.com/mwantia/mediaindex/pkg/metrics"
)

func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the media library into the index",
		Long: `Scan all files in the media library and update the index.

Every visited entry is printed with its indentation depth and whether
it was created or already existed in the index.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "*** Scanning start ***")

			err = agent.NewAgent(cfg).Run(cmd.Context(), func(ctx context.Context, engine index.MediaIndex) error {
				_, err := engine.Scan(ctx, func(line index.ReportLine) {
					fmt.Fprintln(out, line.String())
				})
				return err
			})

			if cfg.Metrics.Textfile != "" {
				if werr := metrics.WriteTextfile(cfg.Metrics.Textfile); werr != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "failed to write metrics: %v\n", werr)
				}
			}

			if err != nil {
				return fmt.Errorf("scan failed: %w", err)
			}

			fmt.Fprintln(out, "*** Scanning end ***")
			return nil
		},
	}

	return cmd
}
