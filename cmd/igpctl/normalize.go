package main

import (
	"fmt"
	"os"
	"time"

	"github.com/couchcryptid/seismic-data-etl/internal/adapter/arcgis"
	"github.com/couchcryptid/seismic-data-etl/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	var (
		file   string
		now    string
		source string
	)
	cmd := &cobra.Command{
		Use:     "normalize",
		Short:   "Normalize a saved ArcGIS query response without touching the store",
		GroupID: "offline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open feed file: %w", err)
			}
			defer f.Close()

			raws, err := arcgis.DecodeResponse(f)
			if err != nil {
				return fmt.Errorf("%s: %w", file, err)
			}

			var clock clockwork.Clock
			if now != "" {
				at, err := time.Parse(time.RFC3339, now)
				if err != nil {
					return fmt.Errorf("invalid --now: %w", err)
				}
				clock = clockwork.NewFakeClockAt(at)
			}

			events := domain.NewNormalizer(clock, source).NormalizeAll(raws)
			return printJSON(cmd.OutOrStdout(), events)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to a saved ArcGIS query response (required)")
	cmd.Flags().StringVar(&now, "now", "", "ingest time as RFC3339 (default current time)")
	cmd.Flags().StringVar(&source, "source", "", "source tag (default "+domain.DefaultSource+")")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
