package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dss-visualizer/backend/internal/retention"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete uploads and artifacts older than --max-age",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if maxAge <= 0 {
				maxAge = cfg.RetentionMaxAge()
			}
			if maxAge <= 0 {
				return errors.New("no retention age: pass --max-age or set retention.maxAgeHours")
			}
			st, err := ctx.openStores()
			if err != nil {
				return err
			}
			sweeper := retention.NewSweeper(cfg.Storage.DataDirectory, maxAge, ctx.logger("Retention"), st.uploads, st.exports)
			report, err := sweeper.Sweep(time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d of %d files, freed %s\n",
				report.Removed, report.Scanned, humanize.IBytes(uint64(report.Bytes)))
			if len(report.Errors) > 0 {
				return fmt.Errorf("%d files could not be removed", len(report.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Remove files older than this (default from config)")
	return cmd
}
