package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/dss-visualizer/backend/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newConvertCommand(ctx *commandContext) *cobra.Command {
	var recordPath string
	var outPath string

	cmd := &cobra.Command{
		Use:   "convert <file.dss>",
		Short: "Render a DSS record to PNG without the web server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			if _, err := os.Stat(src); err != nil {
				return fmt.Errorf("input file: %w", err)
			}
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			st, err := ctx.openStores()
			if err != nil {
				return err
			}
			converter, err := ctx.newConverter(st.exports)
			if err != nil {
				return err
			}

			if outPath == "" {
				result, err := converter.Convert(cmd.Context(), models.ConversionRequest{
					Upload:     &models.UploadRecord{Name: filepath.Base(src), Path: src},
					RecordPath: recordPath,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%d points)\n", filepath.Join(st.exports.Dir(), result.ArtifactName), result.Points)
				return nil
			}

			dir, base := filepath.Split(outPath)
			if dir == "" {
				dir = "."
			}
			out, err := storage.NewLocalStore(dir)
			if err != nil {
				return err
			}
			pending, err := out.Create(base)
			if err != nil {
				return err
			}
			samples, err := converter.WriteChart(cmd.Context(), src, models.ResolveRecordPath(recordPath), pending)
			if err != nil {
				pending.Abort()
				return err
			}
			if err := pending.Commit(); err != nil {
				return err
			}
			info, err := out.Stat(base)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d points, %s)\n", outPath, len(samples), humanize.IBytes(uint64(info.Size)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&recordPath, "record", "r", "", "DSS record path (default "+models.DefaultRecordPath+")")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write the PNG here instead of the exports directory")
	return cmd
}
