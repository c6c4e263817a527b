package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dss-visualizer/backend/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

func newArtifactsCommand(ctx *commandContext) *cobra.Command {
	var showUploads bool

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "List rendered charts (or uploads with --uploads)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(); err != nil {
				return err
			}
			st, err := ctx.openStores()
			if err != nil {
				return err
			}
			store := st.exports
			if showUploads {
				store = st.uploads
			}
			files, err := store.List()
			if err != nil {
				return err
			}
			printFiles(cmd.OutOrStdout(), files, time.Now())
			return nil
		},
	}

	cmd.Flags().BoolVar(&showUploads, "uploads", false, "List uploaded DSS files instead of charts")
	return cmd
}

func printFiles(w io.Writer, files []*models.FileInfo, now time.Time) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files")
		return
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Size", "Modified"})

	var total int64
	for _, f := range files {
		total += f.Size
		tw.AppendRow(table.Row{
			f.Name,
			humanize.IBytes(uint64(f.Size)),
			humanize.RelTime(f.ModifiedAt, now, "ago", "from now"),
		})
	}
	tw.AppendFooter(table.Row{fmt.Sprintf("%d files", len(files)), humanize.IBytes(uint64(total)), ""})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Size", Align: text.AlignRight, AlignFooter: text.AlignRight},
	})

	fmt.Fprintln(w, tw.Render())
}
