package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gliffy-migrator/backend/internal/report"
	"github.com/gliffy-migrator/backend/internal/tidscan"
)

var tidsReportDir string

var extractTidsCmd = &cobra.Command{
	Use:   "extract-tids <directory>",
	Short: "Inventory the Gliffy stencils a document corpus uses",
	Long: `Walk a directory of .gliffy files, count every stencil type identifier
(TID) they reference, and seed or refresh the TID mapping side-file.

Curated image_path and description values in an existing mapping are
preserved; only the counts are refreshed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := tidscan.ScanDir(args[0])
		if err != nil {
			return err
		}

		if err := res.WriteMapping(mappingPath); err != nil {
			return err
		}

		fmt.Printf("Scanned %d file(s), %d unparseable, %d distinct TID(s)\n",
			res.FilesScanned, res.FilesFailed, len(res.TIDs))
		for _, tid := range res.SortedTIDs() {
			fmt.Printf("  %6d  %s\n", res.TIDs[tid].Count, tid)
		}
		fmt.Printf("Mapping written to %s\n", mappingPath)

		if tidsReportDir != "" {
			path, err := report.NewWriter(tidsReportDir).TIDMapping(res)
			if err != nil {
				return err
			}
			fmt.Printf("Report written to %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractTidsCmd)
	extractTidsCmd.Flags().StringVar(&tidsReportDir, "report", "", "also write a plain-text report into this directory")
}
