package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gliffy-migrator/backend/internal/confluence"
	"github.com/gliffy-migrator/backend/internal/convert"
	"github.com/gliffy-migrator/backend/internal/inventory"
	"github.com/gliffy-migrator/backend/internal/report"
)

var (
	migrateDBPath    string
	migrateOutDir    string
	migrateSeed      int64
	migratePretty    bool
	migrateReportDir string
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Download and convert every diagram from a scan inventory",
	Long: `Walk the diagrams recorded by a previous scan, download each Gliffy
attachment from Confluence, convert it to Excalidraw, and record the
outcome back into the inventory database. A migration report summarizes
what converted, failed, and was skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyEnvCredentials()
		if scanURL == "" {
			return fmt.Errorf("a Confluence base URL is required (--url or CONFLUENCE_URL)")
		}

		store, err := inventory.OpenStore(migrateDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		opts, err := converterOptions(migrateSeed, migratePretty)
		if err != nil {
			return err
		}
		converter := convert.NewConverter(opts)
		client := confluence.NewClient(scanURL, scanUsername, scanToken)

		if err := os.MkdirAll(migrateOutDir, 0755); err != nil {
			return err
		}

		ctx := context.Background()
		pages, err := store.Pages(ctx)
		if err != nil {
			return err
		}
		pageByID := make(map[string]confluence.PageInfo, len(pages))
		for _, p := range pages {
			pageByID[p.ID] = p
		}

		diagrams, err := store.Diagrams(ctx, "")
		if err != nil {
			return err
		}

		var stats report.MigrationStats
		var entries []report.MigrationEntry
		stats.PagesProcessed = len(pageByID)
		stats.GliffyFound = len(diagrams)

		for _, d := range diagrams {
			page := pageByID[d.PageID]
			entry := report.MigrationEntry{
				PageTitle: page.Title,
				PageID:    d.PageID,
				Diagram:   d.Name,
			}

			outcome, reason := migrateDiagram(ctx, client, converter, page, d)
			entry.Status = outcome
			entry.Reason = reason
			entries = append(entries, entry)

			switch outcome {
			case "converted":
				stats.Converted++
			case "skipped":
				stats.Skipped++
			default:
				stats.Failed++
				fmt.Fprintf(os.Stderr, "failed: %s / %s: %s\n", page.Title, d.Name, reason)
			}

			if err := store.RecordOutcome(ctx, d.PageID, d.Name, outcome); err != nil {
				return err
			}
		}

		fmt.Printf("Converted %d, failed %d, skipped %d of %d diagram(s)\n",
			stats.Converted, stats.Failed, stats.Skipped, stats.GliffyFound)

		path, err := report.NewWriter(migrateReportDir).Migration(stats, entries)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)

		if stats.Failed > 0 {
			return fmt.Errorf("%d diagram(s) failed to migrate", stats.Failed)
		}
		return nil
	},
}

// migrateDiagram downloads and converts one diagram, returning the
// outcome recorded in the inventory and a human-readable reason.
func migrateDiagram(ctx context.Context, client *confluence.Client, converter *convert.Converter, page confluence.PageInfo, d inventory.Diagram) (string, string) {
	if d.AttachmentID == "" {
		return "skipped", "macro has no attachment reference"
	}

	raw, _, err := client.DownloadAttachment(ctx, d.PageID, d.AttachmentID, page.Status == "draft")
	if err != nil {
		return "failed", fmt.Sprintf("download: %v", err)
	}

	out, _, err := converter.Convert(raw)
	if err != nil {
		return "failed", fmt.Sprintf("convert: %v", err)
	}

	name := fmt.Sprintf("%s_%s.excalidraw", d.PageID, sanitizeName(d.Name))
	if err := os.WriteFile(filepath.Join(migrateOutDir, name), out, 0644); err != nil {
		return "failed", fmt.Sprintf("write: %v", err)
	}
	return "converted", ""
}

// sanitizeName makes a diagram title safe as a filename component.
func sanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&scanURL, "url", "", "Confluence base URL")
	migrateCmd.Flags().StringVar(&scanUsername, "username", "", "Confluence username (cloud)")
	migrateCmd.Flags().StringVar(&scanToken, "token", "", "API token or personal access token")
	migrateCmd.Flags().StringVar(&migrateDBPath, "db", "inventory.duckdb", "inventory database path")
	migrateCmd.Flags().StringVar(&migrateOutDir, "out", "converted", "output directory for .excalidraw files")
	migrateCmd.Flags().Int64Var(&migrateSeed, "seed", 1, "identifier generation seed")
	migrateCmd.Flags().BoolVar(&migratePretty, "pretty", false, "indent the output JSON")
	migrateCmd.Flags().StringVar(&migrateReportDir, "report", "reports", "report output directory")
}
