package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gliffy-migrator/backend/internal/confluence"
	"github.com/gliffy-migrator/backend/internal/inventory"
	"github.com/gliffy-migrator/backend/internal/report"
)

var (
	scanURL       string
	scanUsername  string
	scanToken     string
	scanSpaces    []string
	scanPageID    string
	scanDBPath    string
	scanReportDir string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Inventory Gliffy diagrams across a Confluence instance",
	Long: `Crawl a Confluence instance (or selected spaces, or a single page) and
record every page with embedded Gliffy diagrams into a DuckDB inventory
database, plus a plain-text report.

Credentials may also come from CONFLUENCE_URL, CONFLUENCE_USERNAME and
CONFLUENCE_API_TOKEN. On Confluence Server the token is used as a
personal access token and the username may be empty.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyEnvCredentials()
		if scanURL == "" {
			return fmt.Errorf("a Confluence base URL is required (--url or CONFLUENCE_URL)")
		}

		store, err := inventory.NewStore(scanDBPath)
		if err != nil {
			return err
		}
		defer store.Close()

		client := confluence.NewClient(scanURL, scanUsername, scanToken)
		scanner := confluence.NewScanner(client)
		scanner.Spaces = scanSpaces
		scanner.PageID = scanPageID
		scanner.OnPage = func(info confluence.PageInfo, macros []confluence.GliffyMacro) error {
			if err := store.AddPage(info, macros); err != nil {
				return err
			}
			if store.Len()%500 == 0 {
				fmt.Printf("  ...%d pages scanned\n", store.Len())
			}
			return nil
		}

		fmt.Printf("Scanning %s\n", scanURL)
		pages, err := scanner.Scan(context.Background())
		if err != nil {
			return err
		}
		if err := store.Finalize(); err != nil {
			return err
		}

		sum, err := store.Summarize(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Scanned %d page(s), %d with Gliffy, %d diagram(s)\n",
			sum.Pages, sum.PagesWithGliffy, sum.Diagrams)
		for space, n := range sum.BySpace {
			fmt.Printf("  %-12s %d\n", space, n)
		}
		fmt.Printf("Inventory written to %s\n", scanDBPath)

		path, err := report.NewWriter(scanReportDir).Inventory(pages)
		if err != nil {
			return err
		}
		fmt.Printf("Report written to %s\n", path)
		return nil
	},
}

func applyEnvCredentials() {
	if scanURL == "" {
		scanURL = os.Getenv("CONFLUENCE_URL")
	}
	if scanUsername == "" {
		scanUsername = os.Getenv("CONFLUENCE_USERNAME")
	}
	if scanToken == "" {
		scanToken = os.Getenv("CONFLUENCE_API_TOKEN")
	}
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVar(&scanURL, "url", "", "Confluence base URL")
	scanCmd.Flags().StringVar(&scanUsername, "username", "", "Confluence username (cloud)")
	scanCmd.Flags().StringVar(&scanToken, "token", "", "API token or personal access token")
	scanCmd.Flags().StringSliceVar(&scanSpaces, "spaces", nil, "restrict the scan to these space keys")
	scanCmd.Flags().StringVar(&scanPageID, "page", "", "scan a single page instead of spaces")
	scanCmd.Flags().StringVar(&scanDBPath, "db", "inventory.duckdb", "inventory database path")
	scanCmd.Flags().StringVar(&scanReportDir, "report", "reports", "report output directory")
}
