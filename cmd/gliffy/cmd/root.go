package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gliffy-migrator/backend/internal/convert"
)

var (
	mappingPath string
	imagesDir   string
	rulesPath   string
)

var rootCmd = &cobra.Command{
	Use:   "gliffy",
	Short: "Migrate Gliffy diagrams to Excalidraw",
	Long: `gliffy converts Gliffy diagram documents to Excalidraw documents and
helps migrate them out of Confluence.

It provides commands to convert single files or whole directories,
inventory the Gliffy stencils (TIDs) a document corpus uses, scan a
Confluence instance for pages embedding Gliffy diagrams, and run a full
download-and-convert migration from a scan inventory.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&mappingPath, "mapping", "tid_mapping.json", "path to the TID mapping side-file")
	rootCmd.PersistentFlags().StringVar(&imagesDir, "images", "images", "directory override image paths resolve against")
	rootCmd.PersistentFlags().StringVar(&rulesPath, "rules", "", "optional YAML file with extra TID registry rules")
}

// converterOptions assembles conversion options from the global flags.
func converterOptions(seed int64, pretty bool) (convert.Options, error) {
	overrides, err := convert.LoadOverrides(mappingPath, imagesDir)
	if err != nil {
		return convert.Options{}, err
	}

	registry := convert.DefaultRegistry()
	if rulesPath != "" {
		registry = convert.NewRegistry()
		if err := registry.LoadRules(rulesPath); err != nil {
			return convert.Options{}, err
		}
	}

	return convert.Options{
		Registry:  registry,
		Overrides: overrides,
		Seed:      seed,
		Pretty:    pretty,
	}, nil
}
