package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gliffy-migrator/backend/internal/convert"
)

var (
	convertSeed   int64
	convertPretty bool
	convertOut    string
)

var convertCmd = &cobra.Command{
	Use:   "convert <file-or-directory>",
	Short: "Convert Gliffy documents to Excalidraw",
	Long: `Convert a single .gliffy file, or every .gliffy file under a directory,
to .excalidraw documents.

Examples:
  gliffy convert diagram.gliffy
  gliffy convert diagram.gliffy -o out/diagram.excalidraw
  gliffy convert ./exports --mapping tid_mapping.json --images ./images`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts, err := converterOptions(convertSeed, convertPretty)
		if err != nil {
			return err
		}
		converter := convert.NewConverter(opts)

		stat, err := os.Stat(args[0])
		if err != nil {
			return err
		}
		if stat.IsDir() {
			return convertDir(converter, args[0])
		}
		return convertFile(converter, args[0], convertOut)
	},
}

func convertFile(converter *convert.Converter, in, out string) error {
	raw, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	output, result, err := converter.Convert(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}

	if out == "" {
		out = outputPath(in)
	}
	if err := os.WriteFile(out, output, 0644); err != nil {
		return err
	}

	fmt.Printf("%s -> %s (%d elements", in, out, result.ElementCount)
	if result.ImageCount > 0 {
		fmt.Printf(", %d images", result.ImageCount)
	}
	fmt.Println(")")
	for _, w := range result.Warnings {
		fmt.Printf("  warning [%s] %s\n", w.Code, w.Message)
	}
	return nil
}

func convertDir(converter *convert.Converter, dir string) error {
	var converted, failed int
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if !strings.EqualFold(filepath.Ext(path), ".gliffy") {
			return nil
		}
		if err := convertFile(converter, path, ""); err != nil {
			fmt.Fprintf(os.Stderr, "failed: %v\n", err)
			failed++
			return nil
		}
		converted++
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("\nConverted %d file(s), %d failed\n", converted, failed)
	if failed > 0 {
		return fmt.Errorf("%d file(s) failed to convert", failed)
	}
	return nil
}

// outputPath swaps the .gliffy extension for .excalidraw.
func outputPath(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".excalidraw"
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().Int64Var(&convertSeed, "seed", 1, "identifier generation seed")
	convertCmd.Flags().BoolVar(&convertPretty, "pretty", false, "indent the output JSON")
	convertCmd.Flags().StringVarP(&convertOut, "output", "o", "", "output path (single-file mode only)")
}
