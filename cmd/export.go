package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/zakupwatch/lotscan/internal/model"
	"github.com/zakupwatch/lotscan/internal/store"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Read stored lots back out as JSON",
	Long: `Pages through the store in insertion order and writes the records as
one JSON array, for downstream analysis or as scoring input.

Example:
  lotscan export --output goszakup_data.json`,
	RunE: runExport,
}

func init() {
	f := exportCmd.Flags()
	f.String("output", "", "output file path (default: stdout)")
	f.Int("per-page", 500, "store read batch size")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	perPage, _ := cmd.Flags().GetInt("per-page")
	outputPath, _ := cmd.Flags().GetString("output")

	st, err := store.Open(cfg.Store)
	if err != nil {
		return eris.Wrap(err, "export: open store")
	}
	defer func() { _ = st.Close() }()

	all := []model.Lot{}
	for page := 1; ; page++ {
		lots, err := st.Page(cmd.Context(), page, perPage)
		if err != nil {
			return eris.Wrapf(err, "export: read page %d", page)
		}
		if len(lots) == 0 {
			break
		}
		all = append(all, lots...)
	}

	raw, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return eris.Wrap(err, "export: marshal")
	}
	raw = append(raw, '\n')

	if outputPath == "" {
		_, err = os.Stdout.Write(raw)
		return eris.Wrap(err, "export: write stdout")
	}
	if err := os.WriteFile(outputPath, raw, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", outputPath)
	}
	fmt.Printf("Exported %d lots to %s\n", len(all), outputPath)
	return nil
}
