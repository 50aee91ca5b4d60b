package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zakupwatch/lotscan/internal/model"
	"github.com/zakupwatch/lotscan/internal/scorer"
	"github.com/zakupwatch/lotscan/internal/store"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score lots for corruption risk with the classifier ensemble",
	Long: `Loads the four fitted classifiers plus the shared feature scaler and
scores lots either from an uploaded JSON file or from the configured store.

Examples:
  # Score an exported JSON array of records
  lotscan score --input lots.json

  # Score the second store page of 500 records, write CSV
  lotscan score --from-store --page 2 --per-page 500 --format csv --output scores.csv`,
	RunE: runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.String("input", "", "JSON file holding an array of lot records")
	f.Bool("from-store", false, "score records read back from the configured store")
	f.Int("page", 1, "store page to score (with --from-store)")
	f.Int("per-page", 500, "store page size (with --from-store)")
	f.String("models", "", "model artifact directory (overrides config)")
	f.String("output", "", "output file path (default: stdout)")
	f.String("format", "table", "output format: table or csv")

	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, _ []string) error {
	inputPath, _ := cmd.Flags().GetString("input")
	fromStore, _ := cmd.Flags().GetBool("from-store")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	if inputPath == "" && !fromStore {
		return eris.New("score: pass --input or --from-store")
	}
	if inputPath != "" && fromStore {
		return eris.New("score: --input and --from-store are mutually exclusive")
	}
	if format != "table" && format != "csv" {
		return eris.Errorf("score: --format must be table or csv (got %q)", format)
	}

	modelsDir := cfg.Scorer.ModelsDir
	if dir, _ := cmd.Flags().GetString("models"); dir != "" {
		modelsDir = dir
	}

	session, err := scorer.NewSession(modelsDir)
	if err != nil {
		return eris.Wrap(err, "score: start session")
	}

	lots, err := loadScoreInput(cmd, inputPath, fromStore)
	if err != nil {
		return err
	}
	if len(lots) == 0 {
		fmt.Println("No records to score.")
		return nil
	}

	scored, err := session.ScoreLots(lots)
	if err != nil {
		return eris.Wrap(err, "score: ensemble")
	}

	zap.L().Info("scoring complete", zap.Int("records", len(scored)))
	return outputScored(scored, format, outputPath)
}

// loadScoreInput reads lots from the chosen source. Uploaded JSON records are
// loosely typed; their numeric fields go through the safe locale-aware parse.
func loadScoreInput(cmd *cobra.Command, inputPath string, fromStore bool) ([]model.Lot, error) {
	if fromStore {
		pageNo, _ := cmd.Flags().GetInt("page")
		perPage, _ := cmd.Flags().GetInt("per-page")

		st, err := store.Open(cfg.Store)
		if err != nil {
			return nil, eris.Wrap(err, "score: open store")
		}
		defer func() { _ = st.Close() }()

		lots, err := st.Page(cmd.Context(), pageNo, perPage)
		return lots, eris.Wrap(err, "score: read store page")
	}

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return nil, eris.Wrapf(err, "score: read %s", inputPath)
	}
	var records []map[string]any
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, eris.Wrapf(err, "score: parse %s", inputPath)
	}

	lots := make([]model.Lot, 0, len(records))
	for i, rec := range records {
		row := model.FeatureRowFromRecord(rec)
		lots = append(lots, model.Lot{
			LotID:    stringField(rec, "lot_id", stringField(rec, "id", fmt.Sprint(i))),
			Subject:  stringField(rec, "subject", ""),
			Amount:   row.Amount,
			Quantity: row.Quantity,
		})
	}
	return lots, nil
}

func stringField(rec map[string]any, key, fallback string) string {
	if v, ok := rec[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func outputScored(scored []model.ScoredLot, format, outputPath string) error {
	var w io.Writer = os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return eris.Wrapf(err, "score: create output file %s", outputPath)
		}
		defer f.Close() //nolint:errcheck
		w = f
	}

	switch format {
	case "csv":
		return writeScoredCSV(w, scored)
	default:
		return writeScoredTable(w, scored)
	}
}

func writeScoredCSV(w io.Writer, scored []model.ScoredLot) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"lot_id", "subject", "amount", "quantity", "suspicion_percentage", "suspicion_level"}
	if err := cw.Write(header); err != nil {
		return eris.Wrap(err, "score: write CSV header")
	}
	for _, s := range scored {
		row := []string{
			s.LotID,
			s.Subject,
			fmt.Sprintf("%.2f", s.Amount),
			fmt.Sprintf("%.2f", s.Quantity),
			fmt.Sprintf("%.2f", s.SuspicionPercentage),
			string(s.SuspicionLevel),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "score: write CSV row")
		}
	}
	return nil
}

func writeScoredTable(w io.Writer, scored []model.ScoredLot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LOT ID\tSUBJECT\tAMOUNT\tQTY\tSUSPICION\tLEVEL")
	for _, s := range scored {
		subject := s.Subject
		if len([]rune(subject)) > 40 {
			subject = string([]rune(subject)[:37]) + "..."
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%.2f\t%.1f%%\t%s\n",
			s.LotID, subject, s.Amount, s.Quantity, s.SuspicionPercentage, s.SuspicionLevel)
	}
	return tw.Flush()
}
