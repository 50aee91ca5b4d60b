package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/zakupwatch/lotscan/internal/crawl"
	"github.com/zakupwatch/lotscan/internal/fetch"
	"github.com/zakupwatch/lotscan/internal/model"
	"github.com/zakupwatch/lotscan/internal/store"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Run a pagination scrape and append lots to the store",
	Long: `Walks upstream result pages from --start-page until an empty page,
the --max-pages cap, or an upstream layout change, and appends every
extracted lot to the configured store.

Examples:
  # Scrape until the results run out
  lotscan scrape

  # Scrape only the first three pages, rejecting already-stored lot ids
  lotscan scrape --max-pages 3 --dedup`,
	RunE: runScrape,
}

func init() {
	f := scrapeCmd.Flags()
	f.Int("start-page", 1, "first result page to request")
	f.Int("max-pages", 0, "last page to process (0 = until an empty page)")
	f.Bool("dedup", false, "skip lots whose lot_id is already stored (overrides config)")

	rootCmd.AddCommand(scrapeCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startPage, _ := cmd.Flags().GetInt("start-page")
	maxPages, _ := cmd.Flags().GetInt("max-pages")
	if startPage < 1 {
		return eris.Errorf("scrape: --start-page must be >= 1 (got %d)", startPage)
	}

	storeCfg := cfg.Store
	if cmd.Flags().Changed("dedup") {
		storeCfg.Dedup, _ = cmd.Flags().GetBool("dedup")
	}

	st, err := store.Open(storeCfg)
	if err != nil {
		return eris.Wrap(err, "scrape: open store")
	}
	defer func() { _ = st.Close() }()

	client := fetch.NewClient(fetch.Options{
		BaseURL:     cfg.Scrape.BaseURL,
		UserAgent:   cfg.Scrape.UserAgent,
		CountRecord: cfg.Scrape.CountRecord,
		Delay:       cfg.Scrape.Delay(),
		Timeout:     cfg.Scrape.Timeout(),
	})

	log := zap.L().With(zap.String("command", "scrape"))
	log.Info("starting run",
		zap.Int("start_page", startPage),
		zap.Int("max_pages", maxPages),
		zap.Bool("dedup", storeCfg.Dedup),
	)

	started := time.Now().UTC()
	res, runErr := crawl.NewDriver(client).Run(ctx, crawl.Options{
		StartPage: startPage,
		MaxPages:  maxPages,
	})

	added, err := persistRun(ctx, st, store.RunRecord{
		StartPage:     startPage,
		MaxPages:      maxPages,
		PagesFetched:  res.Stats.PagesFetched,
		RowsSkipped:   res.Stats.RowsSkipped,
		SchemaStopped: res.Stats.SchemaStopped,
		StartedAt:     started,
		FinishedAt:    time.Now().UTC(),
	}, res.Lots)
	if err != nil {
		return err
	}

	if runErr != nil {
		log.Error("run aborted, partial results kept",
			zap.Int("lots_kept", len(res.Lots)),
			zap.Error(runErr),
		)
		return runErr
	}

	if res.Stats.SchemaStopped {
		fmt.Println("Upstream page layout changed; run stopped early. Results up to that page were kept.")
	}
	fmt.Printf("Scraped %d lots across %d pages (%d rows skipped, %d new).\n",
		len(res.Lots), res.Stats.PagesFetched, res.Stats.RowsSkipped, added)
	return nil
}

// persistRun writes the run's lots and bookkeeping. Cancellation is stripped
// from the context first: an interrupted run must still keep whatever it
// extracted before the signal arrived.
func persistRun(ctx context.Context, st store.Store, rec store.RunRecord, lots []model.Lot) (int, error) {
	ctx = context.WithoutCancel(ctx)

	added := 0
	if len(lots) > 0 {
		var err error
		added, err = st.Append(ctx, lots)
		if err != nil {
			return 0, eris.Wrap(err, "scrape: append lots")
		}
	}

	rec.LotsAdded = added
	if sq, ok := st.(*store.SQLiteStore); ok {
		if err := sq.RecordRun(ctx, rec); err != nil {
			zap.L().Warn("run bookkeeping failed", zap.Error(err))
		}
	}
	return added, nil
}
