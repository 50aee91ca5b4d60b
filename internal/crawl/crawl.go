// Package crawl walks result pages in order and accumulates extracted lots.
//
// The traversal is deliberately sequential: the upstream service is paced by
// the fetcher's limiter and page N's outcome decides whether page N+1 is
// requested at all.
package crawl

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/zakupwatch/lotscan/internal/extract"
	"github.com/zakupwatch/lotscan/internal/fetch"
	"github.com/zakupwatch/lotscan/internal/model"
)

// PageFetcher is the page-granular transport the driver runs against.
// *fetch.Client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, page int) ([]fetch.Row, error)
}

// Options bounds one pagination run. The page cap is the single canonical
// stopping discipline: callers that think in record counts derive a cap from
// their per-page record count.
type Options struct {
	StartPage int // first page to request; defaults to 1
	MaxPages  int // last page to process; 0 means run until an empty page
}

// Stats summarizes what a run saw.
type Stats struct {
	PagesFetched  int
	RowsSeen      int
	RowsSkipped   int
	SchemaStopped bool // the run ended on an upstream layout change, not exhaustion
}

// Result is everything a run produced. Lots are ordered by page, then by row
// within the page; that ordering is the one guarantee offered downstream.
type Result struct {
	Lots  []model.Lot
	Stats Stats
}

// Driver orchestrates fetch and extract across pages.
type Driver struct {
	fetcher PageFetcher
}

// NewDriver creates a pagination driver over the given fetcher.
func NewDriver(f PageFetcher) *Driver {
	return &Driver{fetcher: f}
}

// Run walks pages from StartPage until an empty page, the page cap, or an
// upstream schema change. Whatever was extracted before a stop is always
// returned; transport failures surface the partial result alongside the error.
func (d *Driver) Run(ctx context.Context, opts Options) (Result, error) {
	if opts.StartPage <= 0 {
		opts.StartPage = 1
	}

	log := zap.L().With(zap.String("component", "crawl.driver"))
	var res Result

	for page := opts.StartPage; ; page++ {
		rows, err := d.fetcher.FetchPage(ctx, page)
		if err != nil {
			if fetch.IsSchema(err) {
				// Cannot tell "no more results" from "page changed shape";
				// stop and say so explicitly rather than reading it as the end.
				log.Warn("result table missing, stopping run",
					zap.Int("page", page),
					zap.Error(err),
				)
				res.Stats.SchemaStopped = true
				return res, nil
			}
			return res, eris.Wrapf(err, "crawl: page %d", page)
		}
		res.Stats.PagesFetched++

		extracted := 0
		for _, row := range rows {
			res.Stats.RowsSeen++
			out := extract.Extract(row)
			if out.Skipped {
				res.Stats.RowsSkipped++
				log.Debug("row skipped",
					zap.Int("page", page),
					zap.String("reason", out.Reason),
				)
				continue
			}
			res.Lots = append(res.Lots, *out.Lot)
			extracted++
		}

		log.Info("page processed",
			zap.Int("page", page),
			zap.Int("lots", extracted),
			zap.Int("total", len(res.Lots)),
		)

		if extracted == 0 {
			return res, nil
		}
		if opts.MaxPages > 0 && page >= opts.MaxPages {
			return res, nil
		}
	}
}
