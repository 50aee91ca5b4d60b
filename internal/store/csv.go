package store

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/zakupwatch/lotscan/internal/model"
)

// csvHeader is the stable column order of the on-disk file. It matches the
// Lot schema and must not be reordered once a file exists.
var csvHeader = []string{
	"lot_id", "announcement", "customer", "subject", "subject_link",
	"quantity", "amount", "purchase_type", "status",
}

// CSVStore implements Store as an append-only CSV file. The header is written
// on first use; every later write appends rows only. A mutex covers whole
// batches so concurrent readers never see part of one.
type CSVStore struct {
	mu    sync.Mutex
	path  string
	opts  Options
	count int
	ids   map[string]bool
}

// NewCSV opens (or prepares to create) the CSV store at path. An existing
// file is scanned once for its row count and known lot_ids.
func NewCSV(path string, opts Options) (*CSVStore, error) {
	s := &CSVStore{path: path, opts: opts, ids: make(map[string]bool)}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: open existing")
	}
	defer func() { _ = f.Close() }()

	r := newLotReader(f)
	if _, err := r.Read(); err == io.EOF {
		return s, nil
	} else if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: scan existing rows")
		}
		s.count++
		if len(rec) > 0 {
			s.ids[rec[0]] = true
		}
	}
	return s, nil
}

func newLotReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	return cr
}

func (s *CSVStore) Close() error { return nil }

// Append writes the batch to the file under the store lock. The header goes
// out exactly once, when the file is first created.
func (s *CSVStore) Append(ctx context.Context, lots []model.Lot) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "csv: append")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(lots) == 0 {
		return 0, nil
	}

	_, statErr := os.Stat(s.path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, eris.Wrap(err, "csv: open for append")
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if fresh {
		if err := w.Write(csvHeader); err != nil {
			return 0, eris.Wrap(err, "csv: write header")
		}
	}

	added := 0
	for _, l := range lots {
		isNew := !s.ids[l.LotID]
		if !isNew && s.opts.Dedup {
			continue
		}
		if err := w.Write(lotRecord(l)); err != nil {
			return 0, eris.Wrapf(err, "csv: write lot %s", l.LotID)
		}
		s.count++
		if isNew {
			added++
			s.ids[l.LotID] = true
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return 0, eris.Wrap(err, "csv: flush")
	}
	return added, nil
}

func (s *CSVStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, eris.Wrap(err, "csv: count")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count, nil
}

// Page re-reads the file under the lock and slices out the requested page.
func (s *CSVStore) Page(ctx context.Context, pageNo, perPage int) ([]model.Lot, error) {
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "csv: page")
	}
	if pageNo < 1 || perPage < 1 {
		return nil, eris.Errorf("store: invalid page %d/%d", pageNo, perPage)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return []model.Lot{}, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: open for read")
	}
	defer func() { _ = f.Close() }()

	r := newLotReader(f)
	if _, err := r.Read(); err == io.EOF {
		return []model.Lot{}, nil
	} else if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	skip := (pageNo - 1) * perPage
	lots := []model.Lot{}
	for len(lots) < perPage {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "csv: read row")
		}
		if skip > 0 {
			skip--
			continue
		}
		lots = append(lots, recordLot(rec))
	}
	return lots, nil
}

func lotRecord(l model.Lot) []string {
	return []string{
		l.LotID, l.Announcement, l.Customer, l.Subject, l.SubjectLink,
		strconv.FormatFloat(l.Quantity, 'f', -1, 64),
		strconv.FormatFloat(l.Amount, 'f', -1, 64),
		l.PurchaseType, l.Status,
	}
}

func recordLot(rec []string) model.Lot {
	qty, _ := strconv.ParseFloat(rec[5], 64)
	amt, _ := strconv.ParseFloat(rec[6], 64)
	return model.Lot{
		LotID:        rec[0],
		Announcement: rec[1],
		Customer:     rec[2],
		Subject:      rec[3],
		SubjectLink:  rec[4],
		Quantity:     qty,
		Amount:       amt,
		PurchaseType: rec[7],
		Status:       rec[8],
	}
}
