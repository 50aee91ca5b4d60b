package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/zakupwatch/lotscan/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db   *sql.DB
	opts Options
}

// NewSQLite opens a SQLite database at the given path, configures WAL mode,
// and applies migrations.
func NewSQLite(dsn string, opts Options) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	s := &SQLiteStore{db: db, opts: opts}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS lots (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	lot_id        TEXT NOT NULL,
	announcement  TEXT NOT NULL DEFAULT '',
	customer      TEXT NOT NULL DEFAULT '',
	subject       TEXT NOT NULL DEFAULT '',
	subject_link  TEXT NOT NULL DEFAULT '',
	quantity      REAL NOT NULL DEFAULT 0,
	amount        REAL NOT NULL DEFAULT 0,
	purchase_type TEXT NOT NULL DEFAULT '',
	status        TEXT NOT NULL DEFAULT '',
	scraped_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS scrape_runs (
	id             TEXT PRIMARY KEY,
	start_page     INTEGER NOT NULL,
	max_pages      INTEGER NOT NULL,
	pages_fetched  INTEGER NOT NULL,
	lots_added     INTEGER NOT NULL,
	rows_skipped   INTEGER NOT NULL,
	schema_stopped INTEGER NOT NULL DEFAULT 0,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lots_lot_id ON lots(lot_id);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Append inserts the batch inside one transaction so readers see either none
// or all of it. With Dedup set, lots whose lot_id already exists (in the store
// or earlier in the same batch) are dropped.
func (s *SQLiteStore) Append(ctx context.Context, lots []model.Lot) (int, error) {
	if len(lots) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin append")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO lots (lot_id, announcement, customer, subject, subject_link, quantity, amount, purchase_type, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer func() { _ = stmt.Close() }()

	added := 0
	seen := make(map[string]bool)
	for _, l := range lots {
		isNew, err := s.isNew(ctx, tx, l.LotID, seen)
		if err != nil {
			return 0, err
		}
		if !isNew {
			if s.opts.Dedup {
				continue
			}
		} else {
			added++
			seen[l.LotID] = true
		}
		if _, err := stmt.ExecContext(ctx,
			l.LotID, l.Announcement, l.Customer, l.Subject, l.SubjectLink,
			l.Quantity, l.Amount, l.PurchaseType, l.Status,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert lot %s", l.LotID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit append")
	}
	return added, nil
}

func (s *SQLiteStore) isNew(ctx context.Context, tx *sql.Tx, lotID string, seen map[string]bool) (bool, error) {
	if seen[lotID] {
		return false, nil
	}
	var n int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM lots WHERE lot_id = ?`, lotID).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: check lot %s", lotID)
	}
	return n == 0, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM lots`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count")
}

// Page reads lots back in insertion order.
func (s *SQLiteStore) Page(ctx context.Context, pageNo, perPage int) ([]model.Lot, error) {
	if pageNo < 1 || perPage < 1 {
		return nil, eris.Errorf("store: invalid page %d/%d", pageNo, perPage)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT lot_id, announcement, customer, subject, subject_link, quantity, amount, purchase_type, status
		 FROM lots ORDER BY id LIMIT ? OFFSET ?`,
		perPage, (pageNo-1)*perPage,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: page")
	}
	defer func() { _ = rows.Close() }()

	lots := []model.Lot{}
	for rows.Next() {
		var l model.Lot
		if err := rows.Scan(
			&l.LotID, &l.Announcement, &l.Customer, &l.Subject, &l.SubjectLink,
			&l.Quantity, &l.Amount, &l.PurchaseType, &l.Status,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lot")
		}
		lots = append(lots, l)
	}
	return lots, eris.Wrap(rows.Err(), "sqlite: page iterate")
}

// RecordRun persists one pagination run's bookkeeping entry.
func (s *SQLiteStore) RecordRun(ctx context.Context, rec RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scrape_runs (id, start_page, max_pages, pages_fetched, lots_added, rows_skipped, schema_stopped, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.StartPage, rec.MaxPages, rec.PagesFetched, rec.LotsAdded,
		rec.RowsSkipped, rec.SchemaStopped, rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	)
	return eris.Wrap(err, "sqlite: record run")
}
