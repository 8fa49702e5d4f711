package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

const postgresDDL = `
CREATE TABLE IF NOT EXISTS phones (
	id              BIGSERIAL PRIMARY KEY,
	brand           TEXT NOT NULL,
	model           TEXT NOT NULL,
	price           NUMERIC NOT NULL,
	release_year    INTEGER NOT NULL DEFAULT 0,
	os              TEXT NOT NULL DEFAULT '',
	ram             INTEGER NOT NULL DEFAULT 0,
	storage         INTEGER NOT NULL DEFAULT 0,
	display_type    TEXT NOT NULL DEFAULT '',
	display_size    NUMERIC NOT NULL DEFAULT 0,
	resolution      TEXT NOT NULL DEFAULT '',
	refresh_rate    INTEGER NOT NULL DEFAULT 0,
	camera_main     INTEGER NOT NULL DEFAULT 0,
	camera_front    INTEGER NOT NULL DEFAULT 0,
	camera_features TEXT[] NOT NULL DEFAULT '{}',
	battery         INTEGER NOT NULL DEFAULT 0,
	charging        TEXT NOT NULL DEFAULT '',
	processor       TEXT NOT NULL DEFAULT '',
	connectivity    TEXT[] NOT NULL DEFAULT '{}',
	sensors         TEXT[] NOT NULL DEFAULT '{}',
	features        TEXT[] NOT NULL DEFAULT '{}',
	weight          NUMERIC NOT NULL DEFAULT 0,
	dimensions      TEXT NOT NULL DEFAULT '',
	rating          NUMERIC NOT NULL DEFAULT 0,
	stock_status    TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT '',
	colours         TEXT[] NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_phones_rating ON phones (rating DESC);
CREATE INDEX IF NOT EXISTS idx_phones_brand ON phones (brand);
CREATE INDEX IF NOT EXISTS idx_phones_price ON phones (price);
`

const sqliteDDL = `
CREATE TABLE IF NOT EXISTS phones (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	brand           TEXT NOT NULL,
	model           TEXT NOT NULL,
	price           REAL NOT NULL,
	release_year    INTEGER NOT NULL DEFAULT 0,
	os              TEXT NOT NULL DEFAULT '',
	ram             INTEGER NOT NULL DEFAULT 0,
	storage         INTEGER NOT NULL DEFAULT 0,
	display_type    TEXT NOT NULL DEFAULT '',
	display_size    REAL NOT NULL DEFAULT 0,
	resolution      TEXT NOT NULL DEFAULT '',
	refresh_rate    INTEGER NOT NULL DEFAULT 0,
	camera_main     INTEGER NOT NULL DEFAULT 0,
	camera_front    INTEGER NOT NULL DEFAULT 0,
	camera_features TEXT NOT NULL DEFAULT '',
	battery         INTEGER NOT NULL DEFAULT 0,
	charging        TEXT NOT NULL DEFAULT '',
	processor       TEXT NOT NULL DEFAULT '',
	connectivity    TEXT NOT NULL DEFAULT '',
	sensors         TEXT NOT NULL DEFAULT '',
	features        TEXT NOT NULL DEFAULT '',
	weight          REAL NOT NULL DEFAULT 0,
	dimensions      TEXT NOT NULL DEFAULT '',
	rating          REAL NOT NULL DEFAULT 0,
	stock_status    TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT '',
	colours         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_phones_rating ON phones (rating DESC);
CREATE INDEX IF NOT EXISTS idx_phones_brand ON phones (brand);
CREATE INDEX IF NOT EXISTS idx_phones_price ON phones (price);
`

// EnsureSchema creates the phones table and its indexes when absent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	ddl := sqliteDDL
	if s.dialect == DialectPostgres {
		ddl = postgresDDL
	}
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating catalog schema: %w", err)
	}
	return nil
}

// Insert writes one phone to the catalog and sets its ID.
func (s *Store) Insert(ctx context.Context, p *Phone) error {
	cols := selectColumns[1:] // id is generated

	if s.dialect == DialectPostgres {
		placeholders := make([]string, len(cols))
		for i := range cols {
			placeholders[i] = fmt.Sprintf("$%d", i+1)
		}
		query := fmt.Sprintf(
			"INSERT INTO phones (%s) VALUES (%s) RETURNING id",
			strings.Join(cols, ", "), strings.Join(placeholders, ", "),
		)
		err := s.db.QueryRowContext(ctx, query,
			p.Brand, p.Model, p.Price, p.ReleaseYear, p.OS, p.RAM, p.Storage,
			p.DisplayType, p.DisplaySize, p.Resolution, p.RefreshRate,
			p.CameraMain, p.CameraFront, pq.Array(p.CameraFeatures),
			p.Battery, p.Charging, p.Processor, pq.Array(p.Connectivity),
			pq.Array(p.Sensors), pq.Array(p.Features), p.Weight, p.Dimensions,
			p.Rating, p.StockStatus, p.Category, pq.Array(p.Colours),
		).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("inserting phone %s %s: %w", p.Brand, p.Model, err)
		}
		return nil
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = "?"
	}
	query := fmt.Sprintf(
		"INSERT INTO phones (%s) VALUES (%s)",
		strings.Join(cols, ", "), strings.Join(placeholders, ", "),
	)
	res, err := s.db.ExecContext(ctx, query,
		p.Brand, p.Model, p.Price, p.ReleaseYear, p.OS, p.RAM, p.Storage,
		p.DisplayType, p.DisplaySize, p.Resolution, p.RefreshRate,
		p.CameraMain, p.CameraFront, joinList(p.CameraFeatures),
		p.Battery, p.Charging, p.Processor, joinList(p.Connectivity),
		joinList(p.Sensors), joinList(p.Features), p.Weight, p.Dimensions,
		p.Rating, p.StockStatus, p.Category, joinList(p.Colours),
	)
	if err != nil {
		return fmt.Errorf("inserting phone %s %s: %w", p.Brand, p.Model, err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted phone id: %w", err)
	}
	return nil
}

// Count returns the number of phones in the catalog.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM phones").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting phones: %w", err)
	}
	return count, nil
}
