// Package history is the persistence layer: weekly OHLC bars, portfolio
// allocations, and fitted FBIS parameters, all in a single SQLite database.
package history

import (
	"database/sql"
	"fmt"

	"github.com/satidlabs/satid/internal/database"
)

const schema = `
CREATE TABLE IF NOT EXISTS weekly_bars (
	asset_id TEXT NOT NULL,
	week     TEXT NOT NULL,  -- ISO date of the week's close
	open     REAL NOT NULL,
	high     REAL NOT NULL,
	low      REAL NOT NULL,
	close    REAL NOT NULL,
	PRIMARY KEY (asset_id, week)
);

CREATE INDEX IF NOT EXISTS idx_weekly_bars_asset ON weekly_bars(asset_id);

CREATE TABLE IF NOT EXISTS allocations (
	portfolio_id TEXT NOT NULL,
	asset_id     TEXT NOT NULL,
	weight       REAL NOT NULL,
	asset_class  TEXT NOT NULL DEFAULT '',
	updated_at   TEXT NOT NULL,
	PRIMARY KEY (portfolio_id, asset_id)
);

CREATE TABLE IF NOT EXISTS fbis_params (
	asset_id      TEXT PRIMARY KEY,
	asset_class   TEXT NOT NULL DEFAULT '',
	period        INTEGER NOT NULL,
	shift         REAL NOT NULL,
	support_tests INTEGER NOT NULL DEFAULT 0,
	breaches      INTEGER NOT NULL DEFAULT 0,
	score         REAL NOT NULL DEFAULT 0,
	trend_start   INTEGER NOT NULL DEFAULT 0,
	updated_at    TEXT NOT NULL
);
`

// InitSchema creates the history tables if they do not exist
func InitSchema(db *sql.DB) error {
	if err := database.WithTransaction(db, func(tx *sql.Tx) error {
		_, err := tx.Exec(schema)
		return err
	}); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return nil
}
