package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/database"
	"github.com/satidlabs/satid/internal/modules/satid"
)

// weekLayout is the stored date format for the week column
const weekLayout = "2006-01-02"

// WeeklyBar is one asset-week OHLC observation
type WeeklyBar struct {
	AssetID string    `json:"asset_id"`
	Week    time.Time `json:"week"`
	Open    float64   `json:"open"`
	High    float64   `json:"high"`
	Low     float64   `json:"low"`
	Close   float64   `json:"close"`
}

// barColumns avoids SELECT *; order must match scanBar
const barColumns = `asset_id, week, open, high, low, close`

// PriceRepository handles weekly bar storage
type PriceRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPriceRepository creates a price repository
func NewPriceRepository(db *sql.DB, log zerolog.Logger) *PriceRepository {
	return &PriceRepository{
		db:  db,
		log: log.With().Str("repo", "prices").Logger(),
	}
}

// SaveWeeklyBars upserts a batch of bars in one transaction. Re-saving the
// same asset-week overwrites the previous row, so weekly refreshes that
// revise the current bar are idempotent.
func (r *PriceRepository) SaveWeeklyBars(bars []WeeklyBar) error {
	if len(bars) == 0 {
		return nil
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO weekly_bars (asset_id, week, open, high, low, close)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(asset_id, week) DO UPDATE SET
				open = excluded.open,
				high = excluded.high,
				low = excluded.low,
				close = excluded.close`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for _, bar := range bars {
			if bar.Close <= 0 || bar.High <= 0 || bar.Low <= 0 || bar.Open <= 0 {
				return fmt.Errorf("non-positive price for %s at %s", bar.AssetID, bar.Week.Format(weekLayout))
			}
			if _, err := stmt.Exec(bar.AssetID, bar.Week.Format(weekLayout),
				bar.Open, bar.High, bar.Low, bar.Close); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save weekly bars: %w", err)
	}

	r.log.Debug().Int("bars", len(bars)).Msg("Weekly bars saved")
	return nil
}

// GetWeeklyBars returns an asset's bars ordered by week ascending
func (r *PriceRepository) GetWeeklyBars(assetID string) ([]WeeklyBar, error) {
	query := "SELECT " + barColumns + " FROM weekly_bars WHERE asset_id = ? ORDER BY week ASC"

	rows, err := r.db.Query(query, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly bars for %s: %w", assetID, err)
	}
	defer rows.Close()

	var bars []WeeklyBar
	for rows.Next() {
		bar, err := scanBar(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weekly bar: %w", err)
		}
		bars = append(bars, bar)
	}
	return bars, rows.Err()
}

// GetPriceSeries returns an asset's close series, validated for scoring. An
// asset with no bars yields satid.ErrUnknownAsset.
func (r *PriceRepository) GetPriceSeries(assetID string) (satid.PriceSeries, error) {
	bars, err := r.GetWeeklyBars(assetID)
	if err != nil {
		return satid.PriceSeries{}, err
	}
	if len(bars) == 0 {
		return satid.PriceSeries{}, fmt.Errorf("no price history for %s: %w", assetID, satid.ErrUnknownAsset)
	}

	closes := make([]float64, len(bars))
	for i, bar := range bars {
		closes[i] = bar.Close
	}
	series, err := satid.NewWeeklySeries(closes)
	if err != nil {
		return satid.PriceSeries{}, fmt.Errorf("invalid price history for %s: %w", assetID, err)
	}
	return series, nil
}

// ListAssets returns every asset ID with at least one bar, sorted
func (r *PriceRepository) ListAssets() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT asset_id FROM weekly_bars ORDER BY asset_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	defer rows.Close()

	var assets []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan asset id: %w", err)
		}
		assets = append(assets, id)
	}
	return assets, rows.Err()
}

// LatestWeek returns the most recent stored week across all assets, or the
// zero time when the table is empty.
func (r *PriceRepository) LatestWeek() (time.Time, error) {
	var week sql.NullString
	err := r.db.QueryRow("SELECT MAX(week) FROM weekly_bars").Scan(&week)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query latest week: %w", err)
	}
	if !week.Valid {
		return time.Time{}, nil
	}
	return time.Parse(weekLayout, week.String)
}

func scanBar(rows *sql.Rows) (WeeklyBar, error) {
	var bar WeeklyBar
	var week string
	if err := rows.Scan(&bar.AssetID, &week, &bar.Open, &bar.High, &bar.Low, &bar.Close); err != nil {
		return WeeklyBar{}, err
	}
	parsed, err := time.Parse(weekLayout, week)
	if err != nil {
		return WeeklyBar{}, fmt.Errorf("invalid week %q: %w", week, err)
	}
	bar.Week = parsed
	return bar, nil
}
