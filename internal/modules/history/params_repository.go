package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/database"
	"github.com/satidlabs/satid/internal/modules/fbis"
	"github.com/satidlabs/satid/internal/modules/satid"
)

const paramsColumns = `asset_id, asset_class, period, shift, support_tests, breaches, score, trend_start`

// ParamsRepository stores fitted FBIS parameters per asset
type ParamsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewParamsRepository creates a params repository
func NewParamsRepository(db *sql.DB, log zerolog.Logger) *ParamsRepository {
	return &ParamsRepository{
		db:  db,
		log: log.With().Str("repo", "fbis_params").Logger(),
	}
}

// SaveResults upserts a batch of optimization results in one transaction
func (r *ParamsRepository) SaveResults(results map[string]fbis.Result) error {
	if len(results) == 0 {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`
			INSERT INTO fbis_params (asset_id, asset_class, period, shift,
				support_tests, breaches, score, trend_start, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(asset_id) DO UPDATE SET
				asset_class = excluded.asset_class,
				period = excluded.period,
				shift = excluded.shift,
				support_tests = excluded.support_tests,
				breaches = excluded.breaches,
				score = excluded.score,
				trend_start = excluded.trend_start,
				updated_at = excluded.updated_at`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for assetID, res := range results {
			if err := res.Params.Validate(); err != nil {
				return fmt.Errorf("asset %s: %w", assetID, err)
			}
			if _, err := stmt.Exec(assetID, res.AssetClass, res.Params.Period, res.Params.Shift,
				res.SupportTests, res.Breaches, res.Score, res.TrendStart, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save fbis params: %w", err)
	}

	r.log.Debug().Int("assets", len(results)).Msg("FBIS parameters saved")
	return nil
}

// GetParams returns one asset's smoothing parameters. A missing row yields
// satid.ErrUnknownAsset: scoring an asset that was never fitted is a caller
// bug, not a default.
func (r *ParamsRepository) GetParams(assetID string) (satid.FBISParams, error) {
	var params satid.FBISParams
	err := r.db.QueryRow(
		"SELECT period, shift FROM fbis_params WHERE asset_id = ?", assetID,
	).Scan(&params.Period, &params.Shift)
	if err == sql.ErrNoRows {
		return satid.FBISParams{}, fmt.Errorf("no fbis params for %s: %w", assetID, satid.ErrUnknownAsset)
	}
	if err != nil {
		return satid.FBISParams{}, fmt.Errorf("failed to query fbis params for %s: %w", assetID, err)
	}
	return params, nil
}

// GetAllParams returns the smoothing parameters for every fitted asset
func (r *ParamsRepository) GetAllParams() (map[string]satid.FBISParams, error) {
	rows, err := r.db.Query("SELECT asset_id, period, shift FROM fbis_params")
	if err != nil {
		return nil, fmt.Errorf("failed to query fbis params: %w", err)
	}
	defer rows.Close()

	params := make(map[string]satid.FBISParams)
	for rows.Next() {
		var asset string
		var p satid.FBISParams
		if err := rows.Scan(&asset, &p.Period, &p.Shift); err != nil {
			return nil, fmt.Errorf("failed to scan fbis params: %w", err)
		}
		params[asset] = p
	}
	return params, rows.Err()
}

// GetResults returns the full stored optimization results, keyed by asset
func (r *ParamsRepository) GetResults() (map[string]fbis.Result, error) {
	rows, err := r.db.Query("SELECT " + paramsColumns + " FROM fbis_params")
	if err != nil {
		return nil, fmt.Errorf("failed to query fbis results: %w", err)
	}
	defer rows.Close()

	results := make(map[string]fbis.Result)
	for rows.Next() {
		var res fbis.Result
		if err := rows.Scan(&res.AssetID, &res.AssetClass, &res.Params.Period, &res.Params.Shift,
			&res.SupportTests, &res.Breaches, &res.Score, &res.TrendStart); err != nil {
			return nil, fmt.Errorf("failed to scan fbis result: %w", err)
		}
		results[res.AssetID] = res
	}
	return results, rows.Err()
}
