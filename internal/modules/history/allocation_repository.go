package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/database"
	"github.com/satidlabs/satid/internal/modules/satid"
)

// AllocationRepository handles portfolio allocation storage
type AllocationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewAllocationRepository creates an allocation repository
func NewAllocationRepository(db *sql.DB, log zerolog.Logger) *AllocationRepository {
	return &AllocationRepository{
		db:  db,
		log: log.With().Str("repo", "allocations").Logger(),
	}
}

// SaveAllocations replaces a portfolio's allocation table atomically. The
// weights are validated before any row is touched, so a bad table never
// partially overwrites a good one.
func (r *AllocationRepository) SaveAllocations(portfolioID string, allocations map[string]satid.Allocation) error {
	if err := satid.ValidateAllocations(allocations); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM allocations WHERE portfolio_id = ?", portfolioID); err != nil {
			return err
		}
		for asset, alloc := range allocations {
			if _, err := tx.Exec(`
				INSERT INTO allocations (portfolio_id, asset_id, weight, asset_class, updated_at)
				VALUES (?, ?, ?, ?, ?)`,
				portfolioID, asset, alloc.Weight, alloc.AssetClass, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save allocations for %s: %w", portfolioID, err)
	}

	r.log.Debug().Str("portfolio", portfolioID).Int("assets", len(allocations)).Msg("Allocations saved")
	return nil
}

// GetAllocations returns a portfolio's allocation table. Stored rows are
// re-validated on the way out; a corrupted weight surfaces as
// satid.ErrInvalidAllocation rather than flowing into scoring.
func (r *AllocationRepository) GetAllocations(portfolioID string) (map[string]satid.Allocation, error) {
	rows, err := r.db.Query(`
		SELECT asset_id, weight, asset_class
		FROM allocations WHERE portfolio_id = ?`, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query allocations for %s: %w", portfolioID, err)
	}
	defer rows.Close()

	allocations := make(map[string]satid.Allocation)
	for rows.Next() {
		var asset string
		var alloc satid.Allocation
		if err := rows.Scan(&asset, &alloc.Weight, &alloc.AssetClass); err != nil {
			return nil, fmt.Errorf("failed to scan allocation: %w", err)
		}
		allocations[asset] = alloc
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := satid.ValidateAllocations(allocations); err != nil {
		return nil, fmt.Errorf("stored allocations for %s are invalid: %w", portfolioID, err)
	}
	return allocations, nil
}

// ListPortfolios returns every portfolio ID with stored allocations, sorted
func (r *AllocationRepository) ListPortfolios() ([]string, error) {
	rows, err := r.db.Query("SELECT DISTINCT portfolio_id FROM allocations ORDER BY portfolio_id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio id: %w", err)
		}
		portfolios = append(portfolios, id)
	}
	return portfolios, rows.Err()
}
