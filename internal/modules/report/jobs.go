package report

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/satidlabs/satid/internal/modules/fbis"
	"github.com/satidlabs/satid/internal/modules/history"
	"github.com/satidlabs/satid/internal/modules/satid"
)

// RecomputeJob regenerates the cached report on a schedule
type RecomputeJob struct {
	svc *Service
	log zerolog.Logger
}

// NewRecomputeJob creates the scheduled report refresh
func NewRecomputeJob(svc *Service, log zerolog.Logger) *RecomputeJob {
	return &RecomputeJob{
		svc: svc,
		log: log.With().Str("job", "report_recompute").Logger(),
	}
}

// Name implements scheduler.Job
func (j *RecomputeJob) Name() string { return "report_recompute" }

// Run implements scheduler.Job
func (j *RecomputeJob) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := j.svc.Generate()
	return err
}

// BarSource provides raw weekly bars for parameter fitting
type BarSource interface {
	GetWeeklyBars(assetID string) ([]history.WeeklyBar, error)
}

// ParamsSink persists optimization results
type ParamsSink interface {
	SaveResults(results map[string]fbis.Result) error
}

// RefitJob re-optimizes every allocated asset's FBIS parameters from its
// OHLC history and persists the winners, then regenerates the report so the
// new support lines take effect immediately.
type RefitJob struct {
	bars        BarSource
	allocations AllocationSource
	sink        ParamsSink
	optimizer   *fbis.Optimizer
	svc         *Service
	portfolioID string
	log         zerolog.Logger
}

// NewRefitJob creates the scheduled parameter refit
func NewRefitJob(
	bars BarSource,
	allocations AllocationSource,
	sink ParamsSink,
	optimizer *fbis.Optimizer,
	svc *Service,
	portfolioID string,
	log zerolog.Logger,
) *RefitJob {
	return &RefitJob{
		bars:        bars,
		allocations: allocations,
		sink:        sink,
		optimizer:   optimizer,
		svc:         svc,
		portfolioID: portfolioID,
		log:         log.With().Str("job", "fbis_refit").Logger(),
	}
}

// Name implements scheduler.Job
func (j *RefitJob) Name() string { return "fbis_refit" }

// Run implements scheduler.Job. The per-asset loop checks ctx so a timed-out
// refit stops between assets instead of grinding through the batch.
func (j *RefitJob) Run(ctx context.Context) error {
	allocations, err := j.allocations.GetAllocations(j.portfolioID)
	if err != nil {
		return fmt.Errorf("failed to load allocations: %w", err)
	}

	assets := make(map[string]fbis.OHLCHistory, len(allocations))
	for assetID, alloc := range allocations {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("refit aborted: %w", err)
		}
		bars, err := j.bars.GetWeeklyBars(assetID)
		if err != nil {
			return err
		}
		if len(bars) == 0 {
			return fmt.Errorf("no bars for %s: %w", assetID, satid.ErrUnknownAsset)
		}

		h := fbis.OHLCHistory{
			AssetClass: alloc.AssetClass,
			Highs:      make([]float64, len(bars)),
			Lows:       make([]float64, len(bars)),
			Closes:     make([]float64, len(bars)),
		}
		for i, bar := range bars {
			h.Highs[i] = bar.High
			h.Lows[i] = bar.Low
			h.Closes[i] = bar.Close
		}
		assets[assetID] = h
	}

	results, err := j.optimizer.OptimizeAll(assets)
	if err != nil {
		return err
	}
	if err := j.sink.SaveResults(results); err != nil {
		return err
	}

	j.log.Info().Int("assets", len(results)).Msg("FBIS parameters refitted")

	_, err = j.svc.Generate()
	return err
}
