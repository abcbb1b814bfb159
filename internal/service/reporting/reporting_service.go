// Package reporting renders read-only herd summaries. It never mutates
// domain state; counters are reconciled inside the business operations
// themselves.
package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
	sheetsrepo "github.com/mamadbah2/livestock/internal/repository/sheets"
)

const (
	dateLayout        = "2006-01-02"
	summarySheetRange = "DailySummary!A:H"
)

// Service aggregates the daily herd snapshot.
type Service struct {
	units     repository.UnitRepository
	imports   repository.ImportRepository
	exports   repository.ExportRepository
	insurance repository.InsuranceRepository
	summaries repository.SummaryRepository
	sheets    sheetsrepo.Repository
	logger    *zap.Logger
}

// NewService wires a reporting service instance. The sheets repository may
// be nil when spreadsheet export is not configured.
func NewService(
	units repository.UnitRepository,
	imports repository.ImportRepository,
	exports repository.ExportRepository,
	insurance repository.InsuranceRepository,
	summaries repository.SummaryRepository,
	sheets sheetsrepo.Repository,
	logger *zap.Logger,
) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		units:     units,
		imports:   imports,
		exports:   exports,
		insurance: insurance,
		summaries: summaries,
		sheets:    sheets,
		logger:    logger,
	}
}

// BuildDailySummary computes the snapshot for the day containing the given
// moment.
func (s *Service) BuildDailySummary(ctx context.Context, at time.Time) (models.DailySummary, error) {
	dayStart := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	dayEnd := dayStart.Add(24 * time.Hour)

	counts, err := s.units.CountByStatus(ctx)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("count units by status: %w", err)
	}
	deaths, err := s.units.CountDeadBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("count deaths: %w", err)
	}
	handovers, err := s.exports.CountHandoversBetween(ctx, dayStart, dayEnd)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("count handovers: %w", err)
	}
	openImports, err := s.imports.CountOpenBatches(ctx)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("count open import batches: %w", err)
	}
	openInsurance, err := s.insurance.CountOpen(ctx)
	if err != nil {
		return models.DailySummary{}, fmt.Errorf("count open insurance requests: %w", err)
	}

	return models.DailySummary{
		Date:              dayStart,
		StatusCounts:      counts,
		DeathsToday:       deaths,
		HandoversToday:    handovers,
		OpenImportBatches: openImports,
		OpenInsurance:     openInsurance,
		CreatedAt:         at,
	}, nil
}

// PublishDailySummary builds, stores and exports the snapshot.
func (s *Service) PublishDailySummary(ctx context.Context, at time.Time) (models.DailySummary, error) {
	summary, err := s.BuildDailySummary(ctx, at)
	if err != nil {
		return models.DailySummary{}, err
	}

	if err := s.summaries.SaveDailySummary(ctx, summary); err != nil {
		return models.DailySummary{}, fmt.Errorf("save daily summary: %w", err)
	}

	if s.sheets != nil {
		row := []interface{}{
			summary.Date.Format(dateLayout),
			summary.StatusCounts[models.UnitHealthy],
			summary.StatusCounts[models.UnitSick],
			summary.StatusCounts[models.UnitAwaitingExport],
			summary.StatusCounts[models.UnitExported],
			summary.DeathsToday,
			summary.HandoversToday,
			summary.OpenInsurance,
		}
		if err := s.sheets.WriteRow(ctx, summarySheetRange, row); err != nil {
			// Sheet export is best effort; the stored summary is the record.
			s.logger.Warn("failed to append summary row", zap.Error(err))
		}
	}

	return summary, nil
}

// FormatSummary renders the snapshot as a short human message.
func (s *Service) FormatSummary(summary models.DailySummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Herd summary %s\n", summary.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Healthy: %d, Sick: %d, Awaiting export: %d\n",
		summary.StatusCounts[models.UnitHealthy],
		summary.StatusCounts[models.UnitSick],
		summary.StatusCounts[models.UnitAwaitingExport])
	fmt.Fprintf(&b, "Deaths today: %d, Handovers today: %d\n", summary.DeathsToday, summary.HandoversToday)
	fmt.Fprintf(&b, "Open import batches: %d, Open insurance requests: %d", summary.OpenImportBatches, summary.OpenInsurance)
	return b.String()
}
