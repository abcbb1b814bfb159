package vaccination

import (
	"context"
	"sort"
	"time"

	"github.com/mamadbah2/livestock/internal/domain/models"
	"github.com/mamadbah2/livestock/internal/repository"
)

// CoverageLookback is how far back a vaccination event still counts as
// current protection.
const CoverageLookback = 21 * 24 * time.Hour

// CoverageSource yields the diseases a unit is protected against by one
// record channel, considering only events at or after the since cutoff.
type CoverageSource interface {
	CoveredDiseases(ctx context.Context, unitID string, since time.Time) (map[string]struct{}, error)
}

// BatchSource derives coverage from campaign vaccinations. A campaign only
// counts once its batch is completed and carries a conduct date.
type BatchSource struct {
	repo repository.VaccinationRepository
}

// NewBatchSource builds a campaign-backed coverage source.
func NewBatchSource(repo repository.VaccinationRepository) *BatchSource {
	return &BatchSource{repo: repo}
}

func (s *BatchSource) CoveredDiseases(ctx context.Context, unitID string, since time.Time) (map[string]struct{}, error) {
	memberships, err := s.repo.ListMembershipsByUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	covered := make(map[string]struct{})
	for _, m := range memberships {
		batch, err := s.repo.GetBatch(ctx, m.BatchVaccinationID)
		if err != nil {
			return nil, err
		}
		if batch.Status != models.BatchVaccinationCompleted || batch.ConductDate == nil {
			continue
		}
		if batch.ConductDate.Before(since) {
			continue
		}
		if err := s.addMedicineDiseases(ctx, batch.MedicineIDs, covered); err != nil {
			return nil, err
		}
	}
	return covered, nil
}

func (s *BatchSource) addMedicineDiseases(ctx context.Context, medicineIDs []string, into map[string]struct{}) error {
	medicines, err := s.repo.GetMedicines(ctx, medicineIDs)
	if err != nil {
		return err
	}
	for _, med := range medicines {
		for _, diseaseID := range med.DiseaseIDs {
			into[diseaseID] = struct{}{}
		}
	}
	return nil
}

// SingleSource derives coverage from individually administered doses, which
// count immediately on record creation.
type SingleSource struct {
	repo repository.VaccinationRepository
}

// NewSingleSource builds a single-dose coverage source.
func NewSingleSource(repo repository.VaccinationRepository) *SingleSource {
	return &SingleSource{repo: repo}
}

func (s *SingleSource) CoveredDiseases(ctx context.Context, unitID string, since time.Time) (map[string]struct{}, error) {
	records, err := s.repo.ListSinglesByUnit(ctx, unitID)
	if err != nil {
		return nil, err
	}

	covered := make(map[string]struct{})
	for _, rec := range records {
		if rec.GivenDate.Before(since) {
			continue
		}
		medicines, err := s.repo.GetMedicines(ctx, rec.MedicineIDs)
		if err != nil {
			return nil, err
		}
		for _, med := range medicines {
			for _, diseaseID := range med.DiseaseIDs {
				covered[diseaseID] = struct{}{}
			}
		}
	}
	return covered, nil
}

// CoverageReport is the per-disease breakdown for a requirement slot.
// Downstream screens show progress, so partial coverage is not collapsed to
// a single boolean.
type CoverageReport struct {
	Required []string
	Done     map[string]bool
}

// Missing lists the required diseases with no qualifying event, sorted.
func (r CoverageReport) Missing() []string {
	var missing []string
	for _, diseaseID := range r.Required {
		if !r.Done[diseaseID] {
			missing = append(missing, diseaseID)
		}
	}
	sort.Strings(missing)
	return missing
}

// FullyCovered reports whether every required disease has coverage.
func (r CoverageReport) FullyCovered() bool {
	return len(r.Missing()) == 0
}

// Aggregator merges every record channel into one coverage view. Sources are
// unioned by distinct disease, not by event count, so a third channel can be
// added without touching call sites.
type Aggregator struct {
	sources  []CoverageSource
	lookback time.Duration
}

// NewAggregator combines the given sources under the standard lookback.
func NewAggregator(sources ...CoverageSource) *Aggregator {
	return &Aggregator{sources: sources, lookback: CoverageLookback}
}

// Coverage evaluates the unit against the required diseases at the given
// moment.
func (a *Aggregator) Coverage(ctx context.Context, unitID string, required []string, now time.Time) (CoverageReport, error) {
	since := now.Add(-a.lookback)

	union := make(map[string]struct{})
	for _, source := range a.sources {
		covered, err := source.CoveredDiseases(ctx, unitID, since)
		if err != nil {
			return CoverageReport{}, err
		}
		for diseaseID := range covered {
			union[diseaseID] = struct{}{}
		}
	}

	report := CoverageReport{Required: required, Done: make(map[string]bool, len(required))}
	for _, diseaseID := range required {
		_, ok := union[diseaseID]
		report.Done[diseaseID] = ok
	}
	return report, nil
}
