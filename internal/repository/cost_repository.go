package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"bpih-platform/internal/dataset"
	"bpih-platform/internal/models"
	"bpih-platform/pkg/database"
	"bpih-platform/pkg/logging"
	"bpih-platform/pkg/metrics"
)

// CostRepository is where the published yearly figures come from
type CostRepository interface {
	LoadRecords(ctx context.Context) ([]models.YearRecord, error)
	HealthCheck(ctx context.Context) error
}

// AverageDriftTolerance is how far a published national average may sit from
// the plain mean of its regions, relative to the average, before a warning
const AverageDriftTolerance = 0.02

// LoadDataset reads every record from the repository into a dataset. Figures
// are kept as published; years whose average drifts from the regional mean
// are only logged.
func LoadDataset(ctx context.Context, repo CostRepository, logger *logging.StructuredLogger) (*dataset.Dataset, error) {
	records, err := repo.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cost records: %w", err)
	}

	for _, rec := range records {
		if rec.NationalAverage <= 0 || len(rec.RegionalCosts) == 0 {
			continue
		}
		mean := rec.RegionalMean()
		if !models.AlmostEqual(mean/rec.NationalAverage, 1, AverageDriftTolerance) {
			logger.Warn(ctx, "[DATASET_AVERAGE_DRIFT] National average differs from regional mean", logging.Fields{
				"year":             rec.Year,
				"national_average": rec.NationalAverage,
				"regional_mean":    mean,
			})
		}
	}

	return dataset.New(records)
}

// staticRepository serves the compiled-in Keppres table
type staticRepository struct{}

func NewStaticRepository() CostRepository {
	return staticRepository{}
}

func (staticRepository) LoadRecords(_ context.Context) ([]models.YearRecord, error) {
	return dataset.Keppres(), nil
}

func (staticRepository) HealthCheck(_ context.Context) error {
	return nil
}

// costRow is one (year, region) line of the joined cost tables
type costRow struct {
	Year            int     `db:"year"`
	HijriLabel      string  `db:"hijri_label"`
	Decree          string  `db:"decree"`
	NationalAverage float64 `db:"national_average"`
	Region          string  `db:"region"`
	Cost            float64 `db:"cost"`
}

// postgresRepository reads the authoritative tables; it never writes derived data
type postgresRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

func NewPostgresRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) CostRepository {
	return &postgresRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const selectCostsQuery = `
	SELECT y.year, y.hijri_label, y.decree, y.national_average, c.region, c.cost
	FROM bpih_years y
	JOIN bpih_regional_costs c ON c.year = y.year
	ORDER BY y.year, c.region
`

func (r *postgresRepository) LoadRecords(ctx context.Context) ([]models.YearRecord, error) {
	var rows []costRow
	if err := r.db.SelectContext(ctx, "select_costs", &rows, selectCostsQuery); err != nil {
		return nil, fmt.Errorf("failed to select costs: %w", err)
	}

	records, err := assembleRecords(rows)
	if err != nil {
		return nil, err
	}

	r.logger.Info(ctx, "[REPO_LOAD] Cost records loaded from PostgreSQL", logging.Fields{
		"rows":  len(rows),
		"years": len(records),
	})
	return records, nil
}

func (r *postgresRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// assembleRecords folds per-region rows into one record per year
func assembleRecords(rows []costRow) ([]models.YearRecord, error) {
	byYear := make(map[int]*models.YearRecord)
	for _, row := range rows {
		region, ok := models.ParseRegion(row.Region)
		if !ok {
			return nil, fmt.Errorf("year %d: unknown region %q", row.Year, row.Region)
		}

		rec, exists := byYear[row.Year]
		if !exists {
			rec = &models.YearRecord{
				Year:            row.Year,
				HijriLabel:      row.HijriLabel,
				Decree:          row.Decree,
				NationalAverage: row.NationalAverage,
				RegionalCosts:   make(map[models.Region]float64, len(models.AllRegions())),
			}
			byYear[row.Year] = rec
		}
		rec.RegionalCosts[region] = row.Cost
	}

	records := make([]models.YearRecord, 0, len(byYear))
	for _, year := range models.SortedYears(byYear) {
		records = append(records, *byYear[year])
	}
	return records, nil
}

const (
	upsertYearQuery = `
		INSERT INTO bpih_years (year, hijri_label, decree, national_average)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (year) DO UPDATE
		SET hijri_label = EXCLUDED.hijri_label,
		    decree = EXCLUDED.decree,
		    national_average = EXCLUDED.national_average
	`
	upsertRegionalCostQuery = `
		INSERT INTO bpih_regional_costs (year, region, cost)
		VALUES ($1, $2, $3)
		ON CONFLICT (year, region) DO UPDATE SET cost = EXCLUDED.cost
	`
)

// SeedRecords writes the published figures in a single transaction. It is the
// only write path and is used by the migrate command.
func SeedRecords(ctx context.Context, db *database.PostgresDB, records []models.YearRecord) error {
	return db.InTx(ctx, func(tx *sqlx.Tx) error {
		for _, rec := range records {
			if _, err := tx.ExecContext(ctx, upsertYearQuery, rec.Year, rec.HijriLabel, rec.Decree, rec.NationalAverage); err != nil {
				return fmt.Errorf("seed year %d: %w", rec.Year, err)
			}
			for _, region := range models.AllRegions() {
				cost, ok := rec.RegionalCosts[region]
				if !ok {
					continue
				}
				if _, err := tx.ExecContext(ctx, upsertRegionalCostQuery, rec.Year, string(region), cost); err != nil {
					return fmt.Errorf("seed %s %d: %w", region, rec.Year, err)
				}
			}
		}
		return nil
	})
}
