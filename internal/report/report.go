package report

import (
	"context"
	"fmt"
	"strings"

	"bpih-platform/internal/analysis"
	"bpih-platform/internal/forecast"
	"bpih-platform/internal/knowledge"
	"bpih-platform/internal/models"
	"bpih-platform/internal/risk"
	"bpih-platform/internal/services"
)

// Report gathers everything the exporters write
type Report struct {
	Records   []models.YearRecord
	Growth    analysis.GrowthSummary
	Forecast  *services.ScenarioForecast
	Regional  *services.RegionalComparison
	Breakdown *services.CostBreakdown
	Risks     []risk.Factor
}

// Build runs the analysis for a forecast horizon of years. The regional view
// is the latest published year and the breakdown is the year after it.
func Build(ctx context.Context, svc *services.ForecastService, years int) (*Report, error) {
	growth, err := svc.Growth(ctx)
	if err != nil {
		return nil, err
	}

	fc, err := svc.Scenarios(ctx, years, forecast.Signals{})
	if err != nil {
		return nil, fmt.Errorf("scenarios: %w", err)
	}

	reg, err := svc.Regional(ctx, growth.CurrentYear)
	if err != nil {
		return nil, fmt.Errorf("regional: %w", err)
	}

	b, err := svc.Breakdown(ctx, growth.CurrentYear+1)
	if err != nil {
		return nil, fmt.Errorf("breakdown: %w", err)
	}

	return &Report{
		Records:   svc.Dataset().Records(),
		Growth:    growth,
		Forecast:  fc,
		Regional:  reg,
		Breakdown: b,
		Risks:     svc.Risks(),
	}, nil
}

// ConsoleSummary renders a short plain-text digest
func (r *Report) ConsoleSummary() string {
	var sb strings.Builder
	g := r.Growth

	sb.WriteString("BPIH FORECAST REPORT\n")
	sb.WriteString(strings.Repeat("=", 40) + "\n")
	fmt.Fprintf(&sb, "Data years          : %d\n", len(r.Records))
	fmt.Fprintf(&sb, "Latest (%d)       : %s\n", g.CurrentYear, knowledge.FormatRupiah(g.CurrentCost))
	fmt.Fprintf(&sb, "Average normal rate : %.2f%%\n", g.AverageNormal*100)
	fmt.Fprintf(&sb, "Overall CAGR        : %.1f%%\n", g.OverallCAGR)
	fmt.Fprintf(&sb, "Normal-period CAGR  : %.1f%%\n", g.NormalPeriodCAGR)

	sb.WriteString("\nProjection (conservative / realistic / optimistic)\n")
	for _, set := range r.Forecast.Scenarios {
		values := make([]string, 0, 3)
		for _, name := range models.AllScenarios() {
			values = append(values, knowledge.FormatMillions(set.Projections[name]))
		}
		fmt.Fprintf(&sb, "  %d: %s (confidence %.0f%%)\n", set.TargetYear, strings.Join(values, " / "), set.Confidence)
	}
	return sb.String()
}
