package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/xavierca1/lead-crm/internal/entity"
)

const (
	DefaultAnalyticsDays = 30
	MaxAnalyticsDays     = 365
	recentLeadsLimit     = 5
)

type AnalyticsUseCase struct {
	Leads entity.LeadRepositoryInterface
	Stats entity.LeadStatsRepository
	Now   func() time.Time
}

func NewAnalyticsUseCase(leads entity.LeadRepositoryInterface, stats entity.LeadStatsRepository) *AnalyticsUseCase {
	return &AnalyticsUseCase{Leads: leads, Stats: stats, Now: time.Now}
}

type analyticsInput struct {
	Days int `json:"days" validate:"gte=1,lte=365"`
}

// Execute builds the dashboard for ownerID over the last days calendar days (UTC),
// today included. Days with no leads appear with a zero count.
func (uc *AnalyticsUseCase) Execute(ctx context.Context, ownerID string, days int) (*AnalyticsOutput, error) {
	if errs := Validate(analyticsInput{Days: days}); len(errs) > 0 {
		return nil, NewValidationError(errs)
	}

	now := uc.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := today.AddDate(0, 0, -(days - 1))

	newToday, err := uc.Stats.CountCreatedBetween(ctx, ownerID, today, today.AddDate(0, 0, 1))
	if err != nil {
		return nil, newDatabaseError("count today's leads", err)
	}

	stageCounts, err := uc.Stats.CountByStage(ctx, ownerID)
	if err != nil {
		return nil, newDatabaseError("count leads by stage", err)
	}
	breakdown, total := orderBreakdown(stageCounts)

	converted, err := uc.Stats.CountInStages(ctx, ownerID, entity.ConvertedStages)
	if err != nil {
		return nil, newDatabaseError("count converted leads", err)
	}

	created, err := uc.Stats.CreatedSince(ctx, ownerID, start)
	if err != nil {
		return nil, newDatabaseError("load daily leads", err)
	}

	recent, err := uc.Leads.Search(ctx, entity.LeadFilter{OwnerID: ownerID, Limit: recentLeadsLimit})
	if err != nil {
		return nil, newDatabaseError("load recent leads", err)
	}
	if recent == nil {
		recent = []entity.Lead{}
	}

	return &AnalyticsOutput{
		Metrics: AnalyticsMetrics{
			NewLeadsToday:  newToday,
			TotalLeads:     total,
			ConversionRate: ConversionRate(converted, total),
			ConvertedLeads: converted,
		},
		PipelineBreakdown: breakdown,
		DailyLeads:        dailySeries(start, days, created),
		RecentLeads:       recent,
	}, nil
}

// ConversionRate is converted/total as a rounded percentage; zero when there are no leads.
func ConversionRate(converted, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(converted) / float64(total) * 100))
}

// orderBreakdown sorts stage counts into pipeline order and sums them.
func orderBreakdown(counts []entity.StageCount) ([]entity.StageCount, int) {
	out := make([]entity.StageCount, 0, len(counts))
	total := 0
	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		out = append(out, c)
		total += c.Count
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Stage.Position(), out[j].Stage.Position()
		if pi < 0 {
			pi = len(entity.Stages)
		}
		if pj < 0 {
			pj = len(entity.Stages)
		}
		return pi < pj
	})
	return out, total
}

func dailySeries(start time.Time, days int, created []time.Time) []DailyCount {
	byDay := make(map[string]int, days)
	for _, t := range created {
		byDay[t.UTC().Format(time.DateOnly)]++
	}

	series := make([]DailyCount, days)
	for i := range series {
		d := start.AddDate(0, 0, i).Format(time.DateOnly)
		series[i] = DailyCount{Date: d, Count: byDay[d]}
	}
	return series
}
