package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medplan/risk-engine/calendar"
	"github.com/medplan/risk-engine/conflict"
	"github.com/medplan/risk-engine/history"
	"github.com/medplan/risk-engine/risk"
	"github.com/medplan/risk-engine/store/sqlite"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// HISTORICAL POINTS
// =============================================================================

func TestStore_DataPoints_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	points := []history.DataPoint{
		{
			Date:          calendar.NewDay(2024, time.July, 14),
			ConflictCount: 3,
			LeaveCount:    7,
			TeamAbsenceRates: map[string]decimal.Decimal{
				"icu":        decimal.NewFromFloat(0.4),
				"cardiology": decimal.NewFromFloat(0.25),
			},
		},
		{Date: calendar.NewDay(2024, time.July, 15), LeaveCount: 2},
	}
	require.NoError(t, store.SaveDataPoints(ctx, points))

	loaded, err := store.LoadDataPoints(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "2024-07-14", loaded[0].Date.String())
	assert.Equal(t, 3, loaded[0].ConflictCount)
	assert.Equal(t, 7, loaded[0].LeaveCount)
	assert.True(t, loaded[0].TeamAbsenceRates["icu"].Equal(decimal.NewFromFloat(0.4)))
	assert.Equal(t, 2, loaded[1].LeaveCount)
}

func TestStore_DataPoints_UpsertOverwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	day := calendar.NewDay(2024, time.July, 14)

	require.NoError(t, store.SaveDataPoints(ctx, []history.DataPoint{
		{Date: day, ConflictCount: 1, LeaveCount: 1},
	}))
	require.NoError(t, store.SaveDataPoints(ctx, []history.DataPoint{
		{Date: day, ConflictCount: 5, LeaveCount: 2},
	}))

	loaded, err := store.LoadDataPoints(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, 5, loaded[0].ConflictCount)
	assert.Equal(t, 2, loaded[0].LeaveCount)
}

// =============================================================================
// RISK PERIODS
// =============================================================================

func TestStore_Periods_RoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	periods := []risk.Period{
		{
			ID:                     "p-1",
			Span:                   calendar.NewRange(calendar.NewDay(2026, time.July, 1), calendar.NewDay(2026, time.August, 31)),
			Level:                  risk.LevelHigh,
			Score:                  72,
			AffectedTeams:          []string{"icu"},
			AffectedDepartments:    []string{},
			Reason:                 "Summer leave season",
			ConflictTypes:          []conflict.Type{conflict.TypeTeamAbsence, conflict.TypeTeamCapacity},
			ExpectedConflictCount:  decimal.NewFromFloat(3.25),
			HistoricalConflictRate: decimal.NewFromFloat(0.5),
			IsActive:               true,
			CreatedAt:              created,
		},
		{
			ID:                     "p-2",
			Span:                   calendar.NewRange(calendar.NewDay(2026, time.December, 20), calendar.NewDay(2026, time.December, 31)),
			Level:                  risk.LevelMedium,
			Score:                  45,
			AffectedTeams:          []string{},
			AffectedDepartments:    []string{},
			ConflictTypes:          []conflict.Type{conflict.TypeUserLeaveOverlap},
			ExpectedConflictCount:  decimal.NewFromInt(1),
			HistoricalConflictRate: decimal.Zero,
			IsActive:               false,
			CreatedAt:              created,
		},
	}
	require.NoError(t, store.ReplacePeriods(ctx, periods))

	loaded, err := store.LoadPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	p := loaded[0]
	assert.Equal(t, "p-1", p.ID)
	assert.Equal(t, risk.LevelHigh, p.Level)
	assert.Equal(t, 72, p.Score)
	assert.Equal(t, "2026-07-01", p.Span.Start.String())
	assert.Equal(t, "2026-08-31", p.Span.End.String())
	assert.Equal(t, []conflict.Type{conflict.TypeTeamAbsence, conflict.TypeTeamCapacity}, p.ConflictTypes)
	assert.True(t, p.ExpectedConflictCount.Equal(decimal.NewFromFloat(3.25)))
	assert.True(t, p.IsActive)
	assert.True(t, p.CreatedAt.Equal(created))

	assert.False(t, loaded[1].IsActive)
}

func TestStore_ReplacePeriods_ReplacesWholeCatalogue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	span := calendar.NewRange(calendar.NewDay(2026, time.May, 1), calendar.NewDay(2026, time.May, 10))

	base := risk.Period{
		Span: span, Level: risk.LevelMedium,
		AffectedTeams: []string{}, AffectedDepartments: []string{},
		ConflictTypes:         []conflict.Type{},
		ExpectedConflictCount: decimal.Zero, HistoricalConflictRate: decimal.Zero,
		CreatedAt: time.Now().UTC(),
	}
	old := base
	old.ID = "old"
	require.NoError(t, store.ReplacePeriods(ctx, []risk.Period{old}))

	fresh := base
	fresh.ID = "fresh"
	require.NoError(t, store.ReplacePeriods(ctx, []risk.Period{fresh}))

	loaded, err := store.LoadPeriods(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "fresh", loaded[0].ID)
}

// =============================================================================
// CONFLICT RULES
// =============================================================================

func TestStore_Rules_VersionsAndLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Empty store has no rules
	_, found, err := store.LoadLatestRules(ctx)
	require.NoError(t, err)
	assert.False(t, found)

	v1, err := store.SaveRules(ctx, conflict.DefaultRules())
	require.NoError(t, err)
	assert.Equal(t, 1, v1)

	updated := conflict.DefaultRules()
	updated.MaxTeamAbsencePercentage = 50
	v2, err := store.SaveRules(ctx, updated)
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	latest, found, err := store.LoadLatestRules(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 2, latest.Version)
	assert.Equal(t, 50.0, latest.MaxTeamAbsencePercentage)
}

func TestStore_SaveRules_RejectsInvalid(t *testing.T) {
	store := newTestStore(t)

	bad := conflict.Rules{MaxTeamAbsencePercentage: 200}
	_, err := store.SaveRules(context.Background(), bad)
	assert.ErrorIs(t, err, conflict.ErrInvalidRules)

	_, found, err := store.LoadLatestRules(context.Background())
	require.NoError(t, err)
	assert.False(t, found, "rejected documents are never persisted")
}
