package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/agora/internal/domain"
)

func TestLastMonthsCrossesYear(t *testing.T) {
	months := lastMonths(time.Date(2026, 2, 20, 0, 0, 0, 0, time.UTC), 6)
	require.Equal(t, []domain.MonthCount{
		{Year: 2025, Month: 9},
		{Year: 2025, Month: 10},
		{Year: 2025, Month: 11},
		{Year: 2025, Month: 12},
		{Year: 2026, Month: 1},
		{Year: 2026, Month: 2},
	}, months)
}

func TestBucketZeroFills(t *testing.T) {
	months := lastMonths(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), 3)
	got := bucket(months, []time.Time{
		time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 6, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, []int{1, 0, 2}, []int{got[0].Count, got[1].Count, got[2].Count})
}

func TestStatsService_Dashboard(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture(t)
	alice := f.user(t, "alice")
	tp := f.topic(t, alice)
	f.comment(t, alice, tp.ID)

	d, err := f.stats.Dashboard(ctx)
	req.NoError(err)
	req.Equal(domain.Totals{Users: 1, Topics: 1, Comments: 1, Categories: 1}, d.Stats)
	req.Equal(1, d.UserStatus.Active)
	req.Len(d.TopicsPerCategory, 1)
	req.Len(d.MonthlyActivity.Topics, ActivityMonths)
	req.Equal(1, d.MonthlyActivity.Topics[ActivityMonths-1].Count)
	req.Equal(1, d.MonthlyActivity.Comments[ActivityMonths-1].Count)
}
