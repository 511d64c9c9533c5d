package service

import (
	"context"
	"fmt"
	"time"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/store"
)

// ActivityMonths is the number of calendar months in the activity chart,
// the current month included.
const ActivityMonths = 6

// StatsService builds the admin dashboard.
type StatsService struct {
	stats store.StatsStore
	now   Clock
}

// NewStatsService creates a StatsService.
func NewStatsService(stats store.StatsStore) *StatsService {
	return &StatsService{stats: stats, now: systemClock}
}

// Dashboard aggregates totals, user status, topics per category and
// zero-filled monthly activity.
func (s *StatsService) Dashboard(ctx context.Context) (domain.Dashboard, error) {
	now := s.now()
	var d domain.Dashboard
	var err error

	if d.Stats, err = s.stats.Totals(ctx); err != nil {
		return domain.Dashboard{}, fmt.Errorf("totals: %w", err)
	}
	if d.UserStatus, err = s.stats.UserStatus(ctx, now); err != nil {
		return domain.Dashboard{}, fmt.Errorf("user status: %w", err)
	}
	if d.TopicsPerCategory, err = s.stats.TopicsPerCategory(ctx); err != nil {
		return domain.Dashboard{}, fmt.Errorf("topics per category: %w", err)
	}

	months := lastMonths(now, ActivityMonths)
	since := time.Date(months[0].Year, time.Month(months[0].Month), 1, 0, 0, 0, 0, time.UTC)

	topicTimes, err := s.stats.TopicCreationTimes(ctx, since)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("topic activity: %w", err)
	}
	commentTimes, err := s.stats.CommentCreationTimes(ctx, since)
	if err != nil {
		return domain.Dashboard{}, fmt.Errorf("comment activity: %w", err)
	}
	d.MonthlyActivity = domain.MonthlyActivity{
		Topics:   bucket(months, topicTimes),
		Comments: bucket(months, commentTimes),
	}
	return d, nil
}

// lastMonths returns n calendar months ending with the month of now, oldest
// first, with zero counts.
func lastMonths(now time.Time, n int) []domain.MonthCount {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.MonthCount, n)
	for i := 0; i < n; i++ {
		m := first.AddDate(0, i-(n-1), 0)
		out[i] = domain.MonthCount{Year: m.Year(), Month: int(m.Month())}
	}
	return out
}

func bucket(months []domain.MonthCount, times []time.Time) []domain.MonthCount {
	out := make([]domain.MonthCount, len(months))
	copy(out, months)
	index := make(map[[2]int]int, len(out))
	for i, m := range out {
		index[[2]int{m.Year, m.Month}] = i
	}
	for _, t := range times {
		t = t.UTC()
		if i, ok := index[[2]int{t.Year(), int(t.Month())}]; ok {
			out[i].Count++
		}
	}
	return out
}
