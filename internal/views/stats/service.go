package stats

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/odyssey-erp/backoffice/internal/filterview"
	"github.com/odyssey-erp/backoffice/internal/platform/cache"
)

const loadTimeout = 5 * time.Second

var errMissingRange = errors.New("stats: date range required")

// Service loads stats reports through a Redis cache. Concurrent loads of the
// same range share one query.
type Service struct {
	repo  Repository
	cache *cache.JSONCache
	group singleflight.Group
}

// NewService wires the repository and cache. A nil cache disables caching.
func NewService(repo Repository, c *cache.JSONCache) *Service {
	return &Service{repo: repo, cache: c}
}

// Load is the loader of the stats view.
func (s *Service) Load(ctx context.Context, values filterview.Values) (Report, error) {
	from, okFrom := values.Date(FieldDateFrom)
	to, okTo := values.Date(FieldDateTo)
	if !okFrom || !okTo {
		return Report{}, filterview.Permanent(errMissingRange)
	}
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	current, err := s.Series(ctx, from, to)
	if err != nil {
		return Report{}, err
	}
	report := Report{Current: current}

	cmpFrom, okFrom := values.Date(FieldCompareDateFrom)
	cmpTo, okTo := values.Date(FieldCompareDateTo)
	if okFrom && okTo {
		compare, err := s.Series(ctx, cmpFrom, cmpTo)
		if err != nil {
			return Report{}, err
		}
		delta := compareTotals(current.Totals, compare.Totals)
		report.Compare = &compare
		report.Delta = &delta
	}
	return report, nil
}

// Series returns the daily series of [from, to] with every day present.
func (s *Service) Series(ctx context.Context, from, to time.Time) (Series, error) {
	from, to = filterview.Day(from), filterview.Day(to)
	if from.After(to) {
		return Series{}, filterview.Permanent(errors.New("stats: range is reversed"))
	}
	key, err := s.cache.Key(ctx, "daily", filterview.FormatDate(from), filterview.FormatDate(to))
	if err != nil {
		return Series{}, err
	}
	// The query is shared by every caller of the key, so it must not die
	// with the caller that happened to start it.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		ctx, cancel := context.WithTimeout(shared, loadTimeout)
		defer cancel()
		var out Series
		err := s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
			return s.build(ctx, from, to)
		})
		return out, err
	})
	select {
	case <-ctx.Done():
		return Series{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Series{}, res.Err
		}
		return res.Val.(Series), nil
	}
}

func (s *Service) build(ctx context.Context, from, to time.Time) (Series, error) {
	stored, err := s.repo.Daily(ctx, from, to)
	if err != nil {
		return Series{}, err
	}
	byDay := make(map[time.Time]Point, len(stored))
	for _, p := range stored {
		byDay[filterview.Day(p.Day)] = p
	}
	series := Series{From: from, To: to, Points: make([]Point, 0, days(from, to))}
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		p, ok := byDay[day]
		if !ok {
			p = Point{}
		}
		p.Day = day
		series.Points = append(series.Points, p)
		series.Totals.Visits += p.Visits
		series.Totals.Signups += p.Signups
		series.Totals.RevenueCents += p.RevenueCents
	}
	return series, nil
}

// Warm fills the cache for the default range ending at day.
func (s *Service) Warm(ctx context.Context, day time.Time) error {
	to := filterview.Day(day)
	_, err := s.Series(ctx, to.AddDate(0, 0, -DefaultRangeDays), to)
	return err
}

func compareTotals(current, previous Totals) Delta {
	return Delta{
		Visits:  percentChange(current.Visits, previous.Visits),
		Signups: percentChange(current.Signups, previous.Signups),
		Revenue: percentChange(current.RevenueCents, previous.RevenueCents),
	}
}

func percentChange(current, previous int64) *float64 {
	if previous == 0 {
		return nil
	}
	v := float64(current-previous) / float64(previous) * 100
	return &v
}
