// Package dashboard computes the summary figures shown on the admin home page.
package dashboard

import (
	"context"
	"sort"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/model"
)

const (
	trendWindow = 4
	topLimit    = 5
)

type Members interface {
	CountActive(ctx context.Context) (int, error)
	NamesByID(ctx context.Context, ids []string) (map[string]string, error)
}

type Ledger interface {
	Recent(ctx context.Context, n int) ([]model.AttendanceEntry, error)
	PresenceCounts(ctx context.Context) ([]model.PresenceCount, error)
}

type Service struct {
	members Members
	ledger  Ledger
}

func NewService(members Members, ledger Ledger) *Service {
	return &Service{members: members, ledger: ledger}
}

// Compute builds the dashboard. Any storage failure fails the whole call.
func (s *Service) Compute(ctx context.Context) (*model.DashboardStats, error) {
	total, err := s.members.CountActive(ctx)
	if err != nil {
		return nil, apperr.Dependency("count members", err)
	}

	recent, err := s.ledger.Recent(ctx, trendWindow)
	if err != nil {
		return nil, apperr.Dependency("load recent attendance", err)
	}
	trend := Trend(recent)

	counts, err := s.ledger.PresenceCounts(ctx)
	if err != nil {
		return nil, apperr.Dependency("count presence", err)
	}
	ids := make([]string, len(counts))
	for i, c := range counts {
		ids[i] = c.MemberID
	}
	names, err := s.members.NamesByID(ctx, ids)
	if err != nil {
		return nil, apperr.Dependency("load member names", err)
	}

	stats := &model.DashboardStats{
		TotalMembers: total,
		TrendData:    trend,
		TopMembers:   TopMembers(counts, names, topLimit),
	}
	if len(trend) > 0 {
		latest := trend[len(trend)-1]
		stats.LatestInfo = &latest
	}
	return stats, nil
}

// Trend turns entries given newest first into chronological trend points.
func Trend(newestFirst []model.AttendanceEntry) []model.TrendPoint {
	points := make([]model.TrendPoint, len(newestFirst))
	for i, e := range newestFirst {
		points[len(points)-1-i] = Point(e)
	}
	return points
}

// Point summarizes one entry. An entry without records counts as 0%.
func Point(e model.AttendanceEntry) model.TrendPoint {
	var present, absent int
	for _, r := range e.Records {
		switch r.Status {
		case model.StatusPresent:
			present++
		case model.StatusAbsent:
			absent++
		}
	}
	total := present + absent
	return model.TrendPoint{
		Date:       e.Date.Format(model.DayLayout),
		Present:    present,
		Absent:     absent,
		Total:      total,
		Percentage: float64(present) / float64(max(total, 1)) * 100,
	}
}

// TopMembers ranks members by presence count, breaking ties by name and then
// id. Counts for ids missing from names belong to removed members and are
// skipped.
func TopMembers(counts []model.PresenceCount, names map[string]string, limit int) []model.TopMember {
	top := make([]model.TopMember, 0, len(counts))
	for _, c := range counts {
		name, ok := names[c.MemberID]
		if !ok {
			continue
		}
		top = append(top, model.TopMember{MemberID: c.MemberID, Name: name, Count: c.Count})
	}

	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		if top[i].Name != top[j].Name {
			return top[i].Name < top[j].Name
		}
		return top[i].MemberID < top[j].MemberID
	})

	if len(top) > limit {
		top = top[:limit]
	}
	return top
}
