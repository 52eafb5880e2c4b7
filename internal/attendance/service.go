// Package attendance records who was present on each calendar day.
package attendance

import (
	"context"
	"log/slog"
	"time"

	"github.com/dukerupert/rollcall/internal/apperr"
	"github.com/dukerupert/rollcall/internal/metrics"
	"github.com/dukerupert/rollcall/internal/model"
)

// Ledger is the storage the service needs.
type Ledger interface {
	Upsert(ctx context.Context, day time.Time, records []model.AttendanceRecord) (*model.AttendanceEntry, bool, error)
	GetByDay(ctx context.Context, day time.Time) (*model.AttendanceEntry, error)
	List(ctx context.Context) ([]model.AttendanceEntry, error)
	ListBetween(ctx context.Context, start, end time.Time) ([]model.AttendanceEntry, error)
}

type Service struct {
	ledger Ledger
	logger *slog.Logger
}

func NewService(ledger Ledger, logger *slog.Logger) *Service {
	return &Service{ledger: ledger, logger: logger}
}

// Upsert creates the entry for the given day or replaces its records
// wholesale. created is true when no entry existed for the day.
func (s *Service) Upsert(ctx context.Context, date string, records []model.AttendanceRecord) (entry *model.AttendanceEntry, created bool, err error) {
	day, err := ParseDay(date)
	if err != nil {
		return nil, false, err
	}

	records, err = normalize(records)
	if err != nil {
		return nil, false, err
	}

	entry, created, err = s.ledger.Upsert(ctx, day, records)
	if err != nil {
		return nil, false, apperr.Dependency("save attendance", err)
	}

	outcome := "replaced"
	if created {
		outcome = "created"
	}
	metrics.AttendanceSaves.WithLabelValues(outcome).Inc()
	s.logger.Info("attendance saved", "day", day.Format(model.DayLayout), "records", len(records), "created", created)
	return entry, created, nil
}

// ByDate returns the entry for the day, or nil when attendance was not taken.
func (s *Service) ByDate(ctx context.Context, date string) (*model.AttendanceEntry, error) {
	day, err := ParseDay(date)
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.GetByDay(ctx, day)
	if err != nil {
		return nil, apperr.Dependency("load attendance", err)
	}
	return entry, nil
}

// History returns entries newest first. Both bounds must be given to filter;
// the range is inclusive on both ends. Otherwise the whole ledger is returned.
func (s *Service) History(ctx context.Context, startDate, endDate string) ([]model.AttendanceEntry, error) {
	var (
		entries []model.AttendanceEntry
		err     error
	)

	if startDate != "" && endDate != "" {
		start, perr := ParseDay(startDate)
		if perr != nil {
			return nil, perr
		}
		end, perr := ParseDay(endDate)
		if perr != nil {
			return nil, perr
		}
		entries, err = s.ledger.ListBetween(ctx, start, end)
	} else {
		entries, err = s.ledger.List(ctx)
	}
	if err != nil {
		return nil, apperr.Dependency("load attendance history", err)
	}

	if entries == nil {
		entries = []model.AttendanceEntry{}
	}
	return entries, nil
}

// normalize validates records and collapses repeated member ids. A repeated
// id keeps the position of its first occurrence and the status of its last.
func normalize(records []model.AttendanceRecord) ([]model.AttendanceRecord, error) {
	out := make([]model.AttendanceRecord, 0, len(records))
	seen := make(map[string]int, len(records))

	for _, r := range records {
		if r.MemberID == "" {
			return nil, apperr.Validation("Each record needs a memberId")
		}
		if r.Status != model.StatusPresent && r.Status != model.StatusAbsent {
			return nil, apperr.Validation("Status must be Present or Absent")
		}
		if i, ok := seen[r.MemberID]; ok {
			out[i].Status = r.Status
			continue
		}
		seen[r.MemberID] = len(out)
		out = append(out, r)
	}
	return out, nil
}
