package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/rollcall/internal/model"
)

type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

const entryCols = `id, day, created_at, updated_at`

func scanEntry(sc scanner) (*model.AttendanceEntry, error) {
	var e model.AttendanceEntry
	var day string

	if err := sc.Scan(&e.ID, &day, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}

	d, err := time.Parse(model.DayLayout, day)
	if err != nil {
		return nil, fmt.Errorf("parse day %q: %w", day, err)
	}
	e.Date = d
	e.Records = []model.AttendanceRecord{}
	return &e, nil
}

// Upsert creates the entry for day or replaces its records wholesale. The
// unique day column makes concurrent upserts for one day serialize, with the
// later writer winning. created reports whether a new entry was inserted.
func (s *AttendanceStore) Upsert(ctx context.Context, day time.Time, records []model.AttendanceRecord) (entry *model.AttendanceEntry, created bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	ts := now()
	candidate := newID()

	var id string
	err = tx.QueryRowContext(ctx,
		`INSERT INTO attendance_entries (id, day, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(day) DO UPDATE SET updated_at = excluded.updated_at
		 RETURNING id`,
		candidate, day.Format(model.DayLayout), ts, ts,
	).Scan(&id)
	if err != nil {
		return nil, false, fmt.Errorf("upsert attendance entry: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM attendance_records WHERE entry_id = ?`, id); err != nil {
		return nil, false, fmt.Errorf("clear attendance records: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO attendance_records (entry_id, position, member_id, status) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return nil, false, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, r := range records {
		if _, err := stmt.ExecContext(ctx, id, i, r.MemberID, r.Status); err != nil {
			return nil, false, fmt.Errorf("insert attendance record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("commit: %w", err)
	}

	entry, err = s.GetByDay(ctx, day)
	if err != nil {
		return nil, false, err
	}
	if entry == nil {
		return nil, false, fmt.Errorf("attendance entry %s vanished after upsert", id)
	}
	return entry, id == candidate, nil
}

// GetByDay returns the entry for the calendar day, or nil if none was taken.
func (s *AttendanceStore) GetByDay(ctx context.Context, day time.Time) (*model.AttendanceEntry, error) {
	entries, err := s.load(ctx, `WHERE day = ?`, 0, day.Format(model.DayLayout))
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}
	return &entries[0], nil
}

// List returns the whole ledger, newest first.
func (s *AttendanceStore) List(ctx context.Context) ([]model.AttendanceEntry, error) {
	return s.load(ctx, ``, 0)
}

// ListBetween returns entries with start <= day <= end, newest first.
func (s *AttendanceStore) ListBetween(ctx context.Context, start, end time.Time) ([]model.AttendanceEntry, error) {
	return s.load(ctx, `WHERE day >= ? AND day <= ?`, 0, start.Format(model.DayLayout), end.Format(model.DayLayout))
}

// Recent returns the n most recent entries, newest first.
func (s *AttendanceStore) Recent(ctx context.Context, n int) ([]model.AttendanceEntry, error) {
	return s.load(ctx, ``, n)
}

func (s *AttendanceStore) load(ctx context.Context, where string, limit int, args ...any) ([]model.AttendanceEntry, error) {
	q := `SELECT ` + entryCols + ` FROM attendance_entries ` + where + ` ORDER BY day DESC`
	if limit > 0 {
		q += fmt.Sprintf(` LIMIT %d`, limit)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query attendance entries: %w", err)
	}

	var entries []model.AttendanceEntry
	index := make(map[string]int)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan attendance entry: %w", err)
		}
		index[e.ID] = len(entries)
		entries = append(entries, *e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance entries: %w", err)
	}
	if len(entries) == 0 {
		return entries, nil
	}

	ids := make([]any, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}

	recRows, err := s.db.QueryContext(ctx,
		`SELECT entry_id, member_id, status FROM attendance_records WHERE entry_id IN (`+placeholders(len(ids))+`) ORDER BY entry_id, position`,
		ids...,
	)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer recRows.Close()

	for recRows.Next() {
		var entryID string
		var r model.AttendanceRecord
		if err := recRows.Scan(&entryID, &r.MemberID, &r.Status); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		i := index[entryID]
		entries[i].Records = append(entries[i].Records, r)
	}
	return entries, recRows.Err()
}

// PresenceCounts returns the number of Present marks per member across the
// whole ledger, highest first.
func (s *AttendanceStore) PresenceCounts(ctx context.Context) ([]model.PresenceCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT member_id, COUNT(*) AS n FROM attendance_records
		 WHERE status = ?
		 GROUP BY member_id
		 ORDER BY n DESC, member_id`,
		model.StatusPresent,
	)
	if err != nil {
		return nil, fmt.Errorf("query presence counts: %w", err)
	}
	defer rows.Close()

	var counts []model.PresenceCount
	for rows.Next() {
		var pc model.PresenceCount
		if err := rows.Scan(&pc.MemberID, &pc.Count); err != nil {
			return nil, fmt.Errorf("scan presence count: %w", err)
		}
		counts = append(counts, pc)
	}
	return counts, rows.Err()
}

// DeleteAll removes the whole ledger. Used by the seeder.
func (s *AttendanceStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attendance_records`); err != nil {
		return fmt.Errorf("delete attendance records: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attendance_entries`); err != nil {
		return fmt.Errorf("delete attendance entries: %w", err)
	}
	return nil
}
