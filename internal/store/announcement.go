package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/rollcall/internal/model"
)

type AnnouncementStore struct {
	db *sql.DB
}

func NewAnnouncementStore(db *sql.DB) *AnnouncementStore {
	return &AnnouncementStore{db: db}
}

const announcementCols = `id, title, message, created_by, sent_count, created_at, updated_at`

func scanAnnouncement(sc scanner) (*model.Announcement, error) {
	var a model.Announcement
	var createdBy sql.NullString

	err := sc.Scan(&a.ID, &a.Title, &a.Message, &createdBy, &a.SentCount, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.CreatedBy = createdBy.String
	return &a, nil
}

// Create persists a new announcement with a zero sent count.
func (s *AnnouncementStore) Create(ctx context.Context, title, message, createdBy string) (*model.Announcement, error) {
	ts := now()
	id := newID()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO announcements (`+announcementCols+`) VALUES (?, ?, ?, ?, 0, ?, ?)`,
		id, title, message, nullIfEmpty(createdBy), ts, ts,
	)
	if err != nil {
		return nil, fmt.Errorf("insert announcement: %w", err)
	}
	return s.GetByID(ctx, id)
}

func (s *AnnouncementStore) GetByID(ctx context.Context, id string) (*model.Announcement, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+announcementCols+` FROM announcements WHERE id = ?`, id)
	a, err := scanAnnouncement(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get announcement: %w", err)
	}
	return a, nil
}

// List returns all announcements, newest first.
func (s *AnnouncementStore) List(ctx context.Context) ([]model.Announcement, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+announcementCols+` FROM announcements ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list announcements: %w", err)
	}
	defer rows.Close()

	var announcements []model.Announcement
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan announcement: %w", err)
		}
		announcements = append(announcements, *a)
	}
	return announcements, rows.Err()
}

func (s *AnnouncementStore) SetSentCount(ctx context.Context, id string, sent int) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE announcements SET sent_count = ?, updated_at = ? WHERE id = ?`,
		sent, now(), id,
	)
	if err != nil {
		return fmt.Errorf("update sent count: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("update sent count: announcement %s not found", id)
	}
	return nil
}

// DeleteAll removes every announcement. Used by the seeder.
func (s *AnnouncementStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM announcements`); err != nil {
		return fmt.Errorf("delete announcements: %w", err)
	}
	return nil
}
