package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dukerupert/rollcall/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

const memberCols = `id, name, email, mobile, role, active, join_date, created_at, updated_at`

func scanMember(sc scanner) (*model.Member, error) {
	var m model.Member
	var email sql.NullString
	var active int

	err := sc.Scan(&m.ID, &m.Name, &email, &m.Mobile, &m.Role, &active, &m.JoinDate, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.Email = email.String
	m.Active = active != 0
	return &m, nil
}

// Create inserts m with a fresh id and timestamps. A zero JoinDate defaults to
// now and an empty Role to "member".
func (s *MemberStore) Create(ctx context.Context, m model.Member) (*model.Member, error) {
	ts := now()
	m.ID = newID()
	if m.Role == "" {
		m.Role = model.RoleMember
	}
	if m.JoinDate.IsZero() {
		m.JoinDate = ts
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO members (`+memberCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, nullIfEmpty(m.Email), m.Mobile, m.Role, boolToInt(m.Active), m.JoinDate.UTC(), ts, ts,
	)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	return s.GetByID(ctx, m.ID)
}

func (s *MemberStore) GetByID(ctx context.Context, id string) (*model.Member, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memberCols+` FROM members WHERE id = ?`, id)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member: %w", err)
	}
	return m, nil
}

// List returns all members sorted by name.
func (s *MemberStore) List(ctx context.Context) ([]model.Member, error) {
	return s.query(ctx, `SELECT `+memberCols+` FROM members ORDER BY name, id`)
}

// ListActiveWithEmail returns the active members that can receive email.
func (s *MemberStore) ListActiveWithEmail(ctx context.Context) ([]model.Member, error) {
	return s.query(ctx, `SELECT `+memberCols+` FROM members WHERE active = 1 AND email IS NOT NULL AND email != '' ORDER BY name, id`)
}

func (s *MemberStore) query(ctx context.Context, q string, args ...any) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// Update writes every mutable field of m.
func (s *MemberStore) Update(ctx context.Context, m model.Member) (*model.Member, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE members SET name = ?, email = ?, mobile = ?, role = ?, active = ?, join_date = ?, updated_at = ? WHERE id = ?`,
		m.Name, nullIfEmpty(m.Email), m.Mobile, m.Role, boolToInt(m.Active), m.JoinDate.UTC(), now(), m.ID,
	)
	if isUniqueViolation(err) {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	return s.GetByID(ctx, m.ID)
}

// Delete removes the member and reports whether a row existed.
func (s *MemberStore) Delete(ctx context.Context, id string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM members WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete member: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// EmailExists reports whether another member already uses email.
func (s *MemberStore) EmailExists(ctx context.Context, email, excludeID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM members WHERE email = ? AND id != ?`,
		email, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return count > 0, nil
}

// CountActive returns the number of members with active set.
func (s *MemberStore) CountActive(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM members WHERE active = 1`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count active members: %w", err)
	}
	return count, nil
}

// NamesByID returns the names of the given members. Unknown ids are absent
// from the result.
func (s *MemberStore) NamesByID(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM members WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("query member names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan member name: %w", err)
		}
		names[id] = name
	}
	return names, rows.Err()
}

// DeleteAll removes every member. Used by the seeder.
func (s *MemberStore) DeleteAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM members`); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}
	return nil
}
