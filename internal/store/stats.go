package store

import (
	"context"
	"time"

	"github.com/devaloi/agora/internal/domain"
)

// Totals counts every entity.
func (s *SQLiteStore) Totals(ctx context.Context) (domain.Totals, error) {
	var t domain.Totals
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM users),
		(SELECT COUNT(*) FROM topics),
		(SELECT COUNT(*) FROM comments),
		(SELECT COUNT(*) FROM categories)`).Scan(&t.Users, &t.Topics, &t.Comments, &t.Categories)
	return t, err
}

// UserStatus splits users by active flag and counts bans in force at now.
func (s *SQLiteStore) UserStatus(ctx context.Context, now time.Time) (domain.UserStatus, error) {
	var st domain.UserStatus
	err := s.db.QueryRowContext(ctx, `SELECT
		COALESCE(SUM(CASE WHEN is_active = 1 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_active = 0 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN is_banned = 1 AND (ban_expires IS NULL OR ban_expires > ?) THEN 1 ELSE 0 END), 0)
		FROM users`, now.UTC()).Scan(&st.Active, &st.Inactive, &st.Banned)
	return st, err
}

// TopicsPerCategory counts topics under every category, including empty
// ones, sorted by category name.
func (s *SQLiteStore) TopicsPerCategory(ctx context.Context) ([]domain.CategoryCount, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT c.id, c.name, COUNT(t.id)
		FROM categories c LEFT JOIN topics t ON t.category_id = c.id
		GROUP BY c.id, c.name ORDER BY c.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.CategoryCount{}
	for rows.Next() {
		var cc domain.CategoryCount
		if err := rows.Scan(&cc.ID, &cc.Name, &cc.TopicCount); err != nil {
			return nil, err
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

// TopicCreationTimes returns the creation time of every topic created at or
// after since.
func (s *SQLiteStore) TopicCreationTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	return s.creationTimes(ctx, `SELECT created_at FROM topics WHERE created_at >= ?`, since)
}

// CommentCreationTimes returns the creation time of every comment created at
// or after since.
func (s *SQLiteStore) CommentCreationTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	return s.creationTimes(ctx, `SELECT created_at FROM comments WHERE created_at >= ?`, since)
}

func (s *SQLiteStore) creationTimes(ctx context.Context, query string, since time.Time) ([]time.Time, error) {
	rows, err := s.db.QueryContext(ctx, query, since.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		out = append(out, t.UTC())
	}
	return out, rows.Err()
}
