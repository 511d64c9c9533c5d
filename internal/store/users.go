package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/devaloi/agora/internal/domain"
)

const userColumns = `id, email, username, password_hash, avatar_url, role, bio, is_active,
	github_id, is_banned, ban_expires, ban_reason, created_at, updated_at`

func scanUser(row scanner) (domain.User, error) {
	var (
		u       domain.User
		expires sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.AvatarURL, &u.Role, &u.Bio,
		&u.IsActive, &u.GithubID, &u.Ban.IsBanned, &expires, &u.Ban.Reason, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, translate(err)
	}
	if expires.Valid {
		t := expires.Time.UTC()
		u.Ban.Expires = &t
	}
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
	return u, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

// CreateUser inserts u, assigning its id and timestamps.
func (s *SQLiteStore) CreateUser(ctx context.Context, u *domain.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Username, u.PasswordHash, u.AvatarURL, u.Role, u.Bio, u.IsActive,
		u.GithubID, u.Ban.IsBanned, nullTime(u.Ban.Expires), u.Ban.Reason, u.CreatedAt, u.UpdatedAt)
	return translate(err)
}

// UserByID returns the user with the given id.
func (s *SQLiteStore) UserByID(ctx context.Context, id string) (domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

// UserByUsername returns the user with the given username.
func (s *SQLiteStore) UserByUsername(ctx context.Context, username string) (domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

// UserByEmail returns the user with the given email.
func (s *SQLiteStore) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
}

// ListUsers returns users with role, newest first.
func (s *SQLiteStore) ListUsers(ctx context.Context, role string) ([]domain.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users
		WHERE role = ? ORDER BY created_at DESC`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser writes every mutable field of u and bumps updated_at.
func (s *SQLiteStore) UpdateUser(ctx context.Context, u domain.User) error {
	return s.exec(ctx, `UPDATE users SET email = ?, username = ?, password_hash = ?, avatar_url = ?,
		role = ?, bio = ?, is_active = ?, github_id = ?, is_banned = ?, ban_expires = ?, ban_reason = ?,
		updated_at = ? WHERE id = ?`,
		u.Email, u.Username, u.PasswordHash, u.AvatarURL, u.Role, u.Bio, u.IsActive, u.GithubID,
		u.Ban.IsBanned, nullTime(u.Ban.Expires), u.Ban.Reason, s.now(), u.ID)
}

// DeleteUser removes the user with the given id.
func (s *SQLiteStore) DeleteUser(ctx context.Context, id string) error {
	return s.exec(ctx, `DELETE FROM users WHERE id = ?`, id)
}
