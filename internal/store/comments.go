package store

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/devaloi/agora/internal/domain"
)

const commentSelect = `SELECT c.id, c.topic_id, c.user_id, c.reply_to, c.content, c.is_edited,
	c.is_deleted, c.created_at, c.updated_at,
	COALESCE(u.username, ''), COALESCE(u.avatar_url, ''), COALESCE(t.title, '')
	FROM comments c
	LEFT JOIN users u ON u.id = c.user_id
	LEFT JOIN topics t ON t.id = c.topic_id`

func scanComment(row scanner) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(&c.ID, &c.TopicID, &c.UserID, &c.ReplyTo, &c.Content, &c.IsEdited,
		&c.IsDeleted, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.Username, &c.Author.AvatarURL, &c.TopicTitle)
	if err != nil {
		return domain.Comment{}, translate(err)
	}
	c.Author.ID = c.UserID
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// CreateComment inserts c, assigning its id and timestamps.
func (s *SQLiteStore) CreateComment(ctx context.Context, c *domain.Comment) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO comments (id, topic_id, user_id, reply_to, content,
		is_edited, is_deleted, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.TopicID, c.UserID, c.ReplyTo, c.Content, c.IsEdited, c.IsDeleted, c.CreatedAt, c.UpdatedAt)
	return translate(err)
}

// CommentByID returns the comment with author and topic title resolved.
func (s *SQLiteStore) CommentByID(ctx context.Context, id string) (domain.Comment, error) {
	return scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = ?`, id))
}

// ListComments returns comments matching f, newest first.
func (s *SQLiteStore) ListComments(ctx context.Context, f CommentFilter) ([]domain.Comment, error) {
	var (
		where []string
		args  []any
	)
	if f.TopicID != "" {
		where = append(where, `c.topic_id = ?`)
		args = append(args, f.TopicID)
	}
	if !f.IncludeDeleted {
		where = append(where, `c.is_deleted = 0`)
	}
	if f.Search != "" {
		pattern := "%" + escapeLike(f.Search) + "%"
		where = append(where, `(c.content LIKE ? ESCAPE '\' OR t.title LIKE ? ESCAPE '\')`)
		args = append(args, pattern, pattern)
	}

	query := commentSelect
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, ` AND `)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// UpdateComment writes content and the edited flag.
func (s *SQLiteStore) UpdateComment(ctx context.Context, c domain.Comment) error {
	return s.exec(ctx, `UPDATE comments SET content = ?, is_edited = ?, updated_at = ? WHERE id = ?`,
		c.Content, c.IsEdited, s.now(), c.ID)
}

// SetCommentDeleted flips the soft-delete flag.
func (s *SQLiteStore) SetCommentDeleted(ctx context.Context, id string, deleted bool) error {
	return s.exec(ctx, `UPDATE comments SET is_deleted = ?, updated_at = ? WHERE id = ?`, deleted, s.now(), id)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
