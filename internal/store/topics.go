package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/devaloi/agora/internal/domain"
)

const topicSelect = `SELECT t.id, t.user_id, t.category_id, t.title, t.content, t.tags,
	t.view_count, t.comment_count, t.is_deleted, t.created_at, t.updated_at,
	COALESCE(u.username, ''), COALESCE(u.avatar_url, ''), COALESCE(c.name, '')
	FROM topics t
	LEFT JOIN users u ON u.id = t.user_id
	LEFT JOIN categories c ON c.id = t.category_id`

func scanTopic(row scanner) (domain.Topic, error) {
	var (
		t    domain.Topic
		tags string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.CategoryID, &t.Title, &t.Content, &tags,
		&t.ViewCount, &t.CommentCount, &t.IsDeleted, &t.CreatedAt, &t.UpdatedAt,
		&t.Author.Username, &t.Author.AvatarURL, &t.Category.Name)
	if err != nil {
		return domain.Topic{}, translate(err)
	}
	if err := json.Unmarshal([]byte(tags), &t.Tags); err != nil {
		return domain.Topic{}, fmt.Errorf("decode tags of topic %s: %w", t.ID, err)
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	t.Author.ID = t.UserID
	t.Category.ID = t.CategoryID
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	b, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateTopic inserts t, assigning its id and timestamps.
func (s *SQLiteStore) CreateTopic(ctx context.Context, t *domain.Topic) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	now := s.now()
	t.CreatedAt, t.UpdatedAt = now, now
	_, err = s.db.ExecContext(ctx, `INSERT INTO topics (id, user_id, category_id, title, content, tags,
		view_count, comment_count, is_deleted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.CategoryID, t.Title, t.Content, tags,
		t.ViewCount, t.CommentCount, t.IsDeleted, t.CreatedAt, t.UpdatedAt)
	return translate(err)
}

// TopicByID returns the topic with author and category resolved, deleted
// or not.
func (s *SQLiteStore) TopicByID(ctx context.Context, id string) (domain.Topic, error) {
	return scanTopic(s.db.QueryRowContext(ctx, topicSelect+` WHERE t.id = ?`, id))
}

// ListTopics returns topics newest first.
func (s *SQLiteStore) ListTopics(ctx context.Context, f TopicFilter) ([]domain.Topic, error) {
	query := topicSelect
	var args []any
	if !f.IncludeDeleted {
		query += ` WHERE t.is_deleted = 0`
	}
	query += ` ORDER BY t.created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	topics := []domain.Topic{}
	for rows.Next() {
		t, err := scanTopic(rows)
		if err != nil {
			return nil, err
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// UpdateTopic writes title, content, category and tags.
func (s *SQLiteStore) UpdateTopic(ctx context.Context, t domain.Topic) error {
	tags, err := encodeTags(t.Tags)
	if err != nil {
		return err
	}
	return s.exec(ctx, `UPDATE topics SET title = ?, content = ?, category_id = ?, tags = ?, updated_at = ?
		WHERE id = ?`, t.Title, t.Content, t.CategoryID, tags, s.now(), t.ID)
}

// SetTopicDeleted flips the soft-delete flag.
func (s *SQLiteStore) SetTopicDeleted(ctx context.Context, id string, deleted bool) error {
	return s.exec(ctx, `UPDATE topics SET is_deleted = ?, updated_at = ? WHERE id = ?`, deleted, s.now(), id)
}

// IncrementTopicViews adds one to the view counter.
func (s *SQLiteStore) IncrementTopicViews(ctx context.Context, id string) error {
	return s.exec(ctx, `UPDATE topics SET view_count = view_count + 1 WHERE id = ?`, id)
}

// RefreshCommentCount stores and returns the number of live comments on the
// topic.
func (s *SQLiteStore) RefreshCommentCount(ctx context.Context, topicID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE topic_id = ? AND is_deleted = 0`, topicID).Scan(&n)
	if err != nil {
		return 0, err
	}
	if err := s.exec(ctx, `UPDATE topics SET comment_count = ? WHERE id = ?`, n, topicID); err != nil {
		return 0, err
	}
	return n, nil
}
