package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/devaloi/agora/internal/domain"
)

func scanCategory(row scanner) (domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return domain.Category{}, translate(err)
	}
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return c, nil
}

// CreateCategory inserts c, assigning its id and timestamps.
func (s *SQLiteStore) CreateCategory(ctx context.Context, c *domain.Category) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Description, c.CreatedAt, c.UpdatedAt)
	return translate(err)
}

// CategoryByID returns the category with the given id.
func (s *SQLiteStore) CategoryByID(ctx context.Context, id string) (domain.Category, error) {
	return scanCategory(s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories WHERE id = ?`, id))
}

// ListCategories returns every category sorted by name.
func (s *SQLiteStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cats := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpdateCategory writes name and description.
func (s *SQLiteStore) UpdateCategory(ctx context.Context, c domain.Category) error {
	return s.exec(ctx, `UPDATE categories SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		c.Name, c.Description, s.now(), c.ID)
}

// DeleteCategory removes the category. Topics filed under it are kept.
func (s *SQLiteStore) DeleteCategory(ctx context.Context, id string) error {
	return s.exec(ctx, `DELETE FROM categories WHERE id = ?`, id)
}
