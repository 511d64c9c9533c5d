package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/devaloi/agora/internal/domain"
)

const voteColumns = `id, user_id, reference_id, reference_type, value, created_at, updated_at`

func scanVote(row scanner) (domain.Vote, error) {
	var v domain.Vote
	err := row.Scan(&v.ID, &v.UserID, &v.ReferenceID, &v.ReferenceType, &v.Value, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return domain.Vote{}, translate(err)
	}
	v.CreatedAt = v.CreatedAt.UTC()
	v.UpdatedAt = v.UpdatedAt.UTC()
	return v, nil
}

// CreateVote inserts v. A second vote by the same user on the same
// reference returns ErrConflict.
func (s *SQLiteStore) CreateVote(ctx context.Context, v *domain.Vote) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	now := s.now()
	v.CreatedAt, v.UpdatedAt = now, now
	_, err := s.db.ExecContext(ctx, `INSERT INTO votes (`+voteColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.UserID, v.ReferenceID, v.ReferenceType, v.Value, v.CreatedAt, v.UpdatedAt)
	return translate(err)
}

// VoteByID returns the vote with the given id.
func (s *SQLiteStore) VoteByID(ctx context.Context, id string) (domain.Vote, error) {
	return scanVote(s.db.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM votes WHERE id = ?`, id))
}

// VoteFor returns the vote userID cast on the reference.
func (s *SQLiteStore) VoteFor(ctx context.Context, userID, referenceID, referenceType string) (domain.Vote, error) {
	return scanVote(s.db.QueryRowContext(ctx, `SELECT `+voteColumns+` FROM votes
		WHERE user_id = ? AND reference_id = ? AND reference_type = ?`, userID, referenceID, referenceType))
}

// ListVotes returns every vote on the reference, oldest first.
func (s *SQLiteStore) ListVotes(ctx context.Context, referenceID, referenceType string) ([]domain.Vote, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+voteColumns+` FROM votes
		WHERE reference_id = ? AND reference_type = ? ORDER BY created_at`, referenceID, referenceType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	votes := []domain.Vote{}
	for rows.Next() {
		v, err := scanVote(rows)
		if err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}

// UpdateVoteValue changes the value of a vote and returns the new row.
func (s *SQLiteStore) UpdateVoteValue(ctx context.Context, id string, value int) (domain.Vote, error) {
	if err := s.exec(ctx, `UPDATE votes SET value = ?, updated_at = ? WHERE id = ?`, value, s.now(), id); err != nil {
		return domain.Vote{}, err
	}
	return s.VoteByID(ctx, id)
}

// DeleteVote removes the vote with the given id.
func (s *SQLiteStore) DeleteVote(ctx context.Context, id string) error {
	return s.exec(ctx, `DELETE FROM votes WHERE id = ?`, id)
}
