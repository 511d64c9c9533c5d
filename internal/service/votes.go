package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/logging"
	"github.com/devaloi/agora/internal/store"
)

// VoteInput casts a vote on a topic or comment.
type VoteInput struct {
	ReferenceID   string `json:"referenceId" validate:"required"`
	ReferenceType string `json:"referenceType" validate:"required,oneof=topic comment"`
	Value         int    `json:"value" validate:"oneof=1 -1"`
}

// VoteResult reports what a cast did. Vote is nil when the cast removed an
// existing vote.
type VoteResult struct {
	Message string       `json:"message"`
	Action  string       `json:"action"`
	Vote    *domain.Vote `json:"vote"`
}

// VoteService manages votes and publishes a Change Event to the owning
// topic's room after every committed mutation.
type VoteService struct {
	votes    store.VoteStore
	topics   store.TopicStore
	comments store.CommentStore
	pub      Publisher
}

// NewVoteService creates a VoteService.
func NewVoteService(votes store.VoteStore, topics store.TopicStore, comments store.CommentStore, pub Publisher) *VoteService {
	return &VoteService{votes: votes, topics: topics, comments: comments, pub: pub}
}

// owningTopic returns the topic a visible reference lives in. Deleted
// topics and comments count as missing.
func (s *VoteService) owningTopic(ctx context.Context, referenceID, referenceType string) (string, error) {
	switch referenceType {
	case domain.RefTopic:
		t, err := s.topics.TopicByID(ctx, referenceID)
		if err != nil {
			return "", notFound(err, "Topic")
		}
		if t.IsDeleted {
			return "", fail(ErrNotFound, "Topic not found")
		}
		return t.ID, nil
	case domain.RefComment:
		c, err := s.comments.CommentByID(ctx, referenceID)
		if err != nil {
			return "", notFound(err, "Comment")
		}
		if c.IsDeleted {
			return "", fail(ErrNotFound, "Comment not found")
		}
		return c.TopicID, nil
	default:
		return "", fail(ErrInvalidInput, "referenceType must be one of: topic comment")
	}
}

// Cast records actor's vote. Repeating the same value removes the vote; a
// different value replaces it.
func (s *VoteService) Cast(ctx context.Context, actor domain.User, in VoteInput) (VoteResult, error) {
	if err := auth.Validate(in); err != nil {
		return VoteResult{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	topicID, err := s.owningTopic(ctx, in.ReferenceID, in.ReferenceType)
	if err != nil {
		return VoteResult{}, err
	}

	existing, err := s.votes.VoteFor(ctx, actor.ID, in.ReferenceID, in.ReferenceType)
	switch {
	case err == nil && existing.Value == in.Value:
		if err := s.votes.DeleteVote(ctx, existing.ID); err != nil {
			return VoteResult{}, notFound(err, "Vote")
		}
		s.publish(ctx, domain.VoteDeleted, topicID, domain.VoteChange{
			VoteID:        existing.ID,
			ReferenceID:   in.ReferenceID,
			ReferenceType: in.ReferenceType,
			Action:        domain.VoteActionDelete,
		})
		return VoteResult{Message: "Vote removed successfully", Action: domain.VoteActionDelete}, nil

	case err == nil:
		updated, err := s.votes.UpdateVoteValue(ctx, existing.ID, in.Value)
		if err != nil {
			return VoteResult{}, notFound(err, "Vote")
		}
		s.publish(ctx, domain.VoteUpdated, topicID, voteChange(updated, domain.VoteActionUpdate))
		return VoteResult{Message: "Vote updated successfully", Action: domain.VoteActionUpdate, Vote: &updated}, nil

	case !errors.Is(err, store.ErrNotFound):
		return VoteResult{}, fmt.Errorf("lookup vote: %w", err)
	}

	v := domain.Vote{
		UserID:        actor.ID,
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		Value:         in.Value,
	}
	if err := s.votes.CreateVote(ctx, &v); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return VoteResult{}, fail(ErrConflict, "Vote already recorded")
		}
		return VoteResult{}, fmt.Errorf("create vote: %w", err)
	}
	s.publish(ctx, domain.VoteCreated, topicID, voteChange(v, domain.VoteActionCreate))
	return VoteResult{Message: "Vote created successfully", Action: domain.VoteActionCreate, Vote: &v}, nil
}

func voteChange(v domain.Vote, action string) domain.VoteChange {
	return domain.VoteChange{
		VoteID:        v.ID,
		ReferenceID:   v.ReferenceID,
		ReferenceType: v.ReferenceType,
		Value:         v.Value,
		Action:        action,
	}
}

func (s *VoteService) publish(ctx context.Context, kind domain.Kind, topicID string, change domain.VoteChange) {
	evt := domain.NewEvent(kind, topicID, change)
	s.pub.Publish(evt)
	l := logging.Ctx(ctx)
	l.Debug().
		Str(logging.FieldEvent, string(kind)).
		Str(logging.FieldEventID, evt.ID).
		Str(logging.FieldTopicID, topicID).
		Msg("event published")
}

// ListByReference returns every vote on a topic or comment.
func (s *VoteService) ListByReference(ctx context.Context, referenceID, referenceType string) ([]domain.Vote, error) {
	if err := auth.ValidateVar(referenceType, "oneof=topic comment"); err != nil {
		return nil, fail(ErrInvalidInput, "referenceType must be one of: topic comment")
	}
	votes, err := s.votes.ListVotes(ctx, referenceID, referenceType)
	if err != nil {
		return nil, fmt.Errorf("list votes: %w", err)
	}
	return votes, nil
}

// Delete removes a vote. Its caster or an admin may delete it.
func (s *VoteService) Delete(ctx context.Context, actor domain.User, id string) error {
	v, err := s.votes.VoteByID(ctx, id)
	if err != nil {
		return notFound(err, "Vote")
	}
	if !canModerate(actor, v.UserID) {
		return fail(ErrForbidden, "Not authorized")
	}
	if err := s.votes.DeleteVote(ctx, id); err != nil {
		return notFound(err, "Vote")
	}

	topicID, err := s.owningTopic(ctx, v.ReferenceID, v.ReferenceType)
	if err != nil {
		l := logging.Ctx(ctx)
		l.Warn().Err(err).Str("vote_id", id).Msg("vote reference gone, event not published")
		return nil
	}
	s.publish(ctx, domain.VoteDeleted, topicID, domain.VoteChange{
		VoteID:        v.ID,
		ReferenceID:   v.ReferenceID,
		ReferenceType: v.ReferenceType,
		Action:        domain.VoteActionDelete,
	})
	return nil
}
