package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/logging"
	"github.com/devaloi/agora/internal/store"
)

// CommentInput creates a comment.
type CommentInput struct {
	Content string `json:"content" validate:"required,max=10000"`
	TopicID string `json:"topicId" validate:"required"`
	ReplyTo string `json:"replyTo"`
}

// CommentEdit replaces a comment's content.
type CommentEdit struct {
	Content string `json:"content" validate:"required,max=10000"`
}

// CommentList is a topic's visible comments with their count.
type CommentList struct {
	Comments     []domain.Comment `json:"comments"`
	CommentCount int              `json:"commentCount"`
}

// CommentService manages comments and publishes a Change Event after every
// committed mutation.
type CommentService struct {
	comments store.CommentStore
	topics   store.TopicStore
	pub      Publisher
}

// NewCommentService creates a CommentService.
func NewCommentService(comments store.CommentStore, topics store.TopicStore, pub Publisher) *CommentService {
	return &CommentService{comments: comments, topics: topics, pub: pub}
}

// Create posts a comment on a visible topic. A reply must target a comment
// of the same topic.
func (s *CommentService) Create(ctx context.Context, actor domain.User, in CommentInput) (domain.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	in.TopicID = strings.TrimSpace(in.TopicID)
	in.ReplyTo = strings.TrimSpace(in.ReplyTo)
	if err := auth.Validate(in); err != nil {
		return domain.Comment{}, fail(ErrInvalidInput, "%s", err.Error())
	}

	topic, err := s.topics.TopicByID(ctx, in.TopicID)
	if err != nil {
		return domain.Comment{}, notFound(err, "Topic")
	}
	if topic.IsDeleted {
		return domain.Comment{}, fail(ErrNotFound, "Topic not found")
	}
	if in.ReplyTo != "" {
		parent, err := s.comments.CommentByID(ctx, in.ReplyTo)
		if err != nil {
			return domain.Comment{}, notFound(err, "Parent comment")
		}
		if parent.TopicID != in.TopicID {
			return domain.Comment{}, fail(ErrInvalidInput, "Reply must belong to the same topic")
		}
	}

	c := domain.Comment{
		TopicID: in.TopicID,
		UserID:  actor.ID,
		ReplyTo: in.ReplyTo,
		Content: in.Content,
	}
	if err := s.comments.CreateComment(ctx, &c); err != nil {
		return domain.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	s.refreshCount(ctx, c.TopicID)

	created, err := s.load(ctx, c.ID)
	if err != nil {
		return domain.Comment{}, err
	}
	s.publish(ctx, domain.CommentCreated, created.TopicID, created)
	return created, nil
}

func (s *CommentService) load(ctx context.Context, id string) (domain.Comment, error) {
	c, err := s.comments.CommentByID(ctx, id)
	if err != nil {
		return domain.Comment{}, notFound(err, "Comment")
	}
	return c, nil
}

// refreshCount keeps the topic's cached comment count in step. A failure is
// logged; the comment itself is already committed.
func (s *CommentService) refreshCount(ctx context.Context, topicID string) {
	if _, err := s.topics.RefreshCommentCount(ctx, topicID); err != nil {
		l := logging.Ctx(ctx)
		l.Warn().Err(err).Str(logging.FieldTopicID, topicID).Msg("refresh comment count")
	}
}

func (s *CommentService) publish(ctx context.Context, kind domain.Kind, topicID string, payload any) {
	evt := domain.NewEvent(kind, topicID, payload)
	s.pub.Publish(evt)
	l := logging.Ctx(ctx)
	l.Debug().
		Str(logging.FieldEvent, string(kind)).
		Str(logging.FieldEventID, evt.ID).
		Str(logging.FieldTopicID, topicID).
		Msg("event published")
}

// ListByTopic returns a topic's visible comments, newest first.
func (s *CommentService) ListByTopic(ctx context.Context, topicID string) (CommentList, error) {
	comments, err := s.comments.ListComments(ctx, store.CommentFilter{TopicID: topicID})
	if err != nil {
		return CommentList{}, fmt.Errorf("list comments: %w", err)
	}
	return CommentList{Comments: comments, CommentCount: len(comments)}, nil
}

// ListAll returns comments across topics, optionally filtered by a search
// over content and topic title. Admins also see deleted comments.
func (s *CommentService) ListAll(ctx context.Context, actor domain.User, search string) ([]domain.Comment, error) {
	comments, err := s.comments.ListComments(ctx, store.CommentFilter{
		IncludeDeleted: actor.IsAdmin(),
		Search:         strings.TrimSpace(search),
	})
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

// Update edits a comment. Only its author may edit it.
func (s *CommentService) Update(ctx context.Context, actor domain.User, id string, in CommentEdit) (domain.Comment, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := auth.Validate(in); err != nil {
		return domain.Comment{}, fail(ErrInvalidInput, "%s", err.Error())
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	if c.IsDeleted {
		return domain.Comment{}, fail(ErrNotFound, "Comment not found")
	}
	if c.UserID != actor.ID {
		return domain.Comment{}, fail(ErrForbidden, "Not authorized")
	}
	c.Content = in.Content
	c.IsEdited = true
	if err := s.comments.UpdateComment(ctx, c); err != nil {
		return domain.Comment{}, notFound(err, "Comment")
	}

	updated, err := s.load(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	s.publish(ctx, domain.CommentUpdated, updated.TopicID, updated)
	return updated, nil
}

// Delete soft-deletes a comment. Its author or an admin may delete it.
// Deleting an already deleted comment is a no-op.
func (s *CommentService) Delete(ctx context.Context, actor domain.User, id string) error {
	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !canModerate(actor, c.UserID) {
		return fail(ErrForbidden, "Not authorized")
	}
	if c.IsDeleted {
		return nil
	}
	if err := s.comments.SetCommentDeleted(ctx, id, true); err != nil {
		return notFound(err, "Comment")
	}
	s.refreshCount(ctx, c.TopicID)
	s.publish(ctx, domain.CommentDeleted, c.TopicID, domain.CommentRemoved{ID: c.ID, TopicID: c.TopicID})
	return nil
}

// Restore undoes a soft delete. Admin only. Viewers receive the comment as
// newly added. Restoring a live comment changes nothing and publishes
// nothing.
func (s *CommentService) Restore(ctx context.Context, actor domain.User, id string) (domain.Comment, error) {
	if !actor.IsAdmin() {
		return domain.Comment{}, fail(ErrForbidden, "Not authorized")
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	if !c.IsDeleted {
		return c, nil
	}
	if err := s.comments.SetCommentDeleted(ctx, id, false); err != nil {
		return domain.Comment{}, notFound(err, "Comment")
	}
	c, err = s.load(ctx, id)
	if err != nil {
		return domain.Comment{}, err
	}
	s.refreshCount(ctx, c.TopicID)
	s.publish(ctx, domain.CommentCreated, c.TopicID, c)
	return c, nil
}
