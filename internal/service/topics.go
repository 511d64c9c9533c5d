package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/store"
)

// LatestTopicsLimit is the size of the public latest-topics feed.
const LatestTopicsLimit = 10

// TopicInput creates or replaces a topic.
type TopicInput struct {
	Title      string   `json:"title" validate:"required,max=200"`
	Content    string   `json:"content" validate:"required"`
	CategoryID string   `json:"categoryId" validate:"required"`
	Tags       []string `json:"tags" validate:"max=3,dive,max=30"`
}

func (in *TopicInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.CategoryID = strings.TrimSpace(in.CategoryID)
	in.Tags = lo.Uniq(lo.Compact(lo.Map(in.Tags, func(tag string, _ int) string {
		return strings.ToLower(strings.TrimSpace(tag))
	})))
}

// TopicService manages discussion threads.
type TopicService struct {
	topics     store.TopicStore
	categories store.CategoryStore
}

// NewTopicService creates a TopicService.
func NewTopicService(topics store.TopicStore, categories store.CategoryStore) *TopicService {
	return &TopicService{topics: topics, categories: categories}
}

func (s *TopicService) validate(ctx context.Context, in *TopicInput) error {
	in.normalize()
	if in.Title == "" || in.Content == "" || in.CategoryID == "" {
		return fail(ErrInvalidInput, "Please provide title, content and category")
	}
	if len(in.Tags) > domain.MaxTopicTags {
		return fail(ErrInvalidInput, "A topic can have at most %d tags", domain.MaxTopicTags)
	}
	if err := auth.Validate(in); err != nil {
		return fail(ErrInvalidInput, "%s", err.Error())
	}
	if _, err := s.categories.CategoryByID(ctx, in.CategoryID); err != nil {
		return notFound(err, "Category")
	}
	return nil
}

// Create opens a new topic authored by actor.
func (s *TopicService) Create(ctx context.Context, actor domain.User, in TopicInput) (domain.Topic, error) {
	if err := s.validate(ctx, &in); err != nil {
		return domain.Topic{}, err
	}
	t := domain.Topic{
		UserID:     actor.ID,
		CategoryID: in.CategoryID,
		Title:      in.Title,
		Content:    in.Content,
		Tags:       in.Tags,
	}
	if err := s.topics.CreateTopic(ctx, &t); err != nil {
		return domain.Topic{}, fmt.Errorf("create topic: %w", err)
	}
	return s.load(ctx, t.ID)
}

func (s *TopicService) load(ctx context.Context, id string) (domain.Topic, error) {
	t, err := s.topics.TopicByID(ctx, id)
	if err != nil {
		return domain.Topic{}, notFound(err, "Topic")
	}
	return t, nil
}

// List returns topics newest first with live comment counts. Admins also
// see soft-deleted topics.
func (s *TopicService) List(ctx context.Context, actor domain.User) ([]domain.Topic, error) {
	return s.list(ctx, store.TopicFilter{IncludeDeleted: actor.IsAdmin()})
}

// Latest returns the newest visible topics.
func (s *TopicService) Latest(ctx context.Context) ([]domain.Topic, error) {
	return s.list(ctx, store.TopicFilter{Limit: LatestTopicsLimit})
}

func (s *TopicService) list(ctx context.Context, f store.TopicFilter) ([]domain.Topic, error) {
	topics, err := s.topics.ListTopics(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	for i := range topics {
		n, err := s.topics.RefreshCommentCount(ctx, topics[i].ID)
		if err != nil {
			return nil, fmt.Errorf("refresh comment count: %w", err)
		}
		topics[i].CommentCount = n
	}
	return topics, nil
}

// Get returns a visible topic and counts the view.
func (s *TopicService) Get(ctx context.Context, id string) (domain.Topic, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return domain.Topic{}, err
	}
	if t.IsDeleted {
		return domain.Topic{}, fail(ErrNotFound, "Topic not found")
	}
	if err := s.topics.IncrementTopicViews(ctx, id); err != nil {
		return domain.Topic{}, fmt.Errorf("count view: %w", err)
	}
	n, err := s.topics.RefreshCommentCount(ctx, id)
	if err != nil {
		return domain.Topic{}, fmt.Errorf("refresh comment count: %w", err)
	}
	t.ViewCount++
	t.CommentCount = n
	return t, nil
}

// Update replaces a topic. Only its author may update it.
func (s *TopicService) Update(ctx context.Context, actor domain.User, id string, in TopicInput) (domain.Topic, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return domain.Topic{}, err
	}
	if t.IsDeleted {
		return domain.Topic{}, fail(ErrNotFound, "Topic not found")
	}
	if t.UserID != actor.ID {
		return domain.Topic{}, fail(ErrForbidden, "Not authorized to update this topic")
	}
	keepTags := in.Tags == nil
	if err := s.validate(ctx, &in); err != nil {
		return domain.Topic{}, err
	}
	t.Title = in.Title
	t.Content = in.Content
	t.CategoryID = in.CategoryID
	if !keepTags {
		t.Tags = in.Tags
	}
	if err := s.topics.UpdateTopic(ctx, t); err != nil {
		return domain.Topic{}, notFound(err, "Topic")
	}
	return s.load(ctx, id)
}

// Delete soft-deletes a topic. Its author or an admin may delete it.
func (s *TopicService) Delete(ctx context.Context, actor domain.User, id string) (domain.Topic, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return domain.Topic{}, err
	}
	if !canModerate(actor, t.UserID) {
		return domain.Topic{}, fail(ErrForbidden, "Not authorized to delete this topic")
	}
	if err := s.topics.SetTopicDeleted(ctx, id, true); err != nil {
		return domain.Topic{}, notFound(err, "Topic")
	}
	return s.load(ctx, id)
}

// Restore undoes a soft delete. Admin only.
func (s *TopicService) Restore(ctx context.Context, actor domain.User, id string) (domain.Topic, error) {
	if !actor.IsAdmin() {
		return domain.Topic{}, fail(ErrForbidden, "Not authorized to restore this topic")
	}
	if err := s.topics.SetTopicDeleted(ctx, id, false); err != nil {
		return domain.Topic{}, notFound(err, "Topic")
	}
	return s.load(ctx, id)
}
