package store

import (
	"context"
	"errors"
	"time"

	"github.com/devaloi/agora/internal/domain"
)

var (
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique constraint is violated.
	ErrConflict = errors.New("conflict")
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByID(ctx context.Context, id string) (domain.User, error)
	UserByUsername(ctx context.Context, username string) (domain.User, error)
	UserByEmail(ctx context.Context, email string) (domain.User, error)
	// ListUsers returns users with the given role, newest first.
	ListUsers(ctx context.Context, role string) ([]domain.User, error)
	UpdateUser(ctx context.Context, u domain.User) error
	DeleteUser(ctx context.Context, id string) error
}

// CategoryStore persists categories.
type CategoryStore interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	CategoryByID(ctx context.Context, id string) (domain.Category, error)
	// ListCategories returns all categories sorted by name.
	ListCategories(ctx context.Context) ([]domain.Category, error)
	UpdateCategory(ctx context.Context, c domain.Category) error
	DeleteCategory(ctx context.Context, id string) error
}

// TopicFilter narrows ListTopics.
type TopicFilter struct {
	IncludeDeleted bool
	// Limit of zero means no limit.
	Limit int
}

// TopicStore persists topics. Returned topics have author and category
// resolved.
type TopicStore interface {
	CreateTopic(ctx context.Context, t *domain.Topic) error
	TopicByID(ctx context.Context, id string) (domain.Topic, error)
	// ListTopics returns topics newest first.
	ListTopics(ctx context.Context, f TopicFilter) ([]domain.Topic, error)
	UpdateTopic(ctx context.Context, t domain.Topic) error
	SetTopicDeleted(ctx context.Context, id string, deleted bool) error
	IncrementTopicViews(ctx context.Context, id string) error
	// RefreshCommentCount recomputes the live comment count of a topic.
	RefreshCommentCount(ctx context.Context, topicID string) (int, error)
}

// CommentFilter narrows ListComments.
type CommentFilter struct {
	TopicID        string
	IncludeDeleted bool
	// Search matches comment content or topic title, case-insensitively.
	Search string
}

// CommentStore persists comments. Returned comments have author and topic
// title resolved.
type CommentStore interface {
	CreateComment(ctx context.Context, c *domain.Comment) error
	CommentByID(ctx context.Context, id string) (domain.Comment, error)
	// ListComments returns comments newest first.
	ListComments(ctx context.Context, f CommentFilter) ([]domain.Comment, error)
	UpdateComment(ctx context.Context, c domain.Comment) error
	SetCommentDeleted(ctx context.Context, id string, deleted bool) error
}

// VoteStore persists votes.
type VoteStore interface {
	CreateVote(ctx context.Context, v *domain.Vote) error
	VoteByID(ctx context.Context, id string) (domain.Vote, error)
	// VoteFor returns the vote a user cast on a reference.
	VoteFor(ctx context.Context, userID, referenceID, referenceType string) (domain.Vote, error)
	ListVotes(ctx context.Context, referenceID, referenceType string) ([]domain.Vote, error)
	UpdateVoteValue(ctx context.Context, id string, value int) (domain.Vote, error)
	DeleteVote(ctx context.Context, id string) error
}

// StatsStore answers dashboard aggregate queries.
type StatsStore interface {
	Totals(ctx context.Context) (domain.Totals, error)
	UserStatus(ctx context.Context, now time.Time) (domain.UserStatus, error)
	TopicsPerCategory(ctx context.Context) ([]domain.CategoryCount, error)
	TopicCreationTimes(ctx context.Context, since time.Time) ([]time.Time, error)
	CommentCreationTimes(ctx context.Context, since time.Time) ([]time.Time, error)
}

// Store is every persistence concern of the forum.
type Store interface {
	UserStore
	CategoryStore
	TopicStore
	CommentStore
	VoteStore
	StatsStore
	// Close releases any resources held by the store.
	Close() error
}
