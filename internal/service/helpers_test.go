package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/agora/internal/auth"
	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/store"
	"github.com/devaloi/agora/internal/testutil"
)

type fixture struct {
	store      *store.SQLiteStore
	pub        *testutil.MockPublisher
	users      *UserService
	categories *CategoryService
	topics     *TopicService
	comments   *CommentService
	votes      *VoteService
	stats      *StatsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	pub := testutil.NewMockPublisher()
	return &fixture{
		store:      s,
		pub:        pub,
		users:      NewUserService(s, auth.NewTokenManager("test-secret", time.Hour)),
		categories: NewCategoryService(s),
		topics:     NewTopicService(s, s),
		comments:   NewCommentService(s, s, pub),
		votes:      NewVoteService(s, s, s, pub),
		stats:      NewStatsService(s),
	}
}

func (f *fixture) user(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) admin(t *testing.T) domain.User {
	t.Helper()
	u, err := f.users.CreateAdmin(context.Background(), RegisterInput{
		Username: "root",
		Email:    "root@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) category(t *testing.T, name string) domain.Category {
	t.Helper()
	c, err := f.categories.Create(context.Background(), CategoryInput{Name: name})
	require.NoError(t, err)
	return c
}

func (f *fixture) topic(t *testing.T, author domain.User) domain.Topic {
	t.Helper()
	cat := f.category(t, "cat-"+author.Username)
	tp, err := f.topics.Create(context.Background(), author, TopicInput{
		Title:      "Hello",
		Content:    "World",
		CategoryID: cat.ID,
	})
	require.NoError(t, err)
	return tp
}

func (f *fixture) comment(t *testing.T, author domain.User, topicID string) domain.Comment {
	t.Helper()
	c, err := f.comments.Create(context.Background(), author, CommentInput{Content: "first", TopicID: topicID})
	require.NoError(t, err)
	return c
}
