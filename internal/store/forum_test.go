package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/devaloi/agora/internal/domain"
)

type forumFixture struct {
	store    *SQLiteStore
	author   domain.User
	category domain.Category
}

func newForumFixture(t *testing.T) forumFixture {
	t.Helper()
	s := newTestStore(t)
	author := seedUser(t, s, "alice")
	cat := domain.Category{Name: "General"}
	require.NoError(t, s.CreateCategory(context.Background(), &cat))
	return forumFixture{store: s, author: author, category: cat}
}

func (f forumFixture) topic(t *testing.T, title string) domain.Topic {
	t.Helper()
	tp := domain.Topic{
		UserID:     f.author.ID,
		CategoryID: f.category.ID,
		Title:      title,
		Content:    "body",
		Tags:       []string{"go", "sqlite"},
	}
	require.NoError(t, f.store.CreateTopic(context.Background(), &tp))
	return tp
}

func (f forumFixture) comment(t *testing.T, topicID, content string) domain.Comment {
	t.Helper()
	c := domain.Comment{TopicID: topicID, UserID: f.author.ID, Content: content}
	require.NoError(t, f.store.CreateComment(context.Background(), &c))
	return c
}

func TestTopicResolvesAuthorAndCategory(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()

	created := f.topic(t, "Hello")
	got, err := f.store.TopicByID(ctx, created.ID)
	require.NoError(t, err)

	require.Equal(t, "alice", got.Author.Username)
	require.Equal(t, f.author.ID, got.Author.ID)
	require.Equal(t, "General", got.Category.Name)
	require.Equal(t, []string{"go", "sqlite"}, got.Tags)
}

func TestTopicSoftDeleteHidesFromList(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()

	keep := f.topic(t, "Keep")
	gone := f.topic(t, "Gone")
	require.NoError(t, f.store.SetTopicDeleted(ctx, gone.ID, true))

	visible, err := f.store.ListTopics(ctx, TopicFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, keep.ID, visible[0].ID)

	all, err := f.store.ListTopics(ctx, TopicFilter{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestTopicListLimitNewestFirst(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		f.store.now = func() time.Time { return at }
		f.topic(t, string(rune('a'+i)))
	}

	topics, err := f.store.ListTopics(ctx, TopicFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, topics, 2)
	require.Equal(t, "e", topics[0].Title)
	require.Equal(t, "d", topics[1].Title)
}

func TestTopicCountersAndUpdate(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()

	tp := f.topic(t, "Counters")
	require.NoError(t, f.store.IncrementTopicViews(ctx, tp.ID))
	require.NoError(t, f.store.IncrementTopicViews(ctx, tp.ID))

	f.comment(t, tp.ID, "one")
	deleted := f.comment(t, tp.ID, "two")
	require.NoError(t, f.store.SetCommentDeleted(ctx, deleted.ID, true))

	n, err := f.store.RefreshCommentCount(ctx, tp.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	tp.Title = "Renamed"
	tp.Tags = []string{"x"}
	require.NoError(t, f.store.UpdateTopic(ctx, tp))

	got, err := f.store.TopicByID(ctx, tp.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.ViewCount)
	require.Equal(t, 1, got.CommentCount)
	require.Equal(t, "Renamed", got.Title)
	require.Equal(t, []string{"x"}, got.Tags)
}

func TestCommentListAndSearch(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()

	golang := f.topic(t, "Generics in Go")
	other := f.topic(t, "Cooking")
	f.comment(t, golang.ID, "type parameters are neat")
	f.comment(t, other.ID, "100% butter")
	hidden := f.comment(t, other.ID, "secret sauce")
	require.NoError(t, f.store.SetCommentDeleted(ctx, hidden.ID, true))

	byTopic, err := f.store.ListComments(ctx, CommentFilter{TopicID: other.ID})
	require.NoError(t, err)
	require.Len(t, byTopic, 1)
	require.Equal(t, "Cooking", byTopic[0].TopicTitle)
	require.Equal(t, "alice", byTopic[0].Author.Username)

	byTitle, err := f.store.ListComments(ctx, CommentFilter{Search: "GENERICS"})
	require.NoError(t, err)
	require.Len(t, byTitle, 1)
	require.Equal(t, golang.ID, byTitle[0].TopicID)

	literal, err := f.store.ListComments(ctx, CommentFilter{Search: "100%"})
	require.NoError(t, err)
	require.Len(t, literal, 1)

	withDeleted, err := f.store.ListComments(ctx, CommentFilter{IncludeDeleted: true, Search: "sauce"})
	require.NoError(t, err)
	require.Len(t, withDeleted, 1)
	require.True(t, withDeleted[0].IsDeleted)
}

func TestCommentUpdate(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()

	tp := f.topic(t, "Edits")
	c := f.comment(t, tp.ID, "frist")
	c.Content = "first"
	c.IsEdited = true
	require.NoError(t, f.store.UpdateComment(ctx, c))

	got, err := f.store.CommentByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "first", got.Content)
	require.True(t, got.IsEdited)

	require.ErrorIs(t, f.store.UpdateComment(ctx, domain.Comment{ID: "missing"}), ErrNotFound)
}

func TestVotes(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()
	tp := f.topic(t, "Votes")

	v := domain.Vote{UserID: f.author.ID, ReferenceID: tp.ID, ReferenceType: domain.RefTopic, Value: 1}
	require.NoError(t, f.store.CreateVote(ctx, &v))

	dup := domain.Vote{UserID: f.author.ID, ReferenceID: tp.ID, ReferenceType: domain.RefTopic, Value: -1}
	require.ErrorIs(t, f.store.CreateVote(ctx, &dup), ErrConflict)

	found, err := f.store.VoteFor(ctx, f.author.ID, tp.ID, domain.RefTopic)
	require.NoError(t, err)
	require.Equal(t, v.ID, found.ID)

	updated, err := f.store.UpdateVoteValue(ctx, v.ID, -1)
	require.NoError(t, err)
	require.Equal(t, -1, updated.Value)

	votes, err := f.store.ListVotes(ctx, tp.ID, domain.RefTopic)
	require.NoError(t, err)
	require.Len(t, votes, 1)

	require.NoError(t, f.store.DeleteVote(ctx, v.ID))
	_, err = f.store.VoteFor(ctx, f.author.ID, tp.ID, domain.RefTopic)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestStats(t *testing.T) {
	t.Parallel()
	f := newForumFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)

	banned := seedUser(t, f.store, "bob")
	banned.Ban = domain.Ban{IsBanned: true}
	banned.IsActive = false
	require.NoError(t, f.store.UpdateUser(ctx, banned))

	expired := seedUser(t, f.store, "carol")
	past := now.Add(-time.Hour)
	expired.Ban = domain.Ban{IsBanned: true, Expires: &past}
	require.NoError(t, f.store.UpdateUser(ctx, expired))

	empty := domain.Category{Name: "Empty"}
	require.NoError(t, f.store.CreateCategory(ctx, &empty))

	f.store.now = func() time.Time { return time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC) }
	old := f.topic(t, "Old")
	f.store.now = func() time.Time { return time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC) }
	recent := f.topic(t, "Recent")
	f.comment(t, recent.ID, "hi")
	f.comment(t, old.ID, "hello")

	totals, err := f.store.Totals(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.Totals{Users: 3, Topics: 2, Comments: 2, Categories: 2}, totals)

	status, err := f.store.UserStatus(ctx, now)
	require.NoError(t, err)
	require.Equal(t, domain.UserStatus{Active: 2, Inactive: 1, Banned: 1}, status)

	perCat, err := f.store.TopicsPerCategory(ctx)
	require.NoError(t, err)
	require.Equal(t, []domain.CategoryCount{
		{ID: empty.ID, Name: "Empty", TopicCount: 0},
		{ID: f.category.ID, Name: "General", TopicCount: 2},
	}, perCat)

	since := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	topicTimes, err := f.store.TopicCreationTimes(ctx, since)
	require.NoError(t, err)
	require.Len(t, topicTimes, 1)
	require.Equal(t, time.May, topicTimes[0].Month())

	commentTimes, err := f.store.CommentCreationTimes(ctx, since)
	require.NoError(t, err)
	require.Len(t, commentTimes, 2)
}
