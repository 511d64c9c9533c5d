package domain

import "time"

// MaxTopicTags is the number of tags a topic may carry.
const MaxTopicTags = 3

// Vote reference types.
const (
	RefTopic   = "topic"
	RefComment = "comment"
)

// Category groups topics.
type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CategoryRef is the resolved category attached to a topic.
type CategoryRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Topic is a discussion thread. Its ID is the key of the realtime room.
type Topic struct {
	ID           string      `json:"id"`
	UserID       string      `json:"-"`
	CategoryID   string      `json:"-"`
	Author       UserRef     `json:"user"`
	Category     CategoryRef `json:"category"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	Tags         []string    `json:"tags"`
	ViewCount    int         `json:"viewCount"`
	CommentCount int         `json:"commentCount"`
	IsDeleted    bool        `json:"isDeleted"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Comment belongs to a topic and optionally replies to another comment.
type Comment struct {
	ID         string    `json:"id"`
	TopicID    string    `json:"topicId"`
	TopicTitle string    `json:"topicTitle,omitempty"`
	UserID     string    `json:"-"`
	Author     UserRef   `json:"user"`
	ReplyTo    string    `json:"replyTo,omitempty"`
	Content    string    `json:"content"`
	IsEdited   bool      `json:"isEdited"`
	IsDeleted  bool      `json:"isDeleted"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Vote is one user's up (+1) or down (-1) vote on a topic or comment.
type Vote struct {
	ID            string    `json:"id"`
	UserID        string    `json:"userId"`
	ReferenceID   string    `json:"referenceId"`
	ReferenceType string    `json:"referenceType"`
	Value         int       `json:"value"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
