package domain

import (
	"time"

	"github.com/google/uuid"
)

// Kind tags a Change Event.
type Kind string

// Change Event kinds.
const (
	CommentCreated Kind = "comment-created"
	CommentUpdated Kind = "comment-updated"
	CommentDeleted Kind = "comment-deleted"
	VoteCreated    Kind = "vote-created"
	VoteUpdated    Kind = "vote-updated"
	VoteDeleted    Kind = "vote-deleted"
)

// Event names delivered to subscribed clients.
const (
	EvtCommentAdded   = "commentAdded"
	EvtCommentUpdated = "commentUpdated"
	EvtCommentDeleted = "commentDeleted"
	EvtVoteUpdated    = "voteUpdated"
)

// Vote actions carried by voteUpdated payloads.
const (
	VoteActionCreate = "create"
	VoteActionUpdate = "update"
	VoteActionDelete = "delete"
)

// Wire returns the client-facing event name for the kind. All three vote
// kinds share voteUpdated and are told apart by the payload action.
func (k Kind) Wire() string {
	switch k {
	case CommentCreated:
		return EvtCommentAdded
	case CommentUpdated:
		return EvtCommentUpdated
	case CommentDeleted:
		return EvtCommentDeleted
	case VoteCreated, VoteUpdated, VoteDeleted:
		return EvtVoteUpdated
	default:
		return string(k)
	}
}

// Event is a notification about one committed mutation, scoped to a topic.
type Event struct {
	ID        string
	Kind      Kind
	TopicID   string
	Payload   any
	Timestamp time.Time
}

// NewEvent stamps a Change Event with a fresh id and the current time.
func NewEvent(kind Kind, topicID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Kind:      kind,
		TopicID:   topicID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Envelope is the JSON frame a subscriber receives for an Event.
type Envelope struct {
	Type      string    `json:"type"`
	EventID   string    `json:"eventId"`
	TopicID   string    `json:"topicId"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Envelope converts the event into its wire frame.
func (e Event) Envelope() Envelope {
	return Envelope{
		Type:      e.Kind.Wire(),
		EventID:   e.ID,
		TopicID:   e.TopicID,
		Timestamp: e.Timestamp,
		Payload:   e.Payload,
	}
}

// CommentRemoved is the payload of commentDeleted.
type CommentRemoved struct {
	ID      string `json:"id"`
	TopicID string `json:"topicId"`
}

// VoteChange is the payload of voteUpdated.
type VoteChange struct {
	VoteID        string `json:"voteId,omitempty"`
	ReferenceID   string `json:"referenceId"`
	ReferenceType string `json:"referenceType"`
	Value         int    `json:"value,omitempty"`
	Action        string `json:"action"`
}
