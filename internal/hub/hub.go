package hub

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/devaloi/agora/internal/domain"
	"github.com/devaloi/agora/internal/logging"
)

// delivery is one published event with the room members captured at
// publish time.
type delivery struct {
	event   domain.Event
	data    []byte
	members []Conn
}

// Hub owns the topic rooms and fans committed Change Events out to them.
// Publish never blocks; a single Run goroutine delivers in publish order.
type Hub struct {
	reg    *Registry
	logger zerolog.Logger

	mu      sync.Mutex
	queue   []delivery
	stopped bool

	wake     chan struct{}
	quit     chan struct{}
	stopOnce sync.Once
}

// New creates a Hub with an empty registry.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		reg:    NewRegistry(),
		logger: logger.With().Str("component", "hub").Logger(),
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
	}
}

// Run starts the dispatch loop. Should be called as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case <-h.wake:
			h.drain()
		case <-h.quit:
			return
		}
	}
}

// Stop ends the dispatch loop. Events still queued are discarded.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		h.mu.Lock()
		h.stopped = true
		h.queue = nil
		h.mu.Unlock()
		close(h.quit)
	})
}

// Publish enqueues evt for every connection currently in its topic room.
func (h *Hub) Publish(evt domain.Event) {
	data, err := domain.Encode(evt.Envelope())
	if err != nil {
		h.logger.Error().Err(err).
			Str(logging.FieldEventID, evt.ID).
			Str(logging.FieldEvent, string(evt.Kind)).
			Msg("encode event")
		return
	}

	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return
	}
	members := h.reg.MembersOf(evt.TopicID)
	if len(members) == 0 {
		h.mu.Unlock()
		h.logger.Debug().
			Str(logging.FieldTopicID, evt.TopicID).
			Str(logging.FieldEvent, string(evt.Kind)).
			Msg("no subscribers")
		return
	}
	h.queue = append(h.queue, delivery{event: evt, data: data, members: members})
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

func (h *Hub) drain() {
	for {
		h.mu.Lock()
		batch := h.queue
		h.queue = nil
		h.mu.Unlock()
		if len(batch) == 0 {
			return
		}
		for _, d := range batch {
			h.deliver(d)
		}
	}
}

func (h *Hub) deliver(d delivery) {
	for _, c := range d.members {
		if !c.Send(d.data) {
			h.logger.Warn().
				Str(logging.FieldConnID, c.ID()).
				Str(logging.FieldTopicID, d.event.TopicID).
				Str(logging.FieldEventID, d.event.ID).
				Msg("event dropped")
		}
	}
}

// Join subscribes c to topicID.
func (h *Hub) Join(c Conn, topicID string) bool {
	added := h.reg.Join(c, topicID)
	if added {
		h.logger.Debug().Str(logging.FieldConnID, c.ID()).Str(logging.FieldTopicID, topicID).Msg("joined")
	}
	return added
}

// Leave unsubscribes c from topicID.
func (h *Hub) Leave(c Conn, topicID string) bool {
	removed := h.reg.Leave(c, topicID)
	if removed {
		h.logger.Debug().Str(logging.FieldConnID, c.ID()).Str(logging.FieldTopicID, topicID).Msg("left")
	}
	return removed
}

// RemoveEverywhere unsubscribes c from all of its rooms.
func (h *Hub) RemoveEverywhere(c Conn) []string {
	left := h.reg.RemoveEverywhere(c)
	if len(left) > 0 {
		h.logger.Debug().Str(logging.FieldConnID, c.ID()).Strs("topics", left).Msg("removed everywhere")
	}
	return left
}

// MembersOf returns a snapshot of the connections subscribed to topicID.
func (h *Hub) MembersOf(topicID string) []Conn {
	return h.reg.MembersOf(topicID)
}

// Topics returns the topics c is subscribed to.
func (h *Hub) Topics(c Conn) []string {
	return h.reg.Topics(c)
}

// ListRooms returns info about all live rooms.
func (h *Hub) ListRooms() []domain.RoomInfo {
	return h.reg.Rooms()
}

// RoomInfo returns details about a specific room, or nil if not found.
func (h *Hub) RoomInfo(topicID string) *domain.RoomInfo {
	return h.reg.Room(topicID)
}
