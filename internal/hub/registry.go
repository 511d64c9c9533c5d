package hub

import (
	"sort"
	"sync"

	"github.com/devaloi/agora/internal/domain"
)

// Registry maps topic ids to rooms and connections to the topics they joined.
// Rooms are created on first join and discarded when their last member leaves.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]*Room
	memberships map[Conn]map[string]struct{}
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		memberships: make(map[Conn]map[string]struct{}),
	}
}

// Join subscribes c to topicID. It reports whether c was newly added;
// joining twice is a no-op.
func (r *Registry) Join(c Conn, topicID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[topicID]
	if !ok {
		room = newRoom(topicID)
		r.rooms[topicID] = room
	}
	if !room.add(c) {
		return false
	}
	topics, ok := r.memberships[c]
	if !ok {
		topics = make(map[string]struct{})
		r.memberships[c] = topics
	}
	topics[topicID] = struct{}{}
	return true
}

// Leave unsubscribes c from topicID. It reports whether c was a member.
func (r *Registry) Leave(c Conn, topicID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(c, topicID)
}

func (r *Registry) leaveLocked(c Conn, topicID string) bool {
	room, ok := r.rooms[topicID]
	if !ok || !room.remove(c) {
		return false
	}
	if room.Len() == 0 {
		delete(r.rooms, topicID)
	}
	if topics, ok := r.memberships[c]; ok {
		delete(topics, topicID)
		if len(topics) == 0 {
			delete(r.memberships, c)
		}
	}
	return true
}

// RemoveEverywhere unsubscribes c from every room and returns the topics it
// left. Calling it again returns nil.
func (r *Registry) RemoveEverywhere(c Conn) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	topics, ok := r.memberships[c]
	if !ok {
		return nil
	}
	left := make([]string, 0, len(topics))
	for topicID := range topics {
		left = append(left, topicID)
	}
	for _, topicID := range left {
		r.leaveLocked(c, topicID)
	}
	sort.Strings(left)
	return left
}

// MembersOf returns a snapshot of the connections subscribed to topicID.
func (r *Registry) MembersOf(topicID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[topicID]
	if !ok {
		return nil
	}
	return room.snapshot()
}

// Topics returns the topics c is subscribed to, sorted.
func (r *Registry) Topics(c Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	topics := make([]string, 0, len(r.memberships[c]))
	for topicID := range r.memberships[c] {
		topics = append(topics, topicID)
	}
	sort.Strings(topics)
	return topics
}

// Rooms returns info about every live room, sorted by topic id.
func (r *Registry) Rooms() []domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]domain.RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, domain.RoomInfo{
			TopicID:     room.TopicID(),
			Subscribers: room.Len(),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].TopicID < rooms[j].TopicID })
	return rooms
}

// Room returns details about one room, or nil if nobody is subscribed.
func (r *Registry) Room(topicID string) *domain.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[topicID]
	if !ok {
		return nil
	}
	return &domain.RoomInfo{
		TopicID:     room.TopicID(),
		Subscribers: room.Len(),
	}
}
