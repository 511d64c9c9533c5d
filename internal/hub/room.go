package hub

// Conn is what the hub expects from a live WebSocket session.
// Send must not block; it reports false when the frame was not queued.
type Conn interface {
	ID() string
	Send(data []byte) bool
}

// Room is the set of connections subscribed to one topic. It is owned by
// the Registry and only touched under the registry lock.
type Room struct {
	topicID string
	members map[Conn]struct{}
}

func newRoom(topicID string) *Room {
	return &Room{
		topicID: topicID,
		members: make(map[Conn]struct{}),
	}
}

// add reports whether c was not already a member.
func (r *Room) add(c Conn) bool {
	if _, ok := r.members[c]; ok {
		return false
	}
	r.members[c] = struct{}{}
	return true
}

func (r *Room) remove(c Conn) bool {
	if _, ok := r.members[c]; !ok {
		return false
	}
	delete(r.members, c)
	return true
}

func (r *Room) snapshot() []Conn {
	out := make([]Conn, 0, len(r.members))
	for c := range r.members {
		out = append(out, c)
	}
	return out
}

// Len returns the number of subscribed connections.
func (r *Room) Len() int {
	return len(r.members)
}

// TopicID returns the room key.
func (r *Room) TopicID() string {
	return r.topicID
}
