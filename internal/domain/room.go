package domain

// RoomInfo describes a live topic room.
type RoomInfo struct {
	TopicID     string `json:"topicId"`
	Subscribers int    `json:"subscribers"`
}
