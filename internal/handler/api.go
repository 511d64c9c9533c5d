package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devaloi/agora/internal/hub"
)

// Health returns a simple health check handler.
func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ListRooms returns every live topic room with its subscriber count.
func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, h.ListRooms())
	}
}

// RoomInfo returns the room of a single topic.
func RoomInfo(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		info := h.RoomInfo(chi.URLParam(r, "topicID"))
		if info == nil {
			writeMessage(w, http.StatusNotFound, "Room not found")
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}
