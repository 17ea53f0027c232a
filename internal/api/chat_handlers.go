package api

import (
	"net/http"
	"time"

	"github.com/vytor/flashgenius/internal/services"
)

type chatRequest struct {
	Message             string                 `json:"message" validate:"required,max=2000"`
	ConversationHistory []services.ChatMessage `json:"conversationHistory"`
}

func (s *Server) handleChatHealth(w http.ResponseWriter, r *http.Request) {
	available := s.ChatService.Available()
	status := "unavailable"
	if available {
		status = "available"
	}
	respond(w, r, http.StatusOK, map[string]any{
		"status":     status,
		"configured": available,
		"timestamp":  time.Now().UTC(),
	})
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	reply, err := s.ChatService.Send(r.Context(), req.Message, req.ConversationHistory)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, reply)
}
