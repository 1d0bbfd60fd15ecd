package httpapi

import (
	"context"
	"net/http"

	"eventhub/internal/models"
)

type sendMessageRequest struct {
	Content string `json:"content"`
}

type conversationResponse struct {
	Messages []models.Message `json:"messages"`
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	inbox, err := s.messages.Inbox(r.Context(), currentUID(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Conversations []models.ConversationSummary `json:"conversations"`
	}{Conversations: inbox})
}

func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.messages.Conversation(r.Context(), currentUID(r), r.PathValue("uid"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversationResponse{Messages: msgs})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := decodeJSON(r, &req, false); err != nil {
		writeInvalidJSON(w)
		return
	}

	msg, err := s.messages.Send(r.Context(), currentUID(r), r.PathValue("uid"), req.Content)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleStreamConversation(w http.ResponseWriter, r *http.Request) {
	uid, other := currentUID(r), r.PathValue("uid")
	s.stream(w, r, func(ctx context.Context) (any, error) {
		msgs, err := s.messages.Conversation(ctx, uid, other)
		if err != nil {
			return nil, err
		}
		return conversationResponse{Messages: msgs}, nil
	})
}
