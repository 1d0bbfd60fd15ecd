package models

import "time"

// Message is a single direct message. Messages are never edited or deleted.
type Message struct {
	ID           int64     `json:"id"`
	SenderID     string    `json:"sender_id"`
	ReceiverID   string    `json:"receiver_id"`
	SenderName   string    `json:"sender_name"`
	ReceiverName string    `json:"receiver_name"`
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

// BetweenPair reports whether m belongs to the conversation of the unordered pair {a, b}.
func (m Message) BetweenPair(a, b string) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

// Counterpart returns the other participant from uid's point of view.
func (m Message) Counterpart(uid string) string {
	if m.SenderID == uid {
		return m.ReceiverID
	}
	return m.SenderID
}

// ConversationSummary is one inbox row.
type ConversationSummary struct {
	CounterpartID   string    `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name"`
	LastMessage     string    `json:"last_message"`
	LastMessageAt   time.Time `json:"last_message_at"`
	LastFromMe      bool      `json:"last_from_me"`
}
