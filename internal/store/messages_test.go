package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"eventhub/internal/models"
)

var messageColumnNames = []string{"id", "sender_id", "receiver_id", "sender_name", "receiver_name", "content", "created_at"}

func TestInsertMessage(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(insertMessageSQL)).
		WithArgs("a", "b", "Ada", "Bola", "hello").
		WillReturnRows(sqlmock.NewRows(messageColumnNames).AddRow(int64(1), "a", "b", "Ada", "Bola", "hello", now))

	msg, err := s.InsertMessage(context.Background(), &models.Message{
		SenderID: "a", ReceiverID: "b", SenderName: "Ada", ReceiverName: "Bola", Content: "hello",
	})
	if err != nil {
		t.Fatalf("InsertMessage: %v", err)
	}
	if msg.ID != 1 || !msg.CreatedAt.Equal(now) {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestConversationQueriesBothDirections(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta(selectConversationSQL)).
		WithArgs("a", "b").
		WillReturnRows(sqlmock.NewRows(messageColumnNames).
			AddRow(int64(1), "a", "b", "Ada", "Bola", "hi", now).
			AddRow(int64(2), "b", "a", "Bola", "Ada", "hey", now.Add(time.Second)))

	msgs, err := s.Conversation(context.Background(), "a", "b")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != 1 || msgs[1].SenderID != "b" {
		t.Fatalf("unexpected conversation %+v", msgs)
	}
}

func TestMessagesForEmpty(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(selectMessagesForSQL)).
		WithArgs("a").
		WillReturnRows(sqlmock.NewRows(messageColumnNames))

	msgs, err := s.MessagesFor(context.Background(), "a")
	if err != nil {
		t.Fatalf("MessagesFor: %v", err)
	}
	if msgs == nil || len(msgs) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", msgs)
	}
}
