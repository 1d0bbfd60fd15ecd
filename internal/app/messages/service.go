package messages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"eventhub/internal/events"
	"eventhub/internal/logging"
	"eventhub/internal/models"
	"eventhub/internal/store"
	"eventhub/internal/validation"
)

// ErrRecipientNotFound is returned when the receiver has no account.
var ErrRecipientNotFound = errors.New("recipient not found")

// Store defines persistence operations for direct messages
type Store interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	InsertMessage(ctx context.Context, m *models.Message) (*models.Message, error)
	Conversation(ctx context.Context, a, b string) ([]models.Message, error)
	MessagesFor(ctx context.Context, uid string) ([]models.Message, error)
}

// Service coordinates messaging operations
type Service interface {
	Send(ctx context.Context, senderUID, receiverUID, content string) (*models.Message, error)
	Conversation(ctx context.Context, uid, otherUID string) ([]models.Message, error)
	Inbox(ctx context.Context, uid string) ([]models.ConversationSummary, error)
}

type service struct {
	store  Store
	events events.Publisher
}

// New constructs a messages Service. A nil publisher disables message.sent events.
func New(store Store, publisher events.Publisher) Service {
	if publisher == nil {
		publisher = events.Noop{}
	}
	return &service{store: store, events: publisher}
}

func (s *service) Send(ctx context.Context, senderUID, receiverUID, content string) (*models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	receiverUID = strings.TrimSpace(receiverUID)
	var problems []string
	if content == "" {
		problems = append(problems, "content must not be empty")
	}
	if receiverUID == "" {
		problems = append(problems, "receiver is required")
	} else if receiverUID == senderUID {
		problems = append(problems, "cannot message yourself")
	}
	if len(problems) > 0 {
		return nil, validation.New("message is invalid", problems...)
	}

	sender, err := s.store.GetAccount(ctx, senderUID)
	if err != nil {
		return nil, fmt.Errorf("load sender: %w", err)
	}
	receiver, err := s.store.GetAccount(ctx, receiverUID)
	if errors.Is(err, store.ErrAccountNotFound) {
		return nil, ErrRecipientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load receiver: %w", err)
	}

	msg, err := s.store.InsertMessage(ctx, &models.Message{
		SenderID:     senderUID,
		ReceiverID:   receiverUID,
		SenderName:   sender.DisplayName(),
		ReceiverName: receiver.DisplayName(),
		Content:      content,
	})
	if err != nil {
		return nil, err
	}

	events.PublishBestEffort(ctx, s.events, events.MessageSent, events.MessageSentEvent{
		MessageID:  msg.ID,
		SenderID:   msg.SenderID,
		ReceiverID: msg.ReceiverID,
		SentAt:     msg.CreatedAt,
	})
	logging.WithContext(ctx).Debug().Int64("message_id", msg.ID).Msg("Message sent")
	return msg, nil
}

func (s *service) Conversation(ctx context.Context, uid, otherUID string) ([]models.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.store.Conversation(ctx, uid, strings.TrimSpace(otherUID))
}

// Inbox summarises uid's conversations, one row per counterpart, most recent first.
func (s *service) Inbox(ctx context.Context, uid string) ([]models.ConversationSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	all, err := s.store.MessagesFor(ctx, uid)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	inbox := []models.ConversationSummary{}
	for _, m := range all {
		other := m.Counterpart(uid)
		if seen[other] {
			continue
		}
		seen[other] = true

		name := m.SenderName
		if m.SenderID == uid {
			name = m.ReceiverName
		}
		inbox = append(inbox, models.ConversationSummary{
			CounterpartID:   other,
			CounterpartName: name,
			LastMessage:     m.Content,
			LastMessageAt:   m.CreatedAt,
			LastFromMe:      m.SenderID == uid,
		})
	}
	return inbox, nil
}
