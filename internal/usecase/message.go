package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/redchat/redchat"
	"github.com/redchat/redchat/internal/domain"
)

// MessageRepository defines the append-only ciphertext log.
type MessageRepository interface {
	Create(ctx context.Context, message domain.Message) (domain.Message, error)
	GetBetween(ctx context.Context, userID, otherID string) ([]domain.Message, error)
}

// FriendChecker is the authorization gate's view of the friend graph.
type FriendChecker interface {
	HasEdge(ctx context.Context, fromID, toID string) (bool, error)
}

// Publisher delivers events to every live session of an identity.
type Publisher interface {
	PublishToUser(ctx context.Context, userID string, event redchat.Event) error
}

type MessageUsecase struct {
	repo    MessageRepository
	friends FriendChecker
	signal  Publisher
}

func NewMessageUsecase(repo MessageRepository, friends FriendChecker, signal Publisher) *MessageUsecase {
	return &MessageUsecase{repo: repo, friends: friends, signal: signal}
}

// Send relays one envelope from sender to receiver. The friend edge is
// checked first; a rejected send persists nothing and reaches no session.
// On success the stored message is fanned out to the receiver's sessions
// and to the sender's other sessions, so outgoing messages appear
// everywhere the sender is connected.
//
// The edge check and the insert are not atomic: a friend removal racing a
// send can let one already-checked message through. The next send sees the
// removed edge and is rejected.
func (uc *MessageUsecase) Send(ctx context.Context, senderID, receiverID, envelope string) (domain.Message, error) {
	ok, err := uc.friends.HasEdge(ctx, senderID, receiverID)
	if err != nil {
		return domain.Message{}, err
	}
	if !ok {
		return domain.Message{}, domain.NotAuthorizedError{Reason: "you can only send messages to friends"}
	}

	message, err := uc.repo.Create(ctx, domain.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Envelope:   envelope,
	})
	if err != nil {
		return domain.Message{}, err
	}

	event := redchat.Event{
		Type: redchat.EventMessage,
		Item: &redchat.Message{
			ID:         message.ID,
			SenderID:   message.SenderID,
			ReceiverID: message.ReceiverID,
			Envelope:   message.Envelope,
			SentAt:     message.SentAt,
		},
	}

	// The message is persisted at this point; a failed fan-out is not
	// rolled back, the affected sessions catch up through history.
	for _, userID := range []string{receiverID, senderID} {
		if err := uc.signal.PublishToUser(ctx, userID, event); err != nil {
			slog.WarnContext(
				ctx, "Delivery fan-out failed",
				slog.String("error", err.Error()),
				slog.String("module", "message"),
			)
		}
	}

	return message, nil
}

// History returns the ciphertext conversation between two users, ascending
// by SentAt. Decryption happens entirely client-side.
func (uc *MessageUsecase) History(ctx context.Context, userID, otherID string) ([]domain.Message, error) {
	return uc.repo.GetBetween(ctx, userID, otherID)
}
