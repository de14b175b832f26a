package client

import (
	"context"
	"time"

	"github.com/redchat/redchat/envelope"
)

// Messenger binds a session key store to a client and performs all
// encryption and decryption. The server only ever sees the envelopes it
// produces.
type Messenger struct {
	client *Client
	keys   *envelope.KeyStore
	selfID string
}

func NewMessenger(client *Client, keys *envelope.KeyStore, selfID string) *Messenger {
	return &Messenger{
		client: client,
		keys:   keys,
		selfID: selfID,
	}
}

// Encrypt seals plaintext for receiverID. The message key is wrapped for
// the receiver and for the sender, so this session (and any other session
// holding the sender's private key) can re-read the message later.
func (m *Messenger) Encrypt(ctx context.Context, receiverID, plaintext string) (string, error) {
	recipientPub, err := m.client.PublicKey(ctx, receiverID)
	if err != nil {
		return "", err
	}
	senderPub, err := m.client.PublicKey(ctx, m.selfID)
	if err != nil {
		return "", err
	}
	return envelope.Seal(plaintext, recipientPub, senderPub)
}

// Decrypt opens one wire envelope with the session's private key,
// whichever wrap slot it matches.
func (m *Messenger) Decrypt(wire string) (string, error) {
	return m.keys.Open(wire)
}

// SendText encrypts plaintext and relays it over an open realtime channel.
// Success is observed by receiving the echoed delivery; a rejection comes
// back as an error event on the same channel.
func (m *Messenger) SendText(ctx context.Context, rt *Realtime, receiverID, plaintext string) error {
	wire, err := m.Encrypt(ctx, receiverID, plaintext)
	if err != nil {
		return err
	}
	return rt.Send(receiverID, wire)
}

// DecryptedMessage is one history entry after client-side decryption.
// When Err is set the message could not be decrypted and Plaintext is
// empty; the entry is kept so the conversation renders with an explicit
// failure marker in place.
type DecryptedMessage struct {
	ID         string
	SenderID   string
	ReceiverID string
	Plaintext  string
	SentAt     time.Time
	Err        error
}

// History fetches the ciphertext conversation with otherID and decrypts
// it message by message. Decrypt failures are isolated: one tampered or
// undecryptable message never hides the rest of the conversation.
func (m *Messenger) History(ctx context.Context, otherID string) ([]DecryptedMessage, error) {
	messages, err := m.client.History(ctx, otherID)
	if err != nil {
		return nil, err
	}

	decrypted := make([]DecryptedMessage, 0, len(messages))
	for _, message := range messages {
		entry := DecryptedMessage{
			ID:         message.ID,
			SenderID:   message.SenderID,
			ReceiverID: message.ReceiverID,
			SentAt:     message.SentAt,
		}
		entry.Plaintext, entry.Err = m.keys.Open(message.Envelope)
		if entry.Err != nil {
			entry.Plaintext = ""
		}
		decrypted = append(decrypted, entry)
	}
	return decrypted, nil
}
