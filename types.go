package redchat

import (
	"time"
)

const (
	// FrameSend asks the relay to deliver an envelope to a receiver.
	FrameSend = "send"
	// FrameHeartbeat keeps the socket alive. Carries no payload.
	FrameHeartbeat = "h"
)

const (
	EventMessage = "message"
	EventError   = "error"
)

// Frame is a client-to-server message on the realtime channel.
type Frame struct {
	Type       string `json:"type"`
	ReceiverID string `json:"receiverId,omitempty"`
	Envelope   string `json:"envelope,omitempty"`
}

// Message is the wire form of a stored message. Envelope is opaque
// ciphertext; the server never decrypts it.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Envelope   string    `json:"envelope"`
	SentAt     time.Time `json:"sentAt"`
}

// Event is a server-to-client message on the realtime channel.
type Event struct {
	Type  string   `json:"type"`
	Item  *Message `json:"item,omitempty"`
	Error string   `json:"error,omitempty"`
}

type RegisterRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	PublicKey string `json:"publicKey"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type PublicKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// Friend is one entry of a user's friend list.
type Friend struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}
