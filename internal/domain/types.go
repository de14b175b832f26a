package domain

import "time"

// User is a registered identity. The public key is published once at
// registration and never rotates; the matching private key never reaches
// the server.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	PublicKey    string `json:"publicKey"`
}

// FriendEdge is one direction of a friendship. A friendship is two edges
// created together; either user removing it deletes both.
type FriendEdge struct {
	UserID   string `json:"userId"`
	FriendID string `json:"friendId"`
}

// Message is a stored ciphertext envelope. The server persists and relays
// it verbatim and never decrypts it.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId"`
	Envelope   string    `json:"envelope"`
	SentAt     time.Time `json:"sentAt"`
}
