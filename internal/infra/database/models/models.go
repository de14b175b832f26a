package models

import (
	"time"
)

type User struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	Username     string    `json:"username" gorm:"type:text;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"type:text;not null"`
	PublicKey    string    `json:"publicKey" gorm:"type:text;not null"`
	CDate        time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Friend struct {
	UserID   string    `json:"userId" gorm:"type:uuid;primaryKey;uniqueIndex:uniq_friend_edge,priority:1"`
	User     User      `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	FriendID string    `json:"friendId" gorm:"type:uuid;primaryKey;uniqueIndex:uniq_friend_edge,priority:2"`
	Friend   User      `json:"-" gorm:"foreignKey:FriendID;constraint:OnDelete:CASCADE;"`
	CDate    time.Time `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type Message struct {
	ID         string    `json:"id" gorm:"primaryKey;type:uuid"`
	SenderID   string    `json:"senderId" gorm:"type:uuid;index:msg_pair,priority:1;not null"`
	Sender     User      `json:"-" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE;"`
	ReceiverID string    `json:"receiverId" gorm:"type:uuid;index:msg_pair,priority:2;not null"`
	Receiver   User      `json:"-" gorm:"foreignKey:ReceiverID;constraint:OnDelete:CASCADE;"`
	Envelope   string    `json:"envelope" gorm:"type:text;not null"`
	SentAt     time.Time `json:"sentAt" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp();index"`
}
