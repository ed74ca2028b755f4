package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageType distinguishes plain text from image messages.
// Valid values: "text", "image".
type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

// BonfireMessage is stored in MongoDB, one document per message. Messages are
// immutable once created; ordering and deduplication happen in the stream.
type BonfireMessage struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BonfireID      string             `bson:"bonfire_id" json:"bonfire_id"`
	SenderID       string             `bson:"sender_id" json:"sender_id"`
	SenderNickname string             `bson:"sender_nickname,omitempty" json:"sender_nickname,omitempty"`
	Type           MessageType        `bson:"type" json:"type"`
	Content        string             `bson:"content,omitempty" json:"content,omitempty"`
	ImageURL       string             `bson:"image_url,omitempty" json:"image_url,omitempty"`
	ImageWidth     int                `bson:"image_width,omitempty" json:"image_width,omitempty"`
	ImageHeight    int                `bson:"image_height,omitempty" json:"image_height,omitempty"`
	ImageSizeBytes int64              `bson:"image_size_bytes,omitempty" json:"image_size_bytes,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
}
