package services

import (
	"context"
	"time"

	"github.com/bonfireapp/bonfire-backend/internal/database"
	"github.com/bonfireapp/bonfire-backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const messagesCollection = "bonfire_messages"

// EnsureChatIndexes configures indexes for the bonfire_messages collection.
// Called on startup from main after Mongo has connected.
func EnsureChatIndexes(ctx context.Context) error {
	col := database.DB.Collection(messagesCollection)

	// Compound index on (bonfire_id, created_at) for the ascending bulk fetch.
	model := mongo.IndexModel{
		Keys: bson.D{
			{Key: "bonfire_id", Value: 1},
			{Key: "created_at", Value: 1},
		},
		Options: options.Index().SetName("idx_bonfire_created"),
	}

	_, err := col.Indexes().CreateOne(ctx, model)
	return err
}

// SaveBonfireMessage persists one message and returns it with its assigned ID
// and creation time filled in.
func SaveBonfireMessage(ctx context.Context, msg *models.BonfireMessage) (*models.BonfireMessage, error) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if msg.ID.IsZero() {
		msg.ID = primitive.NewObjectID()
	}

	col := database.DB.Collection(messagesCollection)
	if _, err := col.InsertOne(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// LoadBonfireMessages returns all messages for a bonfire, ascending by
// creation time: the bulk input of the message stream. Bonfires are
// short-lived, so the full history stays small by construction.
func LoadBonfireMessages(ctx context.Context, bonfireID string) ([]models.BonfireMessage, error) {
	col := database.DB.Collection(messagesCollection)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := col.Find(ctx, bson.M{"bonfire_id": bonfireID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var msgs []models.BonfireMessage
	for cur.Next(ctx) {
		var m models.BonfireMessage
		if err := cur.Decode(&m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, cur.Err()
}
