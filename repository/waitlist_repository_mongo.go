package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"pledg/domain"
)

// ConnectMongo creates the process-wide client. Callers own it and must
// Disconnect on shutdown.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

type WaitlistRepositoryMongo struct {
	collection *mongo.Collection
}

func NewWaitlistRepositoryMongo(client *mongo.Client, database, collection string) *WaitlistRepositoryMongo {
	return &WaitlistRepositoryMongo{
		collection: client.Database(database).Collection(collection),
	}
}

// EnsureIndexes creates the unique phone index and a partial unique email
// index (email is optional).
func (r *WaitlistRepositoryMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_phone"),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetName("uniq_email").
				SetPartialFilterExpression(bson.D{{Key: "email", Value: bson.D{{Key: "$type", Value: "string"}}}}),
		},
	})
	if err != nil {
		return fmt.Errorf("create waitlist indexes: %w", err)
	}
	return nil
}

func (r *WaitlistRepositoryMongo) FindByContact(
	ctx context.Context,
	phone, email string,
) (domain.WaitlistEntry, bool, error) {
	clauses := bson.A{bson.D{{Key: "phone", Value: phone}}}
	if email != "" {
		clauses = append(clauses, bson.D{{Key: "email", Value: email}})
	}

	var entry domain.WaitlistEntry
	err := r.collection.FindOne(ctx, bson.D{{Key: "$or", Value: clauses}}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.WaitlistEntry{}, false, nil
	}
	if err != nil {
		return domain.WaitlistEntry{}, false, fmt.Errorf("find waitlist entry: %w", err)
	}
	return entry, true, nil
}

func (r *WaitlistRepositoryMongo) Create(ctx context.Context, entry domain.WaitlistEntry) error {
	if _, err := r.collection.InsertOne(ctx, entry); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateEntry
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

func (r *WaitlistRepositoryMongo) Count(ctx context.Context) (int64, error) {
	n, err := r.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count waitlist entries: %w", err)
	}
	return n, nil
}
