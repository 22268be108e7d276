package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ContentRepositoryMongo reads content documents written by the authoring service.
type ContentRepositoryMongo struct {
	collection *mongo.Collection
}

func NewContentRepositoryMongo(client *mongo.Client, database, collection string) *ContentRepositoryMongo {
	return &ContentRepositoryMongo{collection: client.Database(database).Collection(collection)}
}

func (r *ContentRepositoryMongo) GetContent(ctx context.Context, id string) (*model.Content, error) {
	var c model.Content
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("content %s: %w", id, model.ErrContentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find content %s: %w", id, err)
	}
	return &c, nil
}

func (r *ContentRepositoryMongo) SetPublished(ctx context.Context, id string, publishedAt time.Time) error {
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: model.ContentStatusPublished},
		{Key: "publishedAt", Value: publishedAt},
	}}}
	res, err := r.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, update)
	if err != nil {
		return fmt.Errorf("mark content %s published: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("content %s: %w", id, model.ErrContentNotFound)
	}
	return nil
}

var _ repository.IContent = (*ContentRepositoryMongo)(nil)
