package repository

import (
	"context"
	"fmt"
	"time"

	"civic311-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) InsertComment(ctx context.Context, c *models.Comment) error {
	id, err := s.nextID(ctx, commentsCollection)
	if err != nil {
		return err
	}
	c.ID = id
	if _, err := s.comments.InsertOne(ctx, c); err != nil {
		return mapError(err, "comment")
	}
	return nil
}

func (s *Store) FindComment(ctx context.Context, id int64) (*models.Comment, error) {
	var c models.Comment
	if err := s.comments.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, mapError(err, fmt.Sprintf("comment %d", id))
	}
	return &c, nil
}

func (s *Store) UpdateCommentContent(ctx context.Context, id int64, content string, at time.Time) error {
	res, err := s.comments.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"content": content, "updatedAt": at}},
	)
	if err != nil {
		return mapError(err, "comment")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: comment %d", models.ErrNotFound, id)
	}
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.comments.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return mapError(err, "comment")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: comment %d", models.ErrNotFound, id)
	}
	return nil
}

// ListComments returns a request's thread newest first. Internal notes are
// dropped unless includeInternal is set.
func (s *Store) ListComments(ctx context.Context, requestID int64, includeInternal bool, skip, limit int64) ([]models.Comment, int64, error) {
	filter := bson.M{"requestId": requestID}
	if !includeInternal {
		filter["isInternal"] = false
	}

	total, err := s.comments.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}

	cursor, err := s.comments.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find comments: %w", err)
	}
	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, 0, fmt.Errorf("decode comments: %w", err)
	}
	return comments, total, nil
}
