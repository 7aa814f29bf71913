package repository

import (
	"context"
	"fmt"

	"civic311-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) InsertAttachment(ctx context.Context, a *models.Attachment) error {
	id, err := s.nextID(ctx, attachmentsCollection)
	if err != nil {
		return err
	}
	a.ID = id
	if _, err := s.attachments.InsertOne(ctx, a); err != nil {
		return mapError(err, "attachment")
	}
	return nil
}

func (s *Store) ListAttachments(ctx context.Context, requestID int64) ([]models.Attachment, error) {
	cursor, err := s.attachments.Find(ctx,
		bson.M{"requestId": requestID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find attachments: %w", err)
	}
	attachments := []models.Attachment{}
	if err := cursor.All(ctx, &attachments); err != nil {
		return nil, fmt.Errorf("decode attachments: %w", err)
	}
	return attachments, nil
}

// ListPendingAttachments returns the oldest unscanned attachments first.
func (s *Store) ListPendingAttachments(ctx context.Context, limit int64) ([]models.Attachment, error) {
	cursor, err := s.attachments.Find(ctx,
		bson.M{"scanState": models.ScanPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("find pending attachments: %w", err)
	}
	attachments := []models.Attachment{}
	if err := cursor.All(ctx, &attachments); err != nil {
		return nil, fmt.Errorf("decode pending attachments: %w", err)
	}
	return attachments, nil
}

// ResolveScan moves an attachment out of pending. It reports false when the
// attachment was already resolved, so a verdict is never overwritten.
func (s *Store) ResolveScan(ctx context.Context, id int64, state models.ScanState, result string) (bool, error) {
	res, err := s.attachments.UpdateOne(ctx,
		bson.M{"_id": id, "scanState": models.ScanPending},
		bson.M{"$set": bson.M{"scanState": state, "scanResult": result}},
	)
	if err != nil {
		return false, mapError(err, "attachment")
	}
	return res.ModifiedCount == 1, nil
}
