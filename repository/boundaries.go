package repository

import (
	"context"
	"errors"
	"fmt"

	"civic311-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *Store) InsertBoundary(ctx context.Context, b *models.GeoBoundary) error {
	id, err := s.nextID(ctx, boundariesCollection)
	if err != nil {
		return err
	}
	b.ID = id
	if _, err := s.boundaries.InsertOne(ctx, b); err != nil {
		return mapError(err, "geo boundary")
	}
	return nil
}

// LatestBoundary returns the active boundary, or ErrNotFound when none exists.
func (s *Store) LatestBoundary(ctx context.Context) (*models.GeoBoundary, error) {
	var b models.GeoBoundary
	err := s.boundaries.FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}),
	).Decode(&b)
	if err != nil {
		return nil, mapError(err, "geo boundary")
	}
	return &b, nil
}

func (s *Store) ListBoundaries(ctx context.Context) ([]models.GeoBoundary, error) {
	cursor, err := s.boundaries.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetProjection(bson.M{"geojson": 0}),
	)
	if err != nil {
		return nil, fmt.Errorf("find geo boundaries: %w", err)
	}
	boundaries := []models.GeoBoundary{}
	if err := cursor.All(ctx, &boundaries); err != nil {
		return nil, fmt.Errorf("decode geo boundaries: %w", err)
	}
	return boundaries, nil
}

// SaveCredential creates or replaces the sealed value for a service.
func (s *Store) SaveCredential(ctx context.Context, c *models.ApiCredential) error {
	existing, err := s.FindCredential(ctx, c.ServiceName)
	switch {
	case errors.Is(err, models.ErrNotFound):
		id, err := s.nextID(ctx, credentialsCollection)
		if err != nil {
			return err
		}
		c.ID = id
		if _, err := s.credentials.InsertOne(ctx, c); err != nil {
			return mapError(err, "credential "+c.ServiceName)
		}
		return nil
	case err != nil:
		return err
	}

	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	_, err = s.credentials.UpdateOne(ctx,
		bson.M{"_id": existing.ID},
		bson.M{"$set": bson.M{
			"encryptedValue": c.EncryptedValue,
			"createdById":    c.CreatedByID,
			"updatedAt":      c.UpdatedAt,
		}},
	)
	return mapError(err, "credential "+c.ServiceName)
}

// FindCredential returns the sealed value stored for service.
func (s *Store) FindCredential(ctx context.Context, service string) (*models.ApiCredential, error) {
	var c models.ApiCredential
	if err := s.credentials.FindOne(ctx, bson.M{"serviceName": service}).Decode(&c); err != nil {
		return nil, mapError(err, "credential "+service)
	}
	return &c, nil
}

func (s *Store) ListCredentials(ctx context.Context) ([]models.ApiCredential, error) {
	cursor, err := s.credentials.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "serviceName", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find credentials: %w", err)
	}
	creds := []models.ApiCredential{}
	if err := cursor.All(ctx, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return creds, nil
}
