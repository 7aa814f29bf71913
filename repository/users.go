package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civic311-be/models"

	"go.mongodb.org/mongo-driver/bson"
)

// InsertUser stores a new account. Emails are unique case-insensitively, so
// they are lowered before the write.
func (s *Store) InsertUser(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	id, err := s.nextID(ctx, usersCollection)
	if err != nil {
		return err
	}
	user.ID = id
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		return mapError(err, "user "+user.Email)
	}
	return nil
}

func (s *Store) FindUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, mapError(err, fmt.Sprintf("user %d", id))
	}
	return &user, nil
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.User
	if err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, mapError(err, "user "+email)
	}
	return &user, nil
}

func (s *Store) UpdateUserRole(ctx context.Context, id int64, role models.Role) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"role": role, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return mapError(err, "user")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	return nil
}
