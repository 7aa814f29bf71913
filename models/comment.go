package models

import "time"

type Comment struct {
	ID         int64      `bson:"_id" json:"id"`
	RequestID  int64      `bson:"requestId" json:"request_id"`
	AuthorID   int64      `bson:"authorId" json:"author_id"`
	Content    string     `bson:"content" json:"content"`
	IsInternal bool       `bson:"isInternal" json:"is_internal"`
	CreatedAt  time.Time  `bson:"createdAt" json:"created_at"`
	UpdatedAt  *time.Time `bson:"updatedAt" json:"updated_at"`
}
