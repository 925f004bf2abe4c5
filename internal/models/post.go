package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlogPost is a generated article persisted in the blog_posts collection.
// UserID references the owning user; every read and delete is scoped to it.
type BlogPost struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`

	UserID     primitive.ObjectID `bson:"user_id" json:"user_id"`
	YoutubeURL string             `bson:"youtube_url" json:"youtube_url"`
	VideoID    string             `bson:"video_id" json:"video_id"`
	Title      string             `bson:"title" json:"title"`
	Content    string             `bson:"content" json:"content"`
	WordCount  int                `bson:"word_count" json:"word_count"`
}
