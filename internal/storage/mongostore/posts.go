package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/aryan-vats/tubescribe-backend/internal/models"
	"github.com/aryan-vats/tubescribe-backend/internal/storage"
)

const postsCollection = "blog_posts"

// PostStore implements storage.PostStore on MongoDB.
type PostStore struct {
	db *mongo.Database
}

func NewPostStore(db *mongo.Database) *PostStore {
	return &PostStore{db: db}
}

func (s *PostStore) CreatePost(ctx context.Context, post *models.BlogPost) error {
	now := time.Now().UTC()
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := s.db.Collection(postsCollection).InsertOne(ctx, post)
	return err
}

func (s *PostStore) ListByUser(ctx context.Context, userID string, limit, skip int64) ([]models.BlogPost, int64, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, 0, storage.ErrNotFound
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if skip < 0 {
		skip = 0
	}

	col := s.db.Collection(postsCollection)
	filter := bson.M{"user_id": uid}

	total, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(skip)
	cursor, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var posts []models.BlogPost
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func (s *PostStore) GetByID(ctx context.Context, postID, userID string) (*models.BlogPost, error) {
	filter, err := ownedFilter(postID, userID)
	if err != nil {
		return nil, err
	}

	var post models.BlogPost
	err = s.db.Collection(postsCollection).FindOne(ctx, filter).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (s *PostStore) DeleteByID(ctx context.Context, postID, userID string) error {
	filter, err := ownedFilter(postID, userID)
	if err != nil {
		return err
	}

	res, err := s.db.Collection(postsCollection).DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ownedFilter builds the (post_id, user_id) scoping filter shared by reads
// and deletes.
func ownedFilter(postID, userID string) (bson.M, error) {
	pid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, storage.ErrNotFound
	}
	return bson.M{"_id": pid, "user_id": uid}, nil
}
