package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/circle/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Counter names a denormalized counter field on a post document.
type Counter string

const (
	CounterLikes    Counter = "like_count"
	CounterComments Counter = "comment_count"
	CounterReposts  Counter = "repost_count"
	CounterSaves    Counter = "save_count"
)

// FeedQuery describes one page of a viewer's feed.
type FeedQuery struct {
	ViewerID  uint
	AuthorIDs []uint
	FriendIDs []uint
	Cursor    string
	Limit     int
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error)
	GetPostsByAuthor(ctx context.Context, authorID uint, visibilities []models.Visibility, skip, limit int64) ([]models.Post, error)
	DeletePost(ctx context.Context, id string) error
	FindFeedPosts(ctx context.Context, q FeedQuery) ([]models.Post, error)
	FindPublicSince(ctx context.Context, since time.Time) ([]models.Post, error)
	FindTopPublicSince(ctx context.Context, since time.Time, limit int64) ([]models.Post, error)
	AdjustCounter(ctx context.Context, postID string, counter Counter, delta int) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// EnsureIndexes creates the indexes the feed and trending queries rely on.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "visibility", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	now := time.Now().UTC().Truncate(time.Millisecond)
	post.ID = primitive.NewObjectID()
	post.CreatedAt = now
	post.UpdatedAt = now
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID. A malformed id is reported as ErrNotFound.
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var post models.Post
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post); err != nil {
		return nil, translate(err)
	}
	return &post, nil
}

// GetPostsByIDs returns the posts that still exist among ids, newest first.
func (r *MongoPostRepository) GetPostsByIDs(ctx context.Context, ids []string) ([]models.Post, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if objID, err := primitive.ObjectIDFromHex(id); err == nil {
			objIDs = append(objIDs, objID)
		}
	}
	if len(objIDs) == 0 {
		return []models.Post{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": objIDs}}, options.Find().SetSort(newestFirst()))
}

// GetPostsByAuthor lists an author's posts restricted to the given visibilities.
func (r *MongoPostRepository) GetPostsByAuthor(ctx context.Context, authorID uint, visibilities []models.Visibility, skip, limit int64) ([]models.Post, error) {
	filter := bson.M{"author_id": authorID, "visibility": bson.M{"$in": visibilities}}
	opts := options.Find().SetSkip(skip).SetLimit(limit).SetSort(newestFirst())
	return r.find(ctx, filter, opts)
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindFeedPosts returns up to q.Limit posts by q.AuthorIDs that the viewer may
// see, newest first. Paging continues strictly after the cursor post; a cursor
// that does not parse or no longer resolves starts from the top.
func (r *MongoPostRepository) FindFeedPosts(ctx context.Context, q FeedQuery) ([]models.Post, error) {
	after, err := r.resolveCursor(ctx, q.Cursor)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(newestFirst()).SetLimit(int64(q.Limit))
	return r.find(ctx, feedFilter(q, after), opts)
}

func (r *MongoPostRepository) resolveCursor(ctx context.Context, cursor string) (*models.Post, error) {
	if cursor == "" {
		return nil, nil
	}
	post, err := r.GetPostByID(ctx, cursor)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return post, err
}

// feedFilter builds the author, visibility and keyset predicates of a feed page.
func feedFilter(q FeedQuery, after *models.Post) bson.M {
	authors := q.AuthorIDs
	if authors == nil {
		authors = []uint{}
	}
	friends := q.FriendIDs
	if friends == nil {
		friends = []uint{}
	}

	clauses := bson.A{
		bson.M{"author_id": bson.M{"$in": authors}},
		bson.M{"$or": bson.A{
			bson.M{"visibility": models.VisibilityPublic},
			bson.M{"visibility": models.VisibilityFriends, "author_id": bson.M{"$in": friends}},
			bson.M{"author_id": q.ViewerID},
		}},
	}
	if after != nil {
		clauses = append(clauses, bson.M{"$or": bson.A{
			bson.M{"created_at": bson.M{"$lt": after.CreatedAt}},
			bson.M{"created_at": after.CreatedAt, "_id": bson.M{"$lt": after.ID}},
		}})
	}
	return bson.M{"$and": clauses}
}

// FindPublicSince returns every public post created at or after since.
// Only the fields hashtag extraction needs are loaded.
func (r *MongoPostRepository) FindPublicSince(ctx context.Context, since time.Time) ([]models.Post, error) {
	opts := options.Find().SetProjection(bson.M{"content": 1, "created_at": 1, "author_id": 1})
	return r.find(ctx, publicSinceFilter(since), opts)
}

// FindTopPublicSince returns the most engaged public posts created at or after
// since, ordered by raw like, comment and repost counters.
func (r *MongoPostRepository) FindTopPublicSince(ctx context.Context, since time.Time, limit int64) ([]models.Post, error) {
	opts := options.Find().SetLimit(limit).SetSort(bson.D{
		{Key: string(CounterLikes), Value: -1},
		{Key: string(CounterComments), Value: -1},
		{Key: string(CounterReposts), Value: -1},
		{Key: "created_at", Value: -1},
	})
	return r.find(ctx, publicSinceFilter(since), opts)
}

func publicSinceFilter(since time.Time) bson.M {
	return bson.M{"visibility": models.VisibilityPublic, "created_at": bson.M{"$gte": since}}
}

// AdjustCounter moves a denormalized counter by delta. Decrements never take
// a counter below zero.
func (r *MongoPostRepository) AdjustCounter(ctx context.Context, postID string, counter Counter, delta int) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return ErrNotFound
	}

	filter := bson.M{"_id": objID}
	if delta < 0 {
		filter[string(counter)] = bson.M{"$gte": -delta}
	}
	res, err := r.collection.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{string(counter): delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 && delta > 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, opts *options.FindOptions) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

func newestFirst() bson.D {
	return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
}
