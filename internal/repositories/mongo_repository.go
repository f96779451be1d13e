package repositories

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NewMongoStore creates a Store whose repositories live in db
func NewMongoStore(db *mongo.Database) *Store {
	return &Store{
		Users:    NewMongoUserRepository(db),
		Posts:    NewMongoPostRepository(db),
		Likes:    NewMongoLikeRepository(db),
		Comments: NewMongoCommentRepository(db),
		Follows:  NewMongoFollowRepository(db),
	}
}

// EnsureIndexes creates the unique indexes the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	indexes := map[string][]mongo.IndexModel{
		"users": {
			{Keys: bson.D{{Key: "username_lower", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email_lower", Value: 1}}, Options: unique},
		},
		"likes":   {{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: unique}},
		"follows": {{Keys: bson.D{{Key: "follower_id", Value: 1}, {Key: "following_id", Value: 1}}, Options: unique}},
	}
	for name, idx := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("failed to index %s: %w", name, err)
		}
	}
	return nil
}

type userDoc struct {
	ID            string `bson:"_id"`
	Name          string `bson:"name"`
	Username      string `bson:"username"`
	UsernameLower string `bson:"username_lower"`
	Email         string `bson:"email"`
	EmailLower    string `bson:"email_lower"`
	PasswordHash  string `bson:"password_hash"`
}

func (d userDoc) record() UserRecord {
	return UserRecord{ID: d.ID, Name: d.Name, Username: d.Username, Email: d.Email, PasswordHash: d.PasswordHash}
}

// MongoUserRepository implements UserRepository for MongoDB
type MongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new MongoUserRepository
func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{collection: db.Collection("users")}
}

// CreateUser inserts user, assigning an id when it has none
func (r *MongoUserRepository) CreateUser(ctx context.Context, user *UserRecord) error {
	doc := userDoc{
		ID:            user.ID,
		Name:          user.Name,
		Username:      user.Username,
		UsernameLower: strings.ToLower(user.Username),
		Email:         user.Email,
		EmailLower:    strings.ToLower(user.Email),
		PasswordHash:  user.PasswordHash,
	}
	n, err := r.collection.CountDocuments(ctx, bson.M{"username_lower": doc.UsernameLower})
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrUsernameTaken
	}
	if n, err = r.collection.CountDocuments(ctx, bson.M{"email_lower": doc.EmailLower}); err != nil {
		return err
	}
	if n > 0 {
		return ErrEmailTaken
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUsernameTaken
		}
		return err
	}
	user.ID = doc.ID
	return nil
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.M) (*UserRecord, error) {
	var doc userDoc
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u := doc.record()
	return &u, nil
}

// GetUserByID retrieves a user by id
func (r *MongoUserRepository) GetUserByID(ctx context.Context, id string) (*UserRecord, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetUserByUsername retrieves a user by username, ignoring case
func (r *MongoUserRepository) GetUserByUsername(ctx context.Context, username string) (*UserRecord, error) {
	return r.findOne(ctx, bson.M{"username_lower": strings.ToLower(username)})
}

func (r *MongoUserRepository) find(ctx context.Context, filter any) ([]UserRecord, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "username", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []userDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]UserRecord, len(docs))
	for i, d := range docs {
		out[i] = d.record()
	}
	return out, nil
}

// ListUsers returns every user ordered by username
func (r *MongoUserRepository) ListUsers(ctx context.Context) ([]UserRecord, error) {
	return r.find(ctx, bson.D{})
}

// SearchUsers matches keyword against names and usernames
func (r *MongoUserRepository) SearchUsers(ctx context.Context, keyword string) ([]UserRecord, error) {
	re := primitive.Regex{Pattern: regexp.QuoteMeta(keyword), Options: "i"}
	return r.find(ctx, bson.M{"$or": bson.A{bson.M{"username": re}, bson.M{"name": re}}})
}

type postDoc struct {
	ID        string   `bson:"_id"`
	AuthorID  string   `bson:"user_id"`
	Content   string   `bson:"content"`
	ImageURL  string   `bson:"image_url"`
	Tags      []string `bson:"tags"`
	CreatedAt int64    `bson:"created_at"`
}

func (d postDoc) post() models.Post {
	return models.Post{
		ID:        d.ID,
		AuthorID:  d.AuthorID,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		Tags:      d.Tags,
		CreatedAt: models.FormatTimestamp(time.UnixMilli(d.CreatedAt)),
	}
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost inserts post, assigning an id and timestamp when missing
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	created := models.Timestamp(post.CreatedAt)
	if created.IsZero() {
		created = time.Now()
		post.CreatedAt = models.FormatTimestamp(created)
	}
	_, err := r.collection.InsertOne(ctx, postDoc{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		ImageURL:  post.ImageURL,
		Tags:      post.Tags,
		CreatedAt: created.UnixMilli(),
	})
	return err
}

// GetPostByID retrieves a post by id
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var doc postDoc
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	p := doc.post()
	return &p, nil
}

func (r *MongoPostRepository) find(ctx context.Context, filter any) ([]models.Post, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []postDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Post, len(docs))
	for i, d := range docs {
		out[i] = d.post()
	}
	return out, nil
}

// ListPosts returns every post, newest first
func (r *MongoPostRepository) ListPosts(ctx context.Context) ([]models.Post, error) {
	return r.find(ctx, bson.D{})
}

// ListPostsByAuthor returns the posts of one author, newest first
func (r *MongoPostRepository) ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	return r.find(ctx, bson.M{"user_id": authorID})
}

type likeDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	PostID    string             `bson:"post_id"`
	UserID    string             `bson:"user_id"`
	Username  string             `bson:"username"`
	CreatedAt string             `bson:"created_at"`
}

// MongoLikeRepository implements LikeRepository for MongoDB
type MongoLikeRepository struct {
	collection *mongo.Collection
}

// NewMongoLikeRepository creates a new MongoLikeRepository
func NewMongoLikeRepository(db *mongo.Database) *MongoLikeRepository {
	return &MongoLikeRepository{collection: db.Collection("likes")}
}

// ToggleLike adds or removes the like of like.UserID on postID
func (r *MongoLikeRepository) ToggleLike(ctx context.Context, postID string, like models.Like) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"post_id": postID, "user_id": like.UserID})
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}
	_, err = r.collection.InsertOne(ctx, likeDoc{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    like.UserID,
		Username:  like.Username,
		CreatedAt: like.CreatedAt,
	})
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetLikesByPostID retrieves all likes for a post in the order they were made
func (r *MongoLikeRepository) GetLikesByPostID(ctx context.Context, postID string) ([]models.Like, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []likeDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Like, len(docs))
	for i, d := range docs {
		out[i] = models.Like{UserID: d.UserID, Username: d.Username, CreatedAt: d.CreatedAt}
	}
	return out, nil
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	PostID    string             `bson:"post_id"`
	UserID    string             `bson:"user_id"`
	Username  string             `bson:"username"`
	Content   string             `bson:"content"`
	CreatedAt string             `bson:"created_at"`
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// CreateComment appends comment to postID
func (r *MongoCommentRepository) CreateComment(ctx context.Context, postID string, comment models.Comment) error {
	_, err := r.collection.InsertOne(ctx, commentDoc{
		ID:        primitive.NewObjectID(),
		PostID:    postID,
		UserID:    comment.UserID,
		Username:  comment.Username,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	})
	return err
}

// GetCommentsByPostID retrieves all comments for a post in insertion order
func (r *MongoCommentRepository) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []commentDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Comment, len(docs))
	for i, d := range docs {
		out[i] = models.Comment{Content: d.Content, Username: d.Username, UserID: d.UserID, CreatedAt: d.CreatedAt}
	}
	return out, nil
}

type followDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	FollowerID  string             `bson:"follower_id"`
	FollowingID string             `bson:"following_id"`
}

// MongoFollowRepository implements FollowRepository for MongoDB
type MongoFollowRepository struct {
	collection *mongo.Collection
}

// NewMongoFollowRepository creates a new MongoFollowRepository
func NewMongoFollowRepository(db *mongo.Database) *MongoFollowRepository {
	return &MongoFollowRepository{collection: db.Collection("follows")}
}

// ToggleFollow adds or removes the follow of followerID on followingID
func (r *MongoFollowRepository) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}
	res, err := r.collection.DeleteOne(ctx, bson.M{"follower_id": followerID, "following_id": followingID})
	if err != nil {
		return false, err
	}
	if res.DeletedCount > 0 {
		return false, nil
	}
	doc := followDoc{ID: primitive.NewObjectID(), FollowerID: followerID, FollowingID: followingID}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (r *MongoFollowRepository) ids(ctx context.Context, filter bson.M, field func(followDoc) string) ([]string, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []followDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	var out []string
	for _, d := range docs {
		out = append(out, field(d))
	}
	return out, nil
}

// GetFollowerIDs returns the ids of users following userID
func (r *MongoFollowRepository) GetFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, bson.M{"following_id": userID}, func(d followDoc) string { return d.FollowerID })
}

// GetFollowingIDs returns the ids of users userID follows
func (r *MongoFollowRepository) GetFollowingIDs(ctx context.Context, userID string) ([]string, error) {
	return r.ids(ctx, bson.M{"follower_id": userID}, func(d followDoc) string { return d.FollowingID })
}
