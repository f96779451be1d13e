package repositories

import (
	"context"
	"time"

	"github.com/anonto42/nano-midea/client/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// Store bundles the repositories backing the stub API
type Store struct {
	Users    UserRepository
	Posts    PostRepository
	Likes    LikeRepository
	Comments CommentRepository
	Follows  FollowRepository
}

// NewMemoryStore creates an empty in-memory Store
func NewMemoryStore() *Store {
	return &Store{
		Users:    NewMemoryUserRepository(),
		Posts:    NewMemoryPostRepository(),
		Likes:    NewMemoryLikeRepository(),
		Comments: NewMemoryCommentRepository(),
		Follows:  NewMemoryFollowRepository(),
	}
}

// DemoPassword is the password of every seeded account.
const DemoPassword = "secret"

// Seed creates the demo accounts alice and bob and one post by each.
func (s *Store) Seed(ctx context.Context) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.MinCost)
	if err != nil {
		return err
	}
	users := []UserRecord{
		{ID: "u1", Name: "Alice", Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)},
		{ID: "u2", Name: "Bob", Username: "bob", Email: "bob@example.com", PasswordHash: string(hash)},
	}
	for i := range users {
		if err := s.Users.CreateUser(ctx, &users[i]); err != nil {
			return err
		}
	}

	now := time.Now()
	posts := []models.Post{
		{ID: "p1", AuthorID: "u1", Content: "Hello from alice", ImageURL: "https://picsum.photos/id/10/600", Tags: []string{"hello"}, CreatedAt: models.FormatTimestamp(now.Add(-2 * time.Hour))},
		{ID: "p2", AuthorID: "u2", Content: "Bob was here", ImageURL: "https://picsum.photos/id/20/600", Tags: []string{"intro", "bob"}, CreatedAt: models.FormatTimestamp(now.Add(-time.Hour))},
	}
	for i := range posts {
		if err := s.Posts.CreatePost(ctx, &posts[i]); err != nil {
			return err
		}
	}
	return nil
}
