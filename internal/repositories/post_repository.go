package repositories

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/google/uuid"
)

var ErrPostNotFound = errors.New("post not found")

// PostRepository defines the interface for post data operations. Likes and
// comments are kept by their own repositories.
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	ListPosts(ctx context.Context) ([]models.Post, error)
	ListPostsByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
}

// MemoryPostRepository implements PostRepository in process memory
type MemoryPostRepository struct {
	mu    sync.RWMutex
	posts []models.Post
}

// NewMemoryPostRepository creates a new MemoryPostRepository
func NewMemoryPostRepository() *MemoryPostRepository {
	return &MemoryPostRepository{}
}

// CreatePost stores post, assigning an id when it has none
func (r *MemoryPostRepository) CreatePost(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	stored := *post
	stored.Likes, stored.Comments, stored.Author = nil, nil, nil
	r.posts = append(r.posts, stored)
	return nil
}

// GetPostByID retrieves a post by id
func (r *MemoryPostRepository) GetPostByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, ErrPostNotFound
}

// ListPosts returns every post, newest first
func (r *MemoryPostRepository) ListPosts(_ context.Context) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Post, len(r.posts))
	copy(out, r.posts)
	newestFirst(out)
	return out, nil
}

// ListPostsByAuthor returns the posts of one author, newest first
func (r *MemoryPostRepository) ListPostsByAuthor(_ context.Context, authorID string) ([]models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []models.Post
	for _, p := range r.posts {
		if p.AuthorID == authorID {
			out = append(out, p)
		}
	}
	newestFirst(out)
	return out, nil
}

// newestFirst orders by createdAt descending, keeping later inserts first on
// ties.
func newestFirst(posts []models.Post) {
	for i, j := 0, len(posts)-1; i < j; i, j = i+1, j-1 {
		posts[i], posts[j] = posts[j], posts[i]
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return models.Timestamp(posts[i].CreatedAt).After(models.Timestamp(posts[j].CreatedAt))
	})
}
