package repositories

import (
	"context"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/models"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, postID string, comment models.Comment) error
	GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
}

// MemoryCommentRepository implements CommentRepository in process memory.
// Comments keep insertion order.
type MemoryCommentRepository struct {
	mu       sync.RWMutex
	comments map[string][]models.Comment
}

// NewMemoryCommentRepository creates a new MemoryCommentRepository
func NewMemoryCommentRepository() *MemoryCommentRepository {
	return &MemoryCommentRepository{comments: make(map[string][]models.Comment)}
}

// CreateComment appends comment to postID
func (r *MemoryCommentRepository) CreateComment(_ context.Context, postID string, comment models.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments[postID] = append(r.comments[postID], comment)
	return nil
}

// GetCommentsByPostID retrieves all comments for a post in insertion order
func (r *MemoryCommentRepository) GetCommentsByPostID(_ context.Context, postID string) ([]models.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Comment, len(r.comments[postID]))
	copy(out, r.comments[postID])
	return out, nil
}
