package repositories

import (
	"context"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/models"
)

// LikeRepository defines the interface for like data operations
type LikeRepository interface {
	// ToggleLike likes the post for the user, or removes an existing like.
	// It reports whether the post is liked afterwards.
	ToggleLike(ctx context.Context, postID string, like models.Like) (bool, error)
	GetLikesByPostID(ctx context.Context, postID string) ([]models.Like, error)
}

// MemoryLikeRepository implements LikeRepository in process memory
type MemoryLikeRepository struct {
	mu    sync.RWMutex
	likes map[string][]models.Like
}

// NewMemoryLikeRepository creates a new MemoryLikeRepository
func NewMemoryLikeRepository() *MemoryLikeRepository {
	return &MemoryLikeRepository{likes: make(map[string][]models.Like)}
}

// ToggleLike adds or removes the like of like.UserID on postID
func (r *MemoryLikeRepository) ToggleLike(_ context.Context, postID string, like models.Like) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.likes[postID]
	for i, l := range list {
		if l.UserID == like.UserID {
			r.likes[postID] = append(list[:i:i], list[i+1:]...)
			return false, nil
		}
	}
	r.likes[postID] = append(list, like)
	return true, nil
}

// GetLikesByPostID retrieves all likes for a specific post
func (r *MemoryLikeRepository) GetLikesByPostID(_ context.Context, postID string) ([]models.Like, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Like, len(r.likes[postID]))
	copy(out, r.likes[postID])
	return out, nil
}
