package repositories

import (
	"context"
	"errors"
	"sync"
)

var ErrSelfFollow = errors.New("cannot follow yourself")

type follow struct {
	followerID  string
	followingID string
}

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	// ToggleFollow follows or unfollows and reports whether the follow exists
	// afterwards.
	ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowerIDs(ctx context.Context, userID string) ([]string, error)
	GetFollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// MemoryFollowRepository implements FollowRepository in process memory
type MemoryFollowRepository struct {
	mu      sync.RWMutex
	follows []follow
}

// NewMemoryFollowRepository creates a new MemoryFollowRepository
func NewMemoryFollowRepository() *MemoryFollowRepository {
	return &MemoryFollowRepository{}
}

// ToggleFollow adds or removes the follow of followerID on followingID
func (r *MemoryFollowRepository) ToggleFollow(_ context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, f := range r.follows {
		if f.followerID == followerID && f.followingID == followingID {
			r.follows = append(r.follows[:i:i], r.follows[i+1:]...)
			return false, nil
		}
	}
	r.follows = append(r.follows, follow{followerID: followerID, followingID: followingID})
	return true, nil
}

// GetFollowerIDs returns the ids of users following userID
func (r *MemoryFollowRepository) GetFollowerIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, f := range r.follows {
		if f.followingID == userID {
			out = append(out, f.followerID)
		}
	}
	return out, nil
}

// GetFollowingIDs returns the ids of users userID follows
func (r *MemoryFollowRepository) GetFollowingIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for _, f := range r.follows {
		if f.followerID == userID {
			out = append(out, f.followingID)
		}
	}
	return out, nil
}
