package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/google/uuid"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrUsernameTaken = errors.New("username is already taken")
	ErrEmailTaken    = errors.New("email is already registered")
)

// UserRecord is a stored account
type UserRecord struct {
	ID           string
	Name         string
	Username     string
	Email        string
	PasswordHash string
}

// Profile returns the public view of the account.
func (u UserRecord) Profile() models.User {
	return models.User{ID: u.ID, Name: u.Name, Username: u.Username, Email: u.Email}
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(ctx context.Context, user *UserRecord) error
	GetUserByID(ctx context.Context, id string) (*UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (*UserRecord, error)
	ListUsers(ctx context.Context) ([]UserRecord, error)
	SearchUsers(ctx context.Context, keyword string) ([]UserRecord, error)
}

// MemoryUserRepository implements UserRepository in process memory
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]UserRecord
}

// NewMemoryUserRepository creates a new MemoryUserRepository
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]UserRecord)}
}

// CreateUser stores user, assigning an id when it has none
func (r *MemoryUserRepository) CreateUser(_ context.Context, user *UserRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, user.Username) {
			return ErrUsernameTaken
		}
		if strings.EqualFold(u.Email, user.Email) {
			return ErrEmailTaken
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.users[user.ID] = *user
	return nil
}

// GetUserByID retrieves a user by id
func (r *MemoryUserRepository) GetUserByID(_ context.Context, id string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

// GetUserByUsername retrieves a user by username, ignoring case
func (r *MemoryUserRepository) GetUserByUsername(_ context.Context, username string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Username, username) {
			return &u, nil
		}
	}
	return nil, ErrUserNotFound
}

// ListUsers returns every user ordered by username
func (r *MemoryUserRepository) ListUsers(_ context.Context) ([]UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]UserRecord, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// SearchUsers matches keyword against names and usernames
func (r *MemoryUserRepository) SearchUsers(ctx context.Context, keyword string) ([]UserRecord, error) {
	all, err := r.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	keyword = strings.ToLower(keyword)
	var out []UserRecord
	for _, u := range all {
		if strings.Contains(strings.ToLower(u.Username), keyword) || strings.Contains(strings.ToLower(u.Name), keyword) {
			out = append(out, u)
		}
	}
	return out, nil
}
