package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/repositories"
	"github.com/labstack/echo/v4"
)

// UserHandler resolves user queries
type UserHandler struct {
	store *repositories.Store
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(store *repositories.Store) *UserHandler {
	return &UserHandler{store: store}
}

// Resolvers returns the user root fields
func (h *UserHandler) Resolvers() map[string]Resolver {
	return map[string]Resolver{
		"getUsers":    {Fn: h.GetUsers},
		"getUserById": {Fn: h.GetUser},
		"searchUser":  {Fn: h.SearchUsers},
	}
}

// GetUsers lists every user
func (h *UserHandler) GetUsers(c echo.Context, _ json.RawMessage) (any, error) {
	users, err := h.store.Users.ListUsers(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return profiles(users), nil
}

// GetUser returns a profile with followers, followings and posts
func (h *UserHandler) GetUser(c echo.Context, input json.RawMessage) (any, error) {
	var req models.GetUserByIDInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}
	ctx := c.Request().Context()
	user, err := h.store.Users.GetUserByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}

	out := userDetail{User: user.Profile()}
	followerIDs, err := h.store.Follows.GetFollowerIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	followingIDs, err := h.store.Follows.GetFollowingIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	out.Followers = h.lookup(ctx, followerIDs)
	out.Followings = h.lookup(ctx, followingIDs)

	posts, err := h.store.Posts.ListPostsByAuthor(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	out.Posts, err = assemblePosts(ctx, h.store, posts, false)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SearchUsers matches users by name or username
func (h *UserHandler) SearchUsers(c echo.Context, input json.RawMessage) (any, error) {
	var req models.SearchUserInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}
	users, err := h.store.Users.SearchUsers(c.Request().Context(), req.Keyword)
	if err != nil {
		return nil, err
	}
	return profiles(users), nil
}

func (h *UserHandler) lookup(ctx context.Context, ids []string) []models.User {
	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, err := h.store.Users.GetUserByID(ctx, id); err == nil {
			out = append(out, u.Profile())
		}
	}
	return out
}

// userDetail always carries its lists so an emptied list replaces the cached
// one.
type userDetail struct {
	models.User
	Followers  []models.User `json:"Followers"`
	Followings []models.User `json:"Followings"`
	Posts      []models.Post `json:"Posts"`
}

func profiles(users []repositories.UserRecord) []models.User {
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Profile())
	}
	return out
}
