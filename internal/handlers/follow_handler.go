package handlers

import (
	"encoding/json"
	"errors"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/repositories"
	"github.com/labstack/echo/v4"
)

// FollowHandler resolves followUser
type FollowHandler struct {
	followRepository repositories.FollowRepository
	userRepository   repositories.UserRepository
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository) *FollowHandler {
	return &FollowHandler{followRepository: followRepo, userRepository: userRepo}
}

// Resolvers returns the follow root fields
func (h *FollowHandler) Resolvers() map[string]Resolver {
	return map[string]Resolver{"followUser": {Fn: h.FollowUser}}
}

// FollowUser toggles following and returns whether the follow now exists
func (h *FollowHandler) FollowUser(c echo.Context, input json.RawMessage) (any, error) {
	var req models.FollowInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}
	ctx := c.Request().Context()
	if _, err := h.userRepository.GetUserByID(ctx, req.FollowingID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, notFound("User not found")
		}
		return nil, err
	}

	followed, err := h.followRepository.ToggleFollow(ctx, currentUser(c).UserID, req.FollowingID)
	if errors.Is(err, repositories.ErrSelfFollow) {
		return nil, badInput(err.Error())
	}
	return followed, err
}
