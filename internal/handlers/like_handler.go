package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/repositories"
	"github.com/labstack/echo/v4"
)

// LikeHandler resolves likePost
type LikeHandler struct {
	likeRepository repositories.LikeRepository
	postRepository repositories.PostRepository
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository) *LikeHandler {
	return &LikeHandler{likeRepository: likeRepo, postRepository: postRepo}
}

// Resolvers returns the like root fields
func (h *LikeHandler) Resolvers() map[string]Resolver {
	return map[string]Resolver{"likePost": {Fn: h.LikePost}}
}

// LikePost toggles the signed-in user's like and returns the new state
func (h *LikeHandler) LikePost(c echo.Context, input json.RawMessage) (any, error) {
	var req models.LikeInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}
	ctx := c.Request().Context()
	if _, err := h.postRepository.GetPostByID(ctx, req.PostID); err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, notFound("Post not found")
		}
		return nil, err
	}

	user := currentUser(c)
	now := models.FormatTimestamp(time.Now())
	return h.likeRepository.ToggleLike(ctx, req.PostID, models.Like{
		UserID:    user.UserID,
		Username:  user.Username,
		CreatedAt: now,
		UpdatedAt: now,
	})
}
