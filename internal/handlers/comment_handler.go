package handlers

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/repositories"
	"github.com/labstack/echo/v4"
)

// CommentHandler resolves commentPost
type CommentHandler struct {
	commentRepository repositories.CommentRepository
	postRepository    repositories.PostRepository
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository) *CommentHandler {
	return &CommentHandler{commentRepository: commentRepo, postRepository: postRepo}
}

// Resolvers returns the comment root fields
func (h *CommentHandler) Resolvers() map[string]Resolver {
	return map[string]Resolver{"commentPost": {Fn: h.CreateComment}}
}

// CreateComment appends a comment by the signed-in user
func (h *CommentHandler) CreateComment(c echo.Context, input json.RawMessage) (any, error) {
	var req models.CommentInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}
	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		return nil, badInput("content is required")
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
	comment := models.Comment{
		Content:   req.Content,
		Username:  user.Username,
		UserID:    user.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := h.commentRepository.CreateComment(ctx, req.PostID, comment); err != nil {
		return nil, err
	}
	return comment, nil
}
