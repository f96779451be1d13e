package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PostHandler resolves post queries and addPost
type PostHandler struct {
	store *repositories.Store
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(store *repositories.Store) *PostHandler {
	return &PostHandler{store: store}
}

// Resolvers returns the post root fields
func (h *PostHandler) Resolvers() map[string]Resolver {
	return map[string]Resolver{
		"getPosts":    {Fn: h.GetPosts},
		"getPostById": {Fn: h.GetPost},
		"addPost":     {Fn: h.AddPost},
	}
}

// GetPosts lists every post, newest first
func (h *PostHandler) GetPosts(c echo.Context, _ json.RawMessage) (any, error) {
	ctx := c.Request().Context()
	posts, err := h.store.Posts.ListPosts(ctx)
	if err != nil {
		return nil, err
	}
	return assemblePosts(ctx, h.store, posts, true)
}

// GetPost retrieves one post by id
func (h *PostHandler) GetPost(c echo.Context, input json.RawMessage) (any, error) {
	var req models.PostByIDInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}
	ctx := c.Request().Context()
	post, err := h.store.Posts.GetPostByID(ctx, req.PostID)
	if err != nil {
		if errors.Is(err, repositories.ErrPostNotFound) {
			return nil, notFound("Post not found")
		}
		return nil, err
	}
	return assemblePost(ctx, h.store, *post, true)
}

// AddPost creates a post authored by the signed-in user
func (h *PostHandler) AddPost(c echo.Context, input json.RawMessage) (any, error) {
	var req models.AddPostInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}
	user := currentUser(c)
	post := &models.Post{
		AuthorID:  user.UserID,
		Content:   req.Content,
		ImageURL:  req.ImageURL,
		Tags:      req.Tags,
		CreatedAt: models.FormatTimestamp(time.Now()),
	}
	post.UpdatedAt = post.CreatedAt
	if post.Tags == nil {
		post.Tags = []string{}
	}
	ctx := c.Request().Context()
	if err := h.store.Posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return assemblePost(ctx, h.store, *post, true)
}

func assemblePosts(ctx context.Context, store *repositories.Store, posts []models.Post, withAuthor bool) ([]models.Post, error) {
	out := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		full, err := assemblePost(ctx, store, p, withAuthor)
		if err != nil {
			return nil, err
		}
		out = append(out, full)
	}
	return out, nil
}

// assemblePost attaches likes, comments and optionally the author.
func assemblePost(ctx context.Context, store *repositories.Store, post models.Post, withAuthor bool) (models.Post, error) {
	likes, err := store.Likes.GetLikesByPostID(ctx, post.ID)
	if err != nil {
		return post, err
	}
	comments, err := store.Comments.GetCommentsByPostID(ctx, post.ID)
	if err != nil {
		return post, err
	}
	post.Likes, post.Comments = likes, comments
	if withAuthor {
		author, err := store.Users.GetUserByID(ctx, post.AuthorID)
		if err == nil {
			profile := author.Profile()
			post.Author = &profile
		}
	}
	return post, nil
}
