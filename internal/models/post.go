package models

import (
	"strconv"
	"time"
)

// Post is a feed post as returned by the remote API
type Post struct {
	ID        string    `json:"_id"`
	AuthorID  string    `json:"authorId"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imgUrl"`
	Tags      []string  `json:"tags"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt string    `json:"createdAt"`
	UpdatedAt string    `json:"updatedAt,omitempty"`
	Author    *User     `json:"Author,omitempty"`
}

// LikedBy reports whether userID appears in the post's likes.
func (p Post) LikedBy(userID string) bool {
	if userID == "" {
		return false
	}
	for _, l := range p.Likes {
		if l.UserID == userID {
			return true
		}
	}
	return false
}

// AddPostInput defines the input of the addPost mutation
type AddPostInput struct {
	ImageURL string   `json:"imgUrl" validate:"required"`
	Content  string   `json:"content" validate:"required"`
	Tags     []string `json:"tags,omitempty" validate:"omitempty,dive,required"`
}

// PostByIDInput defines the input of the getPostById query
type PostByIDInput struct {
	PostID string `json:"postId" validate:"required"`
}

// Timestamp parses the API's millisecond epoch strings.
func Timestamp(ms string) time.Time {
	n, err := strconv.ParseInt(ms, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(n)
}

// FormatTimestamp renders t the way the API encodes createdAt.
func FormatTimestamp(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
