package models

// Like represents a like on a post
type Like struct {
	UserID    string `json:"userId,omitempty"`
	Username  string `json:"username,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Pending   bool   `json:"__pending,omitempty"`
}

// LikeInput defines the input of the likePost mutation
type LikeInput struct {
	PostID string `json:"postId" validate:"required"`
}
