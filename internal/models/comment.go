package models

// Comment represents a comment on a post. Pending and LocalID are only set on
// entries that have not been confirmed by the server yet.
type Comment struct {
	Content   string `json:"content"`
	Username  string `json:"username,omitempty"`
	UserID    string `json:"userId,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	Pending   bool   `json:"__pending,omitempty"`
	LocalID   string `json:"__localId,omitempty"`
}

// CommentInput defines the input of the commentPost mutation
type CommentInput struct {
	PostID  string `json:"postId" validate:"required"`
	Content string `json:"content" validate:"required,max=500"`
}
