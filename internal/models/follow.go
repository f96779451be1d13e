package models

// FollowInput defines the input of the followUser mutation
type FollowInput struct {
	FollowingID string `json:"followingId" validate:"required"`
}
