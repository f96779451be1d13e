package models

import "github.com/golang-jwt/jwt/v4"

// User is a profile as returned by the remote API. Followers, Followings and
// Posts are only populated by getUserById.
type User struct {
	ID         string `json:"_id"`
	Name       string `json:"name,omitempty"`
	Username   string `json:"username,omitempty"`
	Email      string `json:"email,omitempty"`
	Followers  []User `json:"Followers,omitempty"`
	Followings []User `json:"Followings,omitempty"`
	Posts      []Post `json:"Posts,omitempty"`
}

// FollowedBy reports whether userID is one of u's followers.
func (u User) FollowedBy(userID string) bool {
	for _, f := range u.Followers {
		if f.ID == userID {
			return true
		}
	}
	return false
}

// LoginInput defines the input of the login mutation
type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult is the payload of a successful login
type LoginResult struct {
	AccessToken string `json:"access_token"`
	UserID      string `json:"userId"`
	Username    string `json:"username"`
}

// RegisterInput defines the input of the register mutation
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=2,max=50"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5"`
}

// RegisterResult is the payload of a successful registration
type RegisterResult struct {
	Message string `json:"message"`
}

// GetUserByIDInput defines the input of the getUserById query
type GetUserByIDInput struct {
	UserID string `json:"userId" validate:"required"`
}

// SearchUserInput defines the input of the searchUser query
type SearchUserInput struct {
	Keyword string `json:"keyword" validate:"required"`
}

// JwtCustomClaims are the claims of the access tokens issued by the stub API
type JwtCustomClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
