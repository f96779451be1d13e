package handlers

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/repositories"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued access tokens.
const TokenTTL = 24 * time.Hour

// AuthHandler resolves login and register
type AuthHandler struct {
	userRepository repositories.UserRepository
	jwtSecret      string
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(userRepo repositories.UserRepository, jwtSecret string) *AuthHandler {
	if jwtSecret == "" {
		jwtSecret = "supersecretjwtkey"
	}
	return &AuthHandler{userRepository: userRepo, jwtSecret: jwtSecret}
}

// Resolvers returns the authentication root fields
func (h *AuthHandler) Resolvers() map[string]Resolver {
	return map[string]Resolver{
		"login":    {Public: true, Fn: h.Login},
		"register": {Public: true, Fn: h.Register},
	}
}

// Register creates a local account with a bcrypt password hash
func (h *AuthHandler) Register(c echo.Context, input json.RawMessage) (any, error) {
	var req models.RegisterInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &repositories.UserRecord{
		Name:         req.Name,
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
	}
	if err := h.userRepository.CreateUser(c.Request().Context(), user); err != nil {
		if errors.Is(err, repositories.ErrUsernameTaken) || errors.Is(err, repositories.ErrEmailTaken) {
			return nil, badInput(err.Error())
		}
		return nil, err
	}
	return models.RegisterResult{Message: "Register success"}, nil
}

// Login checks the password and issues an access token
func (h *AuthHandler) Login(c echo.Context, input json.RawMessage) (any, error) {
	var req models.LoginInput
	if err := bindInput(c, input, &req); err != nil {
		return nil, err
	}

	user, err := h.userRepository.GetUserByUsername(c.Request().Context(), req.Username)
	if err != nil {
		return nil, badInput("Invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, badInput("Invalid username or password")
	}

	token, err := h.generateJWT(user)
	if err != nil {
		return nil, err
	}
	return models.LoginResult{AccessToken: token, UserID: user.ID, Username: user.Username}, nil
}

func (h *AuthHandler) generateJWT(user *repositories.UserRecord) (string, error) {
	claims := &models.JwtCustomClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.jwtSecret))
}
