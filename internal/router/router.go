package router

import (
	"log"

	"github.com/anonto42/nano-midea/client/internal/handlers"
	"github.com/anonto42/nano-midea/client/internal/middleware"
	"github.com/anonto42/nano-midea/client/internal/repositories"
	"github.com/anonto42/nano-midea/client/internal/validators"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	log.Println("Global middleware configured.")
}

// SetupRoutes configures the stub API routes and injects dependencies
func SetupRoutes(e *echo.Echo, store *repositories.Store, jwtSecret string) {
	e.Validator = validators.NewValidator()

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	graphql := handlers.NewGraphQLHandler(
		handlers.NewAuthHandler(store.Users, jwtSecret),
		handlers.NewPostHandler(store),
		handlers.NewLikeHandler(store.Likes, store.Posts),
		handlers.NewCommentHandler(store.Comments, store.Posts),
		handlers.NewFollowHandler(store.Follows, store.Users),
		handlers.NewUserHandler(store),
	)

	// login and register are public; every other field checks for claims
	api := e.Group("/graphql")
	api.Use(middleware.JWTAuthMiddleware(jwtSecret))
	graphql.RegisterGraphQLRoutes(api)
	log.Println("GraphQL routes configured.")
}

// New builds a ready to serve stub API over store
func New(store *repositories.Store, jwtSecret string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	SetupMiddleware(e)
	SetupRoutes(e, store, jwtSecret)
	return e
}
