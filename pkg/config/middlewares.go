package config

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// SetupMiddleware installs request logging on the stub server. Recovery and
// CORS come from the router.
func SetupMiddleware(e *echo.Echo, cfg *Config) {
	if cfg.Env != "test" {
		e.Use(middleware.RequestLogger())
	}
}
