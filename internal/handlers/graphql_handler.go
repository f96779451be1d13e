package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/labstack/echo/v4"
)

// Error codes reported in extensions.code
const (
	CodeUnauthenticated  = "UNAUTHENTICATED"
	CodeBadUserInput     = "BAD_USER_INPUT"
	CodeNotFound         = "NOT_FOUND"
	CodeValidationFailed = "GRAPHQL_VALIDATION_FAILED"
	CodeInternal         = "INTERNAL_SERVER_ERROR"
)

// GraphQLError is a resolver failure reported in the errors list
type GraphQLError struct {
	Message string
	Code    string
}

func (e *GraphQLError) Error() string { return e.Message }

func badInput(msg string) error        { return &GraphQLError{Message: msg, Code: CodeBadUserInput} }
func notFound(msg string) error        { return &GraphQLError{Message: msg, Code: CodeNotFound} }
func unauthenticated(msg string) error { return &GraphQLError{Message: msg, Code: CodeUnauthenticated} }

// Resolver answers one root field. input is the raw "input" variable.
type Resolver struct {
	// Public resolvers run without a signed-in user.
	Public bool
	Fn     func(c echo.Context, input json.RawMessage) (any, error)
}

// ResolverSet is implemented by every handler contributing root fields
type ResolverSet interface {
	Resolvers() map[string]Resolver
}

// GraphQLHandler dispatches GraphQL-shaped requests to resolvers by root field
type GraphQLHandler struct {
	resolvers map[string]Resolver
}

type graphQLRequest struct {
	Query         string                     `json:"query"`
	OperationName string                     `json:"operationName"`
	Variables     map[string]json.RawMessage `json:"variables"`
}

type graphQLError struct {
	Message    string            `json:"message"`
	Path       []string          `json:"path,omitempty"`
	Extensions map[string]string `json:"extensions,omitempty"`
}

// NewGraphQLHandler creates a handler serving the root fields of sets
func NewGraphQLHandler(sets ...ResolverSet) *GraphQLHandler {
	h := &GraphQLHandler{resolvers: make(map[string]Resolver)}
	for _, s := range sets {
		for field, r := range s.Resolvers() {
			h.resolvers[field] = r
		}
	}
	return h
}

// RegisterGraphQLRoutes registers the GraphQL endpoint
func (h *GraphQLHandler) RegisterGraphQLRoutes(g *echo.Group) {
	g.POST("", h.Serve)
	g.POST("/", h.Serve)
}

// Serve executes one request
func (h *GraphQLHandler) Serve(c echo.Context) error {
	var req graphQLRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}

	field := rootField(req.Query)
	r, ok := h.resolvers[field]
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": []graphQLError{{
			Message:    "Cannot query field \"" + field + "\"",
			Extensions: map[string]string{"code": CodeValidationFailed},
		}}})
	}
	if !r.Public && currentUser(c) == nil {
		return respondError(c, field, unauthenticated("You must be logged in"))
	}

	data, err := r.Fn(c, req.Variables["input"])
	if err != nil {
		return respondError(c, field, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": echo.Map{field: data}})
}

func respondError(c echo.Context, field string, err error) error {
	var gqlErr *GraphQLError
	if !errors.As(err, &gqlErr) {
		c.Logger().Errorf("resolver %s failed: %v", field, err)
		gqlErr = &GraphQLError{Message: "Internal server error", Code: CodeInternal}
	}
	return c.JSON(http.StatusOK, echo.Map{"errors": []graphQLError{{
		Message:    gqlErr.Message,
		Path:       []string{field},
		Extensions: map[string]string{"code": gqlErr.Code},
	}}})
}

// rootField returns the first field selected by the operation in doc.
func rootField(doc string) string {
	start := -1
	for i, r := range doc {
		if r == '{' {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return ""
	}
	i := start
	for i < len(doc) && (doc[i] == ' ' || doc[i] == '\n' || doc[i] == '\t' || doc[i] == '\r') {
		i++
	}
	j := i
	for j < len(doc) && isNameByte(doc[j]) {
		j++
	}
	return doc[i:j]
}

func isNameByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

// bindInput decodes and validates the input variable into v.
func bindInput(c echo.Context, raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage("{}")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return badInput("Invalid input: " + err.Error())
	}
	if err := c.Validate(v); err != nil {
		return badInput(err.Error())
	}
	return nil
}

// currentUser returns the claims set by the JWT middleware, if any.
func currentUser(c echo.Context) *models.JwtCustomClaims {
	claims, _ := c.Get("user").(*models.JwtCustomClaims)
	return claims
}
