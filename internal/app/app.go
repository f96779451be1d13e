package app

import (
	"context"
	"log"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/cache"
	"github.com/anonto42/nano-midea/client/internal/client"
	"github.com/anonto42/nano-midea/client/internal/focus"
	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/anonto42/nano-midea/client/internal/navigation"
	"github.com/anonto42/nano-midea/client/internal/optimistic"
	"github.com/anonto42/nano-midea/client/internal/session"
	"github.com/anonto42/nano-midea/client/internal/validators"
)

// App wires the session store, sync client, coordinator, focus invalidator
// and navigation gate together. Every component is constructed here and
// passed explicitly to the ones that need it.
type App struct {
	Sessions *session.Store
	Cache    *cache.Cache
	Client   *client.Client
	Actions  *optimistic.Coordinator
	Focus    *focus.Invalidator
	Gate     *navigation.Gate

	validate *validators.Validator
	logger   *log.Logger

	mu       sync.Mutex
	bindings map[*navigation.Entry]*focus.Binding
}

// Option configures an App
type Option func(*App)

// WithLogger sets the logger shared by every component.
func WithLogger(l *log.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New builds an App over vault and transport. Call Start before using it.
func New(vault session.Vault, transport client.Transport, opts ...Option) *App {
	a := &App{
		validate: validators.NewValidator(),
		logger:   log.Default(),
		bindings: make(map[*navigation.Entry]*focus.Binding),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.Sessions = session.NewStore(vault, session.WithLogger(a.logger))
	a.Cache = cache.New(cache.DefaultSchema)
	a.Client = client.New(transport, a.Sessions, a.Cache, client.WithLogger(a.logger))
	a.Actions = optimistic.New(a.Client, a.Sessions, optimistic.WithLogger(a.logger))
	a.Focus = focus.New(a.Client, focus.WithLogger(a.logger))
	return a
}

// Start restores the persisted session and mounts the matching root.
func (a *App) Start(ctx context.Context) models.Session {
	s := a.Sessions.Initialize(ctx)
	a.Gate = navigation.NewGate(a.Sessions)
	a.logger.Printf("app: started %s", a.Gate.State())
	return s
}

// Close detaches the gate from the session store.
func (a *App) Close() {
	if a.Gate != nil {
		a.Gate.Close()
	}
}

// ToggleLike flips the like-state of postID.
func (a *App) ToggleLike(ctx context.Context, postID string) (bool, error) {
	return a.Actions.ToggleLike(ctx, postID)
}

// Comment adds a comment to postID.
func (a *App) Comment(ctx context.Context, postID, content string) error {
	return a.Actions.SubmitComment(ctx, postID, content)
}
