package app

import (
	"context"

	"github.com/anonto42/nano-midea/client/internal/client"
	"github.com/anonto42/nano-midea/client/internal/navigation"
)

// primaryQuery returns the query a screen renders, if it has one.
func primaryQuery(screen navigation.ScreenID, params navigation.Params) (client.QueryRef, bool) {
	switch screen {
	case navigation.ScreenHome:
		return client.FeedQuery(), true
	case navigation.ScreenPostDetail:
		if params["postId"] != "" {
			return client.PostQuery(params["postId"]), true
		}
	case navigation.ScreenProfile:
		if params["userId"] != "" {
			return client.UserQuery(params["userId"]), true
		}
	}
	return client.QueryRef{}, false
}

// Open navigates to screen and focuses it, refetching its primary query. The
// returned result is nil for screens without one.
func (a *App) Open(ctx context.Context, screen navigation.ScreenID, params navigation.Params) (*navigation.Entry, *client.Result, error) {
	prev := a.Gate.Top()
	entry, err := a.Gate.Navigate(screen, params)
	if err != nil {
		return nil, nil, err
	}
	if prev != entry {
		a.blur(prev)
	}
	res, err := a.focus(ctx, entry)
	return entry, res, err
}

// Back pops the current screen and refocuses the one below it.
func (a *App) Back(ctx context.Context) (*navigation.Entry, *client.Result, error) {
	if !a.Gate.Back() {
		return a.Gate.Top(), nil, nil
	}
	entry := a.Gate.Top()
	res, err := a.focus(ctx, entry)
	return entry, res, err
}

func (a *App) focus(ctx context.Context, entry *navigation.Entry) (*client.Result, error) {
	ref, ok := primaryQuery(entry.Screen, entry.Params)
	if !ok {
		return nil, nil
	}

	a.mu.Lock()
	b, bound := a.bindings[entry]
	if !bound {
		b = a.Focus.Bind(ref)
		a.bindings[entry] = b
	}
	a.mu.Unlock()

	if !bound {
		entry.OnDismiss(func() {
			b.Dismount()
			a.mu.Lock()
			delete(a.bindings, entry)
			a.mu.Unlock()
		})
	}
	return b.Focus(ctx)
}

func (a *App) blur(entry *navigation.Entry) {
	a.mu.Lock()
	b, ok := a.bindings[entry]
	a.mu.Unlock()
	if ok {
		b.Blur()
	}
}
