package focus

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/client"
	"golang.org/x/sync/singleflight"
)

// ErrDismounted is returned by Focus once the binding's screen is gone.
var ErrDismounted = errors.New("focus: screen dismounted")

// Refetcher re-executes a query.
type Refetcher interface {
	Refetch(ctx context.Context, ref client.QueryRef, opts ...client.ExecOption) (*client.Result, error)
}

// Invalidator refetches a screen's primary query each time the screen becomes
// visible again. Concurrent refetches of the same query share one call.
type Invalidator struct {
	exec   Refetcher
	logger *log.Logger
	group  singleflight.Group

	mu      sync.Mutex
	mounted map[string]int
}

// Option configures an Invalidator
type Option func(*Invalidator)

// WithLogger sets the invalidator's logger.
func WithLogger(l *log.Logger) Option {
	return func(i *Invalidator) { i.logger = l }
}

// New creates an Invalidator
func New(exec Refetcher, opts ...Option) *Invalidator {
	inv := &Invalidator{exec: exec, logger: log.Default(), mounted: make(map[string]int)}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// Binding ties one mounted screen to its primary query.
type Binding struct {
	inv *Invalidator
	ref client.QueryRef
	key string

	mu        sync.Mutex
	visible   bool
	dismissed bool
}

// Bind registers a mounted screen whose primary query is ref.
func (i *Invalidator) Bind(ref client.QueryRef) *Binding {
	key := ref.Key()
	i.mu.Lock()
	i.mounted[key]++
	i.mu.Unlock()
	return &Binding{inv: i, ref: ref, key: key}
}

// Query returns the bound query.
func (b *Binding) Query() client.QueryRef { return b.ref }

// Visible reports whether the screen is currently focused.
func (b *Binding) Visible() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.visible
}

// Focus marks the screen visible and refetches its query. If a refetch of the
// same query is already in flight, Focus waits for that one instead of
// issuing another. Cancelling ctx only stops this caller from waiting.
func (b *Binding) Focus(ctx context.Context) (*client.Result, error) {
	b.mu.Lock()
	if b.dismissed {
		b.mu.Unlock()
		return nil, ErrDismounted
	}
	b.visible = true
	b.mu.Unlock()

	ch := b.inv.group.DoChan(b.key, func() (any, error) {
		return b.inv.refetch(context.WithoutCancel(ctx), b.ref, b.key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Shared {
			b.inv.logger.Printf("focus: joined in-flight refetch of %s", b.key)
		}
		if b.isDismissed() {
			return nil, ErrDismounted
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*client.Result), nil
	}
}

// Blur marks the screen as backgrounded.
func (b *Binding) Blur() {
	b.mu.Lock()
	b.visible = false
	b.mu.Unlock()
}

// Dismount releases the binding. Results of refetches started by it are no
// longer merged once no other screen is bound to the same query.
func (b *Binding) Dismount() {
	b.mu.Lock()
	if b.dismissed {
		b.mu.Unlock()
		return
	}
	b.dismissed = true
	b.visible = false
	b.mu.Unlock()

	b.inv.mu.Lock()
	if b.inv.mounted[b.key]--; b.inv.mounted[b.key] <= 0 {
		delete(b.inv.mounted, b.key)
	}
	b.inv.mu.Unlock()
}

func (b *Binding) isDismissed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dismissed
}

func (i *Invalidator) refetch(ctx context.Context, ref client.QueryRef, key string) (*client.Result, error) {
	guard := func() (bool, []string) {
		i.mu.Lock()
		defer i.mu.Unlock()
		return i.mounted[key] > 0, nil
	}
	res, err := i.exec.Refetch(ctx, ref, client.WithReconcile(guard))
	if err != nil {
		return nil, err
	}
	if !res.Applied {
		i.logger.Printf("focus: discarded refetch of %s after dismount", key)
		return nil, ErrDismounted
	}
	return res, nil
}

// Mounted reports how many bindings are live for ref.
func (i *Invalidator) Mounted(ref client.QueryRef) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.mounted[ref.Key()]
}
