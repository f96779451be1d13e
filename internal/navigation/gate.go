package navigation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/models"
)

// State is the gate's authentication state.
type State int

const (
	Unauthenticated State = iota
	Authenticated
)

func (s State) String() string {
	if s == Authenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// ErrUnreachable is returned when navigating to a screen outside the mounted
// root.
var ErrUnreachable = errors.New("navigation: screen not reachable from current root")

// Sessions is the session source the gate follows.
type Sessions interface {
	Read() models.Session
	Subscribe(func(models.Session)) func()
}

// Params are the route parameters of a stack entry.
type Params map[string]string

// Entry is one screen on the mounted stack.
type Entry struct {
	Screen ScreenID
	Params Params

	mu        sync.Mutex
	onDismiss []func()
	dismissed bool
}

// OnDismiss registers fn to run when the entry is popped or its root is
// swapped out. It runs immediately if the entry is already gone.
func (e *Entry) OnDismiss(fn func()) {
	e.mu.Lock()
	if e.dismissed {
		e.mu.Unlock()
		fn()
		return
	}
	e.onDismiss = append(e.onDismiss, fn)
	e.mu.Unlock()
}

func (e *Entry) dismiss() {
	e.mu.Lock()
	if e.dismissed {
		e.mu.Unlock()
		return
	}
	e.dismissed = true
	hooks := e.onDismiss
	e.onDismiss = nil
	e.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}

// Transition reports a root swap.
type Transition struct {
	From, To State
}

// Gate mounts the auth or main navigation root depending on the session.
type Gate struct {
	sessions Sessions

	mu          sync.Mutex
	state       State
	userID      string
	stack       []*Entry
	listeners   []func(Transition)
	unsubscribe func()
}

// NewGate creates a gate whose initial state follows sessions.Read(). Call
// it after the session store has been initialized.
func NewGate(sessions Sessions) *Gate {
	g := &Gate{sessions: sessions}
	s := sessions.Read()
	g.state = stateOf(s)
	g.userID = s.UserID
	g.stack = []*Entry{{Screen: initial(g.root())}}
	g.unsubscribe = sessions.Subscribe(g.onSession)
	return g
}

// Close stops following the session store.
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		g.unsubscribe()
	}
}

func stateOf(s models.Session) State {
	if s.Authenticated() {
		return Authenticated
	}
	return Unauthenticated
}

// root returns the root for the current state. The caller holds mu.
func (g *Gate) root() Root {
	if g.state == Authenticated {
		return RootMain
	}
	return RootAuth
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Root returns the mounted root.
func (g *Gate) Root() Root {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.root()
}

// OnTransition registers fn for root swaps.
func (g *Gate) OnTransition(fn func(Transition)) {
	g.mu.Lock()
	g.listeners = append(g.listeners, fn)
	g.mu.Unlock()
}

func (g *Gate) onSession(s models.Session) {
	next := stateOf(s)

	g.mu.Lock()
	g.userID = s.UserID
	if next == g.state {
		g.mu.Unlock()
		return
	}
	t := Transition{From: g.state, To: next}
	g.state = next
	discarded := g.stack
	g.stack = []*Entry{{Screen: initial(g.root())}}
	listeners := append([]func(Transition){}, g.listeners...)
	g.mu.Unlock()

	for i := len(discarded) - 1; i >= 0; i-- {
		discarded[i].dismiss()
	}
	for _, fn := range listeners {
		fn(t)
	}
}

// Navigate pushes screen. Tab screens replace the stack above the root's
// initial screen, returning that entry when it is the tab itself; other
// screens stack on top.
func (g *Gate) Navigate(screen ScreenID, params Params) (*Entry, error) {
	route := screen.Route()

	g.mu.Lock()
	if route.Root != g.root() {
		g.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, route.Name)
	}
	p := Params{}
	for k, v := range params {
		p[k] = v
	}
	if screen == ScreenProfile && p["userId"] == "" {
		p["userId"] = g.userID
	}
	entry := &Entry{Screen: screen, Params: p}

	var popped []*Entry
	if route.Tab {
		popped = append(popped, g.stack[1:]...)
		g.stack = g.stack[:1]
	}
	if route.Tab && g.stack[0].Screen == screen {
		entry = g.stack[0]
	} else {
		g.stack = append(g.stack, entry)
	}
	g.mu.Unlock()

	for i := len(popped) - 1; i >= 0; i-- {
		popped[i].dismiss()
	}
	return entry, nil
}

// Back pops the top screen. The bottom screen of a root cannot be popped.
func (g *Gate) Back() bool {
	g.mu.Lock()
	if len(g.stack) <= 1 {
		g.mu.Unlock()
		return false
	}
	top := g.stack[len(g.stack)-1]
	g.stack = g.stack[:len(g.stack)-1]
	g.mu.Unlock()

	top.dismiss()
	return true
}

// Top returns the visible entry.
func (g *Gate) Top() *Entry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stack[len(g.stack)-1]
}

// Stack returns the screens of the mounted stack, bottom first.
func (g *Gate) Stack() []ScreenID {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]ScreenID, len(g.stack))
	for i, e := range g.stack {
		out[i] = e.Screen
	}
	return out
}
