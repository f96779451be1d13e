package focus

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/client/internal/cache"
	"github.com/anonto42/nano-midea/client/internal/client"
)

// gatedAPI answers getPosts with a counter value, blocking each call until a
// token is sent on release.
type gatedAPI struct {
	calls   atomic.Int32
	arrived chan struct{}
	release chan struct{}
}

func newGatedAPI() *gatedAPI {
	return &gatedAPI{arrived: make(chan struct{}, 8), release: make(chan struct{}, 8)}
}

func (g *gatedAPI) Do(ctx context.Context, req client.Request) (*client.Response, error) {
	n := g.calls.Add(1)
	g.arrived <- struct{}{}
	<-g.release
	raw, _ := json.Marshal([]any{map[string]any{"_id": "p1", "content": "version", "version": n}})
	return &client.Response{Data: map[string]json.RawMessage{"getPosts": raw}}, nil
}

func setup() (*Invalidator, *client.Client, *gatedAPI) {
	api := newGatedAPI()
	quiet := log.New(io.Discard, "", 0)
	c := client.New(api, nil, cache.New(nil), client.WithLogger(quiet))
	return New(c, WithLogger(quiet)), c, api
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out")
	}
}

func TestConcurrentFocusSharesOneCall(t *testing.T) {
	inv, _, api := setup()
	first := inv.Bind(client.FeedQuery())
	second := inv.Bind(client.FeedQuery())

	var wg sync.WaitGroup
	results := make([]*client.Result, 2)
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], errs[0] = first.Focus(context.Background())
	}()
	waitFor(t, api.arrived)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], errs[1] = second.Focus(context.Background())
	}()
	time.Sleep(50 * time.Millisecond)
	api.release <- struct{}{}
	wg.Wait()

	if n := api.calls.Load(); n != 1 {
		t.Fatalf("expected exactly one network call, got %d", n)
	}
	for i, err := range errs {
		if err != nil {
			t.Fatalf("focus %d: %v", i, err)
		}
	}
	if results[0] != results[1] {
		t.Fatalf("expected both focus events to observe the same result")
	}
}

func TestSequentialFocusRefetchesAgain(t *testing.T) {
	inv, _, api := setup()
	b := inv.Bind(client.FeedQuery())

	for i := 0; i < 2; i++ {
		api.release <- struct{}{}
		if _, err := b.Focus(context.Background()); err != nil {
			t.Fatalf("focus %d: %v", i, err)
		}
		<-api.arrived
	}
	if n := api.calls.Load(); n != 2 {
		t.Fatalf("expected one call per focus, got %d", n)
	}
}

func TestDismountDiscardsInFlightResult(t *testing.T) {
	inv, c, api := setup()
	b := inv.Bind(client.FeedQuery())

	done := make(chan error, 1)
	go func() {
		_, err := b.Focus(context.Background())
		done <- err
	}()
	waitFor(t, api.arrived)
	b.Dismount()
	api.release <- struct{}{}

	if err := <-done; !errors.Is(err, ErrDismounted) {
		t.Fatalf("expected ErrDismounted, got %v", err)
	}
	if _, ok := c.Read(client.FeedQuery()); ok {
		t.Fatalf("expected result not to be merged after dismount")
	}
	if _, err := b.Focus(context.Background()); !errors.Is(err, ErrDismounted) {
		t.Fatalf("expected dismounted binding to refuse focus, got %v", err)
	}
	if inv.Mounted(client.FeedQuery()) != 0 {
		t.Fatalf("expected no mounted bindings")
	}
}

func TestResultKeptWhileAnotherScreenIsMounted(t *testing.T) {
	inv, c, api := setup()
	leaving := inv.Bind(client.FeedQuery())
	staying := inv.Bind(client.FeedQuery())

	done := make(chan error, 1)
	go func() {
		_, err := leaving.Focus(context.Background())
		done <- err
	}()
	waitFor(t, api.arrived)
	leaving.Dismount()
	api.release <- struct{}{}

	if err := <-done; !errors.Is(err, ErrDismounted) {
		t.Fatalf("expected ErrDismounted for the leaving screen, got %v", err)
	}
	if _, ok := c.Read(client.FeedQuery()); !ok {
		t.Fatalf("expected result merged for the remaining screen")
	}
	if staying.Visible() {
		t.Fatalf("expected remaining screen not to be marked visible")
	}
}

func TestCancelledWaiterDoesNotCancelFlight(t *testing.T) {
	inv, c, api := setup()
	b := inv.Bind(client.FeedQuery())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := b.Focus(ctx)
		done <- err
	}()
	waitFor(t, api.arrived)
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	api.release <- struct{}{}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, ok := c.Read(client.FeedQuery()); ok {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected detached flight to complete and merge")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestBlur(t *testing.T) {
	inv, _, api := setup()
	b := inv.Bind(client.FeedQuery())
	api.release <- struct{}{}
	if _, err := b.Focus(context.Background()); err != nil {
		t.Fatalf("focus: %v", err)
	}
	if !b.Visible() {
		t.Fatalf("expected visible after focus")
	}
	b.Blur()
	if b.Visible() {
		t.Fatalf("expected hidden after blur")
	}
}
