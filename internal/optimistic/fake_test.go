package optimistic

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/anonto42/nano-midea/client/internal/client"
	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/anonto42/nano-midea/client/internal/models"
)

type session models.Session

func (s session) Read() models.Session { return models.Session(s) }

// fakeAPI serves one post and lets tests hold individual calls. A held call
// computes its response on arrival and only returns once released.
type fakeAPI struct {
	mu       sync.Mutex
	liked    map[string]bool
	comments []models.Comment
	calls    map[string]int
	fail     map[string]error
	holds    map[string]map[int]*hold
}

type hold struct {
	arrived chan struct{}
	release chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		liked: map[string]bool{},
		calls: map[string]int{},
		fail:  map[string]error{},
		holds: map[string]map[int]*hold{},
	}
}

// hold arranges for the nth call (1-based) of field to block.
func (f *fakeAPI) hold(field string, n int) *hold {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := &hold{arrived: make(chan struct{}), release: make(chan struct{})}
	if f.holds[field] == nil {
		f.holds[field] = map[int]*hold{}
	}
	f.holds[field][n] = h
	return h
}

func (f *fakeAPI) count(field string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[field]
}

func (f *fakeAPI) isLiked(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.liked[userID]
}

func (f *fakeAPI) Do(ctx context.Context, req client.Request) (*client.Response, error) {
	var input map[string]any
	if raw, err := json.Marshal(req.Variables["input"]); err == nil {
		_ = json.Unmarshal(raw, &input)
	}
	field := map[string]string{"LikePost": "likePost", "CommentPost": "commentPost", "GetPostById": "getPostById"}[req.OperationName]

	f.mu.Lock()
	f.calls[field]++
	h := f.holds[field][f.calls[field]]
	f.mu.Unlock()

	// Mutations are held before the server applies them, queries after the
	// snapshot is taken.
	if field != "getPostById" {
		if err := h.wait(ctx); err != nil {
			return nil, err
		}
	}

	f.mu.Lock()
	failure := f.fail[field]
	var data any
	if failure == nil {
		switch field {
		case "likePost":
			f.liked["u1"] = !f.liked["u1"]
			data = true
		case "commentPost":
			c := models.Comment{Content: input["content"].(string), Username: "alice", UserID: "u1"}
			f.comments = append(f.comments, c)
			data = c
		case "getPostById":
			data = f.post()
		default:
			failure = errs.Server(field, "unsupported operation")
		}
	}
	f.mu.Unlock()

	if field == "getPostById" {
		if err := h.wait(ctx); err != nil {
			return nil, err
		}
	}
	if failure != nil {
		return nil, failure
	}
	raw, _ := json.Marshal(data)
	return &client.Response{Data: map[string]json.RawMessage{field: raw}}, nil
}

func (h *hold) wait(ctx context.Context) error {
	if h == nil {
		return nil
	}
	close(h.arrived)
	select {
	case <-h.release:
		return nil
	case <-ctx.Done():
		return errs.Network("hold", ctx.Err())
	}
}

// post renders the server view of p1. The caller holds f.mu.
func (f *fakeAPI) post() map[string]any {
	likes := []any{}
	if f.liked["u1"] {
		likes = append(likes, map[string]any{"userId": "u1", "username": "alice"})
	}
	comments := []any{}
	for _, c := range f.comments {
		comments = append(comments, map[string]any{"content": c.Content, "username": c.Username, "userId": c.UserID})
	}
	return map[string]any{"_id": "p1", "content": "hello", "likes": likes, "comments": comments}
}

var errOffline = errs.Network("likePost", errors.New("offline"))
