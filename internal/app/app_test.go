package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/anonto42/nano-midea/client/internal/client"
	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/anonto42/nano-midea/client/internal/navigation"
	"github.com/anonto42/nano-midea/client/internal/session"
)

// scriptedTransport answers each root field with a canned payload.
type scriptedTransport struct {
	mu      sync.Mutex
	replies map[string]string
	errors  map[string]client.GraphQLError
	calls   []client.Request
}

func (s *scriptedTransport) Do(_ context.Context, req client.Request) (*client.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	name := req.OperationName
	op, ok := client.OperationByName(strings.ToLower(name[:1]) + name[1:])
	if !ok {
		return nil, errs.Server("do", "unknown operation "+req.OperationName)
	}
	field := op.Field()
	if e, ok := s.errors[field]; ok {
		return &client.Response{Errors: []client.GraphQLError{e}}, nil
	}
	reply, ok := s.replies[field]
	if !ok {
		return nil, errs.Network(field, errors.New("connection refused"))
	}
	return &client.Response{Data: map[string]json.RawMessage{field: json.RawMessage(reply)}}, nil
}

func (s *scriptedTransport) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.OperationName == name {
			n++
		}
	}
	return n
}

func quiet() Option {
	return WithLogger(log.New(io.Discard, "", 0))
}

func TestLoginPersistsAndLogoutClears(t *testing.T) {
	ctx := context.Background()
	vault := session.NewMemoryVault()
	tr := &scriptedTransport{replies: map[string]string{
		"login": `{"access_token":"t1","userId":"u1","username":"alice"}`,
	}}
	a := New(vault, tr, quiet())
	a.Start(ctx)
	defer a.Close()

	if a.Gate.State() != navigation.Unauthenticated {
		t.Fatalf("expected unauthenticated start, got %s", a.Gate.State())
	}

	res, err := a.Login(ctx, " alice ", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if res.AccessToken != "t1" || res.UserID != "u1" {
		t.Fatalf("unexpected login result %+v", res)
	}
	if token, ok, _ := vault.Get(ctx, session.TokenKey); !ok || token != "t1" {
		t.Fatalf("expected token t1 in vault, got %q %v", token, ok)
	}
	if a.Gate.State() != navigation.Authenticated || a.Gate.Root() != navigation.RootMain {
		t.Fatalf("expected main root after login, got %s", a.Gate.State())
	}

	if err := a.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok, _ := vault.Get(ctx, session.TokenKey); ok {
		t.Fatal("token should be removed from vault")
	}
	if a.Sessions.Read().Authenticated() {
		t.Fatal("session should be cleared")
	}
	if a.Gate.State() != navigation.Unauthenticated {
		t.Fatalf("expected auth root after logout, got %s", a.Gate.State())
	}
}

func TestLoginRejectionIsAuthError(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{errors: map[string]client.GraphQLError{
		"login": {Message: "invalid credentials", Extensions: map[string]any{"code": "BAD_USER_INPUT"}},
	}}
	a := New(session.NewMemoryVault(), tr, quiet())
	a.Start(ctx)
	defer a.Close()

	_, err := a.Login(ctx, "alice", "wrong")
	if !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
	if a.Sessions.Read().Authenticated() {
		t.Fatal("session must stay unauthenticated")
	}
}

func TestLoginValidatesBeforeCalling(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{}
	a := New(session.NewMemoryVault(), tr, quiet())
	a.Start(ctx)
	defer a.Close()

	if _, err := a.Login(ctx, "  ", "secret"); !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatalf("expected no request, got %d", len(tr.calls))
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{replies: map[string]string{"login": `{"userId":"u1"}`}}
	a := New(session.NewMemoryVault(), tr, quiet())
	a.Start(ctx)
	defer a.Close()

	if _, err := a.Login(ctx, "alice", "secret"); !errors.Is(err, errs.ErrAuth) {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestSearchEmptyKeywordMakesNoCall(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{}
	a := New(session.NewMemoryVault(), tr, quiet())
	a.Start(ctx)
	defer a.Close()

	users, err := a.Search(ctx, "   ")
	if err != nil || users != nil {
		t.Fatalf("expected empty result, got %v %v", users, err)
	}
	if tr.count(client.OpSearchUser.Name()) != 0 {
		t.Fatal("search should not be sent")
	}
}

func TestAddPostReturnsPostWhenFeedRefetchFails(t *testing.T) {
	ctx := context.Background()
	vault := session.NewMemoryVault()
	_ = vault.Set(ctx, session.TokenKey, "t1")
	_ = vault.Set(ctx, session.UserIDKey, "u1")
	tr := &scriptedTransport{replies: map[string]string{
		"addPost": `{"_id":"p9","authorId":"u1","content":"hi","imgUrl":"x","tags":["a","b"],"createdAt":"1"}`,
	}}
	a := New(vault, tr, quiet())
	a.Start(ctx)
	defer a.Close()

	post, err := a.AddPost(ctx, "x", " hi ", "a, ,b")
	if post.ID != "p9" {
		t.Fatalf("expected the created post, got %+v", post)
	}
	if !errors.Is(err, errs.ErrNetwork) {
		t.Fatalf("expected the feed refetch error, got %v", err)
	}
	if tr.count(client.OpGetPosts.Name()) != 1 {
		t.Fatal("feed should be refetched once")
	}
}

func TestAddPostValidation(t *testing.T) {
	ctx := context.Background()
	tr := &scriptedTransport{}
	a := New(session.NewMemoryVault(), tr, quiet())
	a.Start(ctx)
	defer a.Close()

	_, err := a.AddPost(ctx, "", "caption", "")
	if !errors.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(tr.calls) != 0 {
		t.Fatal("invalid post must not be sent")
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{"a, b,,c ", []string{"a", "b", "c"}},
		{" , ", nil},
	}
	for _, tt := range tests {
		got := SplitTags(tt.in)
		if len(got) != len(tt.want) {
			t.Fatalf("SplitTags(%q) = %v, want %v", tt.in, got, tt.want)
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Fatalf("SplitTags(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}
