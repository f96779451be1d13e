package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anonto42/nano-midea/client/internal/repositories"
)

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string            `json:"message"`
		Extensions map[string]string `json:"extensions"`
	} `json:"errors"`
}

func newStub(t *testing.T) http.Handler {
	t.Helper()
	store := repositories.NewMemoryStore()
	if err := store.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return New(store, "test-secret")
}

func call(t *testing.T, h http.Handler, token, query string, input any) (int, gqlResponse) {
	t.Helper()
	body, _ := json.Marshal(map[string]any{"query": query, "variables": map[string]any{"input": input}})
	req := httptest.NewRequest(http.MethodPost, "/graphql", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out gqlResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &out)
	return rec.Code, out
}

func login(t *testing.T, h http.Handler) string {
	t.Helper()
	_, resp := call(t, h, "", "mutation { login(input: $input) { access_token } }",
		map[string]string{"username": "alice", "password": repositories.DemoPassword})
	var out struct {
		AccessToken string `json:"access_token"`
		UserID      string `json:"userId"`
	}
	if err := json.Unmarshal(resp.Data["login"], &out); err != nil || out.AccessToken == "" || out.UserID != "u1" {
		t.Fatalf("login failed: %+v %v", resp, err)
	}
	return out.AccessToken
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	newStub(t).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	_, resp := call(t, newStub(t), "", "mutation { login(input: $input) { access_token } }",
		map[string]string{"username": "alice", "password": "wrong"})
	if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != "BAD_USER_INPUT" {
		t.Fatalf("expected BAD_USER_INPUT, got %+v", resp)
	}
}

func TestProtectedFieldsRequireToken(t *testing.T) {
	h := newStub(t)
	_, resp := call(t, h, "", "query { getPosts { _id } }", nil)
	if len(resp.Errors) != 1 || resp.Errors[0].Extensions["code"] != "UNAUTHENTICATED" {
		t.Fatalf("expected UNAUTHENTICATED, got %+v", resp)
	}

	status, _ := call(t, h, "not-a-jwt", "query { getPosts { _id } }", nil)
	if status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for an invalid token, got %d", status)
	}
}

func TestLikeAndCommentRoundTrip(t *testing.T) {
	h := newStub(t)
	token := login(t, h)

	_, resp := call(t, h, token, "mutation { likePost(input: $input) }", map[string]string{"postId": "p1"})
	if string(resp.Data["likePost"]) != "true" {
		t.Fatalf("expected like to be recorded, got %+v", resp)
	}
	_, resp = call(t, h, token, "mutation { commentPost(input: $input) { content } }",
		map[string]string{"postId": "p1", "content": "nice"})
	if resp.Data["commentPost"] == nil {
		t.Fatalf("expected comment, got %+v", resp)
	}

	_, resp = call(t, h, token, "query { getPostById(input: $input) { _id } }", map[string]string{"postId": "p1"})
	var post struct {
		Likes    []struct{ UserID string `json:"userId"` } `json:"likes"`
		Comments []struct{ Content string }               `json:"comments"`
		Author   struct{ Username string }                `json:"Author"`
	}
	if err := json.Unmarshal(resp.Data["getPostById"], &post); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(post.Likes) != 1 || post.Likes[0].UserID != "u1" || len(post.Comments) != 1 || post.Author.Username != "alice" {
		t.Fatalf("unexpected post %+v", post)
	}
}

func TestUnknownFieldIsRejected(t *testing.T) {
	status, resp := call(t, newStub(t), "", "query { nothing }", nil)
	if status != http.StatusBadRequest || len(resp.Errors) != 1 {
		t.Fatalf("expected 400 with an error, got %d %+v", status, resp)
	}
}

func TestFollowAndProfile(t *testing.T) {
	h := newStub(t)
	token := login(t, h)

	_, resp := call(t, h, token, "mutation { followUser(input: $input) }", map[string]string{"followingId": "u2"})
	if string(resp.Data["followUser"]) != "true" {
		t.Fatalf("expected follow, got %+v", resp)
	}
	_, resp = call(t, h, token, "query { getUserById(input: $input) { _id } }", map[string]string{"userId": "u2"})
	var user struct {
		Followers []struct{ ID string `json:"_id"` } `json:"Followers"`
		Posts     []struct{ ID string `json:"_id"` } `json:"Posts"`
	}
	_ = json.Unmarshal(resp.Data["getUserById"], &user)
	if len(user.Followers) != 1 || user.Followers[0].ID != "u1" || len(user.Posts) != 1 {
		t.Fatalf("unexpected profile %+v", user)
	}
}
