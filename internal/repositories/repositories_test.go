package repositories

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anonto42/nano-midea/client/internal/models"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}
	u, err := s.Users.GetUserByUsername(ctx, "ALICE")
	if err != nil || u.ID != "u1" {
		t.Fatalf("expected alice, got %+v err=%v", u, err)
	}
	posts, _ := s.Posts.ListPosts(ctx)
	if len(posts) != 2 || posts[0].ID != "p2" {
		t.Fatalf("expected newest post first, got %+v", posts)
	}
}

func TestCreateUserRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUserRepository()
	if err := r.CreateUser(ctx, &UserRecord{Username: "alice", Email: "a@example.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := r.CreateUser(ctx, &UserRecord{Username: "Alice", Email: "b@example.com"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if err := r.CreateUser(ctx, &UserRecord{Username: "bob", Email: "A@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSearchUsers(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryUserRepository()
	_ = r.CreateUser(ctx, &UserRecord{Name: "Alice Liddell", Username: "alice", Email: "a@example.com"})
	_ = r.CreateUser(ctx, &UserRecord{Name: "Bob", Username: "bob", Email: "b@example.com"})

	got, _ := r.SearchUsers(ctx, "lid")
	if len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("unexpected search result %+v", got)
	}
}

func TestSameTimestampKeepsNewestInsertFirst(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryPostRepository()
	at := models.FormatTimestamp(time.Now())
	_ = r.CreatePost(ctx, &models.Post{ID: "a", CreatedAt: at})
	_ = r.CreatePost(ctx, &models.Post{ID: "b", CreatedAt: at})

	posts, _ := r.ListPosts(ctx)
	if posts[0].ID != "b" {
		t.Fatalf("expected later insert first, got %s", posts[0].ID)
	}
}

func TestToggleLike(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLikeRepository()
	like := models.Like{UserID: "u1", Username: "alice"}

	if liked, _ := r.ToggleLike(ctx, "p1", like); !liked {
		t.Fatalf("expected first toggle to like")
	}
	if liked, _ := r.ToggleLike(ctx, "p1", like); liked {
		t.Fatalf("expected second toggle to unlike")
	}
	if likes, _ := r.GetLikesByPostID(ctx, "p1"); len(likes) != 0 {
		t.Fatalf("expected no likes, got %+v", likes)
	}
}

func TestToggleFollow(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryFollowRepository()

	if _, err := r.ToggleFollow(ctx, "u1", "u1"); !errors.Is(err, ErrSelfFollow) {
		t.Fatalf("expected ErrSelfFollow, got %v", err)
	}
	if ok, _ := r.ToggleFollow(ctx, "u1", "u2"); !ok {
		t.Fatalf("expected follow")
	}
	if ids, _ := r.GetFollowerIDs(ctx, "u2"); len(ids) != 1 || ids[0] != "u1" {
		t.Fatalf("unexpected followers %v", ids)
	}
	if ids, _ := r.GetFollowingIDs(ctx, "u1"); len(ids) != 1 || ids[0] != "u2" {
		t.Fatalf("unexpected followings %v", ids)
	}
	if ok, _ := r.ToggleFollow(ctx, "u1", "u2"); ok {
		t.Fatalf("expected unfollow")
	}
}

func TestCommentsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryCommentRepository()
	for _, c := range []string{"one", "two", "three"} {
		_ = r.CreateComment(ctx, "p1", models.Comment{Content: c})
	}
	got, _ := r.GetCommentsByPostID(ctx, "p1")
	if len(got) != 3 || got[0].Content != "one" || got[2].Content != "three" {
		t.Fatalf("unexpected order %+v", got)
	}
}

// exerciseStore runs the behaviour every Store backend must share against a
// seeded store.
func exerciseStore(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.Seed(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if u, err := s.Users.GetUserByUsername(ctx, "Bob"); err != nil || u.ID != "u2" {
		t.Fatalf("expected bob, got %+v err=%v", u, err)
	}
	if _, err := s.Users.GetUserByID(ctx, "nobody"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := s.Users.CreateUser(ctx, &UserRecord{Username: "ALICE", Email: "x@example.com"}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
	if found, _ := s.Users.SearchUsers(ctx, "bo"); len(found) != 1 || found[0].ID != "u2" {
		t.Fatalf("unexpected search result %+v", found)
	}

	posts, err := s.Posts.ListPosts(ctx)
	if err != nil || len(posts) != 2 || posts[0].ID != "p2" {
		t.Fatalf("expected newest post first, got %+v err=%v", posts, err)
	}
	if mine, _ := s.Posts.ListPostsByAuthor(ctx, "u1"); len(mine) != 1 || mine[0].ID != "p1" {
		t.Fatalf("unexpected author posts %+v", mine)
	}
	if _, err := s.Posts.GetPostByID(ctx, "missing"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	like := models.Like{UserID: "u2", Username: "bob"}
	if liked, err := s.Likes.ToggleLike(ctx, "p1", like); err != nil || !liked {
		t.Fatalf("expected like, got %v %v", liked, err)
	}
	if likes, _ := s.Likes.GetLikesByPostID(ctx, "p1"); len(likes) != 1 || likes[0].UserID != "u2" {
		t.Fatalf("unexpected likes %+v", likes)
	}
	if liked, _ := s.Likes.ToggleLike(ctx, "p1", like); liked {
		t.Fatal("expected unlike")
	}

	for _, c := range []string{"first", "second"} {
		if err := s.Comments.CreateComment(ctx, "p1", models.Comment{Content: c, UserID: "u2"}); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}
	if got, _ := s.Comments.GetCommentsByPostID(ctx, "p1"); len(got) != 2 || got[0].Content != "first" {
		t.Fatalf("unexpected comments %+v", got)
	}

	if ok, err := s.Follows.ToggleFollow(ctx, "u2", "u1"); err != nil || !ok {
		t.Fatalf("expected follow, got %v %v", ok, err)
	}
	if ids, _ := s.Follows.GetFollowerIDs(ctx, "u1"); len(ids) != 1 || ids[0] != "u2" {
		t.Fatalf("unexpected followers %v", ids)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}
