package optimistic

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/anonto42/nano-midea/client/internal/cache"
	"github.com/anonto42/nano-midea/client/internal/client"
	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/anonto42/nano-midea/client/internal/models"
	"github.com/google/uuid"
)

// Executor is the part of the sync client the coordinator drives.
type Executor interface {
	Execute(ctx context.Context, op client.Operation, vars client.Variables, opts ...client.ExecOption) (*client.Result, error)
	Refetch(ctx context.Context, ref client.QueryRef, opts ...client.ExecOption) (*client.Result, error)
	Cache() *cache.Cache
}

// Identity reports who is acting.
type Identity interface {
	Read() models.Session
}

// action is one optimistic like or comment awaiting reconciliation.
type action struct {
	overlay *Overlay
	settled bool
	gen     uint64
}

// postState sequences reconciliation for one post. issued counts refetches
// started by the coordinator, applied is the newest one merged.
type postState struct {
	issued  uint64
	applied uint64
	actions []*action
}

// Coordinator applies speculative like and comment state and reconciles it
// with the server.
type Coordinator struct {
	exec     Executor
	identity Identity
	logger   *log.Logger
	now      func() time.Time

	// stage keeps overlay push order equal to action start order.
	stage sync.Mutex

	// mu guards posts and gen. It may be taken while the cache lock is held,
	// never the other way round.
	mu    sync.Mutex
	posts map[string]*postState
	// gen is bumped by Reset. Actions begun under an older generation never
	// merge into the cache.
	gen uint64
	// detached holds overlays left for the next merge of their post.
	detached []string
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithLogger sets the coordinator's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithClock overrides the submission timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

// New creates a Coordinator
func New(exec Executor, identity Identity, opts ...Option) *Coordinator {
	c := &Coordinator{
		exec:     exec,
		identity: identity,
		logger:   log.Default(),
		now:      time.Now,
		posts:    make(map[string]*postState),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Liked reports the like-state currently shown for postID, overlays included.
func (c *Coordinator) Liked(postID string) bool {
	view, ok := c.exec.Cache().View(postKey(postID))
	if !ok {
		return false
	}
	userID := c.identity.Read().UserID
	for _, l := range asList(view["likes"]) {
		if likeOwner(l) == userID {
			return true
		}
	}
	return false
}

// ToggleLike shows the inverted like-state at once, sends likePost and
// reconciles with a getPostById refetch. It returns the state shown once this
// call has settled. A failed mutation is rolled back and returned as a
// MutationError.
func (c *Coordinator) ToggleLike(ctx context.Context, postID string) (bool, error) {
	const op = "toggleLike"
	session := c.identity.Read()
	if session.UserID == "" {
		return false, errs.Auth(op, errors.New("no signed-in user"))
	}
	if postID == "" {
		return false, errs.Validation(op, "postId is required")
	}

	c.stage.Lock()
	o := c.newOverlay(postID, KindLike, session)
	o.Value = !c.Liked(postID)
	a := c.begin(o)
	c.stage.Unlock()

	_, err := c.exec.Execute(ctx, client.OpLikePost, client.Input(models.LikeInput{PostID: postID}))
	if err != nil {
		c.abort(postID, a)
		return c.Liked(postID), errs.Mutation(op, err)
	}
	if err := c.reconcile(ctx, postID, a); err != nil {
		return c.Liked(postID), err
	}
	return c.Liked(postID), nil
}

// SubmitComment appends a pending comment, sends commentPost and replaces the
// pending entry with the server's comment list. Empty content is rejected
// before anything is sent.
func (c *Coordinator) SubmitComment(ctx context.Context, postID, content string) error {
	const op = "submitComment"
	content = strings.TrimSpace(content)
	if content == "" {
		return errs.Validation(op, "content is required")
	}
	if postID == "" {
		return errs.Validation(op, "postId is required")
	}
	session := c.identity.Read()

	c.stage.Lock()
	o := c.newOverlay(postID, KindComment, session)
	o.Value = models.Comment{
		Content:   content,
		Username:  o.username,
		UserID:    o.userID,
		CreatedAt: models.FormatTimestamp(o.SubmittedAt),
		Pending:   true,
		LocalID:   o.ID,
	}
	a := c.begin(o)
	c.stage.Unlock()

	_, err := c.exec.Execute(ctx, client.OpCommentPost, client.Input(models.CommentInput{PostID: postID, Content: content}))
	if err != nil {
		c.abort(postID, a)
		return errs.Mutation(op, err)
	}
	return c.reconcile(ctx, postID, a)
}

// Reset discards every pending overlay. In-flight actions finish without
// touching state created after the reset.
func (c *Coordinator) Reset() {
	c.stage.Lock()
	defer c.stage.Unlock()

	c.mu.Lock()
	ids := c.detached
	for _, st := range c.posts {
		for _, a := range st.actions {
			ids = append(ids, a.overlay.ID)
		}
	}
	c.posts = make(map[string]*postState)
	c.detached = nil
	c.gen++
	c.mu.Unlock()

	c.exec.Cache().RemoveOverlay(ids...)
}

// Pending returns the number of unreconciled actions on postID.
func (c *Coordinator) Pending(postID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.posts[postID]; ok {
		return len(st.actions)
	}
	return 0
}

func (c *Coordinator) newOverlay(postID string, kind Kind, s models.Session) *Overlay {
	return &Overlay{
		ID:          uuid.NewString(),
		TargetID:    postID,
		Kind:        kind,
		SubmittedAt: c.now(),
		userID:      s.UserID,
		username:    c.username(s.UserID),
	}
}

// username looks the acting user up in the cache; the session only carries
// the id.
func (c *Coordinator) username(userID string) string {
	if rec, ok := c.exec.Cache().Entity(cache.Key{Type: cache.TypeUser, ID: userID}); ok {
		if name, _ := rec["username"].(string); name != "" {
			return name
		}
	}
	return ""
}

// begin records a and pushes its overlay. The caller holds stage.
func (c *Coordinator) begin(o *Overlay) *action {
	c.mu.Lock()
	a := &action{overlay: o, gen: c.gen}
	st := c.state(o.TargetID)
	st.actions = append(st.actions, a)
	c.mu.Unlock()

	c.exec.Cache().PushOverlay(o)
	return a
}

func (c *Coordinator) abort(postID string, a *action) {
	c.mu.Lock()
	if st, ok := c.posts[postID]; ok {
		st.remove(a)
		c.release(postID, st)
	}
	c.mu.Unlock()
	c.exec.Cache().RemoveOverlay(a.overlay.ID)
}

// reconcile marks a confirmed and refetches the post. The refetch is merged
// only if no later-issued refetch has been merged first, and it discards the
// overlays of every action confirmed before it was issued.
func (c *Coordinator) reconcile(ctx context.Context, postID string, a *action) error {
	c.mu.Lock()
	if a.gen != c.gen {
		c.mu.Unlock()
		c.logger.Printf("optimistic: post %s was reset before its action settled", postID)
		return nil
	}
	st := c.state(postID)
	a.settled = true
	st.issued++
	seq := st.issued
	var confirmed []*action
	for _, other := range st.actions {
		if other.settled {
			confirmed = append(confirmed, other)
		}
	}
	c.mu.Unlock()

	guard := func() (bool, []string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		if a.gen != c.gen || seq <= st.applied {
			return false, nil
		}
		st.applied = seq
		drop := make([]string, 0, len(confirmed))
		for _, done := range confirmed {
			if st.remove(done) {
				drop = append(drop, done.overlay.ID)
			}
		}
		c.release(postID, st)
		return true, drop
	}

	res, err := c.exec.Refetch(ctx, client.PostQuery(postID), client.WithReconcile(guard))
	if err != nil {
		c.logger.Printf("optimistic: refetch of post %s failed: %v", postID, err)
		c.detach(postID, a)
		return err
	}
	if !res.Applied {
		c.logger.Printf("optimistic: dropped stale refetch %d of post %s", seq, postID)
	}
	return nil
}

// detach hands a confirmed action's overlay over to the cache: it stays shown
// until the next merge of the post replaces it with server state.
func (c *Coordinator) detach(postID string, a *action) {
	a.overlay.expired.Store(true)
	c.mu.Lock()
	defer c.mu.Unlock()
	if a.gen != c.gen {
		return
	}
	if st, ok := c.posts[postID]; ok && st.remove(a) {
		c.release(postID, st)
		c.detached = append(c.detached, a.overlay.ID)
	}
}

// state returns the sequencing state for postID. The caller holds mu.
func (c *Coordinator) state(postID string) *postState {
	st, ok := c.posts[postID]
	if !ok {
		st = &postState{}
		c.posts[postID] = st
	}
	return st
}

// release forgets st once nothing is pending on it. The caller holds mu.
func (c *Coordinator) release(postID string, st *postState) {
	if len(st.actions) == 0 && st.applied == st.issued && c.posts[postID] == st {
		delete(c.posts, postID)
	}
}

func (st *postState) remove(a *action) bool {
	for i, other := range st.actions {
		if other == a {
			st.actions = append(st.actions[:i:i], st.actions[i+1:]...)
			return true
		}
	}
	return false
}

func postKey(postID string) cache.Key {
	return cache.Key{Type: cache.TypePost, ID: postID}
}
