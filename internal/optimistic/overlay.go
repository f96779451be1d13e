package optimistic

import (
	"sync/atomic"
	"time"

	"github.com/anonto42/nano-midea/client/internal/cache"
	"github.com/anonto42/nano-midea/client/internal/models"
)

// Kind is the action an overlay speculates about.
type Kind int

const (
	KindLike Kind = iota
	KindComment
)

func (k Kind) String() string {
	if k == KindComment {
		return "comment"
	}
	return "like"
}

// Overlay is the local patch of one in-flight action. For KindLike, Value is
// the bool like-state to show; for KindComment it is the pending
// models.Comment.
type Overlay struct {
	ID          string
	TargetID    string
	Kind        Kind
	Value       any
	SubmittedAt time.Time

	userID   string
	username string
	// expired is set once the action's own refetch failed; the next merge of
	// the post then discards the overlay.
	expired atomic.Bool
}

func (o *Overlay) OverlayID() string { return o.ID }

// Expired reports whether the next merge into the post may discard o.
func (o *Overlay) Expired() bool { return o.expired.Load() }

func (o *Overlay) Target() cache.Key {
	return cache.Key{Type: cache.TypePost, ID: o.TargetID}
}

func (o *Overlay) Apply(r cache.Record) cache.Record {
	switch o.Kind {
	case KindLike:
		liked, _ := o.Value.(bool)
		r["likes"] = setLike(asList(r["likes"]), o.userID, o.username, liked, o.SubmittedAt)
	case KindComment:
		c, _ := o.Value.(models.Comment)
		r["comments"] = append(asList(r["comments"]), map[string]any{
			"content":   c.Content,
			"username":  c.Username,
			"userId":    c.UserID,
			"createdAt": c.CreatedAt,
			"__pending": true,
			"__localId": c.LocalID,
		})
	}
	return r
}

func setLike(likes []any, userID, username string, liked bool, at time.Time) []any {
	out := make([]any, 0, len(likes)+1)
	for _, l := range likes {
		if likeOwner(l) == userID {
			continue
		}
		out = append(out, l)
	}
	if liked {
		out = append(out, map[string]any{
			"userId":    userID,
			"username":  username,
			"createdAt": models.FormatTimestamp(at),
			"__pending": true,
		})
	}
	return out
}

func likeOwner(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	id, _ := m["userId"].(string)
	return id
}

func asList(v any) []any {
	list, _ := v.([]any)
	return list
}
