package cache

import (
	"sync"
	"sync/atomic"
)

// EntityType names a normalized entity kind.
type EntityType string

const (
	TypePost  EntityType = "Post"
	TypeUser  EntityType = "User"
	TypeQuery EntityType = "ROOT_QUERY"
)

// IDField identifies entities in server responses.
const IDField = "_id"

// Key addresses one cache record.
type Key struct {
	Type EntityType
	ID   string
}

func (k Key) String() string {
	return string(k.Type) + ":" + k.ID
}

// Ref is stored in place of a nested entity after normalization.
type Ref Key

// Record is the field map of one cached entity.
type Record map[string]any

// Schema maps a (type, field) pair to the entity type found under that field.
type Schema map[EntityType]map[string]EntityType

// DefaultSchema describes how the feed API nests its entities.
var DefaultSchema = Schema{
	TypePost: {"Author": TypeUser},
	TypeUser: {"Followers": TypeUser, "Followings": TypeUser, "Posts": TypePost},
}

// Change lists the records affected by one write or overlay update.
type Change struct {
	Keys []Key
}

// Write is one completed response to merge.
type Write struct {
	// Root is the query record the normalized value is stored under. A zero
	// Root merges entities without recording a query result.
	Root  Key
	Type  EntityType
	Value any
	// Stamp is the issue order of the request, from Cache.Stamp. A field last
	// written by a later-stamped write is left alone. Zero stamps the write
	// when it is merged.
	Stamp uint64
	// Reconcile runs inside the write's critical section. apply=false skips the
	// merge; drop lists overlay ids discarded in the same step.
	Reconcile func() (apply bool, drop []string)
}

// Cache is a normalized, overlay-aware entity store safe for concurrent use.
type Cache struct {
	schema Schema

	mu       sync.RWMutex
	records  map[Key]Record
	stamps   map[Key]map[string]uint64
	overlays map[Key][]Overlay
	owners   map[string]Key
	clock    atomic.Uint64

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// New creates an empty Cache using schema, or DefaultSchema when nil
func New(schema Schema) *Cache {
	if schema == nil {
		schema = DefaultSchema
	}
	return &Cache{
		schema:   schema,
		records:  make(map[Key]Record),
		stamps:   make(map[Key]map[string]uint64),
		overlays: make(map[Key][]Overlay),
		owners:   make(map[string]Key),
		subs:     make(map[int]func(Change)),
	}
}

// Stamp returns a new issue stamp. Take it before sending the request whose
// response will be written.
func (c *Cache) Stamp() uint64 {
	return c.clock.Add(1)
}

// Write merges w atomically and reports whether the value was applied.
func (c *Cache) Write(w Write) bool {
	c.mu.Lock()
	apply := true
	var touched []Key
	if w.Reconcile != nil {
		var drop []string
		apply, drop = w.Reconcile()
		touched = append(touched, c.removeOverlays(drop)...)
	}
	if apply {
		stamp := w.Stamp
		if stamp == 0 {
			stamp = c.Stamp()
		}
		n := normalizer{cache: c, stamp: stamp}
		value := n.normalize(w.Type, w.Value)
		if w.Root != (Key{}) {
			rec, ok := c.records[w.Root]
			if !ok {
				rec = Record{}
				c.records[w.Root] = rec
			}
			n.set(w.Root, rec, "value", value)
		}
		touched = append(touched, n.touched...)
		touched = append(touched, c.dropExpired(n.touched)...)
	}
	c.mu.Unlock()

	c.notify(touched)
	return apply
}

// Read returns the denormalized value stored for root with overlays applied.
func (c *Cache) Read(root Key) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[root]
	if !ok {
		return nil, false
	}
	return c.denormalize(rec["value"], map[Key]bool{}), true
}

// Entity returns a copy of the authoritative record for key, without overlays.
func (c *Cache) Entity(key Key) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[key]
	if !ok {
		return nil, false
	}
	return copyValue(rec).(Record), true
}

// View returns the record for key with overlays applied and nested entities
// resolved.
func (c *Cache) View(key Key) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.view(key, map[Key]bool{})
}

func (c *Cache) view(key Key, path map[Key]bool) (Record, bool) {
	rec, ok := c.records[key]
	overlays := c.overlays[key]
	if !ok && len(overlays) == 0 {
		return nil, false
	}
	if path[key] {
		return Record{IDField: key.ID}, true
	}
	path[key] = true
	defer delete(path, key)

	var out Record
	if ok {
		out = copyValue(rec).(Record)
	} else {
		out = Record{IDField: key.ID}
	}
	for _, o := range overlays {
		out = o.Apply(out)
	}
	for field, v := range out {
		out[field] = c.denormalize(v, path)
	}
	return out, true
}

func (c *Cache) denormalize(v any, path map[Key]bool) any {
	switch t := v.(type) {
	case Ref:
		rec, ok := c.view(Key(t), path)
		if !ok {
			return nil
		}
		return map[string]any(rec)
	case Record:
		out := make(map[string]any, len(t))
		for k, fv := range t {
			out[k] = c.denormalize(fv, path)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, fv := range t {
			out[k] = c.denormalize(fv, path)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = c.denormalize(e, path)
		}
		return out
	default:
		return v
	}
}

// Subscribe registers fn for change notifications. Callbacks run after the
// cache lock is released.
func (c *Cache) Subscribe(fn func(Change)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()
	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

// Reset drops every record and overlay.
func (c *Cache) Reset() {
	c.mu.Lock()
	touched := make([]Key, 0, len(c.records))
	for k := range c.records {
		touched = append(touched, k)
	}
	c.records = make(map[Key]Record)
	c.stamps = make(map[Key]map[string]uint64)
	c.overlays = make(map[Key][]Overlay)
	c.owners = make(map[string]Key)
	c.mu.Unlock()
	c.notify(touched)
}

func (c *Cache) notify(keys []Key) {
	if len(keys) == 0 {
		return
	}
	c.subMu.Lock()
	subs := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.subMu.Unlock()
	for _, fn := range subs {
		fn(Change{Keys: keys})
	}
}

// normalizer merges one response into the cache. The caller holds c.mu.
type normalizer struct {
	cache   *Cache
	stamp   uint64
	touched []Key
	seen    map[Key]bool
}

// set stores v as rec[field] unless a later-stamped write got there first.
func (n *normalizer) set(key Key, rec Record, field string, v any) {
	stamps := n.cache.stamps[key]
	if stamps == nil {
		stamps = make(map[string]uint64)
		n.cache.stamps[key] = stamps
	}
	if stamps[field] > n.stamp {
		return
	}
	stamps[field] = n.stamp
	rec[field] = v
	n.touch(key)
}

func (n *normalizer) touch(k Key) {
	if n.seen == nil {
		n.seen = make(map[Key]bool)
	}
	if !n.seen[k] {
		n.seen[k] = true
		n.touched = append(n.touched, k)
	}
}

func (n *normalizer) normalize(typ EntityType, v any) any {
	switch t := v.(type) {
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = n.normalize(typ, e)
		}
		return out
	case map[string]any:
		id, _ := t[IDField].(string)
		if typ == "" || id == "" {
			return n.inline(typ, t)
		}
		key := Key{Type: typ, ID: id}
		rec, ok := n.cache.records[key]
		if !ok {
			rec = make(Record, len(t))
			n.cache.records[key] = rec
		}
		for field, fv := range t {
			n.set(key, rec, field, n.normalize(n.cache.schema[typ][field], fv))
		}
		return Ref(key)
	default:
		return v
	}
}

// inline keeps a map as a value while still normalizing known nested entities.
func (n *normalizer) inline(typ EntityType, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for field, fv := range m {
		if typ == "" {
			out[field] = copyValue(fv)
			continue
		}
		out[field] = n.normalize(n.cache.schema[typ][field], fv)
	}
	return out
}

func copyValue(v any) any {
	switch t := v.(type) {
	case Record:
		out := make(Record, len(t))
		for k, fv := range t {
			out[k] = copyValue(fv)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, fv := range t {
			out[k] = copyValue(fv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = copyValue(e)
		}
		return out
	default:
		return v
	}
}
