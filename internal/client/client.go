package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/anonto42/nano-midea/client/internal/cache"
	"github.com/anonto42/nano-midea/client/internal/errs"
	"github.com/anonto42/nano-midea/client/internal/models"
)

// TokenSource supplies the session whose token is attached to requests.
type TokenSource interface {
	Read() models.Session
}

// Client executes operations against the remote API and keeps their results
// in a normalized cache.
type Client struct {
	transport Transport
	tokens    TokenSource
	cache     *cache.Cache
	logger    *log.Logger
}

// Option configures a Client
type Option func(*Client)

// WithLogger sets the logger used to report failed operations.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client. tokens may be nil, in which case every request is sent
// unauthenticated.
func New(transport Transport, tokens TokenSource, c *cache.Cache, opts ...Option) *Client {
	if c == nil {
		c = cache.New(nil)
	}
	cl := &Client{transport: transport, tokens: tokens, cache: c, logger: log.Default()}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// Result is the outcome of a successful operation.
type Result struct {
	Op  Operation
	Ref QueryRef
	// Data is the normalized result read back from the cache for queries, or
	// the raw payload for mutations.
	Data any
	// Applied is false when a reconcile guard rejected the response.
	Applied bool
}

// Decode converts Data into v.
func (r *Result) Decode(v any) error {
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

type execConfig struct {
	reconcile func() (bool, []string)
}

// ExecOption adjusts a single Execute call
type ExecOption func(*execConfig)

// WithReconcile installs a guard evaluated atomically with the cache merge.
// When it returns apply=false the response is dropped; overlays in drop are
// discarded either way.
func WithReconcile(fn func() (apply bool, drop []string)) ExecOption {
	return func(cfg *execConfig) { cfg.reconcile = fn }
}

// Execute sends op with vars and merges the response into the cache. It
// fails with NetworkError, AuthError or ServerError.
func (c *Client) Execute(ctx context.Context, op Operation, vars Variables, opts ...ExecOption) (*Result, error) {
	var cfg execConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	spec := op.spec()

	req := Request{OperationName: spec.name, Query: spec.document, Variables: vars}
	if c.tokens != nil {
		req.Token = c.tokens.Read().Token
	}

	stamp := c.cache.Stamp()
	resp, err := c.transport.Do(ctx, req)
	if err != nil {
		err = classify(spec.field, err)
		c.logger.Printf("client: %s failed: %v", spec.field, err)
		return nil, err
	}
	if len(resp.Errors) > 0 {
		err := fromGraphQL(spec.field, resp.Errors)
		c.logger.Printf("client: %s failed: %v", spec.field, err)
		return nil, err
	}

	raw, ok := resp.Data[spec.field]
	if !ok || string(raw) == "null" {
		return nil, errs.Server(spec.field, "response has no data")
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, errs.Server(spec.field, "malformed data: "+err.Error())
	}

	ref := QueryRef{Op: op, Vars: vars}
	result := &Result{Op: op, Ref: ref, Data: value, Applied: true}
	if spec.mutation && spec.entity == "" {
		return result, nil
	}

	write := cache.Write{Type: spec.entity, Value: value, Stamp: stamp, Reconcile: cfg.reconcile}
	if !spec.mutation {
		write.Root = ref.root()
	}
	result.Applied = c.cache.Write(write)
	if !spec.mutation {
		if data, ok := c.cache.Read(ref.root()); ok {
			result.Data = data
		}
	}
	return result, nil
}

// Refetch re-executes a previously issued query.
func (c *Client) Refetch(ctx context.Context, ref QueryRef, opts ...ExecOption) (*Result, error) {
	if ref.Op.Mutation() {
		return nil, errs.Validation("refetch", ref.Op.Field()+" is not a query")
	}
	return c.Execute(ctx, ref.Op, ref.Vars, opts...)
}

// Read returns the cached result of ref with overlays applied, without a
// network call.
func (c *Client) Read(ref QueryRef) (*Result, bool) {
	data, ok := c.cache.Read(ref.root())
	if !ok {
		return nil, false
	}
	return &Result{Op: ref.Op, Ref: ref, Data: data, Applied: true}, true
}

// Cache returns the normalized cache backing c.
func (c *Client) Cache() *cache.Cache {
	return c.cache
}

func classify(op string, err error) error {
	var e *errs.Error
	if errors.As(err, &e) {
		return err
	}
	return errs.Network(op, err)
}

func fromGraphQL(op string, list []GraphQLError) error {
	msgs := make([]string, 0, len(list))
	auth := false
	for _, e := range list {
		msgs = append(msgs, e.Message)
		switch e.Code() {
		case "UNAUTHENTICATED", "FORBIDDEN":
			auth = true
		}
	}
	msg := strings.Join(msgs, "; ")
	if auth {
		return errs.Auth(op, errors.New(msg))
	}
	return errs.Server(op, msg)
}

// DecodeInto is a helper for callers that only need the typed payload.
func DecodeInto[T any](r *Result) (T, error) {
	var v T
	if r == nil {
		return v, fmt.Errorf("nil result")
	}
	err := r.Decode(&v)
	return v, err
}
