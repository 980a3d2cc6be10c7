// Package resource implements the list/detail/CRUD behaviour shared by every
// API resource the client manages.
package resource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/flyeazy/flyeazy-client/internal/apperr"
	"github.com/flyeazy/flyeazy-client/internal/gateway"
	"github.com/flyeazy/flyeazy-client/internal/models"
	"github.com/flyeazy/flyeazy-client/internal/validation"
	"go.uber.org/zap"
)

// Authorizer is the part of the session a collection needs
type Authorizer interface {
	GetSessionOrFail() (*models.Session, error)
}

// Spec describes one resource's endpoints and rules
type Spec[T any] struct {
	// Name is used in operation names and log fields, e.g. "flight"
	Name string
	// ListPath is the GET endpoint for the full list
	ListPath string
	// BasePath is the prefix for item endpoints: POST BasePath, PUT BasePath/{id}
	BasePath string
	// UpdateMethod defaults to PUT
	UpdateMethod string
	// AdminOnly gates Create, Update and Delete on the admin flag
	AdminOnly bool
	// ReadAuth sends the session token on reads
	ReadAuth bool

	ID    func(*T) string
	SetID func(*T, string)

	// DecodeList overrides decoding of the list response (default: JSON array)
	DecodeList func(*gateway.Response) ([]T, error)
	// DecodeItem overrides decoding of single-record responses (default: JSON object)
	DecodeItem func(*gateway.Response) (*T, error)
}

// Collection holds the local list of one resource plus loading/error state
type Collection[T any] struct {
	spec Spec[T]
	api  gateway.Requester
	auth Authorizer
	log  *zap.Logger

	mu      sync.RWMutex
	items   []T
	loading int
	lastErr string
}

// New creates a collection for spec
func New[T any](spec Spec[T], api gateway.Requester, auth Authorizer, log *zap.Logger) *Collection[T] {
	if spec.UpdateMethod == "" {
		spec.UpdateMethod = http.MethodPut
	}
	if spec.BasePath == "" {
		spec.BasePath = spec.ListPath
	}
	return &Collection[T]{
		spec:  spec,
		api:   api,
		auth:  auth,
		log:   log.With(zap.String("resource", spec.Name)),
		items: []T{},
	}
}

// Items returns a copy of the local list
func (c *Collection[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Find returns the local entry with id
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for i := range c.items {
		if c.spec.ID(&c.items[i]) == id {
			return c.items[i], true
		}
	}
	var zero T
	return zero, false
}

// Loading reports whether an operation is in progress
func (c *Collection[T]) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading > 0
}

// Err returns the message of the last failed operation, or ""
func (c *Collection[T]) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Begin marks an operation in progress and returns the function that ends it.
// Specialised services use it for operations outside the generic shape.
func (c *Collection[T]) Begin() func() {
	c.mu.Lock()
	c.loading++
	c.lastErr = ""
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		c.loading--
		c.mu.Unlock()
	}
}

// SetErr records err as the last failure and returns it
func (c *Collection[T]) SetErr(err error) error {
	if err == nil {
		return nil
	}
	c.mu.Lock()
	c.lastErr = apperr.Message(err)
	c.mu.Unlock()
	return err
}

// Authorize validates the session and, for administrative resources, the
// admin flag. It never touches the network.
func (c *Collection[T]) Authorize(op string) (*models.Session, error) {
	sess, err := c.auth.GetSessionOrFail()
	if err != nil {
		return nil, err
	}
	if c.spec.AdminOnly && !sess.IsAdmin {
		return nil, &apperr.Error{Kind: apperr.KindAccessDenied, Op: op, Message: "Access Denied: Admins only"}
	}
	return sess, nil
}

// FetchAll replaces the local list with the server's. On failure the list is
// emptied and the error recorded.
func (c *Collection[T]) FetchAll(ctx context.Context) error {
	defer c.Begin()()

	items, err := c.fetchList(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.items = []T{}
		c.lastErr = apperr.Message(err)
		c.log.Warn("Failed to fetch list", zap.Error(err))
		return err
	}
	c.items = items
	c.log.Debug("Fetched list", zap.Int("count", len(items)))
	return nil
}

func (c *Collection[T]) fetchList(ctx context.Context) ([]T, error) {
	resp, err := c.api.Request(ctx, c.spec.ListPath, http.MethodGet, nil, c.spec.ReadAuth)
	if err != nil {
		return nil, err
	}
	if c.spec.DecodeList != nil {
		return c.spec.DecodeList(resp)
	}
	var items []T
	if err := resp.Decode(&items); err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, "list "+c.spec.Name, fmt.Errorf("unexpected response: %w", err))
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// FetchOne loads a single record. A 404 means the record no longer exists and
// yields (nil, nil).
func (c *Collection[T]) FetchOne(ctx context.Context, id string) (*T, error) {
	defer c.Begin()()

	resp, err := c.api.Request(ctx, c.itemPath(id), http.MethodGet, nil, c.spec.ReadAuth)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			c.log.Debug("Record not found", zap.String("id", id))
			return nil, nil
		}
		return nil, c.SetErr(err)
	}
	item, err := c.decodeItem(resp)
	if err != nil {
		return nil, c.SetErr(err)
	}
	return item, nil
}

// Create posts input and appends the server record to the local list.
// input is validated first when it carries validate tags. A plain-text
// success carries no record: the list is refetched and (nil, nil) returned.
func (c *Collection[T]) Create(ctx context.Context, input any) (*T, error) {
	op := "create " + c.spec.Name
	defer c.Begin()()

	if _, err := c.Authorize(op); err != nil {
		return nil, c.SetErr(err)
	}
	if err := validation.Check(op, input); err != nil {
		return nil, c.SetErr(err)
	}

	resp, err := c.api.Request(ctx, c.spec.BasePath, http.MethodPost, input, true)
	if err != nil {
		c.log.Error("Failed to create", zap.Error(err))
		return nil, c.SetErr(err)
	}
	if !resp.JSON {
		c.log.Info("Created", zap.String("response", resp.Text()))
		items, err := c.fetchList(ctx)
		if err != nil {
			c.log.Warn("Failed to refresh list after create", zap.Error(err))
			return nil, nil
		}
		c.mu.Lock()
		c.items = items
		c.mu.Unlock()
		return nil, nil
	}
	item, err := c.decodeItem(resp)
	if err != nil {
		return nil, c.SetErr(err)
	}

	c.mu.Lock()
	c.items = append(c.items, *item)
	c.mu.Unlock()
	c.log.Info("Created", zap.String("id", c.spec.ID(item)))
	return item, nil
}

// Update sends patch for id and merges the returned record into the local
// list, keeping id even if the server omits it. A plain-text success leaves
// the local list untouched and returns (nil, nil).
func (c *Collection[T]) Update(ctx context.Context, id string, patch any) (*T, error) {
	op := "update " + c.spec.Name
	defer c.Begin()()

	if _, err := c.Authorize(op); err != nil {
		return nil, c.SetErr(err)
	}

	resp, err := c.api.Request(ctx, c.itemPath(id), c.spec.UpdateMethod, patch, true)
	if err != nil {
		c.log.Error("Failed to update", zap.String("id", id), zap.Error(err))
		return nil, c.SetErr(err)
	}
	if !resp.JSON {
		c.log.Info("Updated", zap.String("id", id), zap.String("response", resp.Text()))
		return nil, nil
	}
	item, err := c.decodeItem(resp)
	if err != nil {
		return nil, c.SetErr(err)
	}
	c.spec.SetID(item, id)
	c.Upsert(*item)
	c.log.Info("Updated", zap.String("id", id))
	return item, nil
}

// Delete removes id on the server, then locally
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	op := "delete " + c.spec.Name
	defer c.Begin()()

	if strings.TrimSpace(id) == "" {
		return c.SetErr(apperr.New(apperr.KindValidation, op, "missing %s id", c.spec.Name))
	}
	if _, err := c.Authorize(op); err != nil {
		return c.SetErr(err)
	}

	if _, err := c.api.Request(ctx, c.itemPath(id), http.MethodDelete, nil, true); err != nil {
		c.log.Error("Failed to delete", zap.String("id", id), zap.Error(err))
		return c.SetErr(err)
	}

	c.Remove(id)
	c.log.Info("Deleted", zap.String("id", id))
	return nil
}

// Upsert replaces the local entry with the same id, or appends item
func (c *Collection[T]) Upsert(item T) {
	id := c.spec.ID(&item)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.spec.ID(&c.items[i]) == id {
			c.items[i] = item
			return
		}
	}
	c.items = append(c.items, item)
}

// Mutate applies fn to the local entry with id and reports whether it existed
func (c *Collection[T]) Mutate(id string, fn func(*T)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.spec.ID(&c.items[i]) == id {
			fn(&c.items[i])
			return true
		}
	}
	return false
}

// Remove drops the local entry with id
func (c *Collection[T]) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, it := range c.items {
		if c.spec.ID(&it) != id {
			kept = append(kept, it)
		}
	}
	c.items = kept
}

// Replace sets the local list
func (c *Collection[T]) Replace(items []T) {
	if items == nil {
		items = []T{}
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func (c *Collection[T]) itemPath(id string) string {
	return c.spec.BasePath + "/" + id
}

func (c *Collection[T]) decodeItem(resp *gateway.Response) (*T, error) {
	if c.spec.DecodeItem != nil {
		return c.spec.DecodeItem(resp)
	}
	item, err := gateway.Decode[T](resp)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindNetwork, c.spec.Name, fmt.Errorf("unexpected response: %w", err))
	}
	return item, nil
}

// API exposes the gateway for operations outside the generic shape
func (c *Collection[T]) API() gateway.Requester { return c.api }

// Logger returns the collection's logger
func (c *Collection[T]) Logger() *zap.Logger { return c.log }
