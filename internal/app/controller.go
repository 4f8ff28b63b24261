// Package app keeps the in-memory view of lists and library items and runs
// every user command as mutate, refetch, notify.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dukerupert/cesta/internal/analytics"
	"github.com/dukerupert/cesta/internal/insight"
	"github.com/dukerupert/cesta/internal/model"
	"github.com/dukerupert/cesta/internal/push"
	"github.com/dukerupert/cesta/internal/shopping"
	"github.com/dukerupert/cesta/internal/websocket"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Broadcaster fans change notifications out to open screens.
type Broadcaster interface {
	Broadcast(msg websocket.Message)
}

// Notifier queues a push notification for subscribed devices.
type Notifier interface {
	Notify(payload push.Payload) bool
}

type Controller struct {
	mu      sync.RWMutex
	lists   []model.ShoppingList
	library []model.Item
	loaded  bool

	// started numbers each refresh; applied is the newest one swapped in.
	started uint64
	applied uint64

	shop     *shopping.Service
	insights *insight.Generator
	changes  Broadcaster
	notifier Notifier
	logger   *slog.Logger
}

// New builds a controller. changes and notifier may be nil.
func New(shop *shopping.Service, insights *insight.Generator, changes Broadcaster, notifier Notifier, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		shop:     shop,
		insights: insights,
		changes:  changes,
		notifier: notifier,
		logger:   logger.With("component", "app"),
	}
}

// Refresh reloads lists and library concurrently and replaces the cache.
// On error the previous cache is kept. A refresh that finishes after a newer
// one is discarded, so the cache never moves back to an older read.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.started++
	gen := c.started
	c.mu.Unlock()

	var (
		lists   []model.ShoppingList
		library []model.Item
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		lists, err = c.shop.Lists(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		library, err = c.shop.Library(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.applied {
		c.logger.Debug("discarding superseded refresh", "generation", gen, "applied", c.applied)
		return nil
	}
	c.lists = lists
	c.library = library
	c.loaded = true
	c.applied = gen
	return nil
}

// snapshot returns the cached state, loading it first if needed. The slices
// are shared and must not be modified.
func (c *Controller) snapshot(ctx context.Context) ([]model.ShoppingList, []model.Item, error) {
	c.mu.RLock()
	loaded := c.loaded
	lists, library := c.lists, c.library
	c.mu.RUnlock()
	if loaded {
		return lists, library, nil
	}

	if err := c.Refresh(ctx); err != nil {
		return nil, nil, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lists, c.library, nil
}

func (c *Controller) Lists(ctx context.Context) ([]model.ShoppingList, error) {
	lists, _, err := c.snapshot(ctx)
	return lists, err
}

func (c *Controller) Library(ctx context.Context) ([]model.Item, error) {
	_, library, err := c.snapshot(ctx)
	return library, err
}

// List returns a cached list or shopping.ErrListNotFound.
func (c *Controller) List(ctx context.Context, id string) (model.ShoppingList, error) {
	lists, _, err := c.snapshot(ctx)
	if err != nil {
		return model.ShoppingList{}, err
	}
	for _, l := range lists {
		if l.ID == id {
			return l, nil
		}
	}
	return model.ShoppingList{}, fmt.Errorf("%w: %s", shopping.ErrListNotFound, id)
}

// settle runs after a successful mutation: the cache is reloaded and screens
// are told what changed. A failed reload only marks the cache stale since the
// mutation itself already happened.
func (c *Controller) settle(ctx context.Context, msg websocket.Message) {
	if err := c.Refresh(ctx); err != nil {
		c.logger.Error("refresh after mutation", "type", msg.Type, "error", err)
		c.mu.Lock()
		c.loaded = false
		c.mu.Unlock()
	}
	if c.changes != nil {
		c.changes.Broadcast(msg)
	}
}

func (c *Controller) CreateList(ctx context.Context, name string, locationType model.LocationType) (*model.ShoppingList, error) {
	l, err := c.shop.CreateList(ctx, name, locationType)
	if err != nil {
		c.logger.Error("create list", "name", name, "error", err)
		return nil, err
	}
	c.settle(ctx, websocket.NewMessage(websocket.EntityList, websocket.ActionCreated, l.ID, nil))
	return l, nil
}

func (c *Controller) DeleteList(ctx context.Context, id string) error {
	if err := c.shop.DeleteList(ctx, id); err != nil {
		c.logger.Error("delete list", "list_id", id, "error", err)
		return err
	}
	c.settle(ctx, websocket.NewMessage(websocket.EntityList, websocket.ActionDeleted, id, nil))
	return nil
}

// AddItem resolves name against the cached library and links the item to
// the list.
func (c *Controller) AddItem(ctx context.Context, listID, name string) (shopping.Resolution, error) {
	_, library, err := c.snapshot(ctx)
	if err != nil {
		return shopping.Resolution{}, err
	}
	res, err := c.shop.AddItemToList(ctx, listID, name, library)
	if err != nil {
		c.logger.Error("add item", "list_id", listID, "name", name, "error", err)
		return shopping.Resolution{}, err
	}
	c.settle(ctx, websocket.NewMessage(websocket.EntityItem, websocket.ActionAdded, listID, map[string]any{
		"item_id":  res.Item.ID,
		"category": res.Item.Category,
	}))
	return res, nil
}

func (c *Controller) RemoveItem(ctx context.Context, listID, itemID string) error {
	if err := c.shop.RemoveItemFromList(ctx, listID, itemID); err != nil {
		c.logger.Error("remove item", "list_id", listID, "item_id", itemID, "error", err)
		return err
	}
	c.settle(ctx, websocket.NewMessage(websocket.EntityItem, websocket.ActionRemoved, listID, map[string]any{
		"item_id": itemID,
	}))
	return nil
}

// CompleteResult is a finished trip plus the screen to show next.
type CompleteResult struct {
	*shopping.Completion
	Next View `json:"next"`
}

// CompleteShopping finishes the trip using the cached active items as the
// shopper's view of the list.
func (c *Controller) CompleteShopping(ctx context.Context, listID string, purchases map[string]shopping.PurchaseEntry) (*CompleteResult, error) {
	var active []model.Item
	if l, err := c.List(ctx, listID); err == nil {
		active = l.Items
	}

	completion, err := c.shop.CompleteShopping(ctx, listID, active, purchases)
	if err != nil {
		c.logger.Error("complete shopping", "list_id", listID, "error", err)
		return nil, err
	}
	c.settle(ctx, websocket.NewMessage(websocket.EntityList, websocket.ActionCompleted, listID, map[string]any{
		"total": completion.Total.StringFixed(2),
	}))
	c.notifyCompleted(ctx, listID, completion.Total, len(completion.Items))
	return &CompleteResult{Completion: completion, Next: ViewLists}, nil
}

func (c *Controller) notifyCompleted(ctx context.Context, listID string, total decimal.Decimal, items int) {
	if c.notifier == nil {
		return
	}
	name := listID
	if l, err := c.List(ctx, listID); err == nil {
		name = l.Name
	}
	c.notifier.Notify(push.Payload{
		Title: "Compra finalizada",
		Body:  fmt.Sprintf("%s: %d itens, R$ %s", name, items, total.StringFixed(2)),
		URL:   "/history",
		Tag:   "list-" + listID,
	})
}

// ListInsights narrates one completed list.
func (c *Controller) ListInsights(ctx context.Context, listID string) (insight.Insight, error) {
	l, err := c.List(ctx, listID)
	if err != nil {
		return insight.Insight{}, err
	}
	if !l.IsCompleted() {
		return insight.Insight{}, fmt.Errorf("%w: %s", ErrListNotCompleted, listID)
	}
	return c.insights.ForList(ctx, l), nil
}

// DashboardInsights narrates the whole purchase history.
func (c *Controller) DashboardInsights(ctx context.Context) (insight.Insight, error) {
	lists, _, err := c.snapshot(ctx)
	if err != nil {
		return insight.Insight{}, err
	}
	return c.insights.ForHistory(ctx, analytics.Purchases(lists)), nil
}
