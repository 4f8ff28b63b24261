// Package shopping holds the list and item operations of the household
// shopping flow: building lists, deduplicating library items and turning an
// active list into a completed purchase.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dukerupert/cesta/internal/classify"
	"github.com/dukerupert/cesta/internal/model"
	"github.com/dukerupert/cesta/internal/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemRepository is the item library storage.
type ItemRepository interface {
	List(ctx context.Context) ([]model.Item, error)
	FindByName(ctx context.Context, name string) (*model.Item, error)
	Create(ctx context.Context, name, category string) (*model.Item, error)
}

// ListRepository is the shopping list storage.
type ListRepository interface {
	List(ctx context.Context) ([]model.ShoppingList, error)
	GetByID(ctx context.Context, id string) (*model.ShoppingList, error)
	Create(ctx context.Context, name string, locationType model.LocationType) (*model.ShoppingList, error)
	Delete(ctx context.Context, id string) error
	AddItem(ctx context.Context, listID, itemID string) error
	RemoveItem(ctx context.Context, listID, itemID string) error
	Complete(ctx context.Context, listID string, snapshots []model.CompletedItem, total decimal.Decimal, at time.Time) error
}

type Service struct {
	items      ItemRepository
	lists      ListRepository
	classifier classify.Classifier
	now        func() time.Time
	logger     *slog.Logger
}

type Option func(*Service)

// WithClock replaces time.Now as the source of completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(items ItemRepository, lists ListRepository, classifier classify.Classifier, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		items:      items,
		lists:      lists,
		classifier: classifier,
		now:        time.Now,
		logger:     logger.With("component", "shopping"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Library(ctx context.Context) ([]model.Item, error) {
	return s.items.List(ctx)
}

func (s *Service) Lists(ctx context.Context) ([]model.ShoppingList, error) {
	return s.lists.List(ctx)
}

// List returns one list or ErrListNotFound.
func (s *Service) List(ctx context.Context, id string) (*model.ShoppingList, error) {
	l, err := s.lists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("%w: %s", ErrListNotFound, id)
	}
	return l, nil
}

func (s *Service) CreateList(ctx context.Context, name string, locationType model.LocationType) (*model.ShoppingList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !locationType.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, locationType)
	}
	l, err := s.lists.Create(ctx, name, locationType)
	if err != nil {
		return nil, err
	}
	s.logger.Info("list created", "list_id", l.ID, "name", l.Name, "location_type", l.LocationType)
	return l, nil
}

// DeleteList removes a list in any state along with its items and snapshots.
func (s *Service) DeleteList(ctx context.Context, id string) error {
	if _, err := s.List(ctx, id); err != nil {
		return err
	}
	if err := s.lists.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("list deleted", "list_id", id)
	return nil
}

// Resolution is the outcome of FindOrCreateItem.
type Resolution struct {
	Item        model.Item `json:"item"`
	Created     bool       `json:"created"`
	WasFallback bool       `json:"was_fallback"`
}

// FindOrCreateItem returns the library item named name, comparing names
// case-insensitively. The library snapshot is consulted first, then the
// store. Only a genuinely new name is classified and created.
func (s *Service) FindOrCreateItem(ctx context.Context, name string, library []model.Item) (Resolution, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return Resolution{}, ErrEmptyName
	}

	if it, ok := model.FindItemByName(library, name); ok {
		return Resolution{Item: it}, nil
	}

	existing, err := s.items.FindByName(ctx, name)
	if err != nil {
		return Resolution{}, err
	}
	if existing != nil {
		return Resolution{Item: *existing}, nil
	}

	res := classify.Resolve(ctx, s.classifier, name, s.logger)
	created, err := s.items.Create(ctx, name, res.Category)
	if err != nil {
		return Resolution{}, err
	}
	s.logger.Info("library item created", "item_id", created.ID, "name", created.Name, "category", created.Category, "fallback", res.WasFallback)
	return Resolution{Item: *created, Created: true, WasFallback: res.WasFallback}, nil
}

// AddItemToList resolves name against the library and links the item to an
// active list. Adding an item that is already on the list is a no-op.
func (s *Service) AddItemToList(ctx context.Context, listID, name string, library []model.Item) (Resolution, error) {
	if strings.TrimSpace(name) == "" {
		return Resolution{}, ErrEmptyName
	}
	l, err := s.activeList(ctx, listID)
	if err != nil {
		return Resolution{}, err
	}

	res, err := s.FindOrCreateItem(ctx, name, library)
	if err != nil {
		return Resolution{}, err
	}
	if err := s.lists.AddItem(ctx, l.ID, res.Item.ID); err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func (s *Service) RemoveItemFromList(ctx context.Context, listID, itemID string) error {
	l, err := s.activeList(ctx, listID)
	if err != nil {
		return err
	}
	return s.lists.RemoveItem(ctx, l.ID, itemID)
}

func (s *Service) activeList(ctx context.Context, listID string) (*model.ShoppingList, error) {
	l, err := s.List(ctx, listID)
	if err != nil {
		return nil, err
	}
	if !l.IsActive() {
		return nil, fmt.Errorf("%w: %s", ErrListNotActive, listID)
	}
	return l, nil
}

// Completion describes a finished shopping trip.
type Completion struct {
	ListID      string                `json:"list_id"`
	Total       decimal.Decimal       `json:"total"`
	CompletedAt time.Time             `json:"completed_at"`
	Items       []model.CompletedItem `json:"items"`
}

// CompleteShopping turns the purchased subset of an active list into
// snapshots and marks the list completed. active is the item set shown to
// the shopper; when nil the list's stored items are used. Items that were
// not purchased are dropped.
func (s *Service) CompleteShopping(ctx context.Context, listID string, active []model.Item, purchases map[string]PurchaseEntry) (*Completion, error) {
	if len(purchases) == 0 {
		return nil, ErrNothingPurchased
	}
	for id, p := range purchases {
		if !p.Price.IsPositive() {
			return nil, fmt.Errorf("%w: item %s", ErrInvalidPrice, id)
		}
	}

	l, err := s.activeList(ctx, listID)
	if err != nil {
		return nil, err
	}
	if active == nil {
		active = l.Items
	}

	byID := make(map[string]model.Item, len(active))
	for _, it := range active {
		byID[it.ID] = it
	}

	ids := make([]string, 0, len(purchases))
	for id := range purchases {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotOnList, id)
		}
		ids = append(ids, id)
	}
	// snapshot order follows the shopping screen: category, then name
	sort.Slice(ids, func(i, j int) bool {
		a, b := byID[ids[i]], byID[ids[j]]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		return model.FoldName(a.Name) < model.FoldName(b.Name)
	})

	at := s.now().UTC()
	snapshots := make([]model.CompletedItem, 0, len(ids))
	for _, id := range ids {
		it := byID[id]
		p := purchases[id]
		snapshots = append(snapshots, model.CompletedItem{
			ID:          uuid.NewString(),
			ListID:      listID,
			ItemID:      it.ID,
			Name:        it.Name,
			Category:    it.Category,
			Price:       p.Price,
			Description: strings.TrimSpace(p.Description),
			CreatedAt:   at,
		})
	}
	total := Tally(purchases)

	if err := s.lists.Complete(ctx, listID, snapshots, total, at); err != nil {
		if errors.Is(err, store.ErrListNotActive) {
			return nil, fmt.Errorf("%w: %s", ErrListNotActive, listID)
		}
		return nil, err
	}
	s.logger.Info("shopping completed", "list_id", listID, "items", len(snapshots), "total", total.StringFixed(2))
	return &Completion{ListID: listID, Total: total, CompletedAt: at, Items: snapshots}, nil
}
