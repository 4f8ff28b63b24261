package app

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dukerupert/cesta/internal/analytics"
	"github.com/dukerupert/cesta/internal/model"
	"github.com/dukerupert/cesta/internal/shopping"
	"github.com/shopspring/decimal"
)

type View string

const (
	ViewLists          View = "lists"
	ViewShopping       View = "shopping"
	ViewHistory        View = "history"
	ViewPurchaseDetail View = "purchase-detail"
	ViewDashboard      View = "dashboard"
)

var (
	ErrUnknownView      = errors.New("unknown view")
	ErrListIDRequired   = errors.New("list id is required for this view")
	ErrEmptyList        = errors.New("list has no items to shop for")
	ErrListNotCompleted = errors.New("list is not completed")
)

type ScreenRequest struct {
	View   View
	ListID string
}

// CategoryGroup is a run of active items sharing a category, as the shopping
// checklist shows them.
type CategoryGroup struct {
	Category string       `json:"category"`
	Items    []model.Item `json:"items"`
}

// HistoryEntry is one completed trip on the history screen.
type HistoryEntry struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	LocationType model.LocationType `json:"location_type"`
	Total        decimal.Decimal    `json:"total"`
	CompletedAt  time.Time          `json:"completed_at"`
	ItemCount    int                `json:"item_count"`
}

// Screen is the view model of one screen. Only the fields that belong to
// View are set; a view's own collections are empty arrays, never absent.
type Screen struct {
	View       View                 `json:"view"`
	Lists      []model.ShoppingList `json:"lists"`
	Library    []model.Item         `json:"library"`
	Categories []string             `json:"categories,omitempty"`
	List       *model.ShoppingList  `json:"list,omitempty"`
	Groups     []CategoryGroup      `json:"groups"`
	History    []HistoryEntry       `json:"history"`
	Summary    *analytics.Summary   `json:"summary,omitempty"`
}

// Screen builds the view model for req from the cache.
func (c *Controller) Screen(ctx context.Context, req ScreenRequest) (*Screen, error) {
	lists, library, err := c.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	switch req.View {
	case ViewLists, "":
		if library == nil {
			library = []model.Item{}
		}
		return &Screen{
			View:       ViewLists,
			Lists:      activeLists(lists),
			Library:    library,
			Categories: model.Categories,
		}, nil

	case ViewShopping:
		l, err := findList(lists, req.ListID)
		if err != nil {
			return nil, err
		}
		if !l.IsActive() {
			return nil, fmt.Errorf("%w: %s", shopping.ErrListNotActive, l.ID)
		}
		if len(l.Items) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrEmptyList, l.ID)
		}
		return &Screen{View: ViewShopping, List: &l, Groups: groupByCategory(l.Items)}, nil

	case ViewHistory:
		return &Screen{View: ViewHistory, History: history(lists)}, nil

	case ViewPurchaseDetail:
		l, err := findList(lists, req.ListID)
		if err != nil {
			return nil, err
		}
		if !l.IsCompleted() {
			return nil, fmt.Errorf("%w: %s", ErrListNotCompleted, l.ID)
		}
		summary := analytics.Summarize(l.CompletedItems, -1)
		return &Screen{View: ViewPurchaseDetail, List: &l, Summary: &summary}, nil

	case ViewDashboard:
		summary := analytics.SummarizePurchases(analytics.Purchases(lists), analytics.DashboardTopItems)
		return &Screen{View: ViewDashboard, Summary: &summary}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownView, req.View)
}

func findList(lists []model.ShoppingList, id string) (model.ShoppingList, error) {
	if id == "" {
		return model.ShoppingList{}, ErrListIDRequired
	}
	for _, l := range lists {
		if l.ID == id {
			return l, nil
		}
	}
	return model.ShoppingList{}, fmt.Errorf("%w: %s", shopping.ErrListNotFound, id)
}

func activeLists(lists []model.ShoppingList) []model.ShoppingList {
	out := []model.ShoppingList{}
	for _, l := range lists {
		if l.IsActive() {
			out = append(out, l)
		}
	}
	return out
}

// groupByCategory keeps the incoming order, which the store already sorts
// by category then name.
func groupByCategory(items []model.Item) []CategoryGroup {
	groups := []CategoryGroup{}
	for _, it := range items {
		category := model.NormalizeCategory(it.Category)
		if n := len(groups); n > 0 && groups[n-1].Category == category {
			groups[n-1].Items = append(groups[n-1].Items, it)
			continue
		}
		groups = append(groups, CategoryGroup{Category: category, Items: []model.Item{it}})
	}
	return groups
}

// history lists completed trips, most recently completed first.
func history(lists []model.ShoppingList) []HistoryEntry {
	var completed []model.ShoppingList
	for _, l := range lists {
		if l.IsCompleted() {
			completed = append(completed, l)
		}
	}
	slices.SortStableFunc(completed, func(a, b model.ShoppingList) int {
		return cmp.Compare(completedAt(b).UnixNano(), completedAt(a).UnixNano())
	})

	entries := make([]HistoryEntry, 0, len(completed))
	for _, l := range completed {
		total := decimal.Zero
		if l.LastPurchaseTotal != nil {
			total = *l.LastPurchaseTotal
		}
		entries = append(entries, HistoryEntry{
			ID:           l.ID,
			Name:         l.Name,
			LocationType: l.LocationType,
			Total:        total,
			CompletedAt:  completedAt(l),
			ItemCount:    len(l.CompletedItems),
		})
	}
	return entries
}

func completedAt(l model.ShoppingList) time.Time {
	if l.LastPurchaseDate != nil {
		return *l.LastPurchaseDate
	}
	return l.CreatedAt
}
