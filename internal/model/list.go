package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type LocationType string

const (
	LocationMarket LocationType = "Mercado"
	LocationFair   LocationType = "Feira"
)

// Valid reports whether l is one of the known location kinds.
func (l LocationType) Valid() bool {
	return l == LocationMarket || l == LocationFair
}

type ListStatus string

const (
	ListStatusActive    ListStatus = "active"
	ListStatusCompleted ListStatus = "completed"
)

// ShoppingList is a list in either lifecycle state. Items is populated only
// while the list is active; CompletedItems only once it is completed.
type ShoppingList struct {
	ID                string           `json:"id"`
	Name              string           `json:"name"`
	LocationType      LocationType     `json:"location_type"`
	Status            ListStatus       `json:"status"`
	CreatedAt         time.Time        `json:"created_at"`
	LastPurchaseTotal *decimal.Decimal `json:"last_purchase_total,omitempty"`
	LastPurchaseDate  *time.Time       `json:"last_purchase_date,omitempty"`
	Items             []Item           `json:"items"`
	CompletedItems    []CompletedItem  `json:"completed_items"`
}

func (l ShoppingList) IsActive() bool    { return l.Status == ListStatusActive }
func (l ShoppingList) IsCompleted() bool { return l.Status == ListStatusCompleted }

// HasItem reports whether itemID is currently linked to the list.
func (l ShoppingList) HasItem(itemID string) bool {
	for _, it := range l.Items {
		if it.ID == itemID {
			return true
		}
	}
	return false
}

// CompletedItem is a point-in-time snapshot of a purchased item. Name and
// category are copied from the library item when the list is completed.
type CompletedItem struct {
	ID          string          `json:"id"`
	ListID      string          `json:"list_id"`
	ItemID      string          `json:"item_id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
}
