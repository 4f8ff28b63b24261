package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is a completed item flattened together with the list it was bought on.
// It is derived for reporting and never stored.
type Purchase struct {
	ID           string          `json:"id"`
	ItemID       string          `json:"item_id"`
	ItemName     string          `json:"item_name"`
	Category     string          `json:"category"`
	Price        decimal.Decimal `json:"price"`
	Description  string          `json:"description,omitempty"`
	Location     string          `json:"location"`
	LocationType LocationType    `json:"location_type"`
	ListID       string          `json:"list_id"`
	PurchaseDate time.Time       `json:"purchase_date"`
}
