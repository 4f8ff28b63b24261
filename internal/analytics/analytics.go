// Package analytics aggregates completed purchases for the dashboard and the
// purchase detail screen. Every function is pure.
package analytics

import (
	"cmp"
	"slices"

	"github.com/dukerupert/cesta/internal/model"
	"github.com/shopspring/decimal"
)

// DashboardTopItems is how many of the most expensive purchases the
// dashboard lists.
const DashboardTopItems = 5

type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
	// Percent of the overall total, rounded to one decimal place.
	Percent decimal.Decimal `json:"percent"`
}

type Summary struct {
	Total         decimal.Decimal  `json:"total"`
	Count         int              `json:"count"`
	Trips         int              `json:"trips"`
	CategoryCount int              `json:"category_count"`
	ByCategory    []CategoryTotal  `json:"by_category"`
	TopItems      []model.Purchase `json:"top_items"`
}

// Purchases flattens the completed lists into one purchase per completed
// item. Active lists contribute nothing.
func Purchases(lists []model.ShoppingList) []model.Purchase {
	purchases := []model.Purchase{}
	for _, l := range lists {
		if !l.IsCompleted() {
			continue
		}
		for _, ci := range l.CompletedItems {
			date := ci.CreatedAt
			if l.LastPurchaseDate != nil {
				date = *l.LastPurchaseDate
			}
			purchases = append(purchases, model.Purchase{
				ID:           ci.ID,
				ItemID:       ci.ItemID,
				ItemName:     ci.Name,
				Category:     ci.Category,
				Price:        ci.Price,
				Description:  ci.Description,
				Location:     l.Name,
				LocationType: l.LocationType,
				ListID:       l.ID,
				PurchaseDate: date,
			})
		}
	}
	return purchases
}

// Summarize aggregates the snapshots of a single completed list.
func Summarize(items []model.CompletedItem, topN int) Summary {
	purchases := make([]model.Purchase, 0, len(items))
	for _, ci := range items {
		purchases = append(purchases, model.Purchase{
			ID:          ci.ID,
			ItemID:      ci.ItemID,
			ItemName:    ci.Name,
			Category:    ci.Category,
			Price:       ci.Price,
			Description: ci.Description,
			ListID:      ci.ListID,
		})
	}
	return SummarizePurchases(purchases, topN)
}

// SummarizePurchases totals purchases overall and per category. Categories
// are ordered by amount descending, ties broken by name. TopItems holds the
// topN most expensive purchases; equal prices keep their input order.
func SummarizePurchases(purchases []model.Purchase, topN int) Summary {
	s := Summary{
		Total:      decimal.Zero,
		Count:      len(purchases),
		ByCategory: []CategoryTotal{},
		TopItems:   []model.Purchase{},
	}

	byCategory := make(map[string]*CategoryTotal)
	trips := make(map[string]struct{})
	for _, p := range purchases {
		s.Total = s.Total.Add(p.Price)
		if p.ListID != "" {
			trips[p.ListID] = struct{}{}
		}

		category := model.NormalizeCategory(p.Category)
		ct, ok := byCategory[category]
		if !ok {
			ct = &CategoryTotal{Category: category, Amount: decimal.Zero}
			byCategory[category] = ct
		}
		ct.Amount = ct.Amount.Add(p.Price)
		ct.Count++
	}
	s.Trips = len(trips)
	s.CategoryCount = len(byCategory)

	for _, ct := range byCategory {
		if s.Total.IsPositive() {
			ct.Percent = ct.Amount.Div(s.Total).Mul(decimal.NewFromInt(100)).Round(1)
		}
		s.ByCategory = append(s.ByCategory, *ct)
	}
	slices.SortFunc(s.ByCategory, func(a, b CategoryTotal) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Category, b.Category)
	})

	top := slices.Clone(purchases)
	slices.SortStableFunc(top, func(a, b model.Purchase) int {
		return b.Price.Cmp(a.Price)
	})
	if topN >= 0 && len(top) > topN {
		top = top[:topN]
	}
	if top != nil {
		s.TopItems = top
	}
	return s
}
