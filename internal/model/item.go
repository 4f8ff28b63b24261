package model

import (
	"strings"
	"time"
)

// Item is an entry of the item library. Items are created once and never edited.
type Item struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// FindItemByName returns the library item whose name matches name case-insensitively.
func FindItemByName(library []Item, name string) (Item, bool) {
	key := FoldName(name)
	if key == "" {
		return Item{}, false
	}
	for _, it := range library {
		if FoldName(it.Name) == key {
			return it, true
		}
	}
	return Item{}, false
}

func trimSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
