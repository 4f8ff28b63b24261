// Package classify assigns library items to a category of the fixed
// vocabulary. Classification never fails from the caller's point of view:
// every problem collapses to the catch-all category.
package classify

import (
	"context"
	"log/slog"

	"github.com/dukerupert/cesta/internal/model"
)

// Classifier picks one label out of categories for an item name.
type Classifier interface {
	Classify(ctx context.Context, itemName string, categories []string) (string, error)
}

// Result is the category chosen for an item.
type Result struct {
	Category    string
	WasFallback bool
}

// Resolve asks c for a category and validates the answer against the
// vocabulary. A nil classifier, an error, an empty answer or a label outside
// the vocabulary yield model.CategoryOther with WasFallback set. Failures are
// logged as warnings on logger, or on the default logger when it is nil.
func Resolve(ctx context.Context, c Classifier, itemName string, logger *slog.Logger) Result {
	if logger == nil {
		logger = slog.Default()
	}
	if c == nil {
		return Result{Category: model.CategoryOther, WasFallback: true}
	}

	label, err := c.Classify(ctx, itemName, model.Categories)
	if err != nil {
		logger.Warn("classification failed, using fallback category", "item", itemName, "error", err)
		return Result{Category: model.CategoryOther, WasFallback: true}
	}

	category, ok := model.LookupCategory(label)
	if !ok {
		if label != "" {
			logger.Warn("classifier returned unknown category", "item", itemName, "label", label)
		}
		return Result{Category: model.CategoryOther, WasFallback: true}
	}
	return Result{Category: category}
}
