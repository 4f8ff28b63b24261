package shopping

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var priceInput = regexp.MustCompile(`^[0-9]*[.,]?[0-9]*$`)

// ParsePrice reads a price typed at the store shelf. Either "," or "." is
// accepted as the decimal separator. Empty, malformed and non-positive
// values fail with ErrInvalidPrice.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	if s == "" || !priceInput.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	s = strings.Replace(s, ",", ".", 1)
	s = strings.TrimSuffix(s, ".")
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	if s == "" || s == "0" {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, raw)
	}
	return price, nil
}

// PurchaseEntry is what the shopper recorded for one item in shopping mode.
type PurchaseEntry struct {
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// Tally is the exact sum of the recorded prices.
func Tally(purchases map[string]PurchaseEntry) decimal.Decimal {
	total := decimal.Zero
	for _, p := range purchases {
		total = total.Add(p.Price)
	}
	return total
}
