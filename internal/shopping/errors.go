package shopping

import "errors"

// Validation and lifecycle errors returned by Service.
var (
	ErrEmptyName        = errors.New("name is required")
	ErrInvalidLocation  = errors.New("location type must be Mercado or Feira")
	ErrListNotFound     = errors.New("list not found")
	ErrListNotActive    = errors.New("list is not active")
	ErrNothingPurchased = errors.New("no items were purchased")
	ErrItemNotOnList    = errors.New("item is not on the list")
	ErrInvalidPrice     = errors.New("price must be a positive number")
)
