package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dukerupert/cesta/internal/model"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrListNotActive is returned by Complete when the list is missing or was
// already completed.
var ErrListNotActive = errors.New("list is not active")

// ListStore persists shopping lists, their active item links and the
// snapshots written when a list is completed.
type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

func scanList(scanner interface{ Scan(...any) error }) (*model.ShoppingList, error) {
	var l model.ShoppingList
	var total decimal.NullDecimal
	var purchasedAt sql.NullTime
	if err := scanner.Scan(&l.ID, &l.Name, &l.LocationType, &l.Status, &l.CreatedAt, &total, &purchasedAt); err != nil {
		return nil, err
	}
	if total.Valid {
		l.LastPurchaseTotal = &total.Decimal
	}
	if purchasedAt.Valid {
		l.LastPurchaseDate = &purchasedAt.Time
	}
	return &l, nil
}

const listCols = `id, name, location_type, status, created_at, last_purchase_total, last_purchase_date`

func scanCompletedItem(scanner interface{ Scan(...any) error }) (*model.CompletedItem, error) {
	var ci model.CompletedItem
	if err := scanner.Scan(&ci.ID, &ci.ListID, &ci.ItemID, &ci.Name, &ci.Category, &ci.Price, &ci.Description, &ci.CreatedAt); err != nil {
		return nil, err
	}
	return &ci, nil
}

const completedItemCols = `id, list_id, item_id, name, category, price, description, created_at`

// List returns every list, newest first. Active lists carry their linked
// items and completed lists carry their purchase snapshots.
func (s *ListStore) List(ctx context.Context) ([]model.ShoppingList, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+listCols+` FROM shopping_lists ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}

	lists := []model.ShoppingList{}
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan shopping list: %w", err)
		}
		lists = append(lists, *l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list shopping lists: %w", err)
	}
	rows.Close()

	for i := range lists {
		if err := s.hydrate(ctx, &lists[i]); err != nil {
			return nil, err
		}
	}
	return lists, nil
}

func (s *ListStore) GetByID(ctx context.Context, id string) (*model.ShoppingList, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listCols+` FROM shopping_lists WHERE id = ?`, id)
	l, err := scanList(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping list: %w", err)
	}
	if err := s.hydrate(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListStore) hydrate(ctx context.Context, l *model.ShoppingList) error {
	l.Items = []model.Item{}
	l.CompletedItems = []model.CompletedItem{}
	if l.IsCompleted() {
		items, err := s.ListCompletedItems(ctx, l.ID)
		if err != nil {
			return err
		}
		l.CompletedItems = items
		return nil
	}
	items, err := s.ListItems(ctx, l.ID)
	if err != nil {
		return err
	}
	l.Items = items
	return nil
}

func (s *ListStore) Create(ctx context.Context, name string, locationType model.LocationType) (*model.ShoppingList, error) {
	l := &model.ShoppingList{
		ID:             uuid.NewString(),
		Name:           name,
		LocationType:   locationType,
		Status:         model.ListStatusActive,
		CreatedAt:      time.Now().UTC(),
		Items:          []model.Item{},
		CompletedItems: []model.CompletedItem{},
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (id, name, location_type, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.ID, l.Name, l.LocationType, l.Status, l.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create list: %w", err)
	}
	return l, nil
}

// Delete removes a list together with its links and snapshots.
func (s *ListStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}

// AddItem links a library item to a list. Linking twice is a no-op.
func (s *ListStore) AddItem(ctx context.Context, listID, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO shopping_list_items (list_id, item_id) VALUES (?, ?)`,
		listID, itemID,
	)
	if err != nil {
		return fmt.Errorf("add item to list: %w", err)
	}
	return nil
}

func (s *ListStore) RemoveItem(ctx context.Context, listID, itemID string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM shopping_list_items WHERE list_id = ? AND item_id = ?`,
		listID, itemID,
	)
	if err != nil {
		return fmt.Errorf("remove item from list: %w", err)
	}
	return nil
}

// ListItems returns the library items linked to a list, grouped by category.
func (s *ListStore) ListItems(ctx context.Context, listID string) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT i.id, i.name, i.category, i.created_at
		 FROM shopping_list_items li
		 JOIN items_library i ON i.id = li.item_id
		 WHERE li.list_id = ?
		 ORDER BY i.category ASC, i.name_key ASC`, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list items of list: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *ListStore) ListCompletedItems(ctx context.Context, listID string) ([]model.CompletedItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+completedItemCols+` FROM completed_items WHERE list_id = ? ORDER BY rowid ASC`, listID,
	)
	if err != nil {
		return nil, fmt.Errorf("list completed items: %w", err)
	}
	defer rows.Close()

	items := []model.CompletedItem{}
	for rows.Next() {
		ci, err := scanCompletedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completed item: %w", err)
		}
		items = append(items, *ci)
	}
	return items, rows.Err()
}

// Complete records the purchase snapshots, clears the active links and marks
// the list completed in one transaction. It fails with ErrListNotActive when
// the list is missing or already completed, leaving everything unchanged.
func (s *ListStore) Complete(ctx context.Context, listID string, snapshots []model.CompletedItem, total decimal.Decimal, at time.Time) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("complete list: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE shopping_lists SET status = ?, last_purchase_total = ?, last_purchase_date = ?
		 WHERE id = ? AND status = ?`,
		model.ListStatusCompleted, total.String(), at.UTC(), listID, model.ListStatusActive,
	)
	if err != nil {
		return fmt.Errorf("complete list: update status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete list: rows affected: %w", err)
	}
	if n == 0 {
		return ErrListNotActive
	}

	for _, ci := range snapshots {
		id := ci.ID
		if id == "" {
			id = uuid.NewString()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO completed_items (id, list_id, item_id, name, category, price, description, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			id, listID, ci.ItemID, ci.Name, ci.Category, ci.Price.String(), ci.Description, at.UTC(),
		)
		if err != nil {
			return fmt.Errorf("complete list: insert snapshot: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM shopping_list_items WHERE list_id = ?`, listID); err != nil {
		return fmt.Errorf("complete list: clear items: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("complete list: commit: %w", err)
	}
	return nil
}
