package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/cesta/internal/model"
	"github.com/google/uuid"
)

// ItemStore persists the item library.
type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var it model.Item
	if err := scanner.Scan(&it.ID, &it.Name, &it.Category, &it.CreatedAt); err != nil {
		return nil, err
	}
	return &it, nil
}

const itemCols = `id, name, category, created_at`

func (s *ItemStore) List(ctx context.Context) ([]model.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemCols+` FROM items_library ORDER BY name_key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list library: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan library item: %w", err)
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

func (s *ItemStore) GetByID(ctx context.Context, id string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemCols+` FROM items_library WHERE id = ?`, id)
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get library item: %w", err)
	}
	return it, nil
}

// FindByName looks an item up by its case-folded name. A missing row is not
// an error: it returns (nil, nil).
func (s *ItemStore) FindByName(ctx context.Context, name string) (*model.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemCols+` FROM items_library WHERE name_key = ?`, model.FoldName(name))
	it, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find library item: %w", err)
	}
	return it, nil
}

// Create inserts a library item. When an item with the same folded name
// already exists the existing row is returned unchanged.
func (s *ItemStore) Create(ctx context.Context, name, category string) (*model.Item, error) {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items_library (id, name, name_key, category, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name_key) DO NOTHING`,
		uuid.NewString(), name, model.FoldName(name), category, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert library item: %w", err)
	}
	it, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if it == nil {
		return nil, fmt.Errorf("insert library item: %q not found after insert", name)
	}
	return it, nil
}
