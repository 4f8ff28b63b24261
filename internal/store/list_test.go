package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/cesta/internal/model"
	"github.com/shopspring/decimal"
)

func setupListTest(t *testing.T) (*ListStore, *ItemStore) {
	t.Helper()
	db := openTestDB(t)
	return NewListStore(db), NewItemStore(db)
}

func TestListCreateAndGet(t *testing.T) {
	ls, _ := setupListTest(t)
	ctx := context.Background()

	l, err := ls.Create(ctx, "Compras da semana", model.LocationMarket)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if l.Status != model.ListStatusActive {
		t.Errorf("status = %q, want active", l.Status)
	}

	got, err := ls.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected list, got nil")
	}
	if got.Name != "Compras da semana" || got.LocationType != model.LocationMarket {
		t.Errorf("got %+v", got)
	}
	if got.LastPurchaseTotal != nil || got.LastPurchaseDate != nil {
		t.Error("active list should have no purchase total or date")
	}
	if got.Items == nil || len(got.Items) != 0 {
		t.Errorf("items = %v, want empty slice", got.Items)
	}
}

func TestListGetMissing(t *testing.T) {
	ls, _ := setupListTest(t)

	got, err := ls.GetByID(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil, got %+v", got)
	}
}

func TestListRejectsUnknownLocation(t *testing.T) {
	ls, _ := setupListTest(t)

	if _, err := ls.Create(context.Background(), "x", model.LocationType("Shopping")); err == nil {
		t.Error("expected check constraint error")
	}
}

func TestListNewestFirst(t *testing.T) {
	ls, _ := setupListTest(t)
	ctx := context.Background()

	ls.Create(ctx, "primeira", model.LocationMarket)
	time.Sleep(10 * time.Millisecond)
	ls.Create(ctx, "segunda", model.LocationFair)

	lists, err := ls.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(lists) != 2 {
		t.Fatalf("len = %d, want 2", len(lists))
	}
	if lists[0].Name != "segunda" {
		t.Errorf("first = %q, want segunda", lists[0].Name)
	}
}

func TestListAddItemIdempotent(t *testing.T) {
	ls, _ := setupListTest(t)
	ctx := context.Background()

	l, _ := ls.Create(ctx, "feira", model.LocationFair)
	for i := 0; i < 2; i++ {
		if err := ls.AddItem(ctx, l.ID, "item-1"); err != nil {
			t.Fatalf("add item: %v", err)
		}
	}
	ls.AddItem(ctx, l.ID, "item-21")

	items, err := ls.ListItems(ctx, l.ID)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	// grouped by category: Frutas before Limpeza
	if items[0].ID != "item-1" || items[1].ID != "item-21" {
		t.Errorf("items = %+v", items)
	}

	if err := ls.RemoveItem(ctx, l.ID, "item-1"); err != nil {
		t.Fatalf("remove item: %v", err)
	}
	got, _ := ls.GetByID(ctx, l.ID)
	if len(got.Items) != 1 || got.Items[0].ID != "item-21" {
		t.Errorf("items after remove = %+v", got.Items)
	}
}

func TestListAddUnknownItemFails(t *testing.T) {
	ls, _ := setupListTest(t)
	ctx := context.Background()

	l, _ := ls.Create(ctx, "feira", model.LocationFair)
	if err := ls.AddItem(ctx, l.ID, "missing"); err == nil {
		t.Error("expected foreign key error")
	}
}

func TestListComplete(t *testing.T) {
	ls, _ := setupListTest(t)
	ctx := context.Background()

	l, _ := ls.Create(ctx, "mercado", model.LocationMarket)
	ls.AddItem(ctx, l.ID, "item-1")
	ls.AddItem(ctx, l.ID, "item-2")
	ls.AddItem(ctx, l.ID, "item-21")

	at := time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC)
	snapshots := []model.CompletedItem{
		{ItemID: "item-1", Name: "Maçã Gala", Category: "Frutas", Price: decimal.RequireFromString("3.00")},
		{ItemID: "item-21", Name: "Sabão em Pó", Category: "Limpeza", Price: decimal.RequireFromString("10.00"), Description: "marca X"},
	}
	total := decimal.RequireFromString("13.00")
	if err := ls.Complete(ctx, l.ID, snapshots, total, at); err != nil {
		t.Fatalf("complete: %v", err)
	}

	got, err := ls.GetByID(ctx, l.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.ListStatusCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
	if got.LastPurchaseTotal == nil || !got.LastPurchaseTotal.Equal(total) {
		t.Errorf("total = %v, want %v", got.LastPurchaseTotal, total)
	}
	if got.LastPurchaseDate == nil || !got.LastPurchaseDate.Equal(at) {
		t.Errorf("date = %v, want %v", got.LastPurchaseDate, at)
	}
	if len(got.Items) != 0 {
		t.Errorf("active items = %d, want 0", len(got.Items))
	}
	if len(got.CompletedItems) != 2 {
		t.Fatalf("completed items = %d, want 2", len(got.CompletedItems))
	}
	first := got.CompletedItems[0]
	if first.Name != "Maçã Gala" || !first.Price.Equal(decimal.RequireFromString("3")) {
		t.Errorf("first snapshot = %+v", first)
	}
	if got.CompletedItems[1].Description != "marca X" {
		t.Errorf("description = %q, want %q", got.CompletedItems[1].Description, "marca X")
	}

	links, _ := ls.ListItems(ctx, l.ID)
	if len(links) != 0 {
		t.Errorf("links after complete = %d, want 0", len(links))
	}
}

func TestListCompleteTwiceFails(t *testing.T) {
	ls, _ := setupListTest(t)
	ctx := context.Background()

	l, _ := ls.Create(ctx, "mercado", model.LocationMarket)
	ls.AddItem(ctx, l.ID, "item-1")
	snaps := []model.CompletedItem{{ItemID: "item-1", Name: "Maçã Gala", Category: "Frutas", Price: decimal.NewFromInt(3)}}

	if err := ls.Complete(ctx, l.ID, snaps, decimal.NewFromInt(3), time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}
	err := ls.Complete(ctx, l.ID, snaps, decimal.NewFromInt(3), time.Now())
	if !errors.Is(err, ErrListNotActive) {
		t.Fatalf("err = %v, want ErrListNotActive", err)
	}

	items, _ := ls.ListCompletedItems(ctx, l.ID)
	if len(items) != 1 {
		t.Errorf("snapshots = %d, want 1", len(items))
	}
}

func TestListSnapshotsSurviveLibraryDelete(t *testing.T) {
	ls, is := setupListTest(t)
	ctx := context.Background()

	it, _ := is.Create(ctx, "Abacaxi", "Frutas")
	l, _ := ls.Create(ctx, "feira", model.LocationFair)
	ls.AddItem(ctx, l.ID, it.ID)
	snaps := []model.CompletedItem{{ItemID: it.ID, Name: it.Name, Category: it.Category, Price: decimal.NewFromInt(7)}}
	if err := ls.Complete(ctx, l.ID, snaps, decimal.NewFromInt(7), time.Now()); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := ls.db.ExecContext(ctx, `DELETE FROM items_library WHERE id = ?`, it.ID); err != nil {
		t.Fatalf("delete library item: %v", err)
	}

	items, err := ls.ListCompletedItems(ctx, l.ID)
	if err != nil {
		t.Fatalf("list completed: %v", err)
	}
	if len(items) != 1 || items[0].Name != "Abacaxi" {
		t.Errorf("snapshots = %+v", items)
	}
}

func TestListDeleteCascades(t *testing.T) {
	ls, _ := setupListTest(t)
	ctx := context.Background()

	l, _ := ls.Create(ctx, "mercado", model.LocationMarket)
	ls.AddItem(ctx, l.ID, "item-1")

	if err := ls.Delete(ctx, l.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := ls.GetByID(ctx, l.ID)
	if got != nil {
		t.Error("expected list to be gone")
	}
	var n int
	ls.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shopping_list_items WHERE list_id = ?`, l.ID).Scan(&n)
	if n != 0 {
		t.Errorf("links = %d, want 0", n)
	}
}
