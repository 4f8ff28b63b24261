package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/cesta/internal/app"
	"github.com/dukerupert/cesta/internal/middleware"
	"github.com/dukerupert/cesta/internal/model"
	"github.com/dukerupert/cesta/internal/shopping"
	"github.com/shopspring/decimal"
)

type ShoppingHandler struct {
	ctrl   *app.Controller
	logger *slog.Logger
}

func NewShoppingHandler(ctrl *app.Controller, logger *slog.Logger) *ShoppingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ShoppingHandler{ctrl: ctrl, logger: logger}
}

func (h *ShoppingHandler) log(r *http.Request) *slog.Logger {
	return middleware.Logger(r.Context(), h.logger)
}

// Categories handles GET /api/categories
func (h *ShoppingHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.Categories)
}

// Items handles GET /api/items
func (h *ShoppingHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.ctrl.Library(r.Context())
	if err != nil {
		h.log(r).Error("list items", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	writeJSON(w, http.StatusOK, items)
}

// ListLists handles GET /api/lists, optionally filtered by ?status=.
func (h *ShoppingHandler) ListLists(w http.ResponseWriter, r *http.Request) {
	status := model.ListStatus(r.URL.Query().Get("status"))
	if status != "" && status != model.ListStatusActive && status != model.ListStatusCompleted {
		writeError(w, http.StatusBadRequest, "status must be active or completed")
		return
	}

	lists, err := h.ctrl.Lists(r.Context())
	if err != nil {
		h.log(r).Error("list shopping lists", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list shopping lists")
		return
	}

	out := []model.ShoppingList{}
	for _, l := range lists {
		if status == "" || l.Status == status {
			out = append(out, l)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type createListRequest struct {
	Name         string             `json:"name"`
	LocationType model.LocationType `json:"location_type"`
}

// CreateList handles POST /api/lists
func (h *ShoppingHandler) CreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.LocationType == "" {
		req.LocationType = model.LocationMarket
	}

	l, err := h.ctrl.CreateList(r.Context(), req.Name, req.LocationType)
	if err != nil {
		writeDomainError(w, err, "failed to create list")
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// GetList handles GET /api/lists/{id}
func (h *ShoppingHandler) GetList(w http.ResponseWriter, r *http.Request) {
	l, err := h.ctrl.List(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, "failed to get list")
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// DeleteList handles DELETE /api/lists/{id}
func (h *ShoppingHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.DeleteList(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err, "failed to delete list")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addItemRequest struct {
	Name string `json:"name"`
}

// AddItem handles POST /api/lists/{id}/items
func (h *ShoppingHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	res, err := h.ctrl.AddItem(r.Context(), r.PathValue("id"), req.Name)
	if err != nil {
		writeDomainError(w, err, "failed to add item")
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

// RemoveItem handles DELETE /api/lists/{id}/items/{item_id}
func (h *ShoppingHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	if err := h.ctrl.RemoveItem(r.Context(), r.PathValue("id"), r.PathValue("item_id")); err != nil {
		writeDomainError(w, err, "failed to remove item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// priceText accepts a price typed as either a JSON string ("12,50") or a
// number (12.5, 1e2) and keeps its text for ParsePrice. Numbers are
// rewritten in plain decimal notation first.
type priceText string

func (p *priceText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = priceText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("price must be a string or number")
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("price must be a string or number")
	}
	*p = priceText(d.String())
	return nil
}

type purchaseRequest struct {
	Price       priceText `json:"price"`
	Description string    `json:"description"`
}

type completeRequest struct {
	Items map[string]purchaseRequest `json:"items"`
}

// Complete handles POST /api/lists/{id}/complete
func (h *ShoppingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	purchases := make(map[string]shopping.PurchaseEntry, len(req.Items))
	for id, item := range req.Items {
		price, err := shopping.ParsePrice(string(item.Price))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("item %s: %v", id, err))
			return
		}
		purchases[id] = shopping.PurchaseEntry{Price: price, Description: strings.TrimSpace(item.Description)}
	}

	res, err := h.ctrl.CompleteShopping(r.Context(), r.PathValue("id"), purchases)
	if err != nil {
		writeDomainError(w, err, "failed to complete shopping")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// ListInsights handles POST /api/lists/{id}/insights
func (h *ShoppingHandler) ListInsights(w http.ResponseWriter, r *http.Request) {
	in, err := h.ctrl.ListInsights(r.Context(), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err, "failed to generate insights")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// Dashboard handles GET /api/dashboard
func (h *ShoppingHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.Screen(r.Context(), app.ScreenRequest{View: app.ViewDashboard})
	if err != nil {
		h.log(r).Error("dashboard", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build dashboard")
		return
	}
	writeJSON(w, http.StatusOK, s.Summary)
}

// DashboardInsights handles POST /api/dashboard/insights
func (h *ShoppingHandler) DashboardInsights(w http.ResponseWriter, r *http.Request) {
	in, err := h.ctrl.DashboardInsights(r.Context())
	if err != nil {
		h.log(r).Error("dashboard insights", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate insights")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// Screen handles GET /api/screens/{view}
func (h *ShoppingHandler) Screen(w http.ResponseWriter, r *http.Request) {
	s, err := h.ctrl.Screen(r.Context(), app.ScreenRequest{
		View:   app.View(r.PathValue("view")),
		ListID: r.URL.Query().Get("list_id"),
	})
	if err != nil {
		writeDomainError(w, err, "failed to build screen")
		return
	}
	writeJSON(w, http.StatusOK, s)
}
