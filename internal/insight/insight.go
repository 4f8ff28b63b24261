// Package insight produces the AI narratives shown for a completed purchase
// and for the whole purchase history.
package insight

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/dukerupert/cesta/internal/model"
	"github.com/shopspring/decimal"
)

// Messages shown in place of a narrative.
const (
	MsgNoListItems   = "Não há itens nesta compra para analisar."
	MsgListFailed    = "Ocorreu um erro ao tentar analisar esta compra. Por favor, tente novamente mais tarde."
	MsgNoHistory     = "Você ainda não tem dados de compras para analisar."
	MsgHistoryFailed = "Ocorreu um erro ao gerar seus insights."
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Narrator turns a prompt into free text.
type Narrator interface {
	Narrate(ctx context.Context, prompt string) (string, error)
}

// Insight is a narrative ready for display. Generated is false when Text is
// one of the fixed messages.
type Insight struct {
	Text      string  `json:"text"`
	Blocks    []Block `json:"blocks"`
	Generated bool    `json:"generated"`
}

type Generator struct {
	narrator  Narrator
	templates *template.Template
	logger    *slog.Logger
}

func NewGenerator(narrator Narrator, logger *slog.Logger) (*Generator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse insight templates: %w", err)
	}
	return &Generator{
		narrator:  narrator,
		templates: tmpl,
		logger:    logger.With("component", "insight"),
	}, nil
}

type promptItem struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Price        string `json:"price"`
	Description  string `json:"description,omitempty"`
	Location     string `json:"location,omitempty"`
	LocationType string `json:"location_type,omitempty"`
	Date         string `json:"date,omitempty"`
}

type listPrompt struct {
	ListName     string
	LocationType model.LocationType
	Date         string
	Total        string
	ItemsJSON    string
}

type historyPrompt struct {
	PurchaseCount int
	Total         string
	ItemsJSON     string
}

// ForList narrates a single completed purchase. The narrator is not called
// when the list has no purchased items.
func (g *Generator) ForList(ctx context.Context, list model.ShoppingList) Insight {
	if len(list.CompletedItems) == 0 {
		return fixed(MsgNoListItems)
	}

	items := make([]promptItem, 0, len(list.CompletedItems))
	total := decimal.Zero
	for _, ci := range list.CompletedItems {
		items = append(items, promptItem{
			Name:        ci.Name,
			Category:    ci.Category,
			Price:       ci.Price.StringFixed(2),
			Description: ci.Description,
		})
		total = total.Add(ci.Price)
	}
	data := listPrompt{
		ListName:     list.Name,
		LocationType: list.LocationType,
		Total:        total.StringFixed(2),
	}
	if list.LastPurchaseDate != nil {
		data.Date = list.LastPurchaseDate.Format("02/01/2006")
	}

	prompt, err := g.render("list.tmpl", items, func(itemsJSON string) any {
		data.ItemsJSON = itemsJSON
		return data
	})
	if err != nil {
		g.logger.Error("render list prompt", "list_id", list.ID, "error", err)
		return fixed(MsgListFailed)
	}
	return g.narrate(ctx, prompt, MsgListFailed, "list_id", list.ID)
}

// ForHistory narrates the whole purchase history.
func (g *Generator) ForHistory(ctx context.Context, purchases []model.Purchase) Insight {
	if len(purchases) == 0 {
		return fixed(MsgNoHistory)
	}

	items := make([]promptItem, 0, len(purchases))
	total := decimal.Zero
	for _, p := range purchases {
		items = append(items, promptItem{
			Name:         p.ItemName,
			Category:     p.Category,
			Price:        p.Price.StringFixed(2),
			Description:  p.Description,
			Location:     p.Location,
			LocationType: string(p.LocationType),
			Date:         p.PurchaseDate.Format("2006-01-02"),
		})
		total = total.Add(p.Price)
	}
	data := historyPrompt{
		PurchaseCount: len(purchases),
		Total:         total.StringFixed(2),
	}

	prompt, err := g.render("history.tmpl", items, func(itemsJSON string) any {
		data.ItemsJSON = itemsJSON
		return data
	})
	if err != nil {
		g.logger.Error("render history prompt", "error", err)
		return fixed(MsgHistoryFailed)
	}
	return g.narrate(ctx, prompt, MsgHistoryFailed, "purchases", len(purchases))
}

// render serializes items as indented JSON and executes the named template
// with the data built from it.
func (g *Generator) render(name string, items []promptItem, data func(itemsJSON string) any) (string, error) {
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal prompt items: %w", err)
	}

	var buf bytes.Buffer
	if err := g.templates.ExecuteTemplate(&buf, name, data(string(b))); err != nil {
		return "", fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.String(), nil
}

func (g *Generator) narrate(ctx context.Context, prompt, failure string, logArgs ...any) Insight {
	if g.narrator == nil {
		return fixed(failure)
	}
	text, err := g.narrator.Narrate(ctx, prompt)
	if err != nil {
		g.logger.Warn("narrative generation failed", append(logArgs, "error", err)...)
		return fixed(failure)
	}
	return Insight{Text: text, Blocks: Format(text), Generated: true}
}

func fixed(msg string) Insight {
	return Insight{Text: msg, Blocks: Format(msg)}
}
