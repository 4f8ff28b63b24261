package main

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/dukerupert/cesta/internal/analytics"
	"github.com/dukerupert/cesta/internal/database"
	"github.com/dukerupert/cesta/internal/model"
	"github.com/dukerupert/cesta/internal/store"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	moneyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func reportCmd() *cobra.Command {
	var (
		listID string
		top    int
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print spending analytics",
		Long:  `Summarize spending across every completed trip, or for a single list with --list.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			db, err := database.Open(cfg.DBPath)
			if err != nil {
				return err
			}
			defer db.Close()

			lists, err := store.NewListStore(db).List(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if listID == "" {
				summary := analytics.SummarizePurchases(analytics.Purchases(lists), top)
				renderSummary(out, "Painel de compras", summary)
				return nil
			}

			for _, l := range lists {
				if l.ID != listID {
					continue
				}
				if !l.IsCompleted() {
					return fmt.Errorf("list %s is not completed", listID)
				}
				renderSummary(out, fmt.Sprintf("%s (%s)", l.Name, l.LocationType), analytics.Summarize(l.CompletedItems, top))
				return nil
			}
			return fmt.Errorf("list %s not found", listID)
		},
	}
	cmd.Flags().StringVar(&listID, "list", "", "report a single completed list")
	cmd.Flags().IntVar(&top, "top", analytics.DashboardTopItems, "number of most expensive items to show")
	return cmd
}

func header(s string) string {
	return headerStyle.Render(s)
}

// writeTable aligns plain cells first and styles the header row afterwards,
// since tabwriter would count escape sequences as width.
func writeTable(out io.Writer, style func(string) string, columns []string, rows [][]string) {
	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(columns, "\t"))
	for _, r := range rows {
		fmt.Fprintln(w, strings.Join(r, "\t"))
	}
	w.Flush()

	head, body, _ := strings.Cut(buf.String(), "\n")
	fmt.Fprintln(out, style(head))
	fmt.Fprint(out, body)
}

func money(d decimal.Decimal) string {
	return moneyStyle.Render("R$ " + d.StringFixed(2))
}

func renderSummary(out io.Writer, title string, s analytics.Summary) {
	fmt.Fprintln(out, titleStyle.Render(title))
	if s.Count == 0 {
		fmt.Fprintln(out, mutedStyle.Render("Nenhuma compra registrada."))
		return
	}

	fmt.Fprintf(out, "Total gasto: %s   Itens: %d   Compras: %d   Categorias: %d\n\n",
		money(s.Total), s.Count, s.Trips, s.CategoryCount)

	rows := [][]string{{strings.Repeat("-", 12), strings.Repeat("-", 10), strings.Repeat("-", 5), strings.Repeat("-", 5)}}
	for _, c := range s.ByCategory {
		rows = append(rows, []string{c.Category, c.Amount.StringFixed(2), strconv.Itoa(c.Count), c.Percent.StringFixed(1)})
	}
	writeTable(out, header, []string{"Categoria", "Valor", "Itens", "%"}, rows)

	if len(s.TopItems) == 0 {
		return
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, headerStyle.Render("Itens mais caros"))
	for i, p := range s.TopItems {
		line := fmt.Sprintf("%d. %s  %s", i+1, p.ItemName, money(p.Price))
		if p.Description != "" {
			line += "  " + mutedStyle.Render(p.Description)
		}
		if p.Category != "" && p.Category != model.CategoryOther {
			line += "  " + mutedStyle.Render("["+p.Category+"]")
		}
		fmt.Fprintln(out, line)
	}
}
