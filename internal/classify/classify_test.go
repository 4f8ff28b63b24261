package classify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/dukerupert/cesta/internal/model"
)

type stubClassifier struct {
	label string
	err   error
	calls int
	seen  []string
}

func (s *stubClassifier) Classify(_ context.Context, _ string, categories []string) (string, error) {
	s.calls++
	s.seen = categories
	return s.label, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		label        string
		err          error
		wantCategory string
		wantFallback bool
	}{
		{"valid label", "Frutas", nil, "Frutas", false},
		{"case and spaces", "  frutas ", nil, "Frutas", false},
		{"accented label", "LATICÍNIOS", nil, "Laticínios", false},
		{"explicit other", "Outros", nil, "Outros", false},
		{"unknown label", "Eletrônicos", nil, model.CategoryOther, true},
		{"empty answer", "", nil, model.CategoryOther, true},
		{"error", "Frutas", errors.New("quota exceeded"), model.CategoryOther, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubClassifier{label: tt.label, err: tt.err}
			got := Resolve(context.Background(), stub, "Abacaxi", quietLogger())
			if got.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.WasFallback != tt.wantFallback {
				t.Errorf("was fallback = %v, want %v", got.WasFallback, tt.wantFallback)
			}
			if stub.calls != 1 {
				t.Errorf("calls = %d, want 1", stub.calls)
			}
			if len(stub.seen) != len(model.Categories) {
				t.Errorf("classifier saw %d categories, want %d", len(stub.seen), len(model.Categories))
			}
		})
	}
}

func TestResolveNilClassifier(t *testing.T) {
	got := Resolve(context.Background(), nil, "Abacaxi", nil)
	if got.Category != model.CategoryOther || !got.WasFallback {
		t.Errorf("got %+v, want fallback to %q", got, model.CategoryOther)
	}
}

func TestKeywordsExactMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"leite", "Laticínios"},
		{"Frango", "Carnes"},
		{"PÃO", "Padaria"},
		{"arroz", "Mercearia"},
		{"café", "Bebidas"},
		{"detergente", "Limpeza"},
		{"shampoo", "Higiene"},
		{"alface", "Verduras"},
		{"abacaxi", "Frutas"},
	}
	for _, tt := range tests {
		got, err := Keywords{}.Classify(context.Background(), tt.input, model.Categories)
		if err != nil {
			t.Fatalf("Classify(%q): %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestKeywordsSubstringMatch(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Peito de Frango Sassami", "Carnes"},
		{"Pão de Queijo congelado", "Padaria"},
		{"Água Sanitária 2L", "Limpeza"},
		{"Água com gás", "Bebidas"},
		{"Queijo Minas Frescal", "Laticínios"},
		{"Papel Higiênico folha dupla", "Higiene"},
		{"Sabão em pedra", "Limpeza"},
		{"Sabonete líquido", "Higiene"},
		{"Leite Condensado", "Laticínios"},
		{"Molho de tomate pronto", "Mercearia"},
	}
	for _, tt := range tests {
		got, _ := Keywords{}.Classify(context.Background(), tt.input, model.Categories)
		if got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestKeywordsMissFallsBack(t *testing.T) {
	got, err := Keywords{}.Classify(context.Background(), "Pilha AA", model.Categories)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty label", got)
	}

	res := Resolve(context.Background(), Keywords{}, "Pilha AA", quietLogger())
	if res.Category != model.CategoryOther || !res.WasFallback {
		t.Errorf("resolve = %+v, want fallback", res)
	}
}

func TestKeywordsRespectsVocabulary(t *testing.T) {
	got, _ := Keywords{}.Classify(context.Background(), "leite", []string{"Frutas", "Outros"})
	if got != "" {
		t.Errorf("got %q, want empty label outside the offered vocabulary", got)
	}
}

func TestResolveLogsOnGivenLogger(t *testing.T) {
	tests := []struct {
		name    string
		label   string
		err     error
		wantMsg string
	}{
		{"error", "", errors.New("quota exceeded"), "classification failed, using fallback category"},
		{"unknown label", "Eletrônicos", nil, "classifier returned unknown category"},
		{"valid label", "Frutas", nil, ""},
		{"empty answer", "", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := slog.New(slog.NewJSONHandler(&buf, nil)).With("component", "shopping")

			Resolve(context.Background(), &stubClassifier{label: tt.label, err: tt.err}, "Abacaxi", logger)

			if tt.wantMsg == "" {
				if buf.Len() != 0 {
					t.Errorf("unexpected log output: %s", buf.String())
				}
				return
			}
			var entry map[string]any
			if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
				t.Fatalf("decode log line %q: %v", buf.String(), err)
			}
			if entry["msg"] != tt.wantMsg || entry["level"] != "WARN" {
				t.Errorf("log = %v, want WARN %q", entry, tt.wantMsg)
			}
			if entry["component"] != "shopping" || entry["item"] != "Abacaxi" {
				t.Errorf("log attributes = %v, want component and item", entry)
			}
		})
	}
}
