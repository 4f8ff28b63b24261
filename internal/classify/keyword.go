package classify

import (
	"context"
	"slices"
	"strings"

	"github.com/dukerupert/cesta/internal/model"
)

// Keywords is an offline classifier backed by a table of common Brazilian
// grocery names. It matches the whole name first, then known phrases
// contained in it. A miss returns an empty label, which Resolve turns into
// the fallback category.
type Keywords struct{}

func (Keywords) Classify(_ context.Context, itemName string, categories []string) (string, error) {
	name := model.FoldName(itemName)
	if name == "" {
		return "", nil
	}

	if cat, ok := exactMatch[name]; ok && slices.Contains(categories, cat) {
		return cat, nil
	}

	for _, entry := range substringMatches {
		if strings.Contains(name, entry.keyword) && slices.Contains(categories, entry.category) {
			return entry.category, nil
		}
	}
	return "", nil
}

var exactMatch = map[string]string{
	// Frutas
	"maçã":     "Frutas",
	"banana":   "Frutas",
	"laranja":  "Frutas",
	"limão":    "Frutas",
	"mamão":    "Frutas",
	"uva":      "Frutas",
	"abacaxi":  "Frutas",
	"manga":    "Frutas",
	"melancia": "Frutas",
	"melão":    "Frutas",
	"morango":  "Frutas",
	"abacate":  "Frutas",
	"pera":     "Frutas",
	"pêra":     "Frutas",
	"goiaba":   "Frutas",
	"kiwi":     "Frutas",
	"maracujá": "Frutas",

	// Verduras
	"alface":       "Verduras",
	"tomate":       "Verduras",
	"cebola":       "Verduras",
	"alho":         "Verduras",
	"batata":       "Verduras",
	"cenoura":      "Verduras",
	"brócolis":     "Verduras",
	"couve":        "Verduras",
	"espinafre":    "Verduras",
	"pepino":       "Verduras",
	"pimentão":     "Verduras",
	"abobrinha":    "Verduras",
	"chuchu":       "Verduras",
	"rúcula":       "Verduras",
	"repolho":      "Verduras",
	"mandioca":     "Verduras",
	"cheiro-verde": "Verduras",
	"coentro":      "Verduras",

	// Laticínios
	"leite":          "Laticínios",
	"queijo":         "Laticínios",
	"iogurte":        "Laticínios",
	"manteiga":       "Laticínios",
	"requeijão":      "Laticínios",
	"creme de leite": "Laticínios",
	"nata":           "Laticínios",

	// Carnes
	"frango":   "Carnes",
	"carne":    "Carnes",
	"picanha":  "Carnes",
	"linguiça": "Carnes",
	"bacon":    "Carnes",
	"presunto": "Carnes",
	"peixe":    "Carnes",
	"salmão":   "Carnes",
	"tilápia":  "Carnes",
	"camarão":  "Carnes",
	"costela":  "Carnes",
	"patinho":  "Carnes",
	"alcatra":  "Carnes",

	// Padaria
	"pão":         "Padaria",
	"pães":        "Padaria",
	"baguete":     "Padaria",
	"bisnaguinha": "Padaria",
	"bolo":        "Padaria",
	"croissant":   "Padaria",
	"sonho":       "Padaria",

	// Bebidas
	"água":         "Bebidas",
	"suco":         "Bebidas",
	"refrigerante": "Bebidas",
	"cerveja":      "Bebidas",
	"vinho":        "Bebidas",
	"café":         "Bebidas",
	"chá":          "Bebidas",

	// Mercearia
	"arroz":           "Mercearia",
	"feijão":          "Mercearia",
	"açúcar":          "Mercearia",
	"sal":             "Mercearia",
	"farinha":         "Mercearia",
	"macarrão":        "Mercearia",
	"óleo":            "Mercearia",
	"azeite":          "Mercearia",
	"ovos":            "Mercearia",
	"ovo":             "Mercearia",
	"biscoito":        "Mercearia",
	"bolacha":         "Mercearia",
	"fubá":            "Mercearia",
	"aveia":           "Mercearia",
	"molho de tomate": "Mercearia",

	// Limpeza
	"detergente":     "Limpeza",
	"sabão em pó":    "Limpeza",
	"amaciante":      "Limpeza",
	"desinfetante":   "Limpeza",
	"esponja":        "Limpeza",
	"água sanitária": "Limpeza",
	"alvejante":      "Limpeza",
	"papel toalha":   "Limpeza",
	"saco de lixo":   "Limpeza",

	// Higiene
	"sabonete":        "Higiene",
	"shampoo":         "Higiene",
	"xampu":           "Higiene",
	"condicionador":   "Higiene",
	"pasta de dente":  "Higiene",
	"creme dental":    "Higiene",
	"escova de dente": "Higiene",
	"papel higiênico": "Higiene",
	"desodorante":     "Higiene",
	"fio dental":      "Higiene",
	"absorvente":      "Higiene",
}

type substringEntry struct {
	keyword  string
	category string
}

// substringMatches is scanned in order: longer, more specific phrases come
// before the single words they contain.
var substringMatches = []substringEntry{
	// phrases that would otherwise hit a shorter keyword of another category
	{"água sanitária", "Limpeza"},
	{"água de coco", "Bebidas"},
	{"pão de queijo", "Padaria"},
	{"creme de leite", "Laticínios"},
	{"leite condensado", "Laticínios"},
	{"molho de tomate", "Mercearia"},
	{"extrato de tomate", "Mercearia"},
	{"papel higiênico", "Higiene"},
	{"papel toalha", "Limpeza"},
	{"pasta de dente", "Higiene"},
	{"creme dental", "Higiene"},
	{"sabão", "Limpeza"},
	{"sabonete", "Higiene"},

	// Carnes
	{"peito de frango", "Carnes"},
	{"carne moída", "Carnes"},
	{"frango", "Carnes"},
	{"carne", "Carnes"},
	{"linguiça", "Carnes"},
	{"peixe", "Carnes"},
	{"filé", "Carnes"},

	// Laticínios
	{"leite", "Laticínios"},
	{"queijo", "Laticínios"},
	{"iogurte", "Laticínios"},
	{"manteiga", "Laticínios"},
	{"requeijão", "Laticínios"},

	// Padaria
	{"pão", "Padaria"},
	{"bolo", "Padaria"},
	{"torrada", "Padaria"},

	// Bebidas
	{"suco", "Bebidas"},
	{"refrigerante", "Bebidas"},
	{"cerveja", "Bebidas"},
	{"vinho", "Bebidas"},
	{"café", "Bebidas"},
	{"água", "Bebidas"},

	// Frutas
	{"maçã", "Frutas"},
	{"banana", "Frutas"},
	{"laranja", "Frutas"},
	{"mamão", "Frutas"},
	{"uva", "Frutas"},
	{"morango", "Frutas"},
	{"limão", "Frutas"},

	// Verduras
	{"alface", "Verduras"},
	{"tomate", "Verduras"},
	{"cebola", "Verduras"},
	{"batata", "Verduras"},
	{"cenoura", "Verduras"},
	{"brócolis", "Verduras"},
	{"couve", "Verduras"},

	// Mercearia
	{"arroz", "Mercearia"},
	{"feijão", "Mercearia"},
	{"macarrão", "Mercearia"},
	{"açúcar", "Mercearia"},
	{"farinha", "Mercearia"},
	{"azeite", "Mercearia"},
	{"óleo", "Mercearia"},
	{"biscoito", "Mercearia"},
	{"ovos", "Mercearia"},

	// Limpeza
	{"detergente", "Limpeza"},
	{"amaciante", "Limpeza"},
	{"desinfetante", "Limpeza"},
	{"esponja", "Limpeza"},

	// Higiene
	{"shampoo", "Higiene"},
	{"condicionador", "Higiene"},
	{"desodorante", "Higiene"},
	{"escova de dente", "Higiene"},
}
