package model

import "golang.org/x/text/cases"

// CategoryOther is the catch-all bucket for items that could not be classified.
const CategoryOther = "Outros"

// Categories is the fixed vocabulary offered to the classifier, in display order.
var Categories = []string{
	"Laticínios",
	"Verduras",
	"Frutas",
	"Carnes",
	"Limpeza",
	"Higiene",
	"Padaria",
	"Bebidas",
	"Mercearia",
	CategoryOther,
}

// LookupCategory reports the canonical spelling of label when it names a
// category of the vocabulary, ignoring case and surrounding whitespace.
func LookupCategory(label string) (string, bool) {
	key := FoldName(label)
	if key == "" {
		return "", false
	}
	for _, c := range Categories {
		if FoldName(c) == key {
			return c, true
		}
	}
	return "", false
}

// NormalizeCategory returns the canonical category for label, or CategoryOther
// when label is empty or outside the vocabulary.
func NormalizeCategory(label string) string {
	if c, ok := LookupCategory(label); ok {
		return c
	}
	return CategoryOther
}

// FoldName returns the comparison key used to deduplicate item names.
func FoldName(name string) string {
	return cases.Fold().String(trimSpace(name))
}
