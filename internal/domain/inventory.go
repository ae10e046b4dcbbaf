package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var lowerES = cases.Lower(language.Spanish)

// NormalizeIngredientName capitalizes the first letter and lowercases the
// rest, so "POLLO asado" and "pollo Asado" map to the same stock row.
func NormalizeIngredientName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	lower := lowerES.String(name)
	r, size := utf8.DecodeRuneInString(lower)
	return string(unicode.ToUpper(r)) + lower[size:]
}

// LowStock is an inventory row at or below the alert threshold.
type LowStock struct {
	ID        int64  `json:"id"`
	Name      string `json:"nombre"`
	Available int    `json:"cantidad_disponible"`
	Unit      string `json:"unidad_medida"`
}
