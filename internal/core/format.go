package core

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Palette lists the category colors offered in the category dialog.
var Palette = []ColorOption{
	{Value: "#22c55e", Label: "Verde"},
	{Value: "#3b82f6", Label: "Azul"},
	{Value: "#f59e0b", Label: "Amarelo"},
	{Value: "#ef4444", Label: "Vermelho"},
	{Value: "#8b5cf6", Label: "Roxo"},
	{Value: "#ec4899", Label: "Rosa"},
	{Value: "#14b8a6", Label: "Teal"},
	{Value: "#f97316", Label: "Laranja"},
	{Value: "#6b7280", Label: "Cinza"},
}

// DefaultColor is used when a category carries no color.
const DefaultColor = "#6b7280"

type ColorOption struct {
	Value string
	Label string
}

var brl = message.NewPrinter(language.BrazilianPortuguese)

// FormatCurrency renders a BRL amount the pt-BR way: R$ 5.000,00.
func FormatCurrency(a Amount) string {
	cents := a.d.Round(2)
	s := brl.Sprintf("%.2f", cents.Abs().InexactFloat64())
	if cents.IsNegative() {
		return "-R$ " + s
	}
	return "R$ " + s
}

// ColorName returns the palette label for a hex color, or the hex itself.
func ColorName(hex string) string {
	hex = strings.ToLower(strings.TrimSpace(hex))
	for _, c := range Palette {
		if c.Value == hex {
			return c.Label
		}
	}
	return hex
}

// ColorOrDefault substitutes the neutral gray for an empty color.
func ColorOrDefault(hex string) string {
	if strings.TrimSpace(hex) == "" {
		return DefaultColor
	}
	return hex
}
