// Package core holds the budgeting domain types and the pure computations
// the pages derive from them: money, local dates, summaries.
package core

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is an exact decimal money value. It travels over the wire as a
// bare JSON number.
type Amount struct {
	d decimal.Decimal
}

// AmountOf returns a whole-unit amount.
func AmountOf(units int64) Amount {
	return Amount{d: decimal.NewFromInt(units)}
}

// AmountFromFloat converts a float, rounding to cents.
func AmountFromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f).Round(2)}
}

// ParseAmount parses user input. It accepts a dot decimal separator
// (12.34) and the pt-BR form with a comma and optional dot grouping (1.234,56).
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, ErrInvalidAmount
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, ErrInvalidAmount
	}
	return Amount{d: d}, nil
}

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

func (a Amount) Sub(b Amount) Amount { return Amount{d: a.d.Sub(b.d)} }

func (a Amount) Neg() Amount { return Amount{d: a.d.Neg()} }

func (a Amount) Abs() Amount { return Amount{d: a.d.Abs()} }

func (a Amount) Cmp(b Amount) int { return a.d.Cmp(b.d) }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) LessThan(b Amount) bool { return a.d.LessThan(b.d) }

func (a Amount) GreaterThan(b Amount) bool { return a.d.GreaterThan(b.d) }

func (a Amount) IsPositive() bool { return a.d.IsPositive() }

func (a Amount) IsNegative() bool { return a.d.IsNegative() }

func (a Amount) IsZero() bool { return a.d.IsZero() }

// Float64 is for display only.
func (a Amount) Float64() float64 { return a.d.InexactFloat64() }

func (a Amount) Decimal() decimal.Decimal { return a.d }

// String renders the amount with two decimals and a dot separator, the
// form used by HTML number inputs.
func (a Amount) String() string { return a.d.StringFixed(2) }

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*a = Amount{}
		return nil
	}
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	a.d = d
	return nil
}

// Sum adds up amounts.
func Sum(amounts ...Amount) Amount {
	total := Amount{}
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
