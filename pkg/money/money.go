// Package money provides currency-safe amounts stored as integer minor units.
// Parsing goes through shopspring/decimal and the number of minor units per
// currency comes from go-money's ISO-4217 table.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Common currency codes (ISO-4217)
const (
	USD = "USD" // US Dollar
	EUR = "EUR" // Euro
	GBP = "GBP" // British Pound
	BRL = "BRL" // Brazilian Real
	JPY = "JPY" // Japanese Yen (no decimal places)
	CHF = "CHF" // Swiss Franc
)

// ErrInvalidAmount is returned when a string holds no usable number.
var ErrInvalidAmount = errors.New("invalid amount")

// Money represents a monetary value with currency.
type Money struct {
	m *money.Money
}

// New creates a new Money value from minor units and currency code.
func New(amountCents int64, currencyCode string) *Money {
	return &Money{
		m: money.New(amountCents, currencyCode),
	}
}

// NewFromDecimal creates Money from a decimal value, rounding half away from
// zero at the currency's minor unit.
func NewFromDecimal(amount decimal.Decimal, currencyCode string) *Money {
	return New(MinorUnits(amount, currencyCode), currencyCode)
}

// Parse reads a loosely formatted amount and converts it to Money.
func Parse(amount string, currencyCode string) (*Money, error) {
	d, err := ParseDecimal(amount)
	if err != nil {
		return nil, err
	}
	return NewFromDecimal(d, currencyCode), nil
}

// Fraction returns the number of minor-unit digits for a currency. Unknown
// codes fall back to USD.
func Fraction(currencyCode string) int {
	currency := money.GetCurrency(currencyCode)
	if currency == nil {
		currency = money.GetCurrency(USD)
	}
	return currency.Fraction
}

// MinorUnits converts a decimal to minor units of the currency.
// decimal.Round rounds half away from zero, so 0.005 USD becomes 1 cent and
// -0.005 USD becomes -1 cent.
func MinorUnits(amount decimal.Decimal, currencyCode string) int64 {
	multiplier := decimal.New(1, int32(Fraction(currencyCode)))
	return amount.Mul(multiplier).Round(0).IntPart()
}

// ParseDecimal parses amounts written with either ',' or '.' as the decimal
// mark. The last separator is treated as the decimal mark when it is
// followed by one or two digits, or by five or more; otherwise every
// separator is a thousands grouping. "(12.50)" is read as -12.50 and
// currency symbols or spaces are ignored.
func ParseDecimal(amount string) (decimal.Decimal, error) {
	s := strings.TrimSpace(amount)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			return r
		}
		return -1
	}, s)
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}

	sep := strings.LastIndexAny(s, ".,")
	intPart, fracPart := s, ""
	if sep >= 0 {
		tail := s[sep+1:]
		if n := len(tail); (n >= 1 && n <= 2) || n >= 5 {
			intPart, fracPart = s[:sep], tail
		}
	}

	if strings.Contains(intPart, "-") || strings.Contains(fracPart, "-") {
		negative = !negative
	}
	intDigits := digitsOnly(intPart)
	fracDigits := digitsOnly(fracPart)
	if intDigits == "" && fracDigits == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	if intDigits == "" {
		intDigits = "0"
	}

	literal := intDigits
	if fracDigits != "" {
		literal += "." + fracDigits
	}
	d, err := decimal.NewFromString(literal)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Zero returns a zero Money value for the given currency
func Zero(currencyCode string) *Money {
	return New(0, currencyCode)
}

// Amount returns the amount in minor units (cents)
func (m *Money) Amount() int64 {
	if m == nil || m.m == nil {
		return 0
	}
	return m.m.Amount()
}

// Currency returns the ISO-4217 currency code
func (m *Money) Currency() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Currency().Code
}

// IsZero returns true if the amount is zero
func (m *Money) IsZero() bool {
	return m.Amount() == 0
}

// IsNegative returns true if the amount is less than zero
func (m *Money) IsNegative() bool {
	return m.Amount() < 0
}

// Abs returns the absolute value
func (m *Money) Abs() *Money {
	return &Money{m: m.m.Absolute()}
}

// Negate returns the negated value
func (m *Money) Negate() *Money {
	return &Money{m: m.m.Negative()}
}

// Add returns the sum of two Money values. Returns error if currencies don't match.
func (m *Money) Add(other *Money) (*Money, error) {
	if other == nil {
		return m, nil
	}
	result, err := m.m.Add(other.m)
	if err != nil {
		return nil, fmt.Errorf("currency mismatch: %s vs %s", m.Currency(), other.Currency())
	}
	return &Money{m: result}, nil
}

// MultiplyDecimal scales the amount, rounding half away from zero.
func (m *Money) MultiplyDecimal(factor decimal.Decimal) *Money {
	return NewFromDecimal(m.ToDecimal().Mul(factor), m.Currency())
}

// Display returns a formatted string with currency symbol (e.g., "$12.34")
func (m *Money) Display() string {
	if m == nil || m.m == nil {
		return ""
	}
	return m.m.Display()
}

// String implements fmt.Stringer
func (m *Money) String() string {
	return m.Display()
}

// ToDecimal converts to a decimal in major units.
func (m *Money) ToDecimal() decimal.Decimal {
	if m == nil || m.m == nil {
		return decimal.Zero
	}
	return decimal.New(m.Amount(), -int32(Fraction(m.Currency())))
}
