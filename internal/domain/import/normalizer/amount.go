package normalizer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ledger-import/pkg/money"
)

// AmountMode selects how a record encodes the sign of its amount.
type AmountMode int

const (
	// AmountSingle reads one signed amount field.
	AmountSingle AmountMode = iota
	// AmountSplit reads separate inflow and outflow fields.
	AmountSplit
	// AmountIndicator reads an unsigned magnitude plus an in/out field.
	AmountIndicator
)

func (m AmountMode) String() string {
	switch m {
	case AmountSplit:
		return "split"
	case AmountIndicator:
		return "indicator"
	default:
		return "single"
	}
}

// AmountFields are the raw values a mapping extracted from one record.
type AmountFields struct {
	Amount  string
	Inflow  string
	Outflow string
	InOut   string
}

// AmountOptions configures ResolveAmount.
type AmountOptions struct {
	Mode          AmountMode
	FlipSign      bool
	Multiplier    decimal.Decimal // zero value disables scaling
	OutflowMarker string          // indicator value meaning "money out"
	Currency      string          // ISO-4217 code, defaults to USD
}

// ResolveAmount returns the signed amount in minor units. ok is false when
// the mode's fields are missing or not numeric.
func ResolveAmount(f AmountFields, opts AmountOptions) (int64, bool) {
	var (
		value decimal.Decimal
		ok    bool
	)

	switch opts.Mode {
	case AmountSplit:
		value, ok = splitAmount(f.Inflow, f.Outflow)
	case AmountIndicator:
		value, ok = indicatorAmount(f.Amount, f.InOut, opts.OutflowMarker)
		if ok && opts.FlipSign {
			value = value.Neg()
		}
	default:
		value, ok = parseField(f.Amount)
		if ok && opts.FlipSign {
			value = value.Neg()
		}
	}
	if !ok {
		return 0, false
	}

	if !opts.Multiplier.IsZero() {
		value = value.Mul(opts.Multiplier)
	}

	currency := opts.Currency
	if currency == "" {
		currency = money.USD
	}
	return money.MinorUnits(value, currency), true
}

// ParseMultiplier reads a user supplied multiplier. Blank or invalid input
// disables scaling.
func ParseMultiplier(s string) decimal.Decimal {
	d, err := money.ParseDecimal(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func parseField(raw string) (decimal.Decimal, bool) {
	if strings.TrimSpace(raw) == "" {
		return decimal.Zero, false
	}
	d, err := money.ParseDecimal(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// splitAmount computes inflow - outflow over absolute values so a bank that
// writes outflows as negative numbers yields the same result.
func splitAmount(inflow, outflow string) (decimal.Decimal, bool) {
	inBlank := strings.TrimSpace(inflow) == ""
	outBlank := strings.TrimSpace(outflow) == ""
	if inBlank && outBlank {
		return decimal.Zero, false
	}

	total := decimal.Zero
	if !inBlank {
		d, ok := parseField(inflow)
		if !ok {
			return decimal.Zero, false
		}
		total = total.Add(d.Abs())
	}
	if !outBlank {
		d, ok := parseField(outflow)
		if !ok {
			return decimal.Zero, false
		}
		total = total.Sub(d.Abs())
	}
	return total, true
}

func indicatorAmount(raw, inOut, outflowMarker string) (decimal.Decimal, bool) {
	d, ok := parseField(raw)
	if !ok {
		return decimal.Zero, false
	}
	magnitude := d.Abs()
	marker := strings.TrimSpace(outflowMarker)
	if marker != "" && strings.EqualFold(strings.TrimSpace(inOut), marker) {
		return magnitude.Neg(), true
	}
	return magnitude, true
}
