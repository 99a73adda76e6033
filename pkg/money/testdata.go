package money

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/shopspring/decimal"
)

// TestDataGenerator generates realistic statement data using gofakeit.
type TestDataGenerator struct {
	faker *gofakeit.Faker
}

// NewTestDataGenerator creates a new test data generator with a random seed.
func NewTestDataGenerator() *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(0), // Random seed
	}
}

// NewTestDataGeneratorWithSeed creates a generator with a specific seed for reproducibility.
func NewTestDataGeneratorWithSeed(seed int64) *TestDataGenerator {
	return &TestDataGenerator{
		faker: gofakeit.New(seed),
	}
}

// StatementLine is one generated bank statement line.
type StatementLine struct {
	Date  time.Time
	Payee string
	Notes string
	Cents int64 // Positive = inflow, Negative = outflow
}

// Line generates a single statement line in the last year.
func (g *TestDataGenerator) Line() StatementLine {
	cents := g.Magnitude(1, 500000)
	if g.faker.Bool() {
		cents = -cents
	}

	now := time.Now().UTC()
	date := g.faker.DateRange(now.AddDate(-1, 0, 0), now)

	return StatementLine{
		Date:  time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC),
		Payee: g.faker.Company(),
		Notes: g.faker.Sentence(4),
		Cents: cents,
	}
}

// Lines generates count statement lines.
func (g *TestDataGenerator) Lines(count int) []StatementLine {
	lines := make([]StatementLine, count)
	for i := range lines {
		lines[i] = g.Line()
	}
	return lines
}

// Magnitude returns a random positive amount in minor units.
func (g *TestDataGenerator) Magnitude(minCents, maxCents int64) int64 {
	if maxCents <= minCents {
		return minCents
	}
	return int64(g.faker.IntRange(int(minCents), int(maxCents)))
}

// FormatAmount renders minor units the way a bank export would. European
// output uses '.' for thousands and ',' for decimals.
func FormatAmount(cents int64, currencyCode string, european bool) string {
	text := decimal.New(cents, -int32(Fraction(currencyCode))).StringFixed(int32(Fraction(currencyCode)))

	negative := strings.HasPrefix(text, "-")
	text = strings.TrimPrefix(text, "-")
	intPart, fracPart, _ := strings.Cut(text, ".")

	thousands, decimalMark := ",", "."
	if european {
		thousands, decimalMark = ".", ","
	}

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteString(thousands)
		}
		grouped.WriteRune(r)
	}

	out := grouped.String()
	if fracPart != "" {
		out += decimalMark + fracPart
	}
	if negative {
		out = "-" + out
	}
	return out
}

// DelimitedStatement renders lines as a comma separated export with a
// date,amount,payee,notes header.
func DelimitedStatement(lines []StatementLine, currencyCode string) string {
	var b strings.Builder
	b.WriteString("date,amount,payee,notes\n")
	for _, l := range lines {
		fmt.Fprintf(&b, "%s,%s,%s,%s\n",
			l.Date.Format("2006-01-02"),
			quote(FormatAmount(l.Cents, currencyCode, false)),
			quote(l.Payee), quote(l.Notes))
	}
	return b.String()
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
