package normalizer

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ledger-import/pkg/money"
)

func TestResolveAmount_Single(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		opts AmountOptions
		want int64
		ok   bool
	}{
		{"negative", "-45.00", AmountOptions{}, -4500, true},
		{"positive comma decimal", "45,5", AmountOptions{}, 4550, true},
		{"flipped", "-45.00", AmountOptions{FlipSign: true}, 4500, true},
		{"multiplier", "1.5", AmountOptions{Multiplier: decimal.NewFromInt(100)}, 15000, true},
		{"rounds half away from zero", "-0.005", AmountOptions{}, -1, true},
		{"zero decimal currency", "1234", AmountOptions{Currency: money.JPY}, 1234, true},
		{"missing", "", AmountOptions{}, 0, false},
		{"not numeric", "n/a", AmountOptions{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveAmount(AmountFields{Amount: tt.raw}, tt.opts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAmount_Split(t *testing.T) {
	opts := AmountOptions{Mode: AmountSplit}
	tests := []struct {
		name    string
		inflow  string
		outflow string
		want    int64
		ok      bool
	}{
		{"inflow only", "100.00", "", 10000, true},
		{"outflow only", "", "45.00", -4500, true},
		{"negative outflow column", "", "-45.00", -4500, true},
		{"both", "100.00", "45.00", 5500, true},
		{"both blank", " ", "", 0, false},
		{"garbage outflow", "", "abc", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveAmount(AmountFields{Inflow: tt.inflow, Outflow: tt.outflow}, opts)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAmount_Indicator(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		inOut string
		opts  AmountOptions
		want  int64
	}{
		{"outflow marker", "45.00", "DEBIT", AmountOptions{Mode: AmountIndicator, OutflowMarker: "debit"}, -4500},
		{"inflow value", "45.00", "credit", AmountOptions{Mode: AmountIndicator, OutflowMarker: "debit"}, 4500},
		{"magnitude ignores source sign", "-45.00", "credit", AmountOptions{Mode: AmountIndicator, OutflowMarker: "debit"}, 4500},
		{"flip inverts final", "45.00", "debit", AmountOptions{Mode: AmountIndicator, OutflowMarker: "debit", FlipSign: true}, 4500},
		{"empty marker never matches", "45.00", "", AmountOptions{Mode: AmountIndicator}, 4500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveAmount(AmountFields{Amount: tt.raw, InOut: tt.inOut}, tt.opts)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveAmount_DoubleFlipIsIdentity(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(7)
	for _, line := range gen.Lines(100) {
		for _, european := range []bool{false, true} {
			raw := money.FormatAmount(line.Cents, money.USD, european)

			plain, ok := ResolveAmount(AmountFields{Amount: raw}, AmountOptions{})
			require.True(t, ok, raw)
			assert.Equal(t, line.Cents, plain, raw)

			flipped, ok := ResolveAmount(AmountFields{Amount: raw}, AmountOptions{FlipSign: true})
			require.True(t, ok)
			flippedRaw := money.FormatAmount(flipped, money.USD, european)
			twice, ok := ResolveAmount(AmountFields{Amount: flippedRaw}, AmountOptions{FlipSign: true})
			require.True(t, ok)
			assert.Equal(t, plain, twice, raw)
		}
	}
}

func TestResolveAmount_SplitSwapNegates(t *testing.T) {
	gen := money.NewTestDataGeneratorWithSeed(11)
	opts := AmountOptions{Mode: AmountSplit}
	for i := 0; i < 100; i++ {
		in := gen.Magnitude(0, 100000)
		out := gen.Magnitude(0, 100000)
		inRaw := money.FormatAmount(in, money.USD, false)
		outRaw := money.FormatAmount(out, money.USD, false)

		got, ok := ResolveAmount(AmountFields{Inflow: inRaw, Outflow: outRaw}, opts)
		require.True(t, ok)
		assert.Equal(t, in-out, got)

		swapped, ok := ResolveAmount(AmountFields{Inflow: outRaw, Outflow: inRaw}, opts)
		require.True(t, ok)
		assert.Equal(t, -got, swapped)
	}
}

func TestParseMultiplier(t *testing.T) {
	assert.True(t, ParseMultiplier("").IsZero())
	assert.True(t, ParseMultiplier("abc").IsZero())
	assert.True(t, decimal.NewFromInt(-1).Equal(ParseMultiplier("-1")))
	assert.True(t, decimal.RequireFromString("0.01").Equal(ParseMultiplier("0.01")))
}

func TestAmountMode_String(t *testing.T) {
	assert.Equal(t, "single", AmountSingle.String())
	assert.Equal(t, "split", AmountSplit.String())
	assert.Equal(t, "indicator", AmountIndicator.String())
}
