// Package mapper assigns raw record fields to the canonical transaction
// slots, either from a saved mapping or by inspecting a sample record.
package mapper

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
)

var (
	dateLike   = regexp.MustCompile(`^\d+[-/]\d+[-/]\d+$`)
	amountLike = regexp.MustCompile(`^-?[.,\d]+$`)
)

// FieldMapping names the raw field feeding each slot. An empty name means
// the slot is unmapped. Either Amount or the Inflow/Outflow pair is used.
type FieldMapping struct {
	Date     string
	Amount   string
	Payee    string
	Notes    string
	Category string
	InOut    string
	Inflow   string
	Outflow  string
}

// Canonical maps the fixed field names emitted by the legacy and bank
// statement adapters.
func Canonical() FieldMapping {
	return FieldMapping{
		Date:     parser.FieldDate,
		Amount:   parser.FieldAmount,
		Payee:    parser.FieldPayee,
		Notes:    parser.FieldNotes,
		Category: parser.FieldCategory,
	}
}

// Split reports whether the mapping reads separate inflow/outflow columns.
func (m FieldMapping) Split() bool {
	return m.Inflow != "" || m.Outflow != ""
}

// Infer guesses a mapping from one sample record. Slots are filled in the
// order date, amount, category, payee, notes, inOut, and a field is
// claimed by at most one slot.
func Infer(sample parser.RawRecord) FieldMapping {
	c := claims{fields: sample.Fields, taken: make(map[string]bool, len(sample.Fields))}

	var m FieldMapping
	m.Date = c.first(byName("date"), byValue(dateLike))
	m.Amount = c.first(byName("amount"), byValue(amountLike))
	m.Category = c.first(byName("category"))
	m.Payee = c.first(byName("payee"), anyField)
	m.Notes = c.first(byName("notes"), anyField)
	m.InOut = c.first(anyField)
	return m
}

type matcher func(parser.Field) bool

func byName(keyword string) matcher {
	return func(f parser.Field) bool {
		return strings.Contains(strings.ToLower(f.Name), keyword)
	}
}

func byValue(re *regexp.Regexp) matcher {
	return func(f parser.Field) bool {
		return re.MatchString(strings.TrimSpace(f.Value))
	}
}

func anyField(parser.Field) bool { return true }

type claims struct {
	fields []parser.Field
	taken  map[string]bool
}

// first tries each matcher in turn over the unclaimed fields and claims the
// first hit.
func (c *claims) first(matchers ...matcher) string {
	for _, match := range matchers {
		for _, f := range c.fields {
			if c.taken[f.Name] || !match(f) {
				continue
			}
			c.taken[f.Name] = true
			return f.Name
		}
	}
	return ""
}

// WithSplitMode switches between a single amount column and an
// inflow/outflow pair. Entering split mode seeds the outflow slot with the
// inferred amount field; leaving it restores that field as the amount.
func (m FieldMapping) WithSplitMode(split bool, inferred FieldMapping) FieldMapping {
	if split {
		m.Amount = ""
		m.Inflow = ""
		m.Outflow = inferred.Amount
		return m
	}
	m.Amount = inferred.Amount
	m.Inflow = ""
	m.Outflow = ""
	return m
}

// Mapped holds the raw slot values of one record.
type Mapped struct {
	Date          string
	Amount        string
	Inflow        string
	Outflow       string
	InOut         string
	Payee         string
	ImportedPayee string
	Notes         string
	Category      string
}

// Apply reads the mapped slots out of rec. Unmapped or missing fields are
// empty.
func (m FieldMapping) Apply(rec parser.RawRecord) Mapped {
	get := func(name string) string {
		if name == "" {
			return ""
		}
		return rec.Get(name)
	}

	out := Mapped{
		Date:     get(m.Date),
		Amount:   get(m.Amount),
		Inflow:   get(m.Inflow),
		Outflow:  get(m.Outflow),
		InOut:    get(m.InOut),
		Payee:    get(m.Payee),
		Notes:    get(m.Notes),
		Category: get(m.Category),
	}
	out.ImportedPayee = out.Payee
	if m.Payee == parser.FieldPayee {
		if v, ok := rec.Lookup(parser.FieldImportedPayee); ok {
			out.ImportedPayee = v
		}
	}
	return out
}

type jsonMapping struct {
	Date     *string `json:"date"`
	Amount   *string `json:"amount"`
	Payee    *string `json:"payee"`
	Notes    *string `json:"notes"`
	Category *string `json:"category"`
	InOut    *string `json:"inOut"`
	Inflow   *string `json:"inflow"`
	Outflow  *string `json:"outflow"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MarshalJSON writes unmapped slots as null.
func (m FieldMapping) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonMapping{
		Date:     nullable(m.Date),
		Amount:   nullable(m.Amount),
		Payee:    nullable(m.Payee),
		Notes:    nullable(m.Notes),
		Category: nullable(m.Category),
		InOut:    nullable(m.InOut),
		Inflow:   nullable(m.Inflow),
		Outflow:  nullable(m.Outflow),
	})
}

func (m *FieldMapping) UnmarshalJSON(data []byte) error {
	var j jsonMapping
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	*m = FieldMapping{
		Date:     deref(j.Date),
		Amount:   deref(j.Amount),
		Payee:    deref(j.Payee),
		Notes:    deref(j.Notes),
		Category: deref(j.Category),
		InOut:    deref(j.InOut),
		Inflow:   deref(j.Inflow),
		Outflow:  deref(j.Outflow),
	}
	return nil
}
