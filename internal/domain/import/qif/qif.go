// Package qif tokenizes Quicken Interchange Format exports into raw,
// uninterpreted transaction fields. Dates and amounts are kept as the
// literal strings found in the file.
package qif

import (
	"strings"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
)

// Split is one division of a split transaction (S/E/$ lines).
type Split struct {
	Category    string
	Subcategory string
	Description string
	Amount      string
}

// Transaction holds the fields of one ^-terminated record.
type Transaction struct {
	Type          string // the !Type: active when the record was read
	Date          string
	Amount        string
	Number        string
	Memo          string
	Address       []string
	Payee         string
	Category      string
	Subcategory   string
	ClearedStatus string
	Splits        []Split
}

func (t *Transaction) empty() bool {
	return t.Date == "" && t.Amount == "" && t.Number == "" && t.Memo == "" &&
		len(t.Address) == 0 && t.Payee == "" && t.Category == "" && t.Subcategory == "" &&
		t.ClearedStatus == "" && len(t.Splits) == 0
}

// Document is the tokenized file.
type Document struct {
	DateFormatHint string
	Type           string
	AccountName    string
	AccountType    string
	Transactions   []Transaction
}

type tokenizer struct {
	lines []string
	pos   int
	doc   *Document
}

// Parse tokenizes text. dateFormatHint is carried through untouched so the
// caller can use it as the fallback date format.
func Parse(text string, dateFormatHint string) (*Document, error) {
	t := &tokenizer{
		lines: splitLines(text),
		doc:   &Document{DateFormatHint: dateFormatHint},
	}
	if err := t.header(); err != nil {
		return nil, err
	}
	if err := t.body(); err != nil {
		return nil, err
	}
	return t.doc, nil
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func (t *tokenizer) peek() (string, bool) {
	if t.pos >= len(t.lines) {
		return "", false
	}
	return t.lines[t.pos], true
}

func (t *tokenizer) next() (string, bool) {
	line, ok := t.peek()
	if ok {
		t.pos++
	}
	return line, ok
}

// header consumes the optional leading !Account block and the first !Type:
// line. A file without a type is only accepted when it named an account.
func (t *tokenizer) header() error {
	t.skipDirectives()
	line, _ := t.peek()
	if isAccountLine(line) {
		t.pos++
		t.accountBlock()
	}

	t.skipDirectives()
	line, ok := t.peek()
	if kind, isType := typeOf(line); ok && isType {
		t.pos++
		t.doc.Type = kind
		return nil
	}

	if t.doc.AccountName != "" {
		// account list without transactions
		t.pos = len(t.lines)
		return nil
	}
	return importerr.NewFormatError("file does not appear to be a valid QIF transaction file: %q", line)
}

// accountBlock reads N/L (name) and T (type) lines up to ^ or a !Type: line.
func (t *tokenizer) accountBlock() {
	var name, kind string
	for {
		line, ok := t.peek()
		if !ok {
			break
		}
		if line == "^" {
			t.pos++
			break
		}
		if _, isType := typeOf(line); isType {
			break
		}
		t.pos++
		switch line[0] {
		case 'N', 'L':
			name = strings.TrimSpace(line[1:])
		case 'T':
			kind = strings.TrimSpace(line[1:])
		}
	}
	if name != "" {
		t.doc.AccountName = name
	}
	if kind != "" {
		t.doc.AccountType = kind
	}
}

func (t *tokenizer) body() error {
	var (
		current Transaction
		split   Split
	)
	current.Type = t.doc.Type

	flush := func() {
		if !current.empty() {
			t.doc.Transactions = append(t.doc.Transactions, current)
		}
		current = Transaction{Type: t.doc.Type}
		split = Split{}
	}

	for {
		line, ok := t.next()
		if !ok {
			break
		}

		switch {
		case line == "^":
			flush()
			continue
		case isAccountLine(line):
			flush()
			t.accountBlock()
			t.skipDirectives()
			next, _ := t.peek()
			kind, isType := typeOf(next)
			if !isType {
				// an account block that is not followed by transactions ends the file
				t.pos = len(t.lines)
				continue
			}
			t.pos++
			t.doc.Type = kind
			current.Type = kind
			continue
		case isDirective(line):
			continue
		}
		if kind, isType := typeOf(line); isType {
			flush()
			t.doc.Type = kind
			current.Type = kind
			continue
		}

		value := line[1:]
		switch line[0] {
		case 'D':
			current.Date = value
		case 'T', 'U':
			current.Amount = value
		case 'N':
			current.Number = value
		case 'M':
			current.Memo = value
		case 'A':
			current.Address = append(current.Address, value)
		case 'P':
			current.Payee = strings.ReplaceAll(value, "&amp;", "&")
		case 'L':
			current.Category, current.Subcategory, _ = strings.Cut(value, ":")
		case 'C':
			current.ClearedStatus = value
		case 'S':
			split.Category, split.Subcategory, _ = strings.Cut(value, ":")
		case 'E':
			split.Description = value
		case '$':
			split.Amount = value
			current.Splits = append(current.Splits, split)
			split = Split{}
		default:
			return &importerr.FormatError{Code: line[:1], Message: "unknown detail code"}
		}
	}
	flush()
	return nil
}

func (t *tokenizer) skipDirectives() {
	for {
		line, ok := t.peek()
		if !ok || !isDirective(line) {
			return
		}
		t.pos++
	}
}

func isAccountLine(line string) bool {
	return strings.HasPrefix(line, "!Account")
}

// isDirective matches Quicken control lines such as !Option:AutoSwitch and
// !Clear:AutoSwitch, which carry no transaction data.
func isDirective(line string) bool {
	return strings.HasPrefix(line, "!Option:") || strings.HasPrefix(line, "!Clear:")
}

func typeOf(line string) (string, bool) {
	kind, ok := strings.CutPrefix(line, "!Type:")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(kind), true
}
