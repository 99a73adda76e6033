// Package parser turns statement files of every supported dialect into a
// common ordered record shape. Delimited and spreadsheet rows keep their
// column names; legacy and bank statement adapters emit canonical names.
package parser

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/pkg/charset"
)

// Canonical field names emitted by the non-delimited adapters.
const (
	FieldDate          = "date"
	FieldAmount        = "amount"
	FieldPayee         = "payee_name"
	FieldImportedPayee = "imported_payee"
	FieldNotes         = "notes"
	FieldCategory      = "category"
	FieldNumber        = "number"
	FieldCleared       = "cleared"
	FieldFinancialID   = "financial_id"
)

// Kind selects the dialect family of a file.
type Kind int

const (
	KindDelimited Kind = iota
	KindLegacy
	KindBankStatement
)

func (k Kind) String() string {
	switch k {
	case KindDelimited:
		return "delimited"
	case KindLegacy:
		return "legacy"
	case KindBankStatement:
		return "bank-statement"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// FileType is the lowercased extension a file was dispatched on. It is part
// of the per-file-type preference keys.
type FileType string

const (
	FileCSV  FileType = "csv"
	FileTSV  FileType = "tsv"
	FileXLSX FileType = "xlsx"
	FileQIF  FileType = "qif"
	FileOFX  FileType = "ofx"
	FileQFX  FileType = "qfx"
	FileCAMT FileType = "xml"
)

// DetectFileType maps a file name to its type. Files without a known
// extension are treated as OFX.
func DetectFileType(name string) FileType {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	switch FileType(ext) {
	case FileCSV, FileTSV, FileXLSX, FileQIF, FileOFX, FileQFX, FileCAMT:
		return FileType(ext)
	default:
		return FileOFX
	}
}

// Kind returns the dialect family for the file type.
func (ft FileType) Kind() Kind {
	switch ft {
	case FileCSV, FileTSV, FileXLSX:
		return KindDelimited
	case FileQIF:
		return KindLegacy
	default:
		return KindBankStatement
	}
}

// Field is one named value of a record.
type Field struct {
	Name  string
	Value string
}

// Resolved carries the date and amount a bank statement adapter already
// interpreted. Amount is in minor units.
type Resolved struct {
	Date   time.Time
	Amount int64
}

// RawRecord is one transaction line as read from the file.
type RawRecord struct {
	Fields        []Field
	AccountNumber string
	AccountType   string
	BankID        string
	Resolved      *Resolved
}

// Get returns the value of the named field or "".
func (r RawRecord) Get(name string) string {
	v, _ := r.Lookup(name)
	return v
}

// Lookup returns the value of the named field and whether it exists.
func (r RawRecord) Lookup(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Names returns the field names in file order.
func (r RawRecord) Names() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

func (r *RawRecord) add(name, value string) {
	r.Fields = append(r.Fields, Field{Name: name, Value: value})
}

// Meta describes the statement as a whole.
type Meta struct {
	AccountName   string
	AccountNumber string
	AccountType   string
	BankID        string
	Institution   string
	Currency      string
	Headers       []string
	Delimiter     rune

	// DateFormatHint is the date format the file declares, if any.
	DateFormatHint string
}

// File is a parsed statement.
type File struct {
	Name    string
	Type    FileType
	Kind    Kind
	Meta    Meta
	Records []RawRecord
}

// SplitHandling controls how legacy split transactions are flattened.
type SplitHandling int

const (
	// SplitsAggregate emits one record per transaction with its own totals.
	SplitsAggregate SplitHandling = iota
	// SplitsExpand emits one record per split line.
	SplitsExpand
)

// Options configures the adapters. Each adapter reads only its own fields.
type Options struct {
	// delimited
	Delimiter    rune
	HasHeaderRow bool
	SkipLines    int
	Sheet        string

	// legacy
	Splits         SplitHandling
	DateFormatHint string

	// bank statements
	FallbackMissingPayee bool
	Currency             string
}

// DefaultOptions matches the settings a fresh account starts with.
func DefaultOptions() Options {
	return Options{HasHeaderRow: true}
}

// Adapter parses the decoded content of one dialect.
type Adapter interface {
	Kind() Kind
	Parse(ctx context.Context, data []byte, opts Options) (*File, error)
}

// AdapterFor returns the adapter for a file type.
func AdapterFor(ft FileType) Adapter {
	switch ft {
	case FileCSV, FileTSV:
		return DelimitedAdapter{}
	case FileXLSX:
		return SpreadsheetAdapter{}
	case FileQIF:
		return LegacyAdapter{}
	case FileCAMT:
		return CAMTAdapter{}
	default:
		return OFXAdapter{}
	}
}

// Open reads a statement file and dispatches it to the adapter for its
// extension. Text formats are decoded to UTF-8 first.
func Open(ctx context.Context, name string, r io.Reader, opts Options) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ft := DetectFileType(name)
	if ft == FileTSV && opts.Delimiter == 0 {
		opts.Delimiter = '\t'
	}

	var (
		data []byte
		err  error
	)
	if ft == FileXLSX {
		// zip container, must not be transcoded
		data, err = io.ReadAll(r)
	} else {
		data, err = charset.ReadAll(r)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}

	file, err := AdapterFor(ft).Parse(ctx, data, opts)
	if err != nil {
		return nil, err
	}
	file.Name = name
	file.Type = ft
	file.Kind = ft.Kind()
	return file, nil
}

func formatErr(code string, err error) error {
	if importerr.IsFormat(err) {
		return err
	}
	return &importerr.FormatError{Code: code, Message: err.Error()}
}
