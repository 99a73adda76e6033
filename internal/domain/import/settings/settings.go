// Package settings loads and stores the per-account import preferences.
//
// Preferences live in a flat string key/value store. Keys are scoped to an
// account id, or "all" for aggregate imports, and some additionally to the
// file type:
//
//	csv-delimiter-{acct}        csv-has-header-{acct}     csv-skip-lines-{acct}
//	csv-in-out-mode-{acct}      csv-out-value-{acct}      csv-mappings-{acct}
//	parse-date-{acct}-{ft}      flip-amount-{acct}-{ft}   import-notes-{acct}-{ft}
//	ofx-fallback-missing-payee-{acct}
//
// The key format is a stable contract shared with other clients of the store.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/mapper"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/repository"
)

// AllAccounts scopes preferences of imports that target no single account.
const AllAccounts = "all"

const (
	prefDelimiter     = "csv-delimiter"
	prefHasHeader     = "csv-has-header"
	prefSkipLines     = "csv-skip-lines"
	prefInOutMode     = "csv-in-out-mode"
	prefOutValue      = "csv-out-value"
	prefMappings      = "csv-mappings"
	prefParseDate     = "parse-date"
	prefFlipAmount    = "flip-amount"
	prefImportNotes   = "import-notes"
	prefFallbackPayee = "ofx-fallback-missing-payee"
)

// ImportSettings is the configuration of one import session.
type ImportSettings struct {
	AccountKey string
	FileType   parser.FileType

	Delimiter            rune // zero means detect
	HasHeaderRow         bool
	SkipLines            int
	DateFormat           normalizer.DateFormat // empty means detect
	FlipAmount           bool
	InOutMode            bool
	OutValue             string
	ImportNotes          bool
	FallbackMissingPayee bool
	Mapping              *mapper.FieldMapping // nil means infer

	// Session-only options, never persisted.
	Reconcile     bool
	ClearOnImport bool
	Multiplier    string // empty disables scaling
}

// AccountKey returns the preference scope of accountID.
func AccountKey(accountID *uuid.UUID) string {
	if accountID == nil {
		return AllAccounts
	}
	return accountID.String()
}

// Defaults returns the settings used when nothing is stored.
func Defaults(accountKey string, ft parser.FileType) ImportSettings {
	s := ImportSettings{
		AccountKey:           accountKey,
		FileType:             ft,
		HasHeaderRow:         true,
		ImportNotes:          true,
		FallbackMissingPayee: true,
		Reconcile:            true,
		ClearOnImport:        true,
	}
	if ft == parser.FileTSV {
		s.Delimiter = '\t'
	}
	return s
}

// SplitMode reports whether the mapping reads inflow/outflow columns.
func (s ImportSettings) SplitMode() bool {
	return s.Mapping != nil && s.Mapping.Split()
}

// AmountMode derives the amount encoding from the mapping and in/out flag.
func (s ImportSettings) AmountMode() normalizer.AmountMode {
	switch {
	case s.SplitMode():
		return normalizer.AmountSplit
	case s.InOutMode && s.FileType.Kind() != parser.KindBankStatement:
		return normalizer.AmountIndicator
	default:
		return normalizer.AmountSingle
	}
}

// ParserOptions returns the format normalizer options for these settings.
func (s ImportSettings) ParserOptions(currency string) parser.Options {
	return parser.Options{
		Delimiter:            s.Delimiter,
		HasHeaderRow:         s.HasHeaderRow,
		SkipLines:            s.SkipLines,
		DateFormatHint:       string(s.DateFormat),
		FallbackMissingPayee: s.FallbackMissingPayee,
		Currency:             currency,
	}
}

func key(base, accountKey string) string {
	return base + "-" + accountKey
}

func typedKey(base, accountKey string, ft parser.FileType) string {
	return base + "-" + accountKey + "-" + string(ft)
}

func delimited(ft parser.FileType) bool { return ft.Kind() == parser.KindDelimited }

func bankStatement(ft parser.FileType) bool { return ft.Kind() == parser.KindBankStatement }

func ofx(ft parser.FileType) bool { return ft == parser.FileOFX || ft == parser.FileQFX }

// Keys lists every preference key that applies to a file type.
func Keys(accountKey string, ft parser.FileType) []string {
	var keys []string
	if delimited(ft) {
		keys = append(keys,
			key(prefDelimiter, accountKey),
			key(prefHasHeader, accountKey),
			key(prefSkipLines, accountKey),
			key(prefInOutMode, accountKey),
			key(prefOutValue, accountKey),
			key(prefMappings, accountKey),
		)
	}
	if !bankStatement(ft) {
		keys = append(keys,
			typedKey(prefParseDate, accountKey, ft),
			typedKey(prefFlipAmount, accountKey, ft),
			typedKey(prefImportNotes, accountKey, ft),
		)
	}
	if ofx(ft) {
		keys = append(keys, key(prefFallbackPayee, accountKey))
	}
	return keys
}

// Load reads the stored preferences over the defaults. A malformed stored
// mapping is an error; other malformed values fall back to the default.
func Load(ctx context.Context, store repository.SettingsStore, accountID *uuid.UUID, ft parser.FileType) (ImportSettings, error) {
	acct := AccountKey(accountID)
	s := Defaults(acct, ft)

	prefs, err := store.Load(ctx, Keys(acct, ft))
	if err != nil {
		return s, fmt.Errorf("failed to load import settings: %w", err)
	}

	if delimited(ft) {
		if v := prefs[key(prefDelimiter, acct)]; v != "" {
			s.Delimiter, _ = utf8.DecodeRuneInString(v)
		}
		s.HasHeaderRow = prefs[key(prefHasHeader, acct)] != "false"
		if n, err := strconv.Atoi(prefs[key(prefSkipLines, acct)]); err == nil && n > 0 {
			s.SkipLines = n
		}
		s.InOutMode = prefs[key(prefInOutMode, acct)] == "true"
		s.OutValue = prefs[key(prefOutValue, acct)]
		if v := prefs[key(prefMappings, acct)]; v != "" {
			var m mapper.FieldMapping
			if err := json.Unmarshal([]byte(v), &m); err != nil {
				return s, fmt.Errorf("failed to decode stored field mapping: %w", err)
			}
			s.Mapping = &m
		}
	}

	if !bankStatement(ft) {
		if f := normalizer.DateFormat(prefs[typedKey(prefParseDate, acct, ft)]); f.Valid() {
			s.DateFormat = f
		}
		s.FlipAmount = prefs[typedKey(prefFlipAmount, acct, ft)] == "true"
		s.ImportNotes = prefs[typedKey(prefImportNotes, acct, ft)] != "false"
	}

	if ofx(ft) {
		s.FallbackMissingPayee = prefs[key(prefFallbackPayee, acct)] != "false"
	}
	return s, nil
}

// Prefs encodes the persistent part of s as store entries.
func (s ImportSettings) Prefs() (map[string]string, error) {
	acct, ft := s.AccountKey, s.FileType
	prefs := make(map[string]string)

	if delimited(ft) {
		if s.Mapping != nil {
			data, err := json.Marshal(s.Mapping)
			if err != nil {
				return nil, fmt.Errorf("failed to encode field mapping: %w", err)
			}
			prefs[key(prefMappings, acct)] = string(data)
		}
		if s.Delimiter != 0 {
			prefs[key(prefDelimiter, acct)] = string(s.Delimiter)
		}
		prefs[key(prefHasHeader, acct)] = strconv.FormatBool(s.HasHeaderRow)
		prefs[key(prefSkipLines, acct)] = strconv.Itoa(s.SkipLines)
		prefs[key(prefInOutMode, acct)] = strconv.FormatBool(s.InOutMode)
		prefs[key(prefOutValue, acct)] = s.OutValue
	}

	if !bankStatement(ft) {
		if s.DateFormat != "" {
			prefs[typedKey(prefParseDate, acct, ft)] = string(s.DateFormat)
		}
		prefs[typedKey(prefFlipAmount, acct, ft)] = strconv.FormatBool(s.FlipAmount)
		prefs[typedKey(prefImportNotes, acct, ft)] = strconv.FormatBool(s.ImportNotes)
	}

	if ofx(ft) {
		prefs[key(prefFallbackPayee, acct)] = strconv.FormatBool(s.FallbackMissingPayee)
	}
	return prefs, nil
}

// Save writes the persistent part of s.
func Save(ctx context.Context, store repository.SettingsStore, s ImportSettings) error {
	prefs, err := s.Prefs()
	if err != nil {
		return err
	}
	if len(prefs) == 0 {
		return nil
	}
	if err := store.Save(ctx, prefs); err != nil {
		return fmt.Errorf("failed to save import settings: %w", err)
	}
	return nil
}
