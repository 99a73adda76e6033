package main

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/mapper"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/normalizer"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/service"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/settings"
)

// profile is a YAML file of settings that override the stored preferences
// for one run. Absent keys keep the stored value.
type profile struct {
	Delimiter            string         `yaml:"delimiter,omitempty"`
	HasHeaderRow         *bool          `yaml:"has_header_row,omitempty"`
	SkipLines            *int           `yaml:"skip_lines,omitempty"`
	DateFormat           string         `yaml:"date_format,omitempty"`
	FlipAmount           *bool          `yaml:"flip_amount,omitempty"`
	InOutMode            *bool          `yaml:"in_out_mode,omitempty"`
	OutValue             *string        `yaml:"out_value,omitempty"`
	ImportNotes          *bool          `yaml:"import_notes,omitempty"`
	FallbackMissingPayee *bool          `yaml:"fallback_missing_payee,omitempty"`
	Reconcile            *bool          `yaml:"reconcile,omitempty"`
	ClearOnImport        *bool          `yaml:"clear_on_import,omitempty"`
	Multiplier           string         `yaml:"multiplier,omitempty"`
	Mapping              *profileFields `yaml:"mapping,omitempty"`
}

type profileFields struct {
	Date     string `yaml:"date,omitempty"`
	Amount   string `yaml:"amount,omitempty"`
	Payee    string `yaml:"payee,omitempty"`
	Notes    string `yaml:"notes,omitempty"`
	Category string `yaml:"category,omitempty"`
	InOut    string `yaml:"in_out,omitempty"`
	Inflow   string `yaml:"inflow,omitempty"`
	Outflow  string `yaml:"outflow,omitempty"`
}

func loadProfile(path string) (*profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var p profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	if p.Delimiter != "" && utf8.RuneCountInString(p.Delimiter) != 1 {
		return nil, fmt.Errorf("profile delimiter must be a single character, got %q", p.Delimiter)
	}
	if p.DateFormat != "" && !normalizer.DateFormat(p.DateFormat).Valid() {
		return nil, fmt.Errorf("unknown date format %q", p.DateFormat)
	}
	return &p, nil
}

// override returns the settings adjustment described by the profile.
func (p *profile) override() service.SettingsOverride {
	return func(s *settings.ImportSettings) {
		if p.Delimiter != "" {
			s.Delimiter, _ = utf8.DecodeRuneInString(p.Delimiter)
		}
		if p.DateFormat != "" {
			s.DateFormat = normalizer.DateFormat(p.DateFormat)
		}
		if p.Multiplier != "" {
			s.Multiplier = p.Multiplier
		}
		setBool(&s.HasHeaderRow, p.HasHeaderRow)
		setBool(&s.FlipAmount, p.FlipAmount)
		setBool(&s.InOutMode, p.InOutMode)
		setBool(&s.ImportNotes, p.ImportNotes)
		setBool(&s.FallbackMissingPayee, p.FallbackMissingPayee)
		setBool(&s.Reconcile, p.Reconcile)
		setBool(&s.ClearOnImport, p.ClearOnImport)
		if p.SkipLines != nil {
			s.SkipLines = *p.SkipLines
		}
		if p.OutValue != nil {
			s.OutValue = *p.OutValue
		}
		if f := p.Mapping; f != nil {
			s.Mapping = &mapper.FieldMapping{
				Date:     f.Date,
				Amount:   f.Amount,
				Payee:    f.Payee,
				Notes:    f.Notes,
				Category: f.Category,
				InOut:    f.InOut,
				Inflow:   f.Inflow,
				Outflow:  f.Outflow,
			}
		}
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
