package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/mapper"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/parser"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/sniffer"
	"github.com/FACorreiaa/ledger-import/pkg/charset"
)

// offline marks commands that run without the ledger.
const offline = "offline"

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "detect <file>",
		Short:       "Suggest a profile for a delimited statement",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{offline: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open statement: %w", err)
			}
			defer f.Close()

			data, err := charset.ReadAll(f)
			if err != nil {
				return err
			}
			p, err := suggestProfile(data)
			if err != nil {
				return err
			}
			return writeProfile(cmd.OutOrStdout(), p)
		},
	}
}

// suggestProfile detects the layout of a delimited file and infers a
// mapping from its first data row.
func suggestProfile(data []byte) (*profile, error) {
	cfg, err := sniffer.DetectConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to detect layout: %w", err)
	}

	hasHeader := cfg.HasHeader
	skip := cfg.SkipLines
	p := &profile{
		Delimiter:    string(cfg.Delimiter),
		HasHeaderRow: &hasHeader,
		SkipLines:    &skip,
	}

	// without a header the detected header line is the first data row
	row := cfg.Headers
	if hasHeader {
		if len(cfg.SampleRows) == 0 {
			return p, nil
		}
		row = cfg.SampleRows[0]
	}

	sample := parser.RawRecord{}
	for i, v := range row {
		name := fmt.Sprintf("column_%d", i+1)
		if hasHeader && i < len(cfg.Headers) && cfg.Headers[i] != "" {
			name = cfg.Headers[i]
		}
		sample.Fields = append(sample.Fields, parser.Field{Name: name, Value: v})
	}

	m := mapper.Infer(sample)
	p.Mapping = &profileFields{
		Date:     m.Date,
		Amount:   m.Amount,
		Payee:    m.Payee,
		Notes:    m.Notes,
		Category: m.Category,
		InOut:    m.InOut,
	}
	return p, nil
}

func writeProfile(w io.Writer, p *profile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return enc.Close()
}
