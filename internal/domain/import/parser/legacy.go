package parser

import (
	"context"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/qif"
)

// LegacyAdapter reads QIF files through the tokenizer and flattens split
// transactions according to Options.Splits.
type LegacyAdapter struct{}

func (LegacyAdapter) Kind() Kind { return KindLegacy }

func (LegacyAdapter) Parse(ctx context.Context, data []byte, opts Options) (*File, error) {
	doc, err := qif.Parse(string(data), opts.DateFormatHint)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file := &File{
		Meta: Meta{
			AccountName: doc.AccountName,
			AccountType: doc.AccountType,
			Headers:     legacyFields,

			DateFormatHint: doc.DateFormatHint,
		},
		Records: make([]RawRecord, 0, len(doc.Transactions)),
	}

	for _, tx := range doc.Transactions {
		if opts.Splits == SplitsExpand && len(tx.Splits) > 0 {
			for _, split := range tx.Splits {
				notes := split.Description
				if notes == "" {
					notes = tx.Memo
				}
				file.Records = append(file.Records, legacyRecord(tx, split.Amount, notes, split.Category))
			}
			continue
		}
		file.Records = append(file.Records, legacyRecord(tx, tx.Amount, tx.Memo, tx.Category))
	}
	return file, nil
}

var legacyFields = []string{
	FieldDate, FieldAmount, FieldPayee, FieldImportedPayee,
	FieldNotes, FieldCategory, FieldNumber, FieldCleared,
}

func legacyRecord(tx qif.Transaction, amount, notes, category string) RawRecord {
	rec := RawRecord{Fields: make([]Field, 0, len(legacyFields))}
	rec.add(FieldDate, tx.Date)
	rec.add(FieldAmount, amount)
	rec.add(FieldPayee, tx.Payee)
	rec.add(FieldImportedPayee, tx.Payee)
	rec.add(FieldNotes, notes)
	rec.add(FieldCategory, category)
	rec.add(FieldNumber, tx.Number)
	rec.add(FieldCleared, tx.ClearedStatus)
	return rec
}
