package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
)

// CAMTAdapter reads ISO 20022 camt.053 (and camt.052) bank statements.
type CAMTAdapter struct{}

func (CAMTAdapter) Kind() Kind { return KindBankStatement }

type camtDocument struct {
	Statements []camtStatement `xml:"BkToCstmrStmt>Stmt"`
	Reports    []camtStatement `xml:"BkToCstmrAcctRpt>Rpt"`
}

type camtStatement struct {
	Acct struct {
		IBAN  string `xml:"Id>IBAN"`
		Other string `xml:"Id>Othr>Id"`
		Type  string `xml:"Tp>Cd"`
		Ccy   string `xml:"Ccy"`
		BIC   string `xml:"Svcr>FinInstnId>BIC"`
		BICFI string `xml:"Svcr>FinInstnId>BICFI"`
		Owner string `xml:"Ownr>Nm"`
	} `xml:"Acct"`
	Entries []camtEntry `xml:"Ntry"`
}

type camtAmount struct {
	Value string `xml:",chardata"`
	Ccy   string `xml:"Ccy,attr"`
}

type camtDate struct {
	Date     string `xml:"Dt"`
	DateTime string `xml:"DtTm"`
}

type camtParty struct {
	Name      string `xml:"Nm"`
	PartyName string `xml:"Pty>Nm"`
}

func (p camtParty) name() string {
	if p.Name != "" {
		return p.Name
	}
	return p.PartyName
}

type camtEntry struct {
	Ref       string     `xml:"NtryRef"`
	Amt       camtAmount `xml:"Amt"`
	Indicator string     `xml:"CdtDbtInd"`
	Status    struct {
		Text string `xml:",chardata"`
		Code string `xml:"Cd"`
	} `xml:"Sts"`
	Booking     camtDate `xml:"BookgDt"`
	Value       camtDate `xml:"ValDt"`
	ServicerRef string   `xml:"AcctSvcrRef"`
	Details     []struct {
		Debtor       camtParty `xml:"RltdPties>Dbtr"`
		Creditor     camtParty `xml:"RltdPties>Cdtr"`
		Unstructured []string  `xml:"RmtInf>Ustrd"`
		EndToEndID   string    `xml:"Refs>EndToEndId"`
	} `xml:"NtryDtls>TxDtls"`
	Info string `xml:"AddtlNtryInf"`
}

func (e camtEntry) pending() bool {
	status := strings.TrimSpace(e.Status.Code)
	if status == "" {
		status = strings.TrimSpace(e.Status.Text)
	}
	return strings.EqualFold(status, "PDNG")
}

func (e camtEntry) date() (time.Time, bool) {
	for _, raw := range []string{e.Booking.Date, e.Booking.DateTime, e.Value.Date, e.Value.DateTime} {
		raw = strings.TrimSpace(raw)
		if len(raw) < len(time.DateOnly) {
			continue
		}
		if t, err := time.Parse(time.DateOnly, raw[:len(time.DateOnly)]); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Parse emits one record per booked entry. Debits are negative. The
// counterparty is the creditor of a debit and the debtor of a credit.
func (CAMTAdapter) Parse(ctx context.Context, data []byte, opts Options) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var doc camtDocument
	dec := xml.NewDecoder(bytes.NewReader(data))
	// charset.ReadAll already produced UTF-8
	dec.CharsetReader = func(_ string, r io.Reader) (io.Reader, error) { return r, nil }
	if err := dec.Decode(&doc); err != nil {
		return nil, formatErr("camt", fmt.Errorf("failed to parse CAMT document: %w", err))
	}

	statements := append(doc.Statements, doc.Reports...)
	if len(statements) == 0 {
		return nil, importerr.NewFormatError("XML file contains no camt statement")
	}

	file := &File{Meta: Meta{Currency: opts.Currency, Headers: bankStatementFields}}
	w := statementWriter{file: file, opts: opts}

	for _, stmt := range statements {
		acct := account{
			number: stmt.Acct.IBAN,
			kind:   strings.ToLower(stmt.Acct.Type),
			bankID: stmt.Acct.BIC,
		}
		if acct.number == "" {
			acct.number = stmt.Acct.Other
		}
		if acct.bankID == "" {
			acct.bankID = stmt.Acct.BICFI
		}
		if w.statements == 0 {
			file.Meta.AccountName = stmt.Acct.Owner
			if stmt.Acct.Ccy != "" {
				file.Meta.Currency = stmt.Acct.Ccy
			}
		}
		w.begin(acct)

		for _, ntry := range stmt.Entries {
			if ntry.pending() {
				continue
			}
			amount, err := decimal.NewFromString(strings.TrimSpace(ntry.Amt.Value))
			if err != nil {
				return nil, formatErr("Amt", fmt.Errorf("invalid entry amount %q: %w", ntry.Amt.Value, err))
			}
			debit := strings.EqualFold(strings.TrimSpace(ntry.Indicator), "DBIT")
			if debit {
				amount = amount.Abs().Neg()
			} else {
				amount = amount.Abs()
			}
			date, ok := ntry.date()
			if !ok {
				return nil, &importerr.FormatError{Code: "BookgDt", Message: "entry has no booking or value date"}
			}

			e := entry{
				date:        date,
				amount:      amount,
				memo:        strings.TrimSpace(ntry.Info),
				financialID: ntry.ServicerRef,
			}
			if e.financialID == "" {
				e.financialID = ntry.Ref
			}
			if len(ntry.Details) > 0 {
				d := ntry.Details[0]
				if debit {
					e.name = d.Creditor.name()
				} else {
					e.name = d.Debtor.name()
				}
				if remit := strings.TrimSpace(strings.Join(d.Unstructured, " ")); remit != "" {
					e.memo = remit
				}
			}
			e.name = strings.TrimSpace(e.name)

			currency := ntry.Amt.Ccy
			if currency == "" {
				currency = file.Meta.Currency
			}
			w.opts.Currency = currency
			w.add(acct, e)
		}
	}
	return file, nil
}
