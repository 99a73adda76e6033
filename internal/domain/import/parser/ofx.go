package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/importerr"
	"github.com/FACorreiaa/ledger-import/pkg/money"
)

// OFXAdapter reads OFX and QFX statements. Bank, credit card and the cash
// side of investment statements are supported.
type OFXAdapter struct{}

func (OFXAdapter) Kind() Kind { return KindBankStatement }

func (OFXAdapter) Parse(ctx context.Context, data []byte, opts Options) (*File, error) {
	// ofxgo.ParseResponse does not take a context
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := ofxgo.ParseResponse(bytes.NewReader(data))
	if err != nil {
		return nil, formatErr("ofx", fmt.Errorf("failed to parse OFX: %w", err))
	}

	file := &File{Meta: Meta{
		Institution: resp.Signon.Org.String(),
		Currency:    opts.Currency,
		Headers:     bankStatementFields,
	}}
	st := statementWriter{file: file, opts: opts}

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		acct := account{
			number: stmt.BankAcctFrom.AcctID.String(),
			kind:   strings.ToLower(stmt.BankAcctFrom.AcctType.String()),
			bankID: stmt.BankAcctFrom.BankID.String(),
		}
		if err := st.addAll(acct, stmt.BankTranList.Transactions); err != nil {
			return nil, err
		}
	}
	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok || stmt.BankTranList == nil {
			continue
		}
		acct := account{number: stmt.CCAcctFrom.AcctID.String(), kind: "creditcard"}
		if err := st.addAll(acct, stmt.BankTranList.Transactions); err != nil {
			return nil, err
		}
	}
	for _, msg := range resp.InvStmt {
		stmt, ok := msg.(*ofxgo.InvStatementResponse)
		if !ok || stmt.InvTranList == nil {
			continue
		}
		acct := account{
			number: stmt.InvAcctFrom.AcctID.String(),
			kind:   "investment",
			bankID: stmt.InvAcctFrom.BrokerID.String(),
		}
		for _, bank := range stmt.InvTranList.BankTransactions {
			if err := st.addAll(acct, bank.Transactions); err != nil {
				return nil, err
			}
		}
	}

	if st.statements == 0 {
		return nil, importerr.NewFormatError("OFX file contains no bank or credit card statement")
	}
	return file, nil
}

var bankStatementFields = []string{
	FieldDate, FieldAmount, FieldPayee, FieldImportedPayee, FieldNotes, FieldFinancialID,
}

type account struct {
	number string
	kind   string
	bankID string
}

// statementWriter appends bank statement entries to a file. The first
// statement seen also describes the file.
type statementWriter struct {
	file       *File
	opts       Options
	statements int
}

func (w *statementWriter) addAll(acct account, txns []ofxgo.Transaction) error {
	w.begin(acct)
	for _, txn := range txns {
		amount, err := decimal.NewFromString(txn.TrnAmt.FloatString(4))
		if err != nil {
			return formatErr("TRNAMT", fmt.Errorf("invalid amount in transaction %s: %w", txn.FiTID.String(), err))
		}
		date := txn.DtPosted.Time
		if date.IsZero() {
			date = txn.DtUser.Time
		}
		w.add(acct, entry{
			date:        date,
			amount:      amount,
			name:        strings.TrimSpace(txn.Name.String()),
			memo:        strings.TrimSpace(txn.Memo.String()),
			financialID: txn.FiTID.String(),
		})
	}
	return nil
}

func (w *statementWriter) begin(acct account) {
	if w.statements == 0 {
		w.file.Meta.AccountNumber = acct.number
		w.file.Meta.AccountType = acct.kind
		w.file.Meta.BankID = acct.bankID
	}
	w.statements++
}

type entry struct {
	date        time.Time
	amount      decimal.Decimal
	name        string
	memo        string
	financialID string
}

// add records one entry. With FallbackMissingPayee a blank name is replaced
// by the memo, which is then not repeated as notes.
func (w *statementWriter) add(acct account, e entry) {
	payee, notes := e.name, e.memo
	if payee == "" && w.opts.FallbackMissingPayee {
		payee, notes = e.memo, ""
	}

	rec := RawRecord{
		Fields:        make([]Field, 0, len(bankStatementFields)),
		AccountNumber: acct.number,
		AccountType:   acct.kind,
		BankID:        acct.bankID,
		Resolved: &Resolved{
			Date:   dateOnly(e.date),
			Amount: money.MinorUnits(e.amount, w.opts.Currency),
		},
	}
	rec.add(FieldDate, rec.Resolved.Date.Format(time.DateOnly))
	rec.add(FieldAmount, e.amount.String())
	rec.add(FieldPayee, payee)
	rec.add(FieldImportedPayee, payee)
	rec.add(FieldNotes, notes)
	rec.add(FieldFinancialID, e.financialID)
	w.file.Records = append(w.file.Records, rec)
}

// dateOnly keeps the calendar date the bank reported, dropping time of day
// and zone.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
