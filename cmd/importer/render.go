package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/gocarina/gocsv"

	"github.com/FACorreiaa/ledger-import/internal/domain/import/accounts"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/preview"
	"github.com/FACorreiaa/ledger-import/internal/domain/import/service"
	"github.com/FACorreiaa/ledger-import/pkg/money"
)

const dateLayout = "2006-01-02"

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	red    = color.New(color.FgRed, color.Bold)
	faint  = color.New(color.Faint)
)

// previewLine is one preview row as written by --out csv.
type previewLine struct {
	ID       int    `csv:"id"`
	Status   string `csv:"status"`
	Date     string `csv:"date"`
	Payee    string `csv:"payee"`
	Amount   string `csv:"amount"`
	Category string `csv:"category"`
	Notes    string `csv:"notes"`
	Account  string `csv:"account"`
}

// rowStatus names the state of a row in the preview.
func rowStatus(r preview.Row, conflicted bool) string {
	switch {
	case r.MatchedExisting:
		return "existing"
	case conflicted:
		return "conflict"
	case r.Ignored && !r.Selected():
		return "duplicate"
	case !r.Selected():
		return "skipped"
	case r.Existing && r.SelectedMerge():
		return "merge"
	default:
		return "new"
	}
}

func previewLines(st service.State, currency string) []*previewLine {
	lines := make([]*previewLine, 0, len(st.Rows))
	for _, r := range st.Rows {
		c, ok := st.Conflicts[r.TransientID]
		l := &previewLine{
			ID:       r.TransientID,
			Status:   rowStatus(r, ok && c.Resolved == nil),
			Date:     r.Date.Format(dateLayout),
			Payee:    r.Payee,
			Amount:   money.New(r.Amount, currency).Display(),
			Category: r.Category,
			Notes:    r.Notes,
		}
		if r.AccountID != nil {
			l.Account = r.AccountID.String()
		}
		lines = append(lines, l)
	}
	return lines
}

func writeCSV(w io.Writer, st service.State, currency string) error {
	return gocsv.Marshal(previewLines(st, currency), w)
}

func writeTable(w io.Writer, st service.State, currency string) {
	lines := previewLines(st, currency)
	fmt.Fprintf(w, "%5s  %-9s  %-10s  %-32s  %14s  %s\n", "ID", "STATUS", "DATE", "PAYEE", "AMOUNT", "CATEGORY")
	fmt.Fprintln(w, strings.Repeat("-", 90))
	for _, l := range lines {
		text := fmt.Sprintf("%5d  %-9s  %-10s  %-32s  %14s  %s", l.ID, l.Status, l.Date, truncate(l.Payee, 32), l.Amount, l.Category)
		statusColor(l.Status).Fprintln(w, text)
	}

	sum := preview.Summarize(st.Rows)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%d rows, %d selected, %d merged, %d duplicates\n", sum.Rows, sum.Selected, sum.Merged, sum.Ignored)
	fmt.Fprintf(w, "inflow %s  outflow %s  net %s\n",
		money.New(sum.Inflow, currency).Display(),
		money.New(sum.Outflow, currency).Display(),
		money.New(sum.Net(), currency).Display(),
	)
}

// writeConflicts lists the candidate accounts of every unresolved row.
func writeConflicts(w io.Writer, st service.State) {
	for _, id := range accounts.Pending(st.Conflicts) {
		c := st.Conflicts[id]
		candidates := make([]string, len(c.Candidates))
		for i, acct := range c.Candidates {
			candidates[i] = acct.String()
		}
		red.Fprintf(w, "transaction %d matches %d accounts: %s\n", id, len(candidates), strings.Join(candidates, ", "))
	}
}

func writeResult(w io.Writer, r service.CommitResult) {
	if !r.Changed {
		yellow.Fprintln(w, "nothing to import")
	} else {
		green.Fprintln(w, "import committed")
	}
	fmt.Fprintf(w, "  added %d, updated %d, unchanged %d, duplicates %d, skipped %d\n",
		len(r.Added), len(r.Updated), r.Skipped, r.Duplicates, r.Deselected)
}

func statusColor(status string) *color.Color {
	switch status {
	case "existing":
		return cyan
	case "conflict":
		return red
	case "duplicate", "skipped":
		return faint
	case "merge":
		return yellow
	default:
		return green
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
