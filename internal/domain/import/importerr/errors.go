// Package importerr defines the error taxonomy shared by every stage of a
// statement import: file structure problems, per-record field failures,
// unresolved account conflicts and ledger write failures.
package importerr

import (
	"errors"
	"fmt"
)

// ErrCommitInProgress is returned when a commit is requested while another
// commit for the same session has not finished.
var ErrCommitInProgress = errors.New("a commit is already in progress for this import")

// ErrPreviewPending is returned when a commit is requested before the
// preview and its account conflicts have been computed.
var ErrPreviewPending = errors.New("the import preview is still being computed")

// ErrStale marks results computed for a file that has since been replaced.
var ErrStale = errors.New("result belongs to a replaced import file")

// FormatError reports a malformed or unrecognized file structure. The whole
// parse is abandoned and the file must be selected again.
type FormatError struct {
	Code    string // offending tag or token, when there is one
	Message string
}

func (e *FormatError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Code)
	}
	return e.Message
}

// NewFormatError builds a FormatError without an offending code.
func NewFormatError(format string, args ...any) *FormatError {
	return &FormatError{Message: fmt.Sprintf(format, args...)}
}

// FieldParseError reports a record whose date or amount could not be
// resolved. Records before it are kept; processing stops at it.
type FieldParseError struct {
	TransientID int
	Field       string // "date" or "amount"
	Raw         string
}

func (e *FieldParseError) Error() string {
	if e.Field == "amount" {
		if e.Raw == "" {
			return fmt.Sprintf("transaction %d has no amount", e.TransientID)
		}
		return fmt.Sprintf("transaction %d has an invalid amount: %q", e.TransientID, e.Raw)
	}
	return fmt.Sprintf("unable to parse date %q of transaction %d with the selected format", e.Raw, e.TransientID)
}

// ConflictUnresolvedError rejects a commit while account conflicts remain.
type ConflictUnresolvedError struct {
	Pending []int // transient ids still waiting for an account
}

func (e *ConflictUnresolvedError) Error() string {
	return fmt.Sprintf("%d transaction(s) still match more than one account", len(e.Pending))
}

// CommitError wraps a ledger rejection. Its message is the ledger's own.
type CommitError struct {
	Err error
}

func (e *CommitError) Error() string {
	return e.Err.Error()
}

func (e *CommitError) Unwrap() error {
	return e.Err
}

// IsFormat reports whether err is, or wraps, a FormatError.
func IsFormat(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// IsFieldParse reports whether err is, or wraps, a FieldParseError.
func IsFieldParse(err error) bool {
	var fe *FieldParseError
	return errors.As(err, &fe)
}
