// Package model defines upstream budget records and the derived views built from them.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the budgeting API.
const DateLayout = "2006-01-02"

// Hybrid feed item types.
const (
	TypeTransaction    = "transaction"
	TypeSubtransaction = "subtransaction"
)

// ErrMalformedRecord marks a record that is missing a usable date or amount.
var ErrMalformedRecord = errors.New("model: malformed record")

// Transaction is a posted transaction as returned by the budgeting API.
// Amounts are signed milliunits: income positive, expense negative.
// Nullable upstream strings decode to "".
type Transaction struct {
	ID                    string        `json:"id"`
	Date                  string        `json:"date,omitempty"`
	Amount                int64         `json:"amount"`
	Memo                  string        `json:"memo,omitempty"`
	Cleared               string        `json:"cleared,omitempty"`
	Approved              bool          `json:"approved,omitempty"`
	FlagColor             string        `json:"flag_color,omitempty"`
	AccountID             string        `json:"account_id,omitempty"`
	AccountName           string        `json:"account_name,omitempty"`
	AccountNote           string        `json:"account_note,omitempty"`
	PayeeID               string        `json:"payee_id,omitempty"`
	PayeeName             string        `json:"payee_name,omitempty"`
	CategoryID            string        `json:"category_id,omitempty"`
	CategoryName          string        `json:"category_name,omitempty"`
	TransferAccountID     string        `json:"transfer_account_id,omitempty"`
	TransferTransactionID string        `json:"transfer_transaction_id,omitempty"`
	Deleted               bool          `json:"deleted,omitempty"`
	Subtransactions       []Transaction `json:"subtransactions,omitempty"`

	// Populated only by payee, category and account scoped (hybrid) feeds.
	Type                string `json:"type,omitempty"`
	ParentTransactionID string `json:"parent_transaction_id,omitempty"`

	amountMissing bool
}

// UnmarshalJSON records whether the amount key was present and non-null.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	type plain Transaction
	aux := struct {
		*plain
		Amount *int64 `json:"amount"`
	}{plain: (*plain)(t)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Amount == nil {
		t.Amount = 0
		t.amountMissing = true
	} else {
		t.Amount = *aux.Amount
		t.amountMissing = false
	}
	return nil
}

// IsSplit reports whether the transaction delegates its detail to subtransactions.
func (t Transaction) IsSplit() bool {
	return len(t.Subtransactions) > 0
}

// IsTransfer reports whether the transaction moves money between accounts.
func (t Transaction) IsTransfer() bool {
	return t.TransferTransactionID != "" || t.TransferAccountID != ""
}

// Validate returns an ErrMalformedRecord error when the transaction has no
// amount or no parseable date.
func (t Transaction) Validate() error {
	if err := t.ValidateAmount(); err != nil {
		return err
	}
	if _, err := ParseDate(t.Date); err != nil {
		return fmt.Errorf("%w: transaction %s has invalid date %q", ErrMalformedRecord, t.ID, t.Date)
	}
	return nil
}

// ValidateAmount checks the amount only. Nested subtransactions carry no date.
func (t Transaction) ValidateAmount() error {
	if t.amountMissing {
		return fmt.Errorf("%w: transaction %s has no amount", ErrMalformedRecord, t.ID)
	}
	return nil
}

// ParseDate parses a calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// ScheduledTransaction is a forecast transaction with its next occurrence.
type ScheduledTransaction struct {
	ID                string `json:"id"`
	DateFirst         string `json:"date_first,omitempty"`
	DateNext          string `json:"date_next"`
	Frequency         string `json:"frequency,omitempty"`
	Amount            int64  `json:"amount"`
	Memo              string `json:"memo,omitempty"`
	FlagColor         string `json:"flag_color,omitempty"`
	AccountID         string `json:"account_id,omitempty"`
	AccountName       string `json:"account_name,omitempty"`
	PayeeID           string `json:"payee_id,omitempty"`
	PayeeName         string `json:"payee_name,omitempty"`
	CategoryID        string `json:"category_id,omitempty"`
	CategoryName      string `json:"category_name,omitempty"`
	TransferAccountID string `json:"transfer_account_id,omitempty"`
	Deleted           bool   `json:"deleted,omitempty"`
}

// Skip records a transaction left out of aggregation and why.
type Skip struct {
	ID  string
	Err error
}
